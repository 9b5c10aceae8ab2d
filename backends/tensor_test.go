package backends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertShape(t *testing.T) {
	expected := NewShape(1, 7)

	assert.NoError(t, AssertShape(NewShape(1, 7), expected))

	rejected := []Shape{
		NewShape(1, 8),
		NewShape(7, 1),
		NewShape(1),
		NewShape(1, 7, 1),
	}
	for _, actual := range rejected {
		err := AssertShape(actual, expected)
		require.Error(t, err, "shape %s must be rejected", actual)
		var mismatch *ShapeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, actual, mismatch.Actual)
		assert.Equal(t, expected, mismatch.Expected)
	}
}

func TestAssertShapeWildcard(t *testing.T) {
	assert.NoError(t, AssertShape(NewShape(1, 7), NewShape(1, DynamicDimension)))
	assert.NoError(t, AssertShape(NewShape(1, 512), NewShape(1, DynamicDimension)))
	assert.Error(t, AssertShape(NewShape(2, 7), NewShape(1, DynamicDimension)))
	// the wildcard does not relax the dimension count
	assert.Error(t, AssertShape(NewShape(7), NewShape(1, DynamicDimension)))
}

func TestShapeValues(t *testing.T) {
	shape := NewShape(1, 7)
	assert.Equal(t, "[1 7]", shape.String())
	assert.Equal(t, []int{1, 7}, shape.ValuesInt())
}
