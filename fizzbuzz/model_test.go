package fizzbuzz

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forward evaluates the network directly from the derived weights, bypassing
// the onnx serialization.
func forward(input []float32) []float32 {
	w1, b1, w2, b2 := buildWeights()
	hidden := make([]float32, hiddenUnits)
	for unit := 0; unit < hiddenUnits; unit++ {
		sum := b1[unit]
		for bit := 0; bit < Bits; bit++ {
			sum += input[bit] * w1[bit*hiddenUnits+unit]
		}
		if sum > 0 {
			hidden[unit] = sum
		}
	}
	scores := make([]float32, Classes)
	for class := 0; class < Classes; class++ {
		sum := b2[class]
		for unit := 0; unit < hiddenUnits; unit++ {
			sum += hidden[unit] * w2[unit*Classes+class]
		}
		scores[class] = sum
	}
	return scores
}

func TestWeightsClassifyAllInputs(t *testing.T) {
	for n := 0; n < 1<<Bits; n++ {
		assert.Equal(t, Classify(n), Decode(forward(Encode(n))), "number %d", n)
	}
}

func TestWeightsScoreValues(t *testing.T) {
	// The weights are integers, so the scores are exact.
	assert.Equal(t, []float32{1, 0, 0, -1}, forward(Encode(1)))
	assert.Equal(t, []float32{0, 1, -1, 0}, forward(Encode(3)))
	assert.Equal(t, []float32{0, -1, 1, 0}, forward(Encode(5)))
	assert.Equal(t, []float32{-1, 0, 0, 1}, forward(Encode(15)))
}

func TestBuildModelDeterministic(t *testing.T) {
	first := BuildModel()
	assert.NotEmpty(t, first)
	assert.True(t, bytes.Equal(first, BuildModel()))
}

func TestWriteModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "fizzbuzz_model.onnx")
	require.NoError(t, WriteModel(path))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(BuildModel(), written))

	// Writing again replaces the existing file.
	require.NoError(t, WriteModel(path))
}
