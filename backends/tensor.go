package backends

import (
	"fmt"

	"github.com/edge-analytics/edgerunner/util/safeconv"
)

// DynamicDimension marks a tensor dimension whose size is unconstrained.
// ONNX Runtime reports dynamic axes with this value, and expected shapes
// use it as the wildcard during validation.
const DynamicDimension int64 = -1

// TensorSpec describes one declared input or output slot of a loaded model:
// its graph name, its ordinal position, and its dimensions.
type TensorSpec struct {
	Name       string
	Index      int
	Dimensions Shape
}

type Shape []int64

func (s Shape) String() string {
	return fmt.Sprintf("%v", []int64(s))
}

func (s Shape) ValuesInt() []int {
	return safeconv.Int64SliceToIntSlice(s)
}

func NewShape(dimensions ...int64) Shape {
	return dimensions
}

// ShapeMismatchError reports a tensor whose declared shape disagrees with
// the shape the caller requires. It carries both shapes.
type ShapeMismatchError struct {
	Actual   Shape
	Expected Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("tensor shape mismatch: got %s, want %s", e.Actual, e.Expected)
}

// AssertShape checks actual against expected position by position. The
// dimension counts must be equal, and every concrete expected dimension must
// match exactly. Expected dimensions set to DynamicDimension are skipped.
// No reshaping or broadcasting takes place.
func AssertShape(actual, expected Shape) error {
	if len(actual) != len(expected) {
		return &ShapeMismatchError{Actual: actual, Expected: expected}
	}
	for i, want := range expected {
		if want == DynamicDimension {
			continue
		}
		if actual[i] != want {
			return &ShapeMismatchError{Actual: actual, Expected: expected}
		}
	}
	return nil
}
