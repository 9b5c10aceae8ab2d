// Package fizzbuzz provides the self-test model shipped with the runner: a
// small feed-forward network that classifies an integer, presented as a
// reversed binary vector, into one of the four fizz buzz classes. The weights
// are derived in closed form rather than trained, so the network is exact and
// the package can generate the model file on demand.
package fizzbuzz

// Bits is the width of the binary input vector. Seven bits cover the
// integers 0 through 127.
const Bits = 7

// Classes is the number of output classes.
const Classes = 4

// Threshold is the minimum score for a class to be considered active.
const Threshold float32 = 0.4

// Labels maps class indices to their names. Class 0 means the number itself
// should be printed.
var Labels = []string{"none", "fizz", "buzz", "fizzbuzz"}

// Classify returns the expected class for n: 3 when n is divisible by
// fifteen, 2 when divisible by five, 1 when divisible by three and 0
// otherwise.
func Classify(n int) int {
	switch {
	case n%15 == 0:
		return 3
	case n%5 == 0:
		return 2
	case n%3 == 0:
		return 1
	default:
		return 0
	}
}

// Encode converts n to the model input format, a vector of Bits values
// holding the binary representation of n with the least significant bit
// first.
func Encode(n int) []float32 {
	encoded := make([]float32, Bits)
	for i := range encoded {
		encoded[i] = float32((n >> i) & 1)
	}
	return encoded
}

// Decode returns the index of the first score above Threshold, or -1 when no
// score qualifies.
func Decode(scores []float32) int {
	for i, score := range scores {
		if score > Threshold {
			return i
		}
	}
	return -1
}
