package edgerunner

import (
	"errors"
	"log/slog"
	"os"
)

// EnvBaseDir is the environment variable naming the base directory that
// holds the models folder.
const EnvBaseDir = "EDGERUNNER_BASE_DIR"

// SelfTestModelPath is the location of the bundled self-test model,
// relative to the process working directory.
const SelfTestModelPath = "models/fizzbuzz_model.onnx"

// Start builds the runner for deviceID with the base directory taken from
// the EDGERUNNER_BASE_DIR environment variable. It only composes paths, so
// a supervising process can call it at device startup before any model has
// been provisioned.
func Start(deviceID string) *Runner {
	runner := NewRunner(deviceID, os.Getenv(EnvBaseDir))
	slog.Debug("model runner created", "device", deviceID, "model", runner.ModelPath())
	return runner
}

// Echo returns value unchanged. It lets a calling process verify the
// argument round-trip over the bridge before involving any model.
func Echo[T any](value T) T {
	return value
}

// SelfTest runs the bundled fizz buzz model over input, a number in
// reversed binary form as produced by fizzbuzz.Encode, and returns the raw
// class scores. The model file must be present at SelfTestModelPath.
func SelfTest(input []float32) (scores []float32, err error) {
	runner := NewRunner("", "")
	session, sessionErr := runner.InitSession(SelfTestModelPath)
	if sessionErr != nil {
		return nil, sessionErr
	}
	defer func() {
		err = errors.Join(err, session.Destroy())
	}()
	return runner.RunInference(session, input)
}
