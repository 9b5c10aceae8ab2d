package edgerunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/edge-analytics/edgerunner/backends"
	"github.com/edge-analytics/edgerunner/options"
	"github.com/edge-analytics/edgerunner/util/fileutil"
)

const (
	modelFilePrefix    = "model_"
	modelFileExtension = ".onnx"
)

// Runner resolves the model file for one device and runs forward passes
// over it. Construction only composes paths, no I/O happens until a session
// is initialised. A runner holds no open resources and can be discarded
// freely.
type Runner struct {
	deviceID    string
	modelName   string
	baseDir     string
	modelsDir   string
	backend     string
	inputShape  backends.Shape
	outputShape backends.Shape
	sessionOpts []options.WithOption
	runTimings  *backends.Timings
}

// RunnerOption configures a runner at construction time.
type RunnerOption func(r *Runner)

// WithBackend selects the inference backend, "GO" or "ORT". Default is "GO".
func WithBackend(backend string) RunnerOption {
	return func(r *Runner) {
		r.backend = backend
	}
}

// WithInputShape overrides the expected input tensor shape.
func WithInputShape(shape backends.Shape) RunnerOption {
	return func(r *Runner) {
		r.inputShape = shape
	}
}

// WithOutputShape overrides the expected output tensor shape.
func WithOutputShape(shape backends.Shape) RunnerOption {
	return func(r *Runner) {
		r.outputShape = shape
	}
}

// WithSessionOptions forwards backend options to every session the runner
// initialises.
func WithSessionOptions(opts ...options.WithOption) RunnerOption {
	return func(r *Runner) {
		r.sessionOpts = opts
	}
}

// NewRunner builds a runner for one device. The model file name follows the
// fixed convention model_<deviceID>.onnx under the models directory below
// baseDir. The expected tensor shapes default to the [1, 7] input and
// [1, 4] output of the self-test model and can be overridden per runner.
func NewRunner(deviceID, baseDir string, opts ...RunnerOption) *Runner {
	runner := &Runner{
		deviceID:    deviceID,
		modelName:   modelFilePrefix + deviceID + modelFileExtension,
		baseDir:     baseDir,
		modelsDir:   fileutil.PathJoinSafe(baseDir, "models"),
		backend:     "GO",
		inputShape:  backends.NewShape(1, 7),
		outputShape: backends.NewShape(1, 4),
		runTimings:  &backends.Timings{},
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// DeviceID returns the device identifier the runner was built for.
func (r *Runner) DeviceID() string {
	return r.deviceID
}

// ModelName returns the computed model file name.
func (r *Runner) ModelName() string {
	return r.modelName
}

// ModelsDir returns the directory holding the device model files.
func (r *Runner) ModelsDir() string {
	return r.modelsDir
}

// ModelPath returns the full path of the device's model file.
func (r *Runner) ModelPath() string {
	return fileutil.PathJoinSafe(r.modelsDir, r.modelName)
}

// ModelExists reports whether the device's model file is present. Lookup
// failures count as absence, the check never fails.
func (r *Runner) ModelExists() bool {
	exists, err := fileutil.FileExists(r.ModelPath())
	return err == nil && exists
}

// InitSession loads the model at path on the runner's backend and allocates
// the runtime resources needed to execute it. Load failures are returned as
// the runtime reports them.
func (r *Runner) InitSession(path string) (*Session, error) {
	switch r.backend {
	case "ORT":
		return NewORTSession(path, r.sessionOpts...)
	case "GO", "":
		return NewGoSession(path, r.sessionOpts...)
	default:
		return nil, fmt.Errorf("backend %q is not supported", r.backend)
	}
}

// RunInference checks the session's declared tensor shapes against the
// runner's expectations, then executes one forward pass over input and
// returns the output row. The shape checks run before any tensor is bound.
// Sessions declaring more than one input or output tensor are not
// supported.
func (r *Runner) RunInference(session *Session, input []float32) ([]float32, error) {
	inputs := session.Inputs()
	outputs := session.Outputs()
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("model declares %d input and %d output tensors, exactly one of each is supported", len(inputs), len(outputs))
	}
	if err := backends.AssertShape(inputs[0].Dimensions, r.inputShape); err != nil {
		return nil, err
	}
	if err := backends.AssertShape(outputs[0].Dimensions, r.outputShape); err != nil {
		return nil, err
	}

	start := time.Now()
	scores, err := session.Run(input)
	if err != nil {
		return nil, err
	}
	r.runTimings.Record(time.Since(start))
	return scores, nil
}

// GetStatistics returns the accumulated forward pass statistics for this
// runner.
func (r *Runner) GetStatistics() backends.Statistics {
	stats := backends.Statistics{}
	stats.ComputeRunStatistics(r.runTimings)
	return stats
}

// SaveModel writes modelBytes to the device's model path, creating the
// models directory when needed and replacing any previous artifact.
func (r *Runner) SaveModel(modelBytes []byte) error {
	writer, err := fileutil.NewFileWriter(r.ModelPath())
	if err != nil {
		return err
	}
	_, writeErr := writer.Write(modelBytes)
	return errors.Join(writeErr, writer.Close())
}

// DeleteModel removes the device's model file.
func (r *Runner) DeleteModel() error {
	return fileutil.DeleteFile(r.ModelPath())
}

// ListModels returns the sorted names of the model files present in the
// runner's models directory. A missing directory yields an empty list.
func (r *Runner) ListModels() ([]string, error) {
	exists, err := fileutil.FileExists(r.modelsDir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var names []string
	walker := fileutil.WalkDir()
	err = walker(context.Background(), r.modelsDir, func(_ context.Context, _ string, _ string, info os.FileInfo, _ io.Reader) (bool, error) {
		name := info.Name()
		if !info.IsDir() && strings.HasPrefix(name, modelFilePrefix) && strings.HasSuffix(name, modelFileExtension) {
			names = append(names, name)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}
