package backends

import (
	"fmt"

	"github.com/advancedclimatesystems/gonnx"

	"github.com/edge-analytics/edgerunner/options"
	"github.com/edge-analytics/edgerunner/util/fileutil"
)

// Model wraps one loaded inference artifact together with the tensor
// metadata and backend state needed to run it.
type Model struct {
	Path        string
	OnnxBytes   []byte
	GoModel     *gonnx.Model
	ORTModel    *ORTModel
	InputsMeta  []TensorSpec
	OutputsMeta []TensorSpec
	Backend     string
	Destroy     func() error
}

// LoadModel reads the artifact at path and initialises the backend selected
// by the options. Read and parse failures are returned as the underlying
// runtime reports them.
func LoadModel(path string, opts *options.Options) (*Model, error) {
	onnxBytes, err := fileutil.ReadFileBytes(path)
	if err != nil {
		return nil, err
	}

	model := &Model{
		Path:      path,
		OnnxBytes: onnxBytes,
		Backend:   opts.Backend,
	}
	if err := CreateModelBackend(model, opts); err != nil {
		return nil, err
	}

	model.Destroy = func() error {
		var destroyErr error
		switch model.Backend {
		case "ORT":
			if model.ORTModel != nil {
				destroyErr = model.ORTModel.Destroy()
				model.ORTModel = nil
			}
		default:
			model.GoModel = nil
		}
		model.OnnxBytes = nil
		return destroyErr
	}
	return model, nil
}

func CreateModelBackend(model *Model, opts *options.Options) error {
	var err error
	switch opts.Backend {
	case "GO", "":
		err = createGoModelBackend(model)
	case "ORT":
		err = createORTModelBackend(model, opts)
	default:
		err = fmt.Errorf("backend %q is not supported", opts.Backend)
	}
	return err
}

// RunModel executes one forward pass and returns the first output tensor's
// data as a flat float32 slice. Models with more than one input or output
// tensor are not supported.
func RunModel(model *Model, input []float32) ([]float32, error) {
	if len(model.InputsMeta) != 1 {
		return nil, fmt.Errorf("model declares %d input tensors, exactly one is supported", len(model.InputsMeta))
	}
	if len(model.OutputsMeta) != 1 {
		return nil, fmt.Errorf("model declares %d output tensors, exactly one is supported", len(model.OutputsMeta))
	}
	switch model.Backend {
	case "ORT":
		return runORTModel(model, input)
	default:
		return runGoModel(model, input)
	}
}

func inputElementCount(meta TensorSpec) (int, error) {
	count := 1
	for _, dim := range meta.Dimensions {
		if dim == DynamicDimension {
			return 0, fmt.Errorf("input %s has a dynamic dimension, cannot size the tensor", meta.Name)
		}
		count *= int(dim)
	}
	return count, nil
}
