//go:build cgo && (ORT || ALL)

package backends

import (
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/edge-analytics/edgerunner/options"
)

type ORTModel struct {
	Session        *ort.DynamicAdvancedSession
	SessionOptions *ort.SessionOptions
	Options        *options.OrtOptions
	Destroy        func() error
}

func createORTModelBackend(model *Model, opts *options.Options) error {
	sessionOptions, initialised := opts.BackendOptions.(*ort.SessionOptions)
	if !initialised {
		return errors.New("the ORT environment has not been initialised")
	}

	inputs, outputs, err := loadInputOutputMetaORT(model.OnnxBytes)
	if err != nil {
		return err
	}

	inputNames := make([]string, len(inputs))
	outputNames := make([]string, len(outputs))
	for i, v := range inputs {
		inputNames[i] = v.Name
	}
	for i, v := range outputs {
		outputNames[i] = v.Name
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		model.OnnxBytes,
		inputNames,
		outputNames,
		sessionOptions,
	)
	if err != nil {
		return err
	}

	model.ORTModel = &ORTModel{
		Session:        session,
		SessionOptions: sessionOptions,
		Options:        opts.ORTOptions,
		Destroy: func() error {
			return session.Destroy()
		},
	}
	model.InputsMeta = inputs
	model.OutputsMeta = outputs
	return nil
}

func loadInputOutputMetaORT(onnxBytes []byte) ([]TensorSpec, []TensorSpec, error) {
	inputs, outputs, err := ort.GetInputOutputInfoWithONNXData(onnxBytes)
	if err != nil {
		return nil, nil, err
	}
	return convertORTInputOutputs(inputs), convertORTInputOutputs(outputs), nil
}

func convertORTInputOutputs(inputOutputs []ort.InputOutputInfo) []TensorSpec {
	specs := make([]TensorSpec, len(inputOutputs))
	for i, inputOutput := range inputOutputs {
		specs[i] = TensorSpec{
			Name:       inputOutput.Name,
			Index:      i,
			Dimensions: Shape(inputOutput.Dimensions),
		}
	}
	return specs
}

func runORTModel(model *Model, input []float32) ([]float32, error) {
	inputMeta := model.InputsMeta[0]
	count, err := inputElementCount(inputMeta)
	if err != nil {
		return nil, err
	}
	if len(input) != count {
		return nil, fmt.Errorf("input has %d values, model input %s takes %d", len(input), inputMeta.Name, count)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(inputMeta.Dimensions...), input)
	if err != nil {
		return nil, err
	}

	outputTensors := make([]ort.Value, len(model.OutputsMeta))
	if runErr := model.ORTModel.Session.Run([]ort.Value{inputTensor}, outputTensors); runErr != nil {
		return nil, errors.Join(runErr, inputTensor.Destroy(), destroyORTValues(outputTensors))
	}

	var result []float32
	if outputTensor, isFloat32 := outputTensors[0].(*ort.Tensor[float32]); isFloat32 {
		data := outputTensor.GetData()
		result = make([]float32, len(data))
		copy(result, data)
	}

	cleanupErr := errors.Join(inputTensor.Destroy(), destroyORTValues(outputTensors))
	if result == nil {
		return nil, errors.Join(fmt.Errorf("output %s is not a float32 tensor", model.OutputsMeta[0].Name), cleanupErr)
	}
	if cleanupErr != nil {
		return nil, cleanupErr
	}
	return result, nil
}

func destroyORTValues(values []ort.Value) error {
	var agg error
	for _, value := range values {
		if value != nil {
			agg = errors.Join(agg, value.Destroy())
		}
	}
	return agg
}
