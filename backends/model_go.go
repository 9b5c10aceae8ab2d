package backends

import (
	"fmt"

	"github.com/advancedclimatesystems/gonnx"
	"gorgonia.org/tensor"
)

func createGoModelBackend(model *Model) error {
	goModel, err := gonnx.NewModelFromBytes(model.OnnxBytes)
	if err != nil {
		return err
	}
	model.GoModel = goModel
	model.InputsMeta, model.OutputsMeta = loadInputOutputMetaGo(goModel)
	return nil
}

func loadInputOutputMetaGo(goModel *gonnx.Model) ([]TensorSpec, []TensorSpec) {
	var inputs, outputs []TensorSpec

	inputShapes := goModel.InputShapes()
	for i, name := range goModel.InputNames() {
		shape := inputShapes[name]
		dimensions := make(Shape, len(shape))
		for j, axis := range shape {
			dimensions[j] = axis.Size
		}
		inputs = append(inputs, TensorSpec{
			Name:       name,
			Index:      i,
			Dimensions: dimensions,
		})
	}
	outputShapes := goModel.OutputShapes()
	for i, name := range goModel.OutputNames() {
		shape := outputShapes[name]
		dimensions := make(Shape, len(shape))
		for j, axis := range shape {
			dimensions[j] = axis.Size
		}
		outputs = append(outputs, TensorSpec{
			Name:       name,
			Index:      i,
			Dimensions: dimensions,
		})
	}
	return inputs, outputs
}

func runGoModel(model *Model, input []float32) ([]float32, error) {
	inputMeta := model.InputsMeta[0]
	count, err := inputElementCount(inputMeta)
	if err != nil {
		return nil, err
	}
	if len(input) != count {
		return nil, fmt.Errorf("input has %d values, model input %s takes %d", len(input), inputMeta.Name, count)
	}

	inputTensor := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(inputMeta.Dimensions.ValuesInt()...),
		tensor.WithBacking(input),
	)
	outputs, err := model.GoModel.Run(map[string]tensor.Tensor{inputMeta.Name: inputTensor})
	if err != nil {
		return nil, err
	}

	outputMeta := model.OutputsMeta[0]
	outputTensor, found := outputs[outputMeta.Name]
	if !found {
		return nil, fmt.Errorf("model did not return output %s", outputMeta.Name)
	}
	data, isFloat32 := outputTensor.Data().([]float32)
	if !isFloat32 {
		return nil, fmt.Errorf("output %s is not a float32 tensor", outputMeta.Name)
	}
	return data, nil
}
