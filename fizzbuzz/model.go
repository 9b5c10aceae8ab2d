package fizzbuzz

import (
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/edge-analytics/edgerunner/util/fileutil"
)

const hiddenUnits = 24

// Onnx field numbers, from the onnx.proto schema.
const (
	fieldModelIrVersion    = 1
	fieldModelProducer     = 2
	fieldModelGraph        = 7
	fieldModelOpsetImport  = 8
	fieldOpsetVersion      = 2
	fieldGraphNode         = 1
	fieldGraphName         = 2
	fieldGraphInitializer  = 5
	fieldGraphInput        = 11
	fieldGraphOutput       = 12
	fieldNodeInput         = 1
	fieldNodeOutput        = 2
	fieldNodeName          = 3
	fieldNodeOpType        = 4
	fieldTensorDims        = 1
	fieldTensorDataType    = 2
	fieldTensorFloatData   = 4
	fieldTensorName        = 8
	fieldValueInfoName     = 1
	fieldValueInfoType     = 2
	fieldTypeTensorType    = 1
	fieldTensorTypeElem    = 1
	fieldTensorTypeShape   = 2
	fieldShapeDim          = 1
	fieldDimValue          = 1
	tensorDataTypeFloat    = 1
	modelIrVersion         = 7
	modelOpsetVersion      = 13
)

// buildWeights derives the network weights. Each hidden unit is one leg of a
// relu triangle filter: for integer s, relu(s-a+1) - 2*relu(s-a) +
// relu(s-a-1) equals 1 exactly when s == a and 0 at every other integer.
// The first layer computes the bit sums weighted by 2^i mod 3 and 2^i mod 5,
// the triangle filters centred on the multiples of 3 and 5 turn those sums
// into divisibility indicators, and the output layer combines the indicators
// into one score per class.
func buildWeights() (w1, b1, w2, b2 []float32) {
	bitMod3 := [Bits]int{1, 2, 1, 2, 1, 2, 1} // 2^i mod 3
	bitMod5 := [Bits]int{1, 2, 4, 3, 1, 2, 4} // 2^i mod 5
	peaks3 := []int{0, 3, 6, 9}               // multiples of 3 up to the max weighted sum 10
	peaks5 := []int{0, 5, 10, 15}             // multiples of 5 up to the max weighted sum 17

	var (
		columns  [][Bits]int
		biases   []int
		outCoefs [][Classes]int
	)
	addFilters := func(column [Bits]int, peaks []int, coef [Classes]int) {
		for _, peak := range peaks {
			for _, offset := range []int{-1, 0, 1} {
				sign := 1
				if offset == 0 {
					sign = -2
				}
				var scaled [Classes]int
				for class, c := range coef {
					scaled[class] = sign * c
				}
				columns = append(columns, column)
				biases = append(biases, -(peak + offset))
				outCoefs = append(outCoefs, scaled)
			}
		}
	}
	// Score per class: none = 1 - div3 - div5, fizz = div3 - div5,
	// buzz = div5 - div3, fizzbuzz = div3 + div5 - 1.
	addFilters(bitMod3, peaks3, [Classes]int{-1, 1, -1, 1})
	addFilters(bitMod5, peaks5, [Classes]int{-1, -1, 1, 1})

	w1 = make([]float32, Bits*hiddenUnits)
	b1 = make([]float32, hiddenUnits)
	w2 = make([]float32, hiddenUnits*Classes)
	for unit := 0; unit < hiddenUnits; unit++ {
		for bit := 0; bit < Bits; bit++ {
			w1[bit*hiddenUnits+unit] = float32(columns[unit][bit])
		}
		b1[unit] = float32(biases[unit])
		for class := 0; class < Classes; class++ {
			w2[unit*Classes+class] = float32(outCoefs[unit][class])
		}
	}
	b2 = []float32{1, 0, 0, -1}
	return w1, b1, w2, b2
}

func appendSubMessage(buf []byte, num protowire.Number, sub []byte) []byte {
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendBytes(buf, sub)
}

func appendString(buf []byte, num protowire.Number, value string) []byte {
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendString(buf, value)
}

func appendVarint(buf []byte, num protowire.Number, value uint64) []byte {
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, value)
}

// tensorValueInfo serializes a ValueInfoProto for a float tensor.
func tensorValueInfo(name string, dims []int64) []byte {
	var shape []byte
	for _, d := range dims {
		var dim []byte
		dim = appendVarint(dim, fieldDimValue, uint64(d))
		shape = appendSubMessage(shape, fieldShapeDim, dim)
	}
	var tensorType []byte
	tensorType = appendVarint(tensorType, fieldTensorTypeElem, tensorDataTypeFloat)
	tensorType = appendSubMessage(tensorType, fieldTensorTypeShape, shape)
	var typeProto []byte
	typeProto = appendSubMessage(typeProto, fieldTypeTensorType, tensorType)
	var info []byte
	info = appendString(info, fieldValueInfoName, name)
	return appendSubMessage(info, fieldValueInfoType, typeProto)
}

// floatInitializer serializes a TensorProto holding float32 values.
func floatInitializer(name string, dims []int64, values []float32) []byte {
	var packedDims []byte
	for _, d := range dims {
		packedDims = protowire.AppendVarint(packedDims, uint64(d))
	}
	var packedValues []byte
	for _, v := range values {
		packedValues = protowire.AppendFixed32(packedValues, math.Float32bits(v))
	}
	var tensor []byte
	tensor = appendSubMessage(tensor, fieldTensorDims, packedDims)
	tensor = appendVarint(tensor, fieldTensorDataType, tensorDataTypeFloat)
	tensor = appendSubMessage(tensor, fieldTensorFloatData, packedValues)
	return appendString(tensor, fieldTensorName, name)
}

// node serializes a NodeProto.
func node(opType, name string, inputs, outputs []string) []byte {
	var n []byte
	for _, in := range inputs {
		n = appendString(n, fieldNodeInput, in)
	}
	for _, out := range outputs {
		n = appendString(n, fieldNodeOutput, out)
	}
	n = appendString(n, fieldNodeName, name)
	return appendString(n, fieldNodeOpType, opType)
}

// BuildModel serializes the network as an onnx model. The graph takes one
// [1, Bits] float input named "input" and produces one [1, Classes] float
// output named "scores" through two dense layers with a relu in between.
// The serialization is deterministic.
func BuildModel() []byte {
	w1, b1, w2, b2 := buildWeights()

	var graph []byte
	graph = appendSubMessage(graph, fieldGraphNode, node("MatMul", "hidden_matmul", []string{"input", "w1"}, []string{"hidden"}))
	graph = appendSubMessage(graph, fieldGraphNode, node("Add", "hidden_add", []string{"hidden", "b1"}, []string{"hidden_biased"}))
	graph = appendSubMessage(graph, fieldGraphNode, node("Relu", "hidden_relu", []string{"hidden_biased"}, []string{"activated"}))
	graph = appendSubMessage(graph, fieldGraphNode, node("MatMul", "scores_matmul", []string{"activated", "w2"}, []string{"scores_linear"}))
	graph = appendSubMessage(graph, fieldGraphNode, node("Add", "scores_add", []string{"scores_linear", "b2"}, []string{"scores"}))
	graph = appendString(graph, fieldGraphName, "fizzbuzz")
	graph = appendSubMessage(graph, fieldGraphInitializer, floatInitializer("w1", []int64{Bits, hiddenUnits}, w1))
	graph = appendSubMessage(graph, fieldGraphInitializer, floatInitializer("b1", []int64{1, hiddenUnits}, b1))
	graph = appendSubMessage(graph, fieldGraphInitializer, floatInitializer("w2", []int64{hiddenUnits, Classes}, w2))
	graph = appendSubMessage(graph, fieldGraphInitializer, floatInitializer("b2", []int64{1, Classes}, b2))
	graph = appendSubMessage(graph, fieldGraphInput, tensorValueInfo("input", []int64{1, Bits}))
	graph = appendSubMessage(graph, fieldGraphOutput, tensorValueInfo("scores", []int64{1, Classes}))

	var opset []byte
	opset = appendVarint(opset, fieldOpsetVersion, modelOpsetVersion)

	var model []byte
	model = appendVarint(model, fieldModelIrVersion, modelIrVersion)
	model = appendString(model, fieldModelProducer, "edgerunner")
	model = appendSubMessage(model, fieldModelGraph, graph)
	return appendSubMessage(model, fieldModelOpsetImport, opset)
}

// WriteModel serializes the network and writes the model file to path,
// replacing any existing file.
func WriteModel(path string) error {
	writer, err := fileutil.NewFileWriter(path)
	if err != nil {
		return err
	}
	_, writeErr := writer.Write(BuildModel())
	return errors.Join(writeErr, writer.Close())
}
