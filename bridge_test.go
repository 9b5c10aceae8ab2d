package edgerunner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edge-analytics/edgerunner/fizzbuzz"
)

func TestStart(t *testing.T) {
	base := t.TempDir()
	t.Setenv(EnvBaseDir, base)

	runner := Start("AA:BB:CC:DD:EE:FF")
	require.NotNil(t, runner)
	assert.Equal(t, filepath.Join(base, "models", "model_AA:BB:CC:DD:EE:FF.onnx"), runner.ModelPath())
	assert.False(t, runner.ModelExists())
}

func TestStartWithoutEnvironment(t *testing.T) {
	t.Setenv(EnvBaseDir, "")

	runner := Start("device-1")
	require.NotNil(t, runner)
	assert.Equal(t, filepath.Join("models", "model_device-1.onnx"), runner.ModelPath())
}

func TestEcho(t *testing.T) {
	assert.Equal(t, "hello", Echo("hello"))
	assert.Equal(t, 42, Echo(42))
	assert.Equal(t, 1.5, Echo(1.5))
	assert.Equal(t, []float32{0, 1, 0}, Echo([]float32{0, 1, 0}))
	assert.Equal(t, map[string]int{"a": 1}, Echo(map[string]int{"a": 1}))

	var nilSlice []int
	assert.Nil(t, Echo(nilSlice))
}

func TestSelfTestMissingModel(t *testing.T) {
	require.NoError(t, os.RemoveAll(filepath.Dir(SelfTestModelPath)))

	_, err := SelfTest(fizzbuzz.Encode(1))
	require.Error(t, err)
}

func TestSelfTestVector(t *testing.T) {
	require.NoError(t, fizzbuzz.WriteModel(SelfTestModelPath))
	t.Cleanup(func() {
		_ = os.RemoveAll(filepath.Dir(SelfTestModelPath))
	})

	// Decimal 4 in reversed binary form.
	scores, err := SelfTest([]float32{0, 0, 1, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Len(t, scores, fizzbuzz.Classes)
	assert.Equal(t, []float32{1, 0, 0, -1}, scores)
}

func TestSelfTestFirstHundred(t *testing.T) {
	require.NoError(t, fizzbuzz.WriteModel(SelfTestModelPath))
	t.Cleanup(func() {
		_ = os.RemoveAll(filepath.Dir(SelfTestModelPath))
	})

	for n := 1; n <= 100; n++ {
		scores, err := SelfTest(fizzbuzz.Encode(n))
		require.NoError(t, err)
		require.Len(t, scores, fizzbuzz.Classes)
		assert.Equal(t, fizzbuzz.Classify(n), fizzbuzz.Decode(scores), "number %d", n)
	}
}
