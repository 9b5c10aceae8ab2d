package edgerunner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edge-analytics/edgerunner/backends"
	"github.com/edge-analytics/edgerunner/fizzbuzz"
)

func TestNewRunnerPaths(t *testing.T) {
	base := filepath.Join("opt", "edge")
	runner := NewRunner("AA:BB:CC:DD:EE:FF", base)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", runner.DeviceID())
	assert.Equal(t, "model_AA:BB:CC:DD:EE:FF.onnx", runner.ModelName())
	assert.Equal(t, filepath.Join(base, "models"), runner.ModelsDir())
	assert.Equal(t, filepath.Join(base, "models", "model_AA:BB:CC:DD:EE:FF.onnx"), runner.ModelPath())
}

func TestModelExists(t *testing.T) {
	runner := NewRunner("device-1", t.TempDir())

	assert.False(t, runner.ModelExists())

	// The file contents are not validated by the existence check.
	require.NoError(t, runner.SaveModel([]byte("not a model")))
	assert.True(t, runner.ModelExists())

	require.NoError(t, runner.DeleteModel())
	assert.False(t, runner.ModelExists())
}

func TestModelExistsMissingBase(t *testing.T) {
	runner := NewRunner("device-1", filepath.Join(t.TempDir(), "missing"))
	assert.False(t, runner.ModelExists())
}

func TestListModels(t *testing.T) {
	base := t.TempDir()

	names, err := NewRunner("device-1", base).ListModels()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, NewRunner("device-2", base).SaveModel([]byte("b")))
	require.NoError(t, NewRunner("device-1", base).SaveModel([]byte("a")))
	require.NoError(t, os.WriteFile(filepath.Join(base, "models", "README.txt"), []byte("ignored"), 0o644))

	names, err = NewRunner("device-1", base).ListModels()
	require.NoError(t, err)
	assert.Equal(t, []string{"model_device-1.onnx", "model_device-2.onnx"}, names)
}

func TestInitSessionMissingFile(t *testing.T) {
	runner := NewRunner("device-1", t.TempDir())

	session, err := runner.InitSession(runner.ModelPath())
	require.Error(t, err)
	assert.Nil(t, session)
}

func TestInitSessionCorruptModel(t *testing.T) {
	runner := NewRunner("device-1", t.TempDir())
	require.NoError(t, runner.SaveModel([]byte{0xde, 0xad, 0xbe, 0xef}))

	session, err := runner.InitSession(runner.ModelPath())
	require.Error(t, err)
	assert.Nil(t, session)
}

func TestInitSessionUnknownBackend(t *testing.T) {
	runner := NewRunner("device-1", t.TempDir(), WithBackend("TPU"))
	require.NoError(t, runner.SaveModel(fizzbuzz.BuildModel()))

	_, err := runner.InitSession(runner.ModelPath())
	require.ErrorContains(t, err, "not supported")
}

func TestRunInference(t *testing.T) {
	runner := NewRunner("device-1", t.TempDir())
	require.NoError(t, runner.SaveModel(fizzbuzz.BuildModel()))
	require.True(t, runner.ModelExists())

	session, err := runner.InitSession(runner.ModelPath())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, session.Destroy())
	}()

	scores, err := runner.RunInference(session, fizzbuzz.Encode(4))
	require.NoError(t, err)
	require.Len(t, scores, fizzbuzz.Classes)
	assert.Equal(t, []float32{1, 0, 0, -1}, scores)
	assert.Equal(t, 0, fizzbuzz.Decode(scores))
}

func TestGetStatistics(t *testing.T) {
	runner := NewRunner("device-1", t.TempDir())
	require.NoError(t, runner.SaveModel(fizzbuzz.BuildModel()))

	assert.Equal(t, uint64(0), runner.GetStatistics().ExecutionCount)

	session, err := runner.InitSession(runner.ModelPath())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, session.Destroy())
	}()

	for n := 1; n <= 3; n++ {
		_, err = runner.RunInference(session, fizzbuzz.Encode(n))
		require.NoError(t, err)
	}

	stats := runner.GetStatistics()
	assert.Equal(t, uint64(3), stats.ExecutionCount)
	assert.Positive(t, stats.TotalTime)
	assert.LessOrEqual(t, stats.AverageRunTime, stats.TotalTime)
}

func TestRunInferenceShapeMismatch(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, NewRunner("device-1", base).SaveModel(fizzbuzz.BuildModel()))

	runner := NewRunner("device-1", base, WithInputShape(backends.NewShape(1, 8)))
	session, err := runner.InitSession(runner.ModelPath())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, session.Destroy())
	}()

	_, err = runner.RunInference(session, fizzbuzz.Encode(4))
	var shapeErr *backends.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, backends.NewShape(1, 7), shapeErr.Actual)
	assert.Equal(t, backends.NewShape(1, 8), shapeErr.Expected)
}

func TestRunInferenceOutputShapeMismatch(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, NewRunner("device-1", base).SaveModel(fizzbuzz.BuildModel()))

	runner := NewRunner("device-1", base, WithOutputShape(backends.NewShape(1, 5)))
	session, err := runner.InitSession(runner.ModelPath())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, session.Destroy())
	}()

	_, err = runner.RunInference(session, fizzbuzz.Encode(4))
	var shapeErr *backends.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, backends.NewShape(1, 4), shapeErr.Actual)
	assert.Equal(t, backends.NewShape(1, 5), shapeErr.Expected)
}

func TestRunInferenceWildcardShape(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, NewRunner("device-1", base).SaveModel(fizzbuzz.BuildModel()))

	runner := NewRunner("device-1", base, WithInputShape(backends.NewShape(1, backends.DynamicDimension)))
	session, err := runner.InitSession(runner.ModelPath())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, session.Destroy())
	}()

	scores, err := runner.RunInference(session, fizzbuzz.Encode(15))
	require.NoError(t, err)
	assert.Equal(t, 3, fizzbuzz.Decode(scores))
}

func TestSessionDestroyed(t *testing.T) {
	runner := NewRunner("device-1", t.TempDir())
	require.NoError(t, runner.SaveModel(fizzbuzz.BuildModel()))

	session, err := runner.InitSession(runner.ModelPath())
	require.NoError(t, err)
	require.NoError(t, session.Destroy())

	assert.Nil(t, session.Inputs())
	assert.Nil(t, session.Outputs())
	_, err = session.Run(fizzbuzz.Encode(1))
	require.Error(t, err)

	// A second destroy is a no-op.
	require.NoError(t, session.Destroy())
}
