package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	opts := Defaults()
	require.NotNil(t, opts.ORTOptions)
	require.NotNil(t, opts.ORTOptions.LibraryPath)
	assert.NotEmpty(t, *opts.ORTOptions.LibraryPath)
	assert.NoError(t, opts.Destroy())
}

func TestORTOptionsApply(t *testing.T) {
	opts := Defaults()
	opts.Backend = "ORT"

	require.NoError(t, WithOnnxLibraryPath("/opt/ort/libonnxruntime.so")(opts))
	require.NoError(t, WithIntraOpNumThreads(2)(opts))
	require.NoError(t, WithInterOpNumThreads(1)(opts))
	require.NoError(t, WithCPUMemArena(false)(opts))
	require.NoError(t, WithMemPattern(false)(opts))
	require.NoError(t, WithTelemetry()(opts))
	require.NoError(t, WithCuda(map[string]string{"device_id": "0"})(opts))

	assert.Equal(t, "/opt/ort/libonnxruntime.so", *opts.ORTOptions.LibraryPath)
	assert.Equal(t, 2, *opts.ORTOptions.IntraOpNumThreads)
	assert.Equal(t, 1, *opts.ORTOptions.InterOpNumThreads)
	assert.False(t, *opts.ORTOptions.CPUMemArena)
	assert.False(t, *opts.ORTOptions.MemPattern)
	assert.True(t, *opts.ORTOptions.Telemetry)
	assert.Equal(t, "0", opts.ORTOptions.CudaOptions["device_id"])
}

func TestORTOptionsRejectedForGoBackend(t *testing.T) {
	opts := Defaults()
	opts.Backend = "GO"

	assert.Error(t, WithOnnxLibraryPath("/opt/ort/libonnxruntime.so")(opts))
	assert.Error(t, WithIntraOpNumThreads(2)(opts))
	assert.Error(t, WithTelemetry()(opts))
	assert.Error(t, WithCuda(nil)(opts))
}
