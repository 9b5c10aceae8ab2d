//go:build cgo && (ORT || ALL)

package edgerunner

import (
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/edge-analytics/edgerunner/options"
	"github.com/edge-analytics/edgerunner/util/fileutil"
)

// NewORTSession loads the model at path on the onnxruntime backend. The
// runtime environment is global, so only one ORT session can be active at a
// time.
func NewORTSession(path string, opts ...options.WithOption) (*Session, error) {
	if ort.IsInitialized() {
		return nil, errors.New("another session is currently active, and only one session can be active at one time")
	}
	return newSession("ORT", path, opts...)
}

func (s *Session) initialiseORT() error {
	o := s.options.ORTOptions

	// Set pre-initialisation options
	if o.LibraryPath != nil {
		ortPathExists, err := fileutil.FileExists(*o.LibraryPath)
		if err != nil {
			return err
		}
		if !ortPathExists {
			return fmt.Errorf("cannot find the ort library at: %s", *o.LibraryPath)
		}
		ort.SetSharedLibraryPath(*o.LibraryPath)
	}

	// Start OnnxRuntime
	if err := ort.InitializeEnvironment(); err != nil {
		return err
	}
	s.environmentDestroy = func() error {
		return ort.DestroyEnvironment()
	}

	if o.Telemetry != nil {
		if err := ort.EnableTelemetry(); err != nil {
			return err
		}
	} else {
		if err := ort.DisableTelemetry(); err != nil {
			return err
		}
	}

	// Create session options for the model load
	sessionOptions, optionsError := ort.NewSessionOptions()
	if optionsError != nil {
		return optionsError
	}
	s.options.BackendOptions = sessionOptions
	s.options.Destroy = func() error {
		return sessionOptions.Destroy()
	}

	if o.IntraOpNumThreads != nil {
		if err := sessionOptions.SetIntraOpNumThreads(*o.IntraOpNumThreads); err != nil {
			return err
		}
	}
	if o.InterOpNumThreads != nil {
		if err := sessionOptions.SetInterOpNumThreads(*o.InterOpNumThreads); err != nil {
			return err
		}
	}
	if o.CPUMemArena != nil {
		if err := sessionOptions.SetCpuMemArena(*o.CPUMemArena); err != nil {
			return err
		}
	}
	if o.MemPattern != nil {
		if err := sessionOptions.SetMemPattern(*o.MemPattern); err != nil {
			return err
		}
	}
	if o.CudaOptions != nil {
		cudaOptions, optErr := ort.NewCUDAProviderOptions()
		if optErr != nil {
			return optErr
		}
		if len(o.CudaOptions) > 0 {
			if optErr = cudaOptions.Update(o.CudaOptions); optErr != nil {
				return optErr
			}
		}
		if err := sessionOptions.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			return err
		}
	}

	return nil
}
