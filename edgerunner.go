// Package edgerunner loads onnx models by device convention and runs single
// forward passes over them, on a pure Go runtime by default or on
// onnxruntime when built with the ORT tag.
package edgerunner

import (
	"errors"

	"github.com/edge-analytics/edgerunner/backends"
	"github.com/edge-analytics/edgerunner/options"
)

// Session holds one loaded model together with the backend state behind it.
type Session struct {
	model              *backends.Model
	options            *options.Options
	environmentDestroy func() error
}

func newSession(backend, path string, opts ...options.WithOption) (*Session, error) {
	parsedOptions := options.Defaults()
	parsedOptions.Backend = backend
	// Collect options into a struct, so they can be applied in the correct order later
	for _, option := range opts {
		if err := option(parsedOptions); err != nil {
			return nil, err
		}
	}

	session := &Session{
		options: parsedOptions,
		environmentDestroy: func() error {
			return nil
		},
	}

	if backend == "ORT" {
		if err := session.initialiseORT(); err != nil {
			return nil, errors.Join(err, session.Destroy())
		}
	}

	model, err := backends.LoadModel(path, parsedOptions)
	if err != nil {
		return nil, errors.Join(err, session.Destroy())
	}
	session.model = model

	return session, nil
}

// Inputs returns the model's input tensor metadata.
func (s *Session) Inputs() []backends.TensorSpec {
	if s.model == nil {
		return nil
	}
	return s.model.InputsMeta
}

// Outputs returns the model's output tensor metadata.
func (s *Session) Outputs() []backends.TensorSpec {
	if s.model == nil {
		return nil
	}
	return s.model.OutputsMeta
}

// Run executes one forward pass over the session's model.
func (s *Session) Run(input []float32) ([]float32, error) {
	if s.model == nil {
		return nil, errors.New("session has been destroyed")
	}
	return backends.RunModel(s.model, input)
}

// Destroy deletes the session, the loaded model and any backend environment,
// freeing memory. A session should be destroyed when not needed any more,
// preferably with a defer() call.
func (s *Session) Destroy() error {
	var err error
	if s.model != nil {
		err = errors.Join(err, s.model.Destroy())
		s.model = nil
	}
	if s.options != nil {
		err = errors.Join(err, s.options.Destroy())
		s.options = nil
	}
	err = errors.Join(err, s.environmentDestroy())
	return err
}
