package edgerunner

import (
	"github.com/edge-analytics/edgerunner/options"
)

// NewGoSession loads the model at path on the pure Go inference backend.
// This backend needs no shared libraries and is always available.
func NewGoSession(path string, opts ...options.WithOption) (*Session, error) {
	return newSession("GO", path, opts...)
}
