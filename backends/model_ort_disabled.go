//go:build !cgo || (!ORT && !ALL)

package backends

import (
	"errors"

	"github.com/edge-analytics/edgerunner/options"
)

type ORTModel struct {
	Destroy func() error
}

func createORTModelBackend(_ *Model, _ *options.Options) error {
	return errors.New("ORT is not enabled")
}

func runORTModel(_ *Model, _ []float32) ([]float32, error) {
	return nil, errors.New("ORT is not enabled")
}
