//go:build !cgo || (!ORT && !ALL)

package edgerunner

import (
	"errors"

	"github.com/edge-analytics/edgerunner/options"
)

func NewORTSession(_ string, _ ...options.WithOption) (*Session, error) {
	return nil, errors.New("to enable ORT, run `go build -tags ORT` or `go build -tags ALL`")
}

func (s *Session) initialiseORT() error {
	return errors.New("ORT is not enabled")
}
