package provider

import (
	"errors"
	"fmt"
)

// ErrInvalidMaxAttempts is returned when a retry helper is invoked with a
// non-positive attempt budget.
var ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

// UpstreamError reports a failed or malformed response from the external
// song catalogue. The upstream status code is preserved so the transport
// layer can pass it through to the caller.
type UpstreamError struct {
	StatusCode int // 0 when the request never reached the upstream
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream catalogue error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream catalogue unreachable: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
