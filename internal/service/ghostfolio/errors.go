package ghostfolio

import (
	"errors"
	"fmt"
	"net/http"

	pkghttp "FolioPull/pkg/http"
)

// RemoteFetchError is returned for every failed call against the server.
// StatusCode is 0 when no HTTP response was received.
type RemoteFetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("ghostfolio %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ghostfolio %s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// Unauthorized reports whether the server rejected the credentials.
func (e *RemoteFetchError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var rfe *RemoteFetchError
	if errors.As(err, &rfe) {
		return rfe.StatusCode
	}
	var se *pkghttp.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func wrap(op string, status int, err error) error {
	if err == nil {
		return nil
	}
	var rfe *RemoteFetchError
	if errors.As(err, &rfe) {
		return err
	}
	if status == 0 {
		var se *pkghttp.StatusError
		if errors.As(err, &se) {
			status = se.Code
		}
	}
	return &RemoteFetchError{Op: op, StatusCode: status, Err: err}
}
