package emitter

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Failure kinds of a call to an emitter endpoint. A *RequestError matches
// exactly one of them with errors.Is.
var (
	ErrTransport        = goerr.New("emitter unreachable")
	ErrUnauthorized     = goerr.New("emitter rejected the API key")
	ErrNotFound         = goerr.New("emitter endpoint not found")
	ErrUnexpectedStatus = goerr.New("unexpected emitter response status")
	ErrInvalidPayload   = goerr.New("invalid emitter payload")
)

// RequestError describes a failed call to one emitter endpoint. It unwraps
// to both its kind and its cause so that callers can inspect either.
type RequestError struct {
	Kind       error
	Endpoint   string
	StatusCode int
	Cause      error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s request returned HTTP %d", e.Endpoint, e.StatusCode)
	case e.Kind == ErrInvalidPayload && e.Cause != nil:
		return fmt.Sprintf("invalid %s payload: %s", e.Endpoint, e.Cause.Error())
	case e.Cause != nil:
		return fmt.Sprintf("%s request failed: %s", e.Endpoint, e.Cause.Error())
	default:
		return fmt.Sprintf("%s request failed", e.Endpoint)
	}
}

func (e *RequestError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func statusError(endpoint string, code int) *RequestError {
	kind := ErrUnexpectedStatus
	switch code {
	case 401, 403:
		kind = ErrUnauthorized
	case 404:
		kind = ErrNotFound
	}
	return &RequestError{Kind: kind, Endpoint: endpoint, StatusCode: code}
}
