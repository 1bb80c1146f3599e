package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/quickcollab/internal/common"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrAuth           = errors.New("authentication failed")
	ErrSessionExpired = errors.New("session expired")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrServer         = errors.New("server error")
	ErrTransport      = errors.New("server unreachable")
)

// Cause tells why a credential was rejected.
type Cause string

const (
	// CauseExpired is recoverable once by renewing the credential.
	CauseExpired Cause = "expired"
	// CauseInvalid requires a fresh login.
	CauseInvalid Cause = "invalid"
)

type SessionExpiredError struct {
	Cause Cause
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired (%s)", e.Cause)
}

// Is matches ErrSessionExpired, and ErrAuth once the credential can no
// longer be renewed.
func (e *SessionExpiredError) Is(target error) bool {
	return target == ErrSessionExpired || (target == ErrAuth && e.Cause == CauseInvalid)
}

// ForcedLogout rewrites a credential failure that ended the local session
// as fatal: it matches ErrAuth and carries CauseInvalid.
func ForcedLogout(err error) error {
	fatal := &SessionExpiredError{Cause: CauseInvalid}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c := *apiErr
		c.Kind = fatal
		return &c
	}
	return fmt.Errorf("%w: %w", fatal, err)
}

// APIError is returned for every failed request.
type APIError struct {
	Status  int
	Code    string
	Message string
	Kind    error
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%v (%d): %s", e.Kind, e.Status, msg)
}

func (e *APIError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// errorBody is the JSON error payload written by the server.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// mapError classifies a non-2xx response. authed is false for register and
// login, where 401 means bad credentials rather than a dead session.
func mapError(status int, body errorBody, authed bool) *APIError {
	e := &APIError{Status: status, Code: body.Code, Message: body.Message}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = ErrValidation
	case status == http.StatusUnauthorized && !authed:
		e.Kind = ErrAuth
	case status == http.StatusUnauthorized && body.Code == common.CodeTokenExpired:
		e.Kind = &SessionExpiredError{Cause: CauseExpired}
	case status == http.StatusUnauthorized:
		e.Kind = &SessionExpiredError{Cause: CauseInvalid}
	case status == http.StatusForbidden:
		e.Kind = ErrForbidden
	case status == http.StatusNotFound:
		e.Kind = ErrNotFound
	case status == http.StatusConflict:
		e.Kind = ErrConflict
	case status >= 500:
		e.Kind = ErrServer
	default:
		e.Kind = ErrValidation
	}
	return e
}

func transportError(err error) *APIError {
	return &APIError{Kind: ErrTransport, Err: err}
}

// sessionExpired extracts the credential failure from err, if any.
func sessionExpired(err error) (*SessionExpiredError, bool) {
	var se *SessionExpiredError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
