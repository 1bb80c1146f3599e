package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/labstack/echo/v4"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// classify maps a service error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, common.CodeValidation
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.CodeBadLogin
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, common.CodeTokenExpired
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenRevoked),
		errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, common.CodeTokenInvalid
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, common.CodeForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.CodeNotFound
	case errors.Is(err, common.ErrorAlreadyExists), errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict, common.CodeConflict
	}
	return http.StatusInternalServerError, common.CodeInternal
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return common.CodeValidation
	case http.StatusUnauthorized:
		return common.CodeTokenInvalid
	case http.StatusForbidden:
		return common.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return common.CodeNotFound
	case http.StatusConflict:
		return common.CodeConflict
	}
	return common.CodeInternal
}

// writeError renders err as an errorBody. Internal details never leave
// the server.
func writeError(c echo.Context, err error) error {
	status, code := classify(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status, code = he.Code, codeForStatus(he.Code)
		msg = fmt.Sprint(he.Message)
	}
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	return c.JSON(status, errorBody{Message: msg, Code: code})
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if werr := writeError(c, err); werr != nil {
		s.logger.Error(c.Request().Context(), "write error response", "error", werr)
	}
}
