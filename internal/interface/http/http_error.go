package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromDomainError maps application error codes to HTTP statuses. Upstream
// failures become 502/504 with a generic message.
func fromDomainError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	switch code {
	case "invalid_input":
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case "not_found":
		return NewHTTPError(http.StatusNotFound, code, errMessage(err), err)
	case "invalid_token":
		return NewHTTPError(http.StatusUnauthorized, code, errMessage(err), err)
	case "timeout":
		return NewHTTPError(http.StatusGatewayTimeout, code, "upstream feed timed out", err)
	case "auth_error", "network_error", "upstream_status", "parse_error", "circuit_open", "upstream_error":
		return NewHTTPError(http.StatusBadGateway, code, "upstream feed unavailable", err)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
