package http

import (
	"errors"
	"net/http"

	"workorders/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error is the body of every failed response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(code string) int {
	switch code {
	case errs.CodeInvalidValue:
		return http.StatusBadRequest
	case errs.CodeInvalidTransition, errs.CodePreconditionFailed, errs.CodeVersionConflict:
		return http.StatusConflict
	case errs.CodePermissionDenied:
		return http.StatusForbidden
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to its code and HTTP status. Storage failures are reported without
// their cause.
func writeError(c echo.Context, err error) error {
	code := errs.Code(err)
	message := err.Error()
	if code == errs.CodeStorageFailure {
		message = "internal error"
	}
	return c.JSON(statusFor(code), Error{Code: code, Message: message})
}

// errorHandler renders errors that never reached a handler, such as unknown routes,
// in the same shape.
func errorHandler(c echo.Context, err error) error {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return writeError(c, err)
	}

	var code string
	switch he.Code {
	case http.StatusNotFound:
		code = errs.CodeNotFound
	case http.StatusUnauthorized:
		code = errs.CodeUnauthenticated
	case http.StatusForbidden:
		code = errs.CodePermissionDenied
	case http.StatusInternalServerError:
		code = errs.CodeStorageFailure
	default:
		code = errs.CodeInvalidValue
	}

	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok {
		message = m
	}
	return c.JSON(he.Code, Error{Code: code, Message: message})
}
