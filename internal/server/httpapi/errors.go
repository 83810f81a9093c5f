package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/labstack/echo/v4"
)

// fail writes the response for a service error.
func (s *HTTPServer) fail(c echo.Context, err error) error {
	var ve *common.ValidationError

	switch {
	case errors.Is(err, common.ErrEmailExists):
		return message(c, http.StatusBadRequest, "Email already exists")
	case errors.Is(err, common.ErrRollNoExists):
		return message(c, http.StatusBadRequest, "Roll number already exists")
	case errors.Is(err, common.ErrorAlreadyExists):
		return message(c, http.StatusBadRequest, "User already exists")
	case errors.As(err, &ve):
		return message(c, http.StatusBadRequest, ve.Error())
	case errors.Is(err, common.ErrorNotFound):
		return message(c, http.StatusNotFound, "user doesn't exist")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return message(c, http.StatusUnauthorized, "Unauthorized")
	}

	s.logger.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
	return message(c, http.StatusInternalServerError, "Server error")
}

// errorHandler renders errors that escape the handlers (unknown routes,
// wrong methods, recovered panics) in the same {message} shape.
func (s *HTTPServer) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	} else {
		s.logger.Error(c.Request().Context(), "unhandled error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = message(c, code, msg)
}
