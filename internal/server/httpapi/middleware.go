package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/labstack/echo/v4"
)

const userIDKey = "userID"

// requireSession rejects requests without a live session token and stores the
// authenticated account id under userIDKey.
func (s *HTTPServer) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := sessionToken(c)
		if token == "" {
			return message(c, http.StatusUnauthorized, "Unauthorized")
		}

		userID, err := s.users.Authenticate(c.Request().Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
				return message(c, http.StatusUnauthorized, "Unauthorized")
			}
			return s.fail(c, err)
		}

		c.Set(userIDKey, userID)
		return next(c)
	}
}

// authenticatedUser returns the account id stored by requireSession.
func authenticatedUser(c echo.Context) (string, bool) {
	id, ok := c.Get(userIDKey).(string)
	return id, ok && id != ""
}
