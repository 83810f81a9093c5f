package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK"})
}

func (s *HTTPServer) Signup(c echo.Context) error {
	fields, err := decodeFields(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}

	user, err := s.users.Register(c.Request().Context(), fields)
	if err != nil {
		return s.fail(c, err)
	}

	s.logger.Info(c.Request().Context(), "Registered", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "user": user})
}

func (s *HTTPServer) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}

	res, err := s.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return message(c, http.StatusBadRequest, "Invalid credentials")
		}
		return s.fail(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     common.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		MaxAge:   int(s.tokenValidity.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged in successfully", "user": res.User, "token": res.Token})
}

func (s *HTTPServer) Logout(c echo.Context) error {
	_ = s.users.Logout(c.Request().Context(), sessionToken(c))

	c.SetCookie(&http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return c.String(http.StatusOK, "Logged Out")
}

func (s *HTTPServer) GetUser(c echo.Context) error {
	user, err := s.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) UpdateUser(c echo.Context) error {
	fields, err := decodeFields(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}

	user, err := s.users.Update(c.Request().Context(), c.Param("id"), fields)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) DeleteUser(c echo.Context) error {
	user, err := s.users.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// decodeFields reads a JSON object body. An empty body decodes to an empty
// map.
func decodeFields(c echo.Context) (map[string]any, error) {
	fields := map[string]any{}
	err := c.Echo().JSONSerializer.Deserialize(c, &fields)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// sessionToken returns the token from the session cookie, falling back to an
// Authorization bearer header.
func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(common.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	scheme, token, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	if ok && strings.EqualFold(scheme, common.AuthorizationScheme) {
		return strings.TrimSpace(token)
	}
	return ""
}

func message(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"message": msg})
}
