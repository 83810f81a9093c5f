// Package httpapi exposes the account service over HTTP using echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/logging"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/config"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// UserService is the account logic the handlers depend on.
type UserService interface {
	Register(ctx context.Context, fields map[string]any) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Update(ctx context.Context, rollNo string, fields map[string]any) (*models.User, error)
	Delete(ctx context.Context, rollNo string) (*models.User, error)
	Get(ctx context.Context, rollNo string) (*models.User, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (string, error)
}

type HTTPServer struct {
	address         string
	echo            *echo.Echo
	users           UserService
	logger          logging.Logger
	tokenValidity   time.Duration
	cookieSecure    bool
	shutdownTimeout time.Duration
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us UserService) *HTTPServer {
	s := &HTTPServer{
		address:         cfg.EndpointAddrHTTP,
		users:           us,
		logger:          l.With("module", "http_server"),
		tokenValidity:   cfg.TokenValidityDuration,
		cookieSecure:    cfg.CookieSecure,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	// the limiter keys on the client address; forwarding headers are not trusted
	e.IPExtractor = echo.ExtractIPDirect()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())

	limited := s.rateLimiter(cfg.RateLimit, cfg.RateBurst)

	e.GET("/ping", s.Ping)

	api := e.Group("/api/users")
	api.POST("/signup", s.Signup, limited...)
	api.POST("/login", s.Login, limited...)
	api.GET("/logout", s.Logout)
	api.POST("/logout", s.Logout)

	api.GET("/:id", s.GetUser, s.requireSession)
	api.PUT("/:id", s.UpdateUser, s.requireSession)
	api.PATCH("/:id", s.UpdateUser, s.requireSession)
	api.DELETE("/:id", s.DeleteUser, s.requireSession)

	s.echo = e
	return s
}

// Handler exposes the router, mostly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	stopped := make(chan error, 1)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- s.echo.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}

// rateLimiter returns the per-client limiter for credential endpoints, or
// nothing when the limit is disabled.
func (s *HTTPServer) rateLimiter(limit float64, burst int) []echo.MiddlewareFunc {
	if limit <= 0 {
		return nil
	}

	deny := func(c echo.Context, identifier string, err error) error {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"message": "rate limit exceeded"})
	}

	return []echo.MiddlewareFunc{middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return deny(c, "", err)
		},
		DenyHandler: deny,
	})}
}

func (s *HTTPServer) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			if id, ok := authenticatedUser(c); ok {
				args = append(args, "user_id", id)
			}
			if v.Error != nil {
				args = append(args, "error", v.Error.Error())
			}
			s.logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}
