package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/dmitrijs2005/alumnikeeper/internal/netx"
)

// User is an account as the API renders it: fixed fields plus profile keys.
type User map[string]any

type LoginResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type signupResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// APIClient calls the account endpoints of one server.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) Ping(ctx context.Context) error {
	var out map[string]any
	return c.do(ctx, http.MethodGet, "/ping", nil, &out, "")
}

func (c *APIClient) Register(ctx context.Context, fields map[string]any) (User, error) {
	var out signupResponse
	if err := c.do(ctx, http.MethodPost, "/api/users/signup", fields, &out, ""); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Get(ctx context.Context, token, rollNo string) (User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, userPath(rollNo), nil, &out, token); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) Update(ctx context.Context, token, rollNo string, fields map[string]any) (User, error) {
	var out User
	if err := c.do(ctx, http.MethodPatch, userPath(rollNo), fields, &out, token); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) Delete(ctx context.Context, token, rollNo string) (User, error) {
	var out User
	if err := c.do(ctx, http.MethodDelete, userPath(rollNo), nil, &out, token); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) Logout(ctx context.Context, token string) error {
	var out string
	return c.do(ctx, http.MethodPost, "/api/users/logout", nil, &out, token)
}

func userPath(rollNo string) string {
	return "/api/users/" + url.PathEscape(rollNo)
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any, token string) error {
	var cookies []*http.Cookie
	if token != "" {
		cookies = append(cookies, &http.Cookie{Name: common.SessionCookieName, Value: token})
	}

	_, err := netx.DoJSON(ctx, c.http, method, c.baseURL+path, in, out, cookies...)
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrUnauthorized, se.Message)
		}
		return se
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
