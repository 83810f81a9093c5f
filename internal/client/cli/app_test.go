package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/client/client"
	"github.com/dmitrijs2005/alumnikeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves just enough of the account API for the CLI.
type fakeAPI struct {
	mu      sync.Mutex
	last    map[string]any
	method  string
	path    string
	revoked bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.method, f.path, f.last = r.Method, r.URL.Path, nil
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		_ = json.Unmarshal(b, &f.last)
	}
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/users/signup":
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "User registered successfully",
			"user":    map[string]any{"email": f.last["email"], "rollNo": f.last["rollNo"]},
		})
		return
	case "/api/users/login":
		if f.last["password"] != "pw" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Logged in successfully","user":{},"token":"tok-1"}`))
		return
	}

	c, err := r.Cookie("jwt")
	if err != nil || c.Value != "tok-1" || f.revoked {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
		return
	}

	if r.URL.Path == "/api/users/logout" {
		f.revoked = true
		_, _ = w.Write([]byte("Logged Out"))
		return
	}
	_, _ = w.Write([]byte(`{"rollNo":"R1","email":"a@x.com"}`))
}

func newTestApp(t *testing.T, in string) (*App, *fakeAPI, *bytes.Buffer) {
	t.Helper()
	api := &fakeAPI{}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		ServerURL:      ts.URL,
		SessionFile:    filepath.Join(t.TempDir(), "session"),
		RequestTimeout: time.Second,
	}
	out := &bytes.Buffer{}
	return NewApp(cfg, strings.NewReader(in), out), api, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestApp_RegisterPromptsForMissingValues(t *testing.T) {
	stubPassword(t, "pw")
	app, api, out := newTestApp(t, "a@x.com\nR1\n")

	err := app.Register(context.Background(), "", "", map[string]any{"name": "Ann"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"email": "a@x.com", "rollNo": "R1", "password": "pw", "name": "Ann"}, api.last)
	assert.Contains(t, out.String(), "User registered successfully")
}

func TestApp_LoginStoresSession(t *testing.T) {
	stubPassword(t, "pw")
	app, _, out := newTestApp(t, "")
	ctx := context.Background()

	_, err := app.session.Load()
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)

	require.NoError(t, app.Login(ctx, "a@x.com"))
	assert.Contains(t, out.String(), "Logged in as a@x.com")

	token, err := app.session.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestApp_LoginRejected(t *testing.T) {
	stubPassword(t, "wrong")
	app, _, _ := newTestApp(t, "")

	err := app.Login(context.Background(), "a@x.com")
	assert.ErrorContains(t, err, "Invalid credentials")

	_, err = app.session.Load()
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestApp_SessionCommands(t *testing.T) {
	stubPassword(t, "pw")
	app, api, out := newTestApp(t, "")
	ctx := context.Background()

	assert.ErrorIs(t, app.Get(ctx, "R1"), client.ErrNotLoggedIn)

	require.NoError(t, app.Login(ctx, "a@x.com"))

	out.Reset()
	require.NoError(t, app.Get(ctx, "R1"))
	assert.Equal(t, "/api/users/R1", api.path)
	assert.Contains(t, out.String(), `"rollNo": "R1"`)

	require.NoError(t, app.Update(ctx, "R1", map[string]any{"city": "Riga"}, true))
	assert.Equal(t, http.MethodPatch, api.method)
	assert.Equal(t, map[string]any{"city": "Riga", "password": "pw"}, api.last)

	require.NoError(t, app.Delete(ctx, "R1"))
	assert.Equal(t, http.MethodDelete, api.method)
}

func TestApp_Logout(t *testing.T) {
	stubPassword(t, "pw")
	app, api, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, app.Logout(ctx))
	assert.Contains(t, out.String(), "Not logged in")

	require.NoError(t, app.Login(ctx, "a@x.com"))
	require.NoError(t, app.Logout(ctx))
	assert.True(t, api.revoked)
	assert.Contains(t, out.String(), "Logged Out")

	_, err := app.session.Load()
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestApp_LogoutClearsRejectedSession(t *testing.T) {
	app, _, _ := newTestApp(t, "")
	require.NoError(t, app.session.Save("stale"))

	require.NoError(t, app.Logout(context.Background()))

	_, err := app.session.Load()
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}
