package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/alumnikeeper/internal/client/client"
	"github.com/dmitrijs2005/alumnikeeper/internal/client/config"
)

type App struct {
	config  *config.Config
	api     *client.APIClient
	session *client.SessionStore
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		api:     client.NewAPIClient(c.ServerURL, c.RequestTimeout),
		session: client.NewSessionStore(c.SessionFile),
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

func (a *App) Register(ctx context.Context, email, rollNo string, fields map[string]any) error {
	var err error
	if email == "" {
		if email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}
	if rollNo == "" {
		if rollNo, err = getSimpleText(a.reader, "Roll number", a.out); err != nil {
			return err
		}
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	body := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		body[k] = v
	}
	body["email"] = email
	body["rollNo"] = rollNo
	body["password"] = string(password)

	user, err := a.api.Register(ctx, body)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "User registered successfully")
	return a.print(user)
}

func (a *App) Login(ctx context.Context, email string) error {
	var err error
	if email == "" {
		if email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	res, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	if err := a.session.Save(res.Token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", email)
	return nil
}

func (a *App) Get(ctx context.Context, rollNo string) error {
	token, err := a.session.Load()
	if err != nil {
		return err
	}
	user, err := a.api.Get(ctx, token, rollNo)
	if err != nil {
		return err
	}
	return a.print(user)
}

func (a *App) Update(ctx context.Context, rollNo string, fields map[string]any, changePassword bool) error {
	token, err := a.session.Load()
	if err != nil {
		return err
	}
	if changePassword {
		password, err := getPassword(a.out)
		if err != nil {
			return err
		}
		fields["password"] = string(password)
	}

	user, err := a.api.Update(ctx, token, rollNo, fields)
	if err != nil {
		return err
	}
	return a.print(user)
}

func (a *App) Delete(ctx context.Context, rollNo string) error {
	token, err := a.session.Load()
	if err != nil {
		return err
	}
	user, err := a.api.Delete(ctx, token, rollNo)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return a.print(user)
}

// Logout revokes the session on the server and forgets it locally. A session
// the server no longer accepts is still cleared.
func (a *App) Logout(ctx context.Context) error {
	token, err := a.session.Load()
	if errors.Is(err, client.ErrNotLoggedIn) {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	if err != nil {
		return err
	}

	if err := a.api.Logout(ctx, token); err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	if err := a.session.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged Out")
	return nil
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
