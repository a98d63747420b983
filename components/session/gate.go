// Package session implements the login/register/logout gate that guards a
// console workspace.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

const (
	// InvalidLoginText is shown after any failed login.
	InvalidLoginText = "Invalid login"
	// MissingFieldsText is shown when a registration field is blank.
	MissingFieldsText = "Please fill in all fields."
	// RegistrationFailedText is shown when the backend gives no reason.
	RegistrationFailedText = "Registration failed"
)

var errMissingClient = errors.New("session: auth client not configured")

// View is the screen the gate currently shows.
type View string

const (
	ViewLogin    View = "login"
	ViewRegister View = "register"
	ViewConsole  View = "console"
)

// State is a snapshot of the gate.
type State struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	View          View   `json:"view"`
	Error         string `json:"error,omitempty"`
}

// Gate tracks whether a workspace is signed in to the backend.
type Gate struct {
	client   neushop.AuthClient
	validate *validator.Validate
	logger   *slog.Logger

	mu    sync.RWMutex
	state State
}

// Option customizes a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for logout failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New builds a signed-out gate on the login view.
func New(client neushop.AuthClient, opts ...Option) *Gate {
	g := &Gate{
		client:   client,
		validate: validator.New(),
		logger:   slog.Default(),
		state:    State{View: ViewLogin},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Authenticated reports whether the console view is unlocked.
func (g *Gate) Authenticated() bool {
	return g.State().Authenticated
}

// Show switches between the login and register forms and clears any error.
// It has no effect once authenticated.
func (g *Gate) Show(view View) {
	if view != ViewLogin && view != ViewRegister {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Authenticated {
		return
	}
	g.state.View = view
	g.state.Error = ""
}

// Login signs in. A failure sets InvalidLoginText; an already authenticated
// gate stays signed in.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	if g.client == nil {
		return errMissingClient
	}
	err := g.client.Login(ctx, neushop.Credentials{Username: username, Password: password})

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		if !g.state.Authenticated {
			g.state.View = ViewLogin
		}
		g.state.Error = InvalidLoginText
		return err
	}
	g.state = State{Authenticated: true, Username: username, View: ViewConsole}
	return nil
}

// Register creates an account and signs in. Blank fields are rejected
// without contacting the backend.
func (g *Gate) Register(ctx context.Context, username, email, password string) error {
	if g.client == nil {
		return errMissingClient
	}
	reg := neushop.Registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := g.validate.Struct(reg); err != nil {
		g.fail(ViewRegister, MissingFieldsText)
		return neushop.NewValidationError("register", MissingFieldsText)
	}

	if err := g.client.Register(ctx, reg); err != nil {
		msg := neushop.RemoteMessage(err)
		if msg == "" {
			msg = RegistrationFailedText
		}
		g.fail(ViewRegister, msg)
		return err
	}

	g.mu.Lock()
	g.state = State{Authenticated: true, Username: reg.Username, View: ViewConsole}
	g.mu.Unlock()
	return nil
}

// Logout signs out. The gate always returns to the login view; a backend
// failure is logged and returned.
func (g *Gate) Logout(ctx context.Context) error {
	var err error
	if g.client != nil {
		err = g.client.Logout(ctx)
	}
	g.mu.Lock()
	user := g.state.Username
	g.state = State{View: ViewLogin}
	g.mu.Unlock()
	if err != nil {
		g.logger.Warn("backend logout failed", "user", user, "error", err)
	}
	return err
}

func (g *Gate) fail(view View, msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = State{View: view, Error: msg}
}
