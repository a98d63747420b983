package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-neushop/components/session"
)

var errMissingService = errors.New("commands: console service is required")

// LoginInput signs a workspace in.
type LoginInput struct {
	Workspace string `json:"-"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// RegisterInput creates an account and signs a workspace in.
type RegisterInput struct {
	Workspace string `json:"-"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LogoutInput signs a workspace out.
type LogoutInput struct {
	Workspace string `json:"-"`
}

// ShowFormInput switches between the login and register forms.
type ShowFormInput struct {
	Workspace string       `json:"-"`
	View      session.View `json:"view"`
}

type sessionService interface {
	Login(ctx context.Context, id, username, password string) error
	Register(ctx context.Context, id, username, email, password string) error
	Logout(ctx context.Context, id string) error
	ShowForm(id string, view session.View) error
}

// LoginCommand wraps Service.Login.
type LoginCommand struct {
	service   sessionService
	telemetry Telemetry
}

// NewLoginCommand creates a command instance.
func NewLoginCommand(service sessionService, telemetry Telemetry) *LoginCommand {
	return &LoginCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoginInput] = (*LoginCommand)(nil)

// Execute delegates to the console service.
func (c *LoginCommand) Execute(ctx context.Context, msg LoginInput) error {
	if c.service == nil {
		return errMissingService
	}
	err := c.service.Login(ctx, msg.Workspace, msg.Username, msg.Password)
	c.telemetry.Record(ctx, "console.command.login", outcome(err))
	return err
}

// RegisterCommand wraps Service.Register.
type RegisterCommand struct {
	service   sessionService
	telemetry Telemetry
}

// NewRegisterCommand creates a command instance.
func NewRegisterCommand(service sessionService, telemetry Telemetry) *RegisterCommand {
	return &RegisterCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RegisterInput] = (*RegisterCommand)(nil)

// Execute delegates to the console service.
func (c *RegisterCommand) Execute(ctx context.Context, msg RegisterInput) error {
	if c.service == nil {
		return errMissingService
	}
	err := c.service.Register(ctx, msg.Workspace, msg.Username, msg.Email, msg.Password)
	c.telemetry.Record(ctx, "console.command.register", outcome(err))
	return err
}

// LogoutCommand wraps Service.Logout.
type LogoutCommand struct {
	service   sessionService
	telemetry Telemetry
}

// NewLogoutCommand creates a command instance.
func NewLogoutCommand(service sessionService, telemetry Telemetry) *LogoutCommand {
	return &LogoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LogoutInput] = (*LogoutCommand)(nil)

// Execute delegates to the console service.
func (c *LogoutCommand) Execute(ctx context.Context, msg LogoutInput) error {
	if c.service == nil {
		return errMissingService
	}
	err := c.service.Logout(ctx, msg.Workspace)
	c.telemetry.Record(ctx, "console.command.logout", outcome(err))
	return err
}

// ShowFormCommand wraps Service.ShowForm.
type ShowFormCommand struct {
	service sessionService
}

// NewShowFormCommand creates a command instance.
func NewShowFormCommand(service sessionService) *ShowFormCommand {
	return &ShowFormCommand{service: service}
}

var _ gocommand.Commander[ShowFormInput] = (*ShowFormCommand)(nil)

// Execute delegates to the console service.
func (c *ShowFormCommand) Execute(_ context.Context, msg ShowFormInput) error {
	if c.service == nil {
		return errMissingService
	}
	return c.service.ShowForm(msg.Workspace, msg.View)
}

func outcome(err error) map[string]any {
	if err != nil {
		return map[string]any{"outcome": "error"}
	}
	return map[string]any{"outcome": "ok"}
}
