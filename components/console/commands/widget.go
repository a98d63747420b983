package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-neushop/components/console"
)

// RunWidgetInput runs a dashboard query with raw form values.
type RunWidgetInput struct {
	Workspace string            `json:"-"`
	Code      string            `json:"code"`
	Params    map[string]string `json:"params,omitempty"`
}

// PreferencesInput stores layout choices.
type PreferencesInput struct {
	Workspace   string              `json:"-"`
	Preferences console.Preferences `json:"preferences"`
}

type widgetService interface {
	RunWidget(ctx context.Context, id, code string, params map[string]string) error
	SavePreferences(ctx context.Context, id string, prefs console.Preferences) error
}

// RunWidgetCommand wraps Service.RunWidget.
type RunWidgetCommand struct {
	service   widgetService
	telemetry Telemetry
}

// NewRunWidgetCommand creates a command instance.
func NewRunWidgetCommand(service widgetService, telemetry Telemetry) *RunWidgetCommand {
	return &RunWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RunWidgetInput] = (*RunWidgetCommand)(nil)

// Execute delegates to the console service.
func (c *RunWidgetCommand) Execute(ctx context.Context, msg RunWidgetInput) error {
	if c.service == nil {
		return errMissingService
	}
	err := c.service.RunWidget(ctx, msg.Workspace, msg.Code, msg.Params)
	payload := outcome(err)
	payload["widget"] = msg.Code
	c.telemetry.Record(ctx, "console.command.widget.run", payload)
	return err
}

// SavePreferencesCommand persists layout choices.
type SavePreferencesCommand struct {
	service widgetService
}

// NewSavePreferencesCommand creates a command instance.
func NewSavePreferencesCommand(service widgetService) *SavePreferencesCommand {
	return &SavePreferencesCommand{service: service}
}

var _ gocommand.Commander[PreferencesInput] = (*SavePreferencesCommand)(nil)

// Execute delegates to the console service.
func (c *SavePreferencesCommand) Execute(ctx context.Context, msg PreferencesInput) error {
	if c.service == nil {
		return errMissingService
	}
	return c.service.SavePreferences(ctx, msg.Workspace, msg.Preferences)
}
