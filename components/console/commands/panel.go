package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-neushop/components/panel"
)

// PanelInput addresses one panel of a workspace.
type PanelInput struct {
	Workspace string `json:"-"`
	Entity    string `json:"entity"`
}

// RecordInput addresses one row of a panel. Draft carries form values.
type RecordInput struct {
	Workspace string            `json:"-"`
	Entity    string            `json:"entity"`
	ID        string            `json:"id,omitempty"`
	Draft     map[string]string `json:"draft,omitempty"`
}

// DeleteInput deletes a row. Confirm answers the delete prompt; nil declines.
type DeleteInput struct {
	Workspace string          `json:"-"`
	Entity    string          `json:"entity"`
	ID        string          `json:"id"`
	Confirm   panel.Confirmer `json:"-"`

	// Deleted is set by the command when the delete was attempted.
	Deleted *bool `json:"-"`
}

type panelService interface {
	LoadPanel(ctx context.Context, id, entity string) error
	CreateRecord(ctx context.Context, id, entity string, draft map[string]string) error
	StartEdit(ctx context.Context, id, entity, recordID string) error
	CancelEdit(ctx context.Context, id, entity string) error
	SaveEdit(ctx context.Context, id, entity, recordID string, draft map[string]string) error
	DeleteRecord(ctx context.Context, id, entity, recordID string, confirm panel.Confirmer) (bool, error)
}

var errMissingRecordID = errors.New("commands: record id is required")

// LoadPanelCommand reloads a panel list.
type LoadPanelCommand struct {
	service   panelService
	telemetry Telemetry
}

// NewLoadPanelCommand creates a command instance.
func NewLoadPanelCommand(service panelService, telemetry Telemetry) *LoadPanelCommand {
	return &LoadPanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PanelInput] = (*LoadPanelCommand)(nil)

// Execute delegates to the console service.
func (c *LoadPanelCommand) Execute(ctx context.Context, msg PanelInput) error {
	if c.service == nil {
		return errMissingService
	}
	err := c.service.LoadPanel(ctx, msg.Workspace, msg.Entity)
	c.telemetry.Record(ctx, "console.command.panel.load", withEntity(outcome(err), msg.Entity))
	return err
}

// CreateRecordCommand submits a create form.
type CreateRecordCommand struct {
	service   panelService
	telemetry Telemetry
}

// NewCreateRecordCommand creates a command instance.
func NewCreateRecordCommand(service panelService, telemetry Telemetry) *CreateRecordCommand {
	return &CreateRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RecordInput] = (*CreateRecordCommand)(nil)

// Execute delegates to the console service.
func (c *CreateRecordCommand) Execute(ctx context.Context, msg RecordInput) error {
	if c.service == nil {
		return errMissingService
	}
	err := c.service.CreateRecord(ctx, msg.Workspace, msg.Entity, msg.Draft)
	c.telemetry.Record(ctx, "console.command.panel.create", withEntity(outcome(err), msg.Entity))
	return err
}

// StartEditCommand puts a row into edit mode.
type StartEditCommand struct {
	service panelService
}

// NewStartEditCommand creates a command instance.
func NewStartEditCommand(service panelService) *StartEditCommand {
	return &StartEditCommand{service: service}
}

var _ gocommand.Commander[RecordInput] = (*StartEditCommand)(nil)

// Execute delegates to the console service.
func (c *StartEditCommand) Execute(ctx context.Context, msg RecordInput) error {
	if c.service == nil {
		return errMissingService
	}
	if msg.ID == "" {
		return errMissingRecordID
	}
	return c.service.StartEdit(ctx, msg.Workspace, msg.Entity, msg.ID)
}

// CancelEditCommand leaves edit mode.
type CancelEditCommand struct {
	service panelService
}

// NewCancelEditCommand creates a command instance.
func NewCancelEditCommand(service panelService) *CancelEditCommand {
	return &CancelEditCommand{service: service}
}

var _ gocommand.Commander[PanelInput] = (*CancelEditCommand)(nil)

// Execute delegates to the console service.
func (c *CancelEditCommand) Execute(ctx context.Context, msg PanelInput) error {
	if c.service == nil {
		return errMissingService
	}
	return c.service.CancelEdit(ctx, msg.Workspace, msg.Entity)
}

// SaveEditCommand submits an edit form.
type SaveEditCommand struct {
	service   panelService
	telemetry Telemetry
}

// NewSaveEditCommand creates a command instance.
func NewSaveEditCommand(service panelService, telemetry Telemetry) *SaveEditCommand {
	return &SaveEditCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RecordInput] = (*SaveEditCommand)(nil)

// Execute delegates to the console service.
func (c *SaveEditCommand) Execute(ctx context.Context, msg RecordInput) error {
	if c.service == nil {
		return errMissingService
	}
	if msg.ID == "" {
		return errMissingRecordID
	}
	err := c.service.SaveEdit(ctx, msg.Workspace, msg.Entity, msg.ID, msg.Draft)
	c.telemetry.Record(ctx, "console.command.panel.update", withEntity(outcome(err), msg.Entity))
	return err
}

// DeleteRecordCommand deletes a row after confirmation.
type DeleteRecordCommand struct {
	service   panelService
	telemetry Telemetry
}

// NewDeleteRecordCommand creates a command instance.
func NewDeleteRecordCommand(service panelService, telemetry Telemetry) *DeleteRecordCommand {
	return &DeleteRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteInput] = (*DeleteRecordCommand)(nil)

// Execute delegates to the console service.
func (c *DeleteRecordCommand) Execute(ctx context.Context, msg DeleteInput) error {
	if c.service == nil {
		return errMissingService
	}
	if msg.ID == "" {
		return errMissingRecordID
	}
	deleted, err := c.service.DeleteRecord(ctx, msg.Workspace, msg.Entity, msg.ID, msg.Confirm)
	if msg.Deleted != nil {
		*msg.Deleted = deleted
	}
	payload := withEntity(outcome(err), msg.Entity)
	payload["confirmed"] = deleted
	c.telemetry.Record(ctx, "console.command.panel.delete", payload)
	return err
}

func withEntity(payload map[string]any, entity string) map[string]any {
	payload["entity"] = entity
	return payload
}
