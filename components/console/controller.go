package console

import (
	"context"
	"errors"
	"io"
	"strings"
)

var errMissingRenderer = errors.New("console: renderer not configured")

// Template names rendered by the controller.
const (
	TemplateLogin   = "login"
	TemplateConsole = "console"
	TemplateConfirm = "confirm"
)

// ControllerOptions wires the controller.
type ControllerOptions struct {
	Service  *Service
	Renderer Renderer
	BasePath string
}

// Controller turns workspace snapshots into HTML pages.
type Controller struct {
	service  *Service
	renderer Renderer
	basePath string
}

// NewController builds a controller. BasePath defaults to /console.
func NewController(opts ControllerOptions) *Controller {
	base := strings.TrimRight(opts.BasePath, "/")
	if base == "" {
		base = "/console"
	}
	return &Controller{service: opts.Service, renderer: opts.Renderer, basePath: base}
}

// Service returns the wrapped service.
func (c *Controller) Service() *Service {
	return c.service
}

// BasePath returns the mount point of the console pages.
func (c *Controller) BasePath() string {
	return c.basePath
}

// RenderPage writes the login page for signed-out workspaces and the console
// otherwise.
func (c *Controller) RenderPage(ctx context.Context, id string, out io.Writer) error {
	if c.renderer == nil {
		return errMissingRenderer
	}
	view, err := c.service.View(ctx, id)
	if err != nil {
		return err
	}
	if !view.Session.Authenticated {
		_, err = c.renderer.Render(TemplateLogin, c.pageData(view), out)
		return err
	}
	_, err = c.renderer.Render(TemplateConsole, c.pageData(view), out)
	return err
}

// RenderConfirm writes the delete confirmation page of a row.
func (c *Controller) RenderConfirm(ctx context.Context, id, entity, recordID string, out io.Writer) error {
	if c.renderer == nil {
		return errMissingRenderer
	}
	if _, _, err := c.service.panel(id, entity); err != nil {
		return err
	}
	prompt, err := c.service.ConfirmPrompt(entity, recordID)
	if err != nil {
		return err
	}
	_, err = c.renderer.Render(TemplateConfirm, map[string]any{
		"base_path": c.basePath,
		"entity":    entity,
		"record_id": recordID,
		"prompt":    prompt,
	}, out)
	return err
}

func (c *Controller) pageData(view ConsoleView) map[string]any {
	return map[string]any{
		"base_path": c.basePath,
		"channel":   view.Channel,
		"session":   view.Session,
		"entities":  view.Entities,
		"panels":    view.Panels,
		"widgets":   view.Widgets,
	}
}
