package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-neushop/components/console"
	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
)

// ViewInput addresses a workspace.
type ViewInput struct {
	Workspace string
}

// WidgetInput addresses one widget of a workspace.
type WidgetInput struct {
	Workspace string
	Code      string
}

type viewService interface {
	View(ctx context.Context, id string) (console.ConsoleView, error)
	PanelView(id, entity string) (panel.TableView, error)
	WidgetState(id, code string) (dashboard.WidgetState, error)
}

// ConsoleViewQuery snapshots a whole workspace.
type ConsoleViewQuery struct {
	service viewService
}

// NewConsoleViewQuery builds the query.
func NewConsoleViewQuery(service viewService) *ConsoleViewQuery {
	return &ConsoleViewQuery{service: service}
}

var _ gocommand.Querier[ViewInput, console.ConsoleView] = (*ConsoleViewQuery)(nil)

// Query resolves the view.
func (q *ConsoleViewQuery) Query(ctx context.Context, msg ViewInput) (console.ConsoleView, error) {
	if q.service == nil {
		return console.ConsoleView{}, errMissingService
	}
	return q.service.View(ctx, msg.Workspace)
}

// PanelViewQuery snapshots one panel.
type PanelViewQuery struct {
	service viewService
}

// NewPanelViewQuery builds the query.
func NewPanelViewQuery(service viewService) *PanelViewQuery {
	return &PanelViewQuery{service: service}
}

var _ gocommand.Querier[PanelInput, panel.TableView] = (*PanelViewQuery)(nil)

// Query resolves the panel view.
func (q *PanelViewQuery) Query(_ context.Context, msg PanelInput) (panel.TableView, error) {
	if q.service == nil {
		return panel.TableView{}, errMissingService
	}
	return q.service.PanelView(msg.Workspace, msg.Entity)
}

// WidgetStateQuery snapshots one widget.
type WidgetStateQuery struct {
	service viewService
}

// NewWidgetStateQuery builds the query.
func NewWidgetStateQuery(service viewService) *WidgetStateQuery {
	return &WidgetStateQuery{service: service}
}

var _ gocommand.Querier[WidgetInput, dashboard.WidgetState] = (*WidgetStateQuery)(nil)

// Query resolves the widget state.
func (q *WidgetStateQuery) Query(_ context.Context, msg WidgetInput) (dashboard.WidgetState, error) {
	if q.service == nil {
		return dashboard.WidgetState{}, errMissingService
	}
	return q.service.WidgetState(msg.Workspace, msg.Code)
}
