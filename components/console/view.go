package console

import (
	"context"

	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/components/session"
)

// EntityLink is one entry of the panel navigation.
type EntityLink struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Hidden bool   `json:"hidden"`
}

// WidgetView pairs a widget state with its ordered parameter inputs.
type WidgetView struct {
	dashboard.WidgetState
	Inputs []WidgetInput `json:"inputs"`
}

// WidgetInput is one parameter field of a widget form.
type WidgetInput struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Value   string   `json:"value"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

// ConsoleView is everything a transport needs to draw a workspace.
type ConsoleView struct {
	Channel     string            `json:"channel"`
	Session     session.State     `json:"session"`
	Entities    []EntityLink      `json:"entities"`
	Panels      []panel.TableView `json:"panels"`
	Widgets     []WidgetView      `json:"widgets"`
	Preferences Preferences       `json:"preferences"`
}

// View snapshots a workspace. Signed-out workspaces carry only the session.
func (s *Service) View(ctx context.Context, id string) (ConsoleView, error) {
	ws, err := s.Workspace(id)
	if err != nil {
		return ConsoleView{}, err
	}
	view := ConsoleView{
		Channel: ws.Channel(),
		Session: ws.Gate.State(),
	}
	if !view.Session.Authenticated {
		return view, nil
	}
	prefs, err := s.opts.PreferenceStore.Preferences(ctx, view.Session.Username)
	if err != nil {
		return ConsoleView{}, err
	}
	view.Preferences = prefs

	all := ws.Panels.All()
	tables := make([]panel.TableView, 0, len(all))
	for _, p := range all {
		cfg := p.Config()
		view.Entities = append(view.Entities, EntityLink{Code: cfg.Code, Label: cfg.Label, Hidden: prefs.HiddenPanels[cfg.Code]})
		tables = append(tables, p.View())
	}
	view.Panels = applyPreferences(tables, prefs)

	for _, state := range ws.Board.States() {
		view.Widgets = append(view.Widgets, WidgetView{WidgetState: state, Inputs: widgetInputs(state)})
	}
	return view, nil
}

// PanelView snapshots one panel.
func (s *Service) PanelView(id, entity string) (panel.TableView, error) {
	_, p, err := s.panel(id, entity)
	if err != nil {
		return panel.TableView{}, err
	}
	return p.View(), nil
}

// WidgetState snapshots one widget.
func (s *Service) WidgetState(id, code string) (dashboard.WidgetState, error) {
	ws, err := s.authorized(id)
	if err != nil {
		return dashboard.WidgetState{}, err
	}
	return ws.Board.State(code)
}

func widgetInputs(state dashboard.WidgetState) []WidgetInput {
	props, _ := state.Definition.Schema["properties"].(map[string]any)
	names := dashboard.ParamNames(state.Definition)
	inputs := make([]WidgetInput, 0, len(names))
	for _, name := range names {
		prop, _ := props[name].(map[string]any)
		input := WidgetInput{Name: name, Label: name, Value: state.Params[name], Type: "number"}
		if title, ok := prop["title"].(string); ok {
			input.Label = title
		}
		if enum, ok := prop["enum"].([]string); ok {
			input.Type = "select"
			input.Options = enum
		} else if prop["type"] == "string" {
			input.Type = "text"
		}
		inputs = append(inputs, input)
	}
	return inputs
}
