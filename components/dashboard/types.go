package dashboard

import (
	"github.com/goliatone/go-neushop/pkg/neushop"
)

// ProviderRegistry stores query widget definitions and their providers.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// WidgetDefinition describes one canned dashboard query and its parameters.
// Schema is a JSON schema for the parameter object; property defaults seed the
// inputs shown to the user.
type WidgetDefinition struct {
	Code        string         `json:"code" yaml:"code"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string         `json:"action" yaml:"action"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
	Order       int            `json:"order" yaml:"order"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Phase is the lifecycle position of a widget.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
)

// WidgetState is a snapshot of one widget on a board.
type WidgetState struct {
	Definition WidgetDefinition  `json:"definition"`
	Params     map[string]string `json:"params"`
	Phase      Phase             `json:"phase"`
	Data       WidgetData        `json:"data,omitempty"`
	HasData    bool              `json:"has_data"`
	Status     neushop.Status    `json:"status"`
}

// WidgetEvent is published when a widget finishes a run.
type WidgetEvent struct {
	Code   string         `json:"code"`
	Phase  Phase          `json:"phase"`
	Status neushop.Status `json:"status"`
}
