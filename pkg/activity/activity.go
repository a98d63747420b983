// Package activity carries audit events for console mutations and session
// changes to pluggable hooks.
package activity

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "console"

// Event is one auditable action.
type Event struct {
	Verb           string         `json:"verb"`
	ActorID        string         `json:"actor_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	TenantID       string         `json:"tenant_id,omitempty"`
	ObjectType     string         `json:"object_type"`
	ObjectID       string         `json:"object_id,omitempty"`
	Channel        string         `json:"channel,omitempty"`
	DefinitionCode string         `json:"definition_code,omitempty"`
	Recipients     []string       `json:"recipients,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls f.
func (f HookFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Hooks fans an event out to every hook. Events without a verb are dropped.
type Hooks []Hook

// Notify normalizes the event and calls each hook, joining their errors.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	event = NormalizeEvent(event)
	if event.Verb == "" {
		return nil
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers and copies the mutable fields so hooks
// cannot affect the caller's event.
func NormalizeEvent(event Event) Event {
	event.Verb = strings.TrimSpace(event.Verb)
	event.ActorID = strings.TrimSpace(event.ActorID)
	event.UserID = strings.TrimSpace(event.UserID)
	event.TenantID = strings.TrimSpace(event.TenantID)
	event.ObjectType = strings.TrimSpace(event.ObjectType)
	event.ObjectID = strings.TrimSpace(event.ObjectID)
	event.Channel = strings.TrimSpace(event.Channel)
	event.DefinitionCode = strings.TrimSpace(event.DefinitionCode)
	event.Metadata = maps.Clone(event.Metadata)
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	event.Recipients = slices.Clone(event.Recipients)
	return event
}

// Config toggles emission.
type Config struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Channel string `yaml:"channel" json:"channel"`
}

// Emitter stamps defaults on events before handing them to hooks.
type Emitter struct {
	hooks  Hooks
	config Config
	now    func() time.Time
}

// NewEmitter builds an emitter. It is disabled when no hooks are given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{hooks: hooks, config: cfg, now: time.Now}
}

// Enabled reports whether Emit will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.config.Enabled && len(e.hooks) > 0
}

// Emit sends the event when enabled, filling channel and timestamp.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.config.Channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now().UTC()
	}
	return e.hooks.Notify(ctx, event)
}
