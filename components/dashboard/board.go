package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-neushop/internal/sequence"
	"github.com/goliatone/go-neushop/pkg/neushop"
)

var (
	// ErrUnknownWidget is returned when a widget code has no definition.
	ErrUnknownWidget   = errors.New("dashboard: unknown widget")
	errMissingProvider = errors.New("dashboard: widget provider not registered")
)

// RefreshHook receives widget events after each completed run.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// RefreshHookFunc adapts a function into a RefreshHook.
type RefreshHookFunc func(ctx context.Context, event WidgetEvent) error

// WidgetUpdated calls f.
func (f RefreshHookFunc) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	return f(ctx, event)
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error { return nil }

// Options configures a Board. Nil collaborators get working defaults.
type Options struct {
	Providers       ProviderRegistry
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Logger          *slog.Logger
	Clock           func() time.Time
}

// Board holds the widgets of one workspace. Each widget keeps its own
// parameters, last good data, status and request sequence; the board lock is
// never held while a provider runs.
type Board struct {
	opts    Options
	reports neushop.ReportClient

	mu      sync.RWMutex
	order   []string
	widgets map[string]*widgetSlot
}

type widgetSlot struct {
	seq   sequence.Sequencer
	state WidgetState
}

// NewBoard builds a board whose providers query reports.
func NewBoard(reports neushop.ReportClient, opts Options) *Board {
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)

	b := &Board{
		opts:    opts,
		reports: reports,
		widgets: map[string]*widgetSlot{},
	}
	for _, def := range opts.Providers.Definitions() {
		b.order = append(b.order, def.Code)
		b.widgets[def.Code] = &widgetSlot{state: WidgetState{
			Definition: def,
			Params:     DefaultParams(def),
			Phase:      PhaseIdle,
		}}
	}
	return b
}

// State returns a snapshot of one widget.
func (b *Board) State(code string) (WidgetState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	slot, ok := b.widgets[code]
	if !ok {
		return WidgetState{}, fmt.Errorf("%w: %s", ErrUnknownWidget, code)
	}
	return cloneState(slot.state), nil
}

// States returns every widget in display order.
func (b *Board) States() []WidgetState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]WidgetState, 0, len(b.order))
	for _, code := range b.order {
		out = append(out, cloneState(b.widgets[code].state))
	}
	return out
}

// SetParams records user input for a widget without running it. Unknown
// parameter names are ignored.
func (b *Board) SetParams(code string, raw map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot, ok := b.widgets[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, code)
	}
	slot.state.Params = mergeParams(slot.state.Definition, slot.state.Params, raw)
	return nil
}

// Run executes a widget query. raw overrides the stored parameters; a nil map
// reuses them. On failure the previous data stays visible and the error is
// recorded as the widget status. A response superseded by a later Run is
// dropped without touching state.
func (b *Board) Run(ctx context.Context, code string, raw map[string]string) error {
	b.mu.Lock()
	slot, ok := b.widgets[code]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWidget, code)
	}
	def := slot.state.Definition
	slot.state.Params = mergeParams(def, slot.state.Params, raw)
	params := CoerceParams(def, slot.state.Params)
	ticket := slot.seq.Next()
	slot.state.Phase = PhaseLoading
	b.mu.Unlock()

	data, err := b.fetch(ctx, def, params)

	b.mu.Lock()
	if !slot.seq.Current(ticket) {
		b.mu.Unlock()
		b.opts.Logger.Debug("discarding stale widget response", "widget", code)
		return err
	}
	slot.state.Phase = PhaseIdle
	if err != nil {
		slot.state.Status = neushop.ErrorStatus(code, err, b.opts.Clock())
	} else {
		slot.state.Data = data
		slot.state.HasData = true
		slot.state.Status = neushop.OKStatus(code, def.Name+" updated", b.opts.Clock())
	}
	event := WidgetEvent{Code: code, Phase: slot.state.Phase, Status: slot.state.Status}
	b.mu.Unlock()

	outcome := "ok"
	if err != nil {
		outcome = string(neushop.KindOf(err))
		b.opts.Logger.Warn("widget query failed", "widget", code, "kind", outcome, "error", err)
	}
	b.opts.Telemetry.Record(ctx, "dashboard.widget.run", map[string]any{
		"widget":  code,
		"outcome": outcome,
	})
	if hookErr := b.opts.RefreshHook.WidgetUpdated(ctx, event); hookErr != nil {
		b.opts.Logger.Warn("widget refresh hook failed", "widget", code, "error", hookErr)
	}
	return err
}

func (b *Board) fetch(ctx context.Context, def WidgetDefinition, params map[string]any) (WidgetData, error) {
	if err := b.opts.ConfigValidator.Validate(def, params); err != nil {
		return nil, neushop.NewValidationError(def.Code, validationMessage(def, err))
	}
	provider, ok := b.opts.Providers.Provider(def.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errMissingProvider, def.Code)
	}
	return provider.Fetch(ctx, WidgetContext{
		Definition: def,
		Params:     params,
		Reports:    b.reports,
	})
}

func validationMessage(def WidgetDefinition, err error) string {
	names := ParamNames(def)
	if len(names) == 0 {
		return err.Error()
	}
	return fmt.Sprintf("invalid %s", strings.Join(names, ", "))
}

func mergeParams(def WidgetDefinition, current, raw map[string]string) map[string]string {
	out := DefaultParams(def)
	maps.Copy(out, current)
	if raw == nil {
		return out
	}
	for _, name := range ParamNames(def) {
		if v, ok := raw[name]; ok {
			out[name] = v
		}
	}
	return out
}

func cloneState(s WidgetState) WidgetState {
	s.Params = maps.Clone(s.Params)
	s.Data = maps.Clone(s.Data)
	return s
}
