package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/components/session"
	"github.com/goliatone/go-neushop/pkg/activity"
	"github.com/goliatone/go-neushop/pkg/activity/usersink"
	"github.com/goliatone/go-neushop/pkg/neushop"
)

var (
	// ErrUnauthenticated is returned for panel and widget operations before
	// the workspace has signed in.
	ErrUnauthenticated = errors.New("console: sign in required")
	errMissingFactory  = errors.New("console: client factory not configured")
)

// ClientFactory builds the backend client of a new workspace. Each call must
// return an independent client so workspaces do not share backend cookies.
type ClientFactory func() (neushop.Client, error)

// Telemetry records console events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

// ActivityEmitter receives audit events for mutations and session changes.
type ActivityEmitter interface {
	Emit(ctx context.Context, event activity.Event) error
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, activity.Event) error { return nil }

// Options configures the console Service. Nil collaborators get defaults.
type Options struct {
	ClientFactory   ClientFactory
	Registry        *panel.Registry
	Widgets         dashboard.ProviderRegistry
	Store           *WorkspaceStore
	PreferenceStore PreferenceStore
	Events          EventHook
	Telemetry       Telemetry
	Activity        ActivityEmitter
	Logger          *slog.Logger
	Clock           func() time.Time
	SessionTTL      time.Duration
}

// Service owns every console workspace and is the single entry point for
// transports. All operations are keyed by workspace id.
type Service struct {
	opts Options
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) (*Service, error) {
	if opts.Registry == nil {
		reg, err := panel.NewRegistry(nil)
		if err != nil {
			return nil, err
		}
		opts.Registry = reg
	}
	if opts.Widgets == nil {
		opts.Widgets = dashboard.NewRegistry()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.Store == nil {
		opts.Store = NewWorkspaceStore(opts.SessionTTL)
	}
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	if opts.Events == nil {
		opts.Events = noopEventHook{}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = noopTelemetry{}
	}
	if opts.Activity == nil {
		opts.Activity = noopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{opts: opts}, nil
}

// Registry returns the entity registry.
func (s *Service) Registry() *panel.Registry {
	return s.opts.Registry
}

// Open creates a fresh signed-out workspace.
func (s *Service) Open(ctx context.Context) (*Workspace, error) {
	if s.opts.ClientFactory == nil {
		return nil, errMissingFactory
	}
	client, err := s.opts.ClientFactory()
	if err != nil {
		return nil, fmt.Errorf("console: build backend client: %w", err)
	}
	now := s.opts.Clock()
	ws := &Workspace{
		ID:      newWorkspaceID(),
		Client:  client,
		Gate:    session.New(client, session.WithLogger(s.opts.Logger)),
		Panels:  s.opts.Registry.NewPanels(client, panel.WithClock(s.opts.Clock), panel.WithLogger(s.opts.Logger)),
		Created: now,
	}
	ws.Board = dashboard.NewBoard(client, dashboard.Options{
		Providers: s.opts.Widgets,
		Telemetry: s.opts.Telemetry,
		Logger:    s.opts.Logger,
		Clock:     s.opts.Clock,
		RefreshHook: dashboard.RefreshHookFunc(func(ctx context.Context, event dashboard.WidgetEvent) error {
			return s.opts.Events.Publish(ctx, Event{Channel: ws.Channel(), Kind: "widget", Code: event.Code, Status: event.Status})
		}),
	})
	ws.touch(now)
	if err := s.opts.Store.Put(ws); err != nil {
		return nil, err
	}
	s.opts.Telemetry.Record(ctx, "console.workspace.open", nil)
	return ws, nil
}

// Workspace returns a live workspace.
func (s *Service) Workspace(id string) (*Workspace, error) {
	return s.opts.Store.Get(id, s.opts.Clock())
}

// Resolve returns the workspace for id, opening a new one when id is unknown
// or expired. The boolean reports whether a new workspace was created.
func (s *Service) Resolve(ctx context.Context, id string) (*Workspace, bool, error) {
	if id != "" {
		if ws, err := s.Workspace(id); err == nil {
			return ws, false, nil
		}
	}
	ws, err := s.Open(ctx)
	return ws, err == nil, err
}

// Close signs the workspace out of the backend and forgets it.
func (s *Service) Close(ctx context.Context, id string) error {
	ws, ok := s.opts.Store.Delete(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}
	if ws.Gate.Authenticated() {
		_ = ws.Gate.Logout(ctx)
	}
	return nil
}

// Sweep evicts idle workspaces and returns how many were removed.
func (s *Service) Sweep(ctx context.Context) int {
	removed := s.opts.Store.Sweep(s.opts.Clock())
	for _, ws := range removed {
		if ws.Gate.Authenticated() {
			_ = ws.Gate.Logout(ctx)
		}
	}
	if len(removed) > 0 {
		s.opts.Logger.Info("evicted idle workspaces", "count", len(removed))
	}
	return len(removed)
}

// Workspaces reports the number of live workspaces.
func (s *Service) Workspaces() int {
	return s.opts.Store.Len()
}

// Login signs the workspace in.
func (s *Service) Login(ctx context.Context, id, username, password string) error {
	ws, err := s.Workspace(id)
	if err != nil {
		return err
	}
	err = ws.Gate.Login(ctx, username, password)
	s.afterSession(ctx, ws, "session.login", username, err)
	return err
}

// Register creates a backend account and signs the workspace in.
func (s *Service) Register(ctx context.Context, id, username, email, password string) error {
	ws, err := s.Workspace(id)
	if err != nil {
		return err
	}
	err = ws.Gate.Register(ctx, username, email, password)
	s.afterSession(ctx, ws, "session.register", username, err)
	return err
}

// Logout signs the workspace out. The workspace always ends on the login view.
func (s *Service) Logout(ctx context.Context, id string) error {
	ws, err := s.Workspace(id)
	if err != nil {
		return err
	}
	user := ws.Gate.State().Username
	err = ws.Gate.Logout(ctx)
	s.afterSession(ctx, ws, "session.logout", user, err)
	return err
}

// ShowForm switches the gate between the login and register forms.
func (s *Service) ShowForm(id string, view session.View) error {
	ws, err := s.Workspace(id)
	if err != nil {
		return err
	}
	ws.Gate.Show(view)
	return nil
}

func (s *Service) afterSession(ctx context.Context, ws *Workspace, event, user string, err error) {
	s.record(ctx, event, "", err)
	status := neushop.OKStatus(event, ws.Gate.State().Error, s.opts.Clock())
	if err != nil {
		status = neushop.ErrorStatus(event, err, s.opts.Clock())
		s.opts.Logger.Warn("session operation failed", "op", event, "kind", neushop.KindOf(err), "error", err)
	} else {
		s.emit(ctx, ws, user, activity.Event{Verb: event, ObjectType: "session", ObjectID: user})
	}
	s.publish(ctx, Event{Channel: ws.Channel(), Kind: "session", Code: event, Status: status})
}

// LoadPanel reloads the list of an entity.
func (s *Service) LoadPanel(ctx context.Context, id, entity string) error {
	return s.withPanel(ctx, id, entity, "panel.list", func(_ *Workspace, p *panel.Panel) (string, error) {
		return "", p.List(ctx)
	})
}

// CreateRecord submits a create form.
func (s *Service) CreateRecord(ctx context.Context, id, entity string, draft map[string]string) error {
	return s.withPanel(ctx, id, entity, "panel.create", func(_ *Workspace, p *panel.Panel) (string, error) {
		return draft[p.Config().PrimaryKey], p.Create(ctx, draft)
	})
}

// UpdateDraft stores create-form input without submitting it.
func (s *Service) UpdateDraft(ctx context.Context, id, entity string, draft map[string]string) error {
	_, p, err := s.panel(id, entity)
	if err != nil {
		return err
	}
	p.UpdateDraft(draft)
	return nil
}

// StartEdit puts a row into edit mode.
func (s *Service) StartEdit(ctx context.Context, id, entity, recordID string) error {
	_, p, err := s.panel(id, entity)
	if err != nil {
		return err
	}
	return p.StartEdit(recordID)
}

// CancelEdit leaves edit mode without saving.
func (s *Service) CancelEdit(ctx context.Context, id, entity string) error {
	_, p, err := s.panel(id, entity)
	if err != nil {
		return err
	}
	p.CancelEdit()
	return nil
}

// SaveEdit submits the edit form of a row.
func (s *Service) SaveEdit(ctx context.Context, id, entity, recordID string, draft map[string]string) error {
	return s.withPanel(ctx, id, entity, "panel.update", func(_ *Workspace, p *panel.Panel) (string, error) {
		return recordID, p.SaveEdit(ctx, recordID, draft)
	})
}

// DeleteRecord deletes a row after confirm accepts its prompt. The boolean
// reports whether the delete was attempted.
func (s *Service) DeleteRecord(ctx context.Context, id, entity, recordID string, confirm panel.Confirmer) (bool, error) {
	var attempted bool
	err := s.withPanel(ctx, id, entity, "panel.delete", func(_ *Workspace, p *panel.Panel) (string, error) {
		var err error
		attempted, err = p.Delete(ctx, recordID, confirm)
		if !attempted && err == nil {
			return "", errDeclined
		}
		return recordID, err
	})
	if errors.Is(err, errDeclined) {
		return false, nil
	}
	return attempted, err
}

var errDeclined = errors.New("console: delete declined")

// ConfirmPrompt returns the delete question for a row.
func (s *Service) ConfirmPrompt(entity, recordID string) (string, error) {
	cfg, err := s.opts.Registry.Lookup(entity)
	if err != nil {
		return "", err
	}
	return cfg.ConfirmPrompt(recordID), nil
}

// RunWidget runs a dashboard query with raw form parameters.
func (s *Service) RunWidget(ctx context.Context, id, code string, params map[string]string) error {
	ws, err := s.authorized(id)
	if err != nil {
		return err
	}
	return ws.Board.Run(ctx, code, params)
}

// SavePreferences stores layout choices for the signed-in user.
func (s *Service) SavePreferences(ctx context.Context, id string, prefs Preferences) error {
	ws, err := s.authorized(id)
	if err != nil {
		return err
	}
	return s.opts.PreferenceStore.SavePreferences(ctx, ws.Gate.State().Username, prefs)
}

func (s *Service) withPanel(ctx context.Context, id, entity, op string, fn func(*Workspace, *panel.Panel) (string, error)) error {
	ws, p, err := s.panel(id, entity)
	if err != nil {
		return err
	}
	objectID, err := fn(ws, p)
	if errors.Is(err, errDeclined) {
		s.record(ctx, op, entity, nil)
		return err
	}
	s.record(ctx, op, entity, err)
	if err == nil && op != "panel.list" {
		s.emit(ctx, ws, ws.Gate.State().Username, activity.Event{
			Verb:           op,
			ObjectType:     entity,
			ObjectID:       objectID,
			DefinitionCode: p.Config().ResourcePath,
		})
	}
	s.publish(ctx, Event{Channel: ws.Channel(), Kind: "panel", Code: entity, Status: p.Status()})
	return err
}

func (s *Service) panel(id, entity string) (*Workspace, *panel.Panel, error) {
	ws, err := s.authorized(id)
	if err != nil {
		return nil, nil, err
	}
	p, err := ws.Panels.Get(entity)
	if err != nil {
		return nil, nil, err
	}
	return ws, p, nil
}

func (s *Service) authorized(id string) (*Workspace, error) {
	ws, err := s.Workspace(id)
	if err != nil {
		return nil, err
	}
	if !ws.Gate.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return ws, nil
}

func (s *Service) record(ctx context.Context, event, entity string, err error) {
	payload := map[string]any{"outcome": "ok"}
	if entity != "" {
		payload["entity"] = entity
	}
	if err != nil {
		payload["outcome"] = string(neushop.KindOf(err))
	}
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) emit(ctx context.Context, ws *Workspace, user string, event activity.Event) {
	event.ActorID = usersink.ActorID(user)
	event.TenantID = ws.AuditID()
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	event.Metadata["username"] = user
	if err := s.opts.Activity.Emit(ctx, event); err != nil {
		s.opts.Logger.Warn("activity emit failed", "verb", event.Verb, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.opts.Events.Publish(ctx, event); err != nil {
		s.opts.Logger.Warn("event publish failed", "kind", event.Kind, "error", err)
	}
}
