package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/goliatone/go-neushop/internal/sequence"
	"github.com/goliatone/go-neushop/pkg/neushop"
)

var (
	// ErrRecordNotFound is returned by StartEdit when the id is not in the list.
	ErrRecordNotFound = errors.New("panel: record not found")
	errMissingClient  = errors.New("panel: record client not configured")
)

// EditState is the inline edit mode of a panel. The zero value means no row
// is being edited.
type EditState struct {
	Active bool              `json:"active"`
	ID     string            `json:"id,omitempty"`
	Draft  map[string]string `json:"draft,omitempty"`
}

// Option customizes a Panel.
type Option func(*Panel)

// WithClock overrides the time source used for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Panel) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger used for failed backend calls.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Panel) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Panel manages list, create, edit and delete for one entity. State is
// guarded by mu, which is never held across backend calls.
type Panel struct {
	config EntityConfig
	client neushop.RecordClient
	now    func() time.Time
	logger *slog.Logger
	seq    sequence.Sequencer

	mu      sync.RWMutex
	records []neushop.Record
	draft   map[string]string
	edit    EditState
	loading bool
	status  neushop.Status
}

// New builds a panel for config backed by client.
func New(config EntityConfig, client neushop.RecordClient, opts ...Option) *Panel {
	p := &Panel{
		config:  config,
		client:  client,
		now:     time.Now,
		logger:  slog.Default(),
		records: []neushop.Record{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.draft = p.emptyDraft()
	return p
}

// Config returns the entity configuration.
func (p *Panel) Config() EntityConfig {
	return p.config
}

// Records returns a copy of the current list.
func (p *Panel) Records() []neushop.Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]neushop.Record, len(p.records))
	for i, rec := range p.records {
		out[i] = rec.Clone()
	}
	return out
}

// Status returns the last recorded outcome.
func (p *Panel) Status() neushop.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Loading reports whether the latest list request is still in flight.
func (p *Panel) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Edit returns a copy of the edit state.
func (p *Panel) Edit() EditState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneEdit(p.edit)
}

// Draft returns a copy of the create-row draft.
func (p *Panel) Draft() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.draft)
}

// UpdateDraft merges values into the create draft. Unknown fields are ignored.
func (p *Panel) UpdateDraft(values map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, field := range p.config.Creatable {
		if v, ok := values[field]; ok {
			p.draft[field] = v
		}
	}
}

// UpdateEditDraft merges values into the active edit draft.
func (p *Panel) UpdateEditDraft(values map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.edit.Active {
		return
	}
	for _, field := range p.config.Editable {
		if v, ok := values[field]; ok {
			p.edit.Draft[field] = v
		}
	}
}

// List reloads the table. Only the response to the most recent List call is
// applied; older responses are dropped whatever order they arrive in.
func (p *Panel) List(ctx context.Context) error {
	if p.client == nil {
		return errMissingClient
	}
	ticket := p.seq.Next()
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	listing, err := p.client.List(ctx, p.config.ListPath)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seq.Current(ticket) {
		return nil
	}
	p.loading = false
	if err != nil {
		p.status = neushop.ErrorStatus("list", err, p.now())
		p.warn("list", err)
		return fmt.Errorf("panel: list %s: %w", p.config.Code, err)
	}
	if !listing.IsArray {
		p.records = []neushop.Record{}
		perr := &neushop.Error{
			Kind:       neushop.KindPayload,
			Op:         "list",
			Path:       p.config.ListPath,
			StatusCode: listing.StatusCode,
			Message:    "response is not a list",
		}
		p.status = neushop.ErrorStatus("list", perr, p.now())
		p.warn("list", perr)
		return perr
	}
	p.records = listing.Records
	p.status = neushop.OKStatus("list", fmt.Sprintf("Loaded %d %s rows", len(listing.Records), p.config.Label), p.now())
	return nil
}

// Create submits draft (or the stored draft when nil). On success the draft is
// cleared and the list reloaded; on failure the draft is kept for correction.
func (p *Panel) Create(ctx context.Context, draft map[string]string) error {
	if p.client == nil {
		return errMissingClient
	}
	p.mu.Lock()
	if draft != nil {
		p.draft = p.emptyDraft()
		for _, field := range p.config.Creatable {
			if v, ok := draft[field]; ok {
				p.draft[field] = v
			}
		}
	}
	payload := p.config.BuildPayload(p.config.Creatable, p.draft)
	p.mu.Unlock()

	if err := p.client.Create(ctx, p.config.ResourcePath, payload); err != nil {
		p.setStatus(neushop.ErrorStatus("create", err, p.now()))
		p.warn("create", err)
		return fmt.Errorf("panel: create %s: %w", p.config.Code, err)
	}

	p.mu.Lock()
	p.draft = p.emptyDraft()
	p.mu.Unlock()

	if err := p.List(ctx); err == nil {
		id := neushop.FormatValue(payload[p.config.PrimaryKey])
		p.setStatus(neushop.OKStatus("create", fmt.Sprintf("Created %s %s", p.config.Noun, id), p.now()))
	}
	return nil
}

// StartEdit enters edit mode for the listed record with id, replacing any
// other active edit.
func (p *Panel) StartEdit(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range p.records {
		if rec.String(p.config.PrimaryKey) == id {
			p.edit = p.editFor(rec)
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s", ErrRecordNotFound, p.config.Code, id)
}

// StartEditRecord enters edit mode for record, copying its editable fields
// into the edit draft.
func (p *Panel) StartEditRecord(record neushop.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edit = p.editFor(record)
}

// CancelEdit leaves edit mode without contacting the backend.
func (p *Panel) CancelEdit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edit = EditState{}
}

// SaveEdit submits the editable fields of draft (or the active edit draft when
// nil) for id. Success leaves edit mode and reloads; failure keeps the row in
// edit mode with the submitted draft unless another row was opened for edit
// meanwhile.
func (p *Panel) SaveEdit(ctx context.Context, id string, draft map[string]string) error {
	if p.client == nil {
		return errMissingClient
	}
	p.mu.Lock()
	if draft == nil {
		if p.edit.Active && p.edit.ID == id {
			draft = maps.Clone(p.edit.Draft)
		} else {
			draft = map[string]string{}
		}
	}
	submitted := map[string]string{}
	for _, field := range p.config.Editable {
		submitted[field] = draft[field]
	}
	payload := p.config.BuildPayload(p.config.Editable, submitted)
	p.mu.Unlock()

	if err := p.client.Update(ctx, p.config.ResourcePath, id, payload); err != nil {
		p.mu.Lock()
		if !p.edit.Active || p.edit.ID == id {
			p.edit = EditState{Active: true, ID: id, Draft: submitted}
		}
		p.status = neushop.ErrorStatus("update", err, p.now())
		p.mu.Unlock()
		p.warn("update", err)
		return fmt.Errorf("panel: update %s %s: %w", p.config.Code, id, err)
	}

	p.mu.Lock()
	if p.edit.ID == id {
		p.edit = EditState{}
	}
	p.mu.Unlock()

	if err := p.List(ctx); err == nil {
		p.setStatus(neushop.OKStatus("update", fmt.Sprintf("Updated %s %s", p.config.Noun, id), p.now()))
	}
	return nil
}

// Delete asks confirm before removing id. A declined prompt makes no backend
// call and leaves the panel untouched; the returned bool reports whether the
// delete was confirmed.
func (p *Panel) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if p.client == nil {
		return false, errMissingClient
	}
	if confirm == nil || !confirm.Confirm(ctx, p.config.ConfirmPrompt(id)) {
		return false, nil
	}
	if err := p.client.Delete(ctx, p.config.ResourcePath, id); err != nil {
		p.setStatus(neushop.ErrorStatus("delete", err, p.now()))
		p.warn("delete", err)
		return true, fmt.Errorf("panel: delete %s %s: %w", p.config.Code, id, err)
	}

	p.mu.Lock()
	if p.edit.ID == id {
		p.edit = EditState{}
	}
	p.mu.Unlock()

	if err := p.List(ctx); err == nil {
		p.setStatus(neushop.OKStatus("delete", fmt.Sprintf("Deleted %s %s", p.config.Noun, id), p.now()))
	}
	return true, nil
}

func (p *Panel) warn(op string, err error) {
	p.logger.Warn("panel operation failed",
		"entity", p.config.Code,
		"op", op,
		"kind", string(neushop.KindOf(err)),
		"error", err,
	)
}

func (p *Panel) setStatus(status neushop.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

func (p *Panel) editFor(rec neushop.Record) EditState {
	draft := make(map[string]string, len(p.config.Editable))
	for _, field := range p.config.Editable {
		draft[field] = rec.String(field)
	}
	return EditState{Active: true, ID: rec.String(p.config.PrimaryKey), Draft: draft}
}

func (p *Panel) emptyDraft() map[string]string {
	draft := make(map[string]string, len(p.config.Creatable))
	for _, field := range p.config.Creatable {
		draft[field] = ""
	}
	return draft
}

func cloneEdit(state EditState) EditState {
	state.Draft = maps.Clone(state.Draft)
	return state
}
