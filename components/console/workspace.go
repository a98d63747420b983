package console

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/components/session"
	"github.com/goliatone/go-neushop/pkg/neushop"
)

// ErrWorkspaceNotFound is returned for unknown or expired workspace ids.
var ErrWorkspaceNotFound = errors.New("console: workspace not found")

// Workspace is one console session: its own backend client and cookie jar,
// session gate, panels and dashboard board.
type Workspace struct {
	ID      string
	Client  neushop.Client
	Gate    *session.Gate
	Panels  *panel.Set
	Board   *dashboard.Board
	Created time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Channel is the public event channel of the workspace.
func (w *Workspace) Channel() string {
	return ChannelFor(w.ID)
}

// LastSeen reports when the workspace was last used.
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

// AuditID is a stable identifier for audit records that does not reveal the
// session id.
func (w *Workspace) AuditID() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(w.ID)).String()
}

func newWorkspaceID() string {
	return uuid.NewString()
}

// WorkspaceStore keeps workspaces in memory and evicts idle ones.
type WorkspaceStore struct {
	ttl time.Duration

	mu    sync.RWMutex
	items map[string]*Workspace
}

// NewWorkspaceStore builds a store. A non-positive ttl disables eviction.
func NewWorkspaceStore(ttl time.Duration) *WorkspaceStore {
	return &WorkspaceStore{ttl: ttl, items: map[string]*Workspace{}}
}

// Put adds or replaces a workspace.
func (s *WorkspaceStore) Put(ws *Workspace) error {
	if ws == nil || ws.ID == "" {
		return fmt.Errorf("console: workspace id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[ws.ID] = ws
	return nil
}

// Get returns the workspace and marks it as seen at now. Expired entries are
// treated as missing.
func (s *WorkspaceStore) Get(id string, now time.Time) (*Workspace, error) {
	s.mu.RLock()
	ws, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || s.expired(ws, now) {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}
	ws.touch(now)
	return ws, nil
}

// Delete removes a workspace and returns it.
func (s *WorkspaceStore) Delete(id string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.items[id]
	delete(s.items, id)
	return ws, ok
}

// Sweep removes workspaces idle for longer than the ttl and returns them.
func (s *WorkspaceStore) Sweep(now time.Time) []*Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []*Workspace
	for id, ws := range s.items {
		if s.expired(ws, now) {
			removed = append(removed, ws)
			delete(s.items, id)
		}
	}
	return removed
}

// Len reports the number of stored workspaces.
func (s *WorkspaceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *WorkspaceStore) expired(ws *Workspace, now time.Time) bool {
	return s.ttl > 0 && now.Sub(ws.LastSeen()) > s.ttl
}
