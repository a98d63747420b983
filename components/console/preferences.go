package console

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/goliatone/go-neushop/components/panel"
)

// Preferences are per-user console layout choices.
type Preferences struct {
	HiddenPanels map[string]bool `json:"hidden_panels"`
	PanelOrder   []string        `json:"panel_order"`
}

// PreferenceStore persists Preferences by username.
type PreferenceStore interface {
	Preferences(ctx context.Context, user string) (Preferences, error)
	SavePreferences(ctx context.Context, user string, prefs Preferences) error
}

// InMemoryPreferenceStore is a concurrency-safe PreferenceStore.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]Preferences
}

// NewInMemoryPreferenceStore creates an empty store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{data: make(map[string]Preferences)}
}

// Preferences returns stored preferences or empty defaults.
func (s *InMemoryPreferenceStore) Preferences(_ context.Context, user string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.data[user]
	if !ok {
		return normalizePreferences(Preferences{}), nil
	}
	return clonePreferences(prefs), nil
}

// SavePreferences stores preferences for user.
func (s *InMemoryPreferenceStore) SavePreferences(_ context.Context, user string, prefs Preferences) error {
	if user == "" {
		return fmt.Errorf("preference store requires a username")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[user] = clonePreferences(normalizePreferences(prefs))
	return nil
}

func normalizePreferences(p Preferences) Preferences {
	if p.HiddenPanels == nil {
		p.HiddenPanels = map[string]bool{}
	}
	if p.PanelOrder == nil {
		p.PanelOrder = []string{}
	}
	return p
}

func clonePreferences(p Preferences) Preferences {
	p.HiddenPanels = maps.Clone(p.HiddenPanels)
	p.PanelOrder = slices.Clone(p.PanelOrder)
	return p
}

// applyPreferences drops hidden panels and moves the listed codes first,
// keeping registry order for the rest.
func applyPreferences(views []panel.TableView, prefs Preferences) []panel.TableView {
	index := make(map[string]panel.TableView, len(views))
	for _, v := range views {
		index[v.Code] = v
	}
	result := make([]panel.TableView, 0, len(views))
	seen := make(map[string]struct{}, len(prefs.PanelOrder))
	for _, code := range prefs.PanelOrder {
		if v, ok := index[code]; ok {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			if !prefs.HiddenPanels[code] {
				result = append(result, v)
			}
		}
	}
	for _, v := range views {
		if _, ok := seen[v.Code]; ok || prefs.HiddenPanels[v.Code] {
			continue
		}
		result = append(result, v)
	}
	return result
}
