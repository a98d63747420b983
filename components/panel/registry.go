package panel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

// ErrUnknownEntity is returned when a code is not registered.
var ErrUnknownEntity = errors.New("panel: unknown entity")

// Registry holds entity configurations in declaration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	configs map[string]EntityConfig
}

// NewRegistry builds a registry from manifest. A nil manifest yields the
// built-in Neushop entities.
func NewRegistry(manifest *Manifest) (*Registry, error) {
	if manifest == nil {
		manifest = DefaultManifest()
	}
	reg := &Registry{configs: map[string]EntityConfig{}}
	for _, cfg := range manifest.Entities {
		if err := reg.Register(cfg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds an entity configuration.
func (r *Registry) Register(cfg EntityConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[cfg.Code]; exists {
		return fmt.Errorf("panel: entity %s already registered", cfg.Code)
	}
	r.configs[cfg.Code] = cfg
	r.order = append(r.order, cfg.Code)
	return nil
}

// Lookup returns the configuration for code.
func (r *Registry) Lookup(code string) (EntityConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[code]
	if !ok {
		return EntityConfig{}, fmt.Errorf("%w: %s", ErrUnknownEntity, code)
	}
	return cfg, nil
}

// Entities lists configurations in registration order.
func (r *Registry) Entities() []EntityConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntityConfig, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.configs[code])
	}
	return out
}

// Codes lists entity codes in registration order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// NewPanels builds one panel per entity, sharing client.
func (r *Registry) NewPanels(client neushop.RecordClient, opts ...Option) *Set {
	set := &Set{panels: map[string]*Panel{}}
	for _, cfg := range r.Entities() {
		set.order = append(set.order, cfg.Code)
		set.panels[cfg.Code] = New(cfg, client, opts...)
	}
	return set
}

// Set is an ordered group of panels owned by one console session.
type Set struct {
	order  []string
	panels map[string]*Panel
}

// Get returns the panel for code.
func (s *Set) Get(code string) (*Panel, error) {
	p, ok := s.panels[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, code)
	}
	return p, nil
}

// All returns panels in registry order.
func (s *Set) All() []*Panel {
	out := make([]*Panel, len(s.order))
	for i, code := range s.order {
		out[i] = s.panels[code]
	}
	return out
}
