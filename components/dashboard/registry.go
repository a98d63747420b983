package dashboard

import (
	"fmt"
	"sort"
	"sync"
)

// Registry implements ProviderRegistry.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]WidgetDefinition
	providers   map[string]Provider
}

var _ ProviderRegistry = (*Registry)(nil)

// RegistryOption customizes the built-in providers.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	charts ChartRenderer
}

// WithChartRenderer attaches bar charts to the list-shaped widgets.
func WithChartRenderer(charts ChartRenderer) RegistryOption {
	return func(c *registryConfig) {
		c.charts = charts
	}
}

// NewRegistry builds a registry holding the four built-in query widgets.
// Charts are off unless WithChartRenderer is given.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	reg := &Registry{
		definitions: map[string]WidgetDefinition{},
		providers:   map[string]Provider{},
	}
	reg.registerDefaults(cfg.charts)
	return reg
}

func (r *Registry) registerDefaults(charts ChartRenderer) {
	providers := defaultProviders(charts)
	for _, def := range DefaultWidgetDefinitions() {
		_ = r.RegisterDefinition(def)
		if provider, ok := providers[def.Code]; ok {
			_ = r.RegisterProvider(def.Code, provider)
		}
	}
}

// RegisterDefinition stores widget metadata.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Code == "" {
		return fmt.Errorf("widget definition code is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
	return nil
}

// RegisterProvider associates a provider implementation with a definition.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if code == "" {
		return fmt.Errorf("widget definition code is required to register provider")
	}
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("widget definition %s not found", code)
	}
	r.providers[code] = provider
	return nil
}

// Definition fetches a widget definition by code.
func (r *Registry) Definition(code string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	return def, ok
}

// Provider fetches a widget provider by code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	return provider, ok
}

// Definitions returns all registered definitions ordered for display.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Order == defs[j].Order {
			return defs[i].Code < defs[j].Code
		}
		return defs[i].Order < defs[j].Order
	})
	return defs
}
