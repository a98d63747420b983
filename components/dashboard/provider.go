package dashboard

import (
	"context"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

// Provider runs the query behind a widget.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// WidgetContext contains the metadata needed by providers.
type WidgetContext struct {
	Definition WidgetDefinition
	Params     map[string]any
	Reports    neushop.ReportClient
}

// WidgetData is an opaque payload passed to templates.
type WidgetData map[string]any

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}
