package dashboard

const (
	WidgetLowStock       = "neushop.widget.low_stock"
	WidgetBestSellers    = "neushop.widget.best_sellers"
	WidgetRevenue        = "neushop.widget.revenue"
	WidgetOrdersByStatus = "neushop.widget.orders_by_status"
)

// OrderStatuses is the fixed set accepted by the orders-by-status query.
var OrderStatuses = []string{"pending", "shipped", "cancelled", "processing", "delivered", "completed"}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code:        WidgetLowStock,
		Name:        "Low Stock Products",
		Description: "Products whose stock is below a threshold",
		Action:      "Check Low Stock",
		Category:    "inventory",
		Order:       1,
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"threshold"},
			"properties": map[string]any{
				"threshold": map[string]any{"type": "integer", "minimum": 0, "default": 10, "title": "Enter stock threshold"},
			},
		},
	},
	{
		Code:        WidgetBestSellers,
		Name:        "Best Selling Products",
		Description: "Top products by units sold over a lookback window",
		Action:      "Check Best Sellers",
		Category:    "sales",
		Order:       2,
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"days", "limit"},
			"properties": map[string]any{
				"days":  map[string]any{"type": "integer", "minimum": 0, "default": 30, "title": "Days"},
				"limit": map[string]any{"type": "integer", "minimum": 0, "default": 5, "title": "Limit"},
			},
		},
	},
	{
		Code:        WidgetRevenue,
		Name:        "Revenue",
		Description: "Total revenue over a lookback window",
		Action:      "Check Revenue",
		Category:    "sales",
		Order:       3,
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"days"},
			"properties": map[string]any{
				"days": map[string]any{"type": "integer", "minimum": 0, "default": 30, "title": "Days"},
			},
		},
	},
	{
		Code:        WidgetOrdersByStatus,
		Name:        "Filter Orders by Status",
		Description: "Orders currently in a given status",
		Action:      "Fetch Orders",
		Category:    "orders",
		Order:       4,
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"status"},
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "enum": OrderStatuses, "default": "pending", "title": "Select Status"},
			},
		},
	},
}

// DefaultWidgetDefinitions returns a copy of the built-in query widgets.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

func defaultProviders(charts ChartRenderer) map[string]Provider {
	return map[string]Provider{
		WidgetLowStock:       NewLowStockProvider(charts),
		WidgetBestSellers:    NewBestSellersProvider(charts),
		WidgetRevenue:        NewRevenueProvider(),
		WidgetOrdersByStatus: NewOrdersByStatusProvider(),
	}
}
