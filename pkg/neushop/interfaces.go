package neushop

import "context"

// RecordClient performs the table-level CRUD calls used by entity panels.
type RecordClient interface {
	List(ctx context.Context, path string) (Listing, error)
	Create(ctx context.Context, path string, payload map[string]any) error
	Update(ctx context.Context, path, id string, payload map[string]any) error
	Delete(ctx context.Context, path, id string) error
}

// ReportClient runs the canned analytics queries behind the dashboard widgets.
type ReportClient interface {
	LowStock(ctx context.Context, threshold int) ([]StockItem, error)
	BestSellers(ctx context.Context, days, limit int) ([]SalesItem, error)
	Revenue(ctx context.Context, days int) (RevenueReport, error)
	OrdersByStatus(ctx context.Context, status string) ([]OrderSummary, error)
}

// AuthClient talks to the login/register/logout endpoints.
type AuthClient interface {
	Login(ctx context.Context, creds Credentials) error
	Register(ctx context.Context, reg Registration) error
	Logout(ctx context.Context) error
}

// Client is a convenience union for backends implementing every call.
type Client interface {
	RecordClient
	ReportClient
	AuthClient
}

// StockItem is a low-stock report row.
type StockItem struct {
	Name          string
	StockQuantity float64
}

// SalesItem is a best-sellers report row.
type SalesItem struct {
	Name      string
	TotalSold float64
}

// RevenueReport carries the revenue total for a lookback window.
type RevenueReport struct {
	Days         int
	TotalRevenue float64
}

// OrderSummary is an orders-by-status report row.
type OrderSummary struct {
	OrderID     string
	Status      string
	OrderDate   string
	TotalAmount float64
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register payload.
type Registration struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
