package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

var errMissingReports = errors.New("dashboard: report client is not configured")

// EmptyOrdersText is shown when the orders query returns no rows.
const EmptyOrdersText = "No orders found for this status"

// ChartRenderer renders bar charts for list-shaped widgets.
type ChartRenderer interface {
	Render(code, title, series string, points []ChartPoint) (string, error)
}

// NewLowStockProvider lists products below the threshold parameter.
// A nil renderer skips the chart.
func NewLowStockProvider(charts ChartRenderer) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		if meta.Reports == nil {
			return nil, errMissingReports
		}
		threshold := intParam(meta.Params, "threshold", 10)
		items, err := meta.Reports.LowStock(ctx, threshold)
		if err != nil {
			return nil, err
		}
		lines := make([]string, len(items))
		points := make([]ChartPoint, len(items))
		rows := make([]map[string]any, len(items))
		for i, item := range items {
			lines[i] = fmt.Sprintf("%s (Stock: %s)", item.Name, neushop.FormatValue(item.StockQuantity))
			points[i] = ChartPoint{Label: item.Name, Value: item.StockQuantity}
			rows[i] = map[string]any{"name": item.Name, "stock_quantity": item.StockQuantity}
		}
		data := WidgetData{
			"threshold": threshold,
			"items":     rows,
			"lines":     lines,
		}
		return withChart(data, charts, meta.Definition.Code, "Stock on hand", "stock_quantity", points)
	})
}

// NewBestSellersProvider lists the top sellers for the days/limit parameters.
func NewBestSellersProvider(charts ChartRenderer) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		if meta.Reports == nil {
			return nil, errMissingReports
		}
		days := intParam(meta.Params, "days", 30)
		limit := intParam(meta.Params, "limit", 5)
		items, err := meta.Reports.BestSellers(ctx, days, limit)
		if err != nil {
			return nil, err
		}
		lines := make([]string, len(items))
		points := make([]ChartPoint, len(items))
		rows := make([]map[string]any, len(items))
		for i, item := range items {
			lines[i] = fmt.Sprintf("%s - %s sold", item.Name, neushop.FormatValue(item.TotalSold))
			points[i] = ChartPoint{Label: item.Name, Value: item.TotalSold}
			rows[i] = map[string]any{"name": item.Name, "total_sold": item.TotalSold}
		}
		data := WidgetData{
			"days":  days,
			"limit": limit,
			"items": rows,
			"lines": lines,
		}
		return withChart(data, charts, meta.Definition.Code, fmt.Sprintf("Units sold (last %d days)", days), "total_sold", points)
	})
}

// NewRevenueProvider reports total revenue for the days parameter.
func NewRevenueProvider() Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		if meta.Reports == nil {
			return nil, errMissingReports
		}
		days := intParam(meta.Params, "days", 30)
		report, err := meta.Reports.Revenue(ctx, days)
		if err != nil {
			return nil, err
		}
		return WidgetData{
			"days":          days,
			"total_revenue": report.TotalRevenue,
			"text":          RevenueText(days, report.TotalRevenue),
		}, nil
	})
}

// NewOrdersByStatusProvider lists orders in the status parameter.
func NewOrdersByStatusProvider() Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		if meta.Reports == nil {
			return nil, errMissingReports
		}
		status := strings.TrimSpace(fmt.Sprint(meta.Params["status"]))
		if _, ok := meta.Params["status"]; !ok || status == "" {
			status = "pending"
		}
		orders, err := meta.Reports.OrdersByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, len(orders))
		for i, order := range orders {
			rows[i] = map[string]any{
				"order_id": order.OrderID,
				"heading":  fmt.Sprintf("Order #%s %s", order.OrderID, order.Status),
				"date":     "Date: " + FormatOrderDate(order.OrderDate),
				"total":    fmt.Sprintf("Total: $%.2f", order.TotalAmount),
			}
		}
		data := WidgetData{
			"status": status,
			"orders": rows,
		}
		if len(rows) == 0 {
			data["empty_text"] = EmptyOrdersText
		}
		return data, nil
	})
}

// RevenueText formats the revenue widget result.
func RevenueText(days int, total float64) string {
	return fmt.Sprintf("Total Revenue (last %d days): $%.2f", days, total)
}

func withChart(data WidgetData, charts ChartRenderer, code, title, series string, points []ChartPoint) (WidgetData, error) {
	if charts == nil || len(points) == 0 {
		return data, nil
	}
	html, err := charts.Render(code, title, series, points)
	if err != nil {
		return nil, fmt.Errorf("dashboard: render chart for %s: %w", code, err)
	}
	if html != "" {
		data["chart_html"] = html
	}
	return data, nil
}

func intParam(params map[string]any, name string, fallback int) int {
	switch v := params[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}
