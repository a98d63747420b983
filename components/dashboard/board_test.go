package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-neushop/pkg/neushop"
	"github.com/goliatone/go-neushop/pkg/neushop/neushoptest"
)

func revenue(v float64) *float64 { return &v }

func productTables() []neushop.MockTable {
	tables := neushoptest.Tables()
	for i := range tables {
		switch tables[i].ResourcePath {
		case "/PRODUCT":
			tables[i].Rows = []neushop.Record{
				{"product_id": "P1", "name": "Widget", "stock_quantity": float64(3)},
				{"product_id": "P2", "name": "Gadget", "stock_quantity": float64(40)},
				{"product_id": "P3", "name": "Doohickey", "stock_quantity": float64(9)},
			}
		case "/ORDER":
			tables[i].Rows = []neushop.Record{
				{"order_id": "O1", "status": "shipped", "order_date": "2024-03-05T10:00:00Z", "total_amount": 19.5},
			}
		}
	}
	return tables
}

func TestBoardRevenueText(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Tables: neushoptest.Tables(), Revenue: revenue(1234.5)})
	board := NewBoard(client, Options{})

	require.NoError(t, board.Run(context.Background(), WidgetRevenue, map[string]string{"days": "7"}))

	state, err := board.State(WidgetRevenue)
	require.NoError(t, err)
	assert.True(t, state.HasData)
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, "Total Revenue (last 7 days): $1234.50", state.Data["text"])
	assert.Equal(t, "7", state.Params["days"])
	assert.False(t, state.Status.Failed())
}

func TestBoardLowStockEndToEnd(t *testing.T) {
	backend := neushoptest.NewServer(neushop.MockData{Tables: productTables()})
	t.Cleanup(backend.Close)
	board := NewBoard(backend.NeushopClient(), Options{})

	require.NoError(t, board.Run(context.Background(), WidgetLowStock, nil))

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GET", reqs[0].Method)
	assert.Equal(t, "/products/low-stock/10", reqs[0].Path)

	state, err := board.State(WidgetLowStock)
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget (Stock: 3)", "Doohickey (Stock: 9)"}, state.Data["lines"])
}

func TestBoardValidationFailureIssuesNoRequest(t *testing.T) {
	backend := neushoptest.NewServer(neushop.MockData{Tables: productTables()})
	t.Cleanup(backend.Close)
	board := NewBoard(backend.NeushopClient(), Options{})
	ctx := context.Background()

	require.NoError(t, board.Run(ctx, WidgetLowStock, map[string]string{"threshold": "5"}))
	require.Len(t, backend.Requests(), 1)

	err := board.Run(ctx, WidgetLowStock, map[string]string{"threshold": "five"})
	require.Error(t, err)
	assert.Equal(t, neushop.KindValidation, neushop.KindOf(err))
	assert.Len(t, backend.Requests(), 1)

	state, err := board.State(WidgetLowStock)
	require.NoError(t, err)
	assert.Equal(t, neushop.KindValidation, state.Status.Kind)
	assert.Equal(t, "five", state.Params["threshold"])
	assert.Equal(t, []string{"Widget (Stock: 3)"}, state.Data["lines"])
}

func TestBoardFailureKeepsPreviousData(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Tables: neushoptest.Tables(), Revenue: revenue(10)})
	board := NewBoard(client, Options{})
	ctx := context.Background()

	require.NoError(t, board.Run(ctx, WidgetRevenue, nil))
	client.FailNext("revenue", &neushop.Error{Kind: neushop.KindRemote, StatusCode: 500, Message: "db down"})

	err := board.Run(ctx, WidgetRevenue, map[string]string{"days": "7"})
	require.Error(t, err)

	state, _ := board.State(WidgetRevenue)
	assert.True(t, state.HasData)
	assert.Equal(t, "Total Revenue (last 30 days): $10.00", state.Data["text"])
	assert.Equal(t, neushop.KindRemote, state.Status.Kind)
	assert.Equal(t, "db down", state.Status.Message)
}

type gatedReports struct {
	neushop.ReportClient
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedReports) Revenue(_ context.Context, days int) (neushop.RevenueReport, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	return neushop.RevenueReport{Days: days, TotalRevenue: float64(days)}, nil
}

func TestBoardDiscardsStaleResponse(t *testing.T) {
	reports := &gatedReports{entered: make(chan struct{}), release: make(chan struct{})}
	board := NewBoard(reports, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- board.Run(ctx, WidgetRevenue, map[string]string{"days": "1"})
	}()
	<-reports.entered

	require.NoError(t, board.Run(ctx, WidgetRevenue, map[string]string{"days": "2"}))
	close(reports.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stale run did not finish")
	}

	state, _ := board.State(WidgetRevenue)
	assert.Equal(t, "Total Revenue (last 2 days): $2.00", state.Data["text"])
	assert.Equal(t, PhaseIdle, state.Phase)
}

func TestBoardUnknownWidget(t *testing.T) {
	board := NewBoard(neushop.NewMockClient(neushop.MockData{}), Options{})
	err := board.Run(context.Background(), "nope", nil)
	assert.True(t, errors.Is(err, ErrUnknownWidget))
	_, err = board.State("nope")
	assert.True(t, errors.Is(err, ErrUnknownWidget))
}

func TestBoardStatesFollowDisplayOrder(t *testing.T) {
	board := NewBoard(neushop.NewMockClient(neushop.MockData{}), Options{})
	states := board.States()
	require.Len(t, states, 4)
	codes := []string{states[0].Definition.Code, states[1].Definition.Code, states[2].Definition.Code, states[3].Definition.Code}
	assert.Equal(t, []string{WidgetLowStock, WidgetBestSellers, WidgetRevenue, WidgetOrdersByStatus}, codes)
	assert.Equal(t, "pending", states[3].Params["status"])
}

func TestBoardPublishesEventsAndTelemetry(t *testing.T) {
	var events []WidgetEvent
	telemetry := &recordingTelemetry{}
	board := NewBoard(neushop.NewMockClient(neushop.MockData{Revenue: revenue(1)}), Options{
		Telemetry: telemetry,
		RefreshHook: RefreshHookFunc(func(_ context.Context, event WidgetEvent) error {
			events = append(events, event)
			return nil
		}),
	})

	require.NoError(t, board.Run(context.Background(), WidgetRevenue, nil))
	require.Len(t, events, 1)
	assert.Equal(t, WidgetRevenue, events[0].Code)
	require.Len(t, telemetry.events, 1)
	assert.Equal(t, "dashboard.widget.run", telemetry.events[0])
	assert.Equal(t, "ok", telemetry.payloads[0]["outcome"])
}

func TestBoardSetParamsIgnoresUnknownNames(t *testing.T) {
	board := NewBoard(neushop.NewMockClient(neushop.MockData{}), Options{})
	require.NoError(t, board.SetParams(WidgetOrdersByStatus, map[string]string{"status": "shipped", "bogus": "x"}))
	state, _ := board.State(WidgetOrdersByStatus)
	assert.Equal(t, map[string]string{"status": "shipped"}, state.Params)
}

type recordingTelemetry struct {
	events   []string
	payloads []map[string]any
}

func (r *recordingTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}
