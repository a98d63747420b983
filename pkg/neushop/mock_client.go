package neushop

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// MockTable seeds one backend table. Rows are listed at ListPath and mutated
// under ResourcePath, mirroring the real backend's split routes.
type MockTable struct {
	ListPath     string
	ResourcePath string
	PrimaryKey   string
	Rows         []Record
}

// MockData seeds deterministic backend responses for tests or local demos.
type MockData struct {
	Tables []MockTable
	// Users maps usernames to passwords accepted by Login.
	Users map[string]string
	// Revenue overrides the computed revenue total when non-nil.
	Revenue *float64
	// BestSellers is returned verbatim (truncated to limit) when set.
	BestSellers []SalesItem
}

// MockCall records one call received by MockClient.
type MockCall struct {
	Op      string
	Path    string
	ID      string
	Payload map[string]any
}

// MockClient implements Client using in-memory tables. Low-stock and
// orders-by-status answers are derived from the products and orders tables.
type MockClient struct {
	mu       sync.RWMutex
	tables   map[string]*mockTable
	byList   map[string]string
	users    map[string]string
	revenue  *float64
	sellers  []SalesItem
	failures map[string]error
	calls    []MockCall
	loggedIn string
}

type mockTable struct {
	primaryKey string
	listPath   string
	rows       []Record
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	c := &MockClient{
		tables:   map[string]*mockTable{},
		byList:   map[string]string{},
		users:    map[string]string{},
		failures: map[string]error{},
		sellers:  append([]SalesItem(nil), data.BestSellers...),
	}
	for _, table := range data.Tables {
		rows := make([]Record, len(table.Rows))
		for i, row := range table.Rows {
			rows[i] = row.Clone()
		}
		key := strings.ToUpper(table.ResourcePath)
		c.tables[key] = &mockTable{primaryKey: table.PrimaryKey, listPath: table.ListPath, rows: rows}
		c.byList[table.ListPath] = key
	}
	for user, pass := range data.Users {
		c.users[user] = pass
	}
	if data.Revenue != nil {
		total := *data.Revenue
		c.revenue = &total
	}
	return c
}

// FailNext makes the next call of op ("list", "create", "update", "delete",
// "low-stock", "best-sellers", "revenue", "orders-by-status", "login",
// "register", "logout") return err.
func (c *MockClient) FailNext(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op] = err
}

// Calls returns a copy of the calls received so far.
func (c *MockClient) Calls() []MockCall {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]MockCall(nil), c.calls...)
}

// Rows returns a copy of the rows stored under a list path.
func (c *MockClient) Rows(listPath string) []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table := c.tables[c.byList[listPath]]
	if table == nil {
		return nil
	}
	return cloneRecords(table.rows)
}

// LoggedIn reports the user of the last successful login.
func (c *MockClient) LoggedIn() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggedIn
}

func (c *MockClient) List(_ context.Context, path string) (Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "list", Path: path}); err != nil {
		return Listing{}, err
	}
	table := c.tables[c.byList[path]]
	if table == nil {
		return Listing{Records: []Record{}, StatusCode: http.StatusNotFound}, nil
	}
	return Listing{Records: cloneRecords(table.rows), IsArray: true, StatusCode: http.StatusOK}, nil
}

func (c *MockClient) Create(_ context.Context, path string, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "create", Path: path, Payload: clonePayload(payload)}); err != nil {
		return err
	}
	table, err := c.table("create", path)
	if err != nil {
		return err
	}
	row := Record(clonePayload(payload))
	id := row.String(table.primaryKey)
	if id != "" && table.index(id) >= 0 {
		return &Error{Kind: KindRemote, Op: "create", Path: path, StatusCode: http.StatusConflict, Message: "duplicate " + table.primaryKey}
	}
	table.rows = append(table.rows, row)
	return nil
}

func (c *MockClient) Update(_ context.Context, path, id string, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "update", Path: path, ID: id, Payload: clonePayload(payload)}); err != nil {
		return err
	}
	table, err := c.table("update", path)
	if err != nil {
		return err
	}
	idx := table.index(id)
	if idx < 0 {
		return &Error{Kind: KindRemote, Op: "update", Path: joinPath(path, id), StatusCode: http.StatusNotFound, Message: "not found"}
	}
	for k, v := range payload {
		table.rows[idx][k] = v
	}
	return nil
}

func (c *MockClient) Delete(_ context.Context, path, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "delete", Path: path, ID: id}); err != nil {
		return err
	}
	table, err := c.table("delete", path)
	if err != nil {
		return err
	}
	idx := table.index(id)
	if idx < 0 {
		return &Error{Kind: KindRemote, Op: "delete", Path: joinPath(path, id), StatusCode: http.StatusNotFound, Message: "not found"}
	}
	table.rows = append(table.rows[:idx], table.rows[idx+1:]...)
	return nil
}

func (c *MockClient) LowStock(_ context.Context, threshold int) ([]StockItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "low-stock"}); err != nil {
		return nil, err
	}
	var out []StockItem
	for _, row := range c.rowsOf("/PRODUCT") {
		qty, _ := Float64(row["stock_quantity"])
		if qty < float64(threshold) {
			out = append(out, StockItem{Name: row.String("name"), StockQuantity: qty})
		}
	}
	return out, nil
}

func (c *MockClient) BestSellers(_ context.Context, _ int, limit int) ([]SalesItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "best-sellers"}); err != nil {
		return nil, err
	}
	items := c.sellers
	if items == nil {
		items = c.derivedSellers()
	}
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return append([]SalesItem(nil), items...), nil
}

func (c *MockClient) Revenue(_ context.Context, days int) (RevenueReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "revenue"}); err != nil {
		return RevenueReport{}, err
	}
	if c.revenue != nil {
		return RevenueReport{Days: days, TotalRevenue: *c.revenue}, nil
	}
	var total float64
	for _, row := range c.rowsOf("/PAYMENT") {
		amount, _ := Float64(row["payment_amount"])
		total += amount
	}
	return RevenueReport{Days: days, TotalRevenue: total}, nil
}

func (c *MockClient) OrdersByStatus(_ context.Context, status string) ([]OrderSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "orders-by-status"}); err != nil {
		return nil, err
	}
	var out []OrderSummary
	for _, row := range c.rowsOf("/ORDER") {
		if !strings.EqualFold(row.String("status"), status) {
			continue
		}
		total, _ := Float64(row["total_amount"])
		out = append(out, OrderSummary{
			OrderID:     row.String("order_id"),
			Status:      row.String("status"),
			OrderDate:   row.String("order_date"),
			TotalAmount: total,
		})
	}
	return out, nil
}

func (c *MockClient) Login(_ context.Context, creds Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "login"}); err != nil {
		return err
	}
	pass, ok := c.users[creds.Username]
	if !ok || pass != creds.Password {
		return &Error{Kind: KindRemote, Op: "login", Path: "/login", StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	c.loggedIn = creds.Username
	return nil
}

func (c *MockClient) Register(_ context.Context, reg Registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "register"}); err != nil {
		return err
	}
	if _, exists := c.users[reg.Username]; exists {
		return &Error{Kind: KindRemote, Op: "register", Path: "/register", StatusCode: http.StatusConflict, Message: "Username already exists", Remote: "Username already exists"}
	}
	c.users[reg.Username] = reg.Password
	c.loggedIn = reg.Username
	return nil
}

func (c *MockClient) Logout(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record(MockCall{Op: "logout"}); err != nil {
		return err
	}
	c.loggedIn = ""
	return nil
}

// record appends the call and consumes a pending failure. Callers hold mu.
func (c *MockClient) record(call MockCall) error {
	c.calls = append(c.calls, call)
	if err, ok := c.failures[call.Op]; ok {
		delete(c.failures, call.Op)
		return err
	}
	return nil
}

func (c *MockClient) table(op, path string) (*mockTable, error) {
	table := c.tables[strings.ToUpper(path)]
	if table == nil {
		return nil, &Error{Kind: KindRemote, Op: op, Path: path, StatusCode: http.StatusNotFound, Message: "unknown resource"}
	}
	return table, nil
}

func (c *MockClient) rowsOf(resourcePath string) []Record {
	if table := c.tables[resourcePath]; table != nil {
		return table.rows
	}
	return nil
}

// derivedSellers sums order item quantities per product name.
func (c *MockClient) derivedSellers() []SalesItem {
	names := map[string]string{}
	for _, row := range c.rowsOf("/PRODUCT") {
		names[row.String("product_id")] = row.String("name")
	}
	totals := map[string]float64{}
	for _, row := range c.rowsOf("/ORDERITEM") {
		qty, _ := Float64(row["quantity"])
		name := names[row.String("product_id")]
		if name == "" {
			name = row.String("product_id")
		}
		totals[name] += qty
	}
	items := make([]SalesItem, 0, len(totals))
	for name, total := range totals {
		items = append(items, SalesItem{Name: name, TotalSold: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalSold == items[j].TotalSold {
			return items[i].Name < items[j].Name
		}
		return items[i].TotalSold > items[j].TotalSold
	})
	return items
}

func (t *mockTable) index(id string) int {
	for i, row := range t.rows {
		if row.String(t.primaryKey) == id {
			return i
		}
	}
	return -1
}

func cloneRecords(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// ErrMockUnavailable is a convenience transport failure for FailNext.
var ErrMockUnavailable = &Error{Kind: KindTransport, Op: "mock", Message: "backend unavailable", Err: errors.New("connection refused")}
