package neushop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the Neushop backend origin used when none is configured.
const DefaultBaseURL = "https://db-group5-452710.wl.r.appspot.com"

const maxErrorBody = 64 << 10

// HTTPConfig configures the HTTP backend client.
type HTTPConfig struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPClient talks to the Neushop REST backend.
type HTTPClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client. Without an explicit *http.Client a new one is
// created with its own cookie jar, so a session cookie issued by /login is
// replayed on every later call made through this client.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("neushop: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("neushop: parse base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("neushop: cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: timeout, Jar: jar}
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    httpClient,
	}, nil
}

// List issues GET path and decodes whatever JSON comes back. The status code is
// not checked: a non-array body (for example an error object) yields an empty,
// non-array listing.
func (c *HTTPClient) List(ctx context.Context, path string) (Listing, error) {
	resp, err := c.send(ctx, "list", http.MethodGet, path, nil)
	if err != nil {
		return Listing{}, err
	}
	defer resp.Body.Close()
	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Listing{}, &Error{Kind: KindPayload, Op: "list", Path: path, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	return toListing(raw, resp.StatusCode), nil
}

// Create POSTs payload to the resource path.
func (c *HTTPClient) Create(ctx context.Context, path string, payload map[string]any) error {
	return c.do(ctx, "create", http.MethodPost, path, payload, nil)
}

// Update PUTs payload to path/{id}.
func (c *HTTPClient) Update(ctx context.Context, path, id string, payload map[string]any) error {
	return c.do(ctx, "update", http.MethodPut, joinPath(path, id), payload, nil)
}

// Delete issues DELETE path/{id} without a body.
func (c *HTTPClient) Delete(ctx context.Context, path, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, joinPath(path, id), nil, nil)
}

// LowStock implements ReportClient via /products/low-stock/{threshold}.
func (c *HTTPClient) LowStock(ctx context.Context, threshold int) ([]StockItem, error) {
	path := joinPath("/products/low-stock", strconv.Itoa(threshold))
	rows, err := c.getRows(ctx, "low-stock", path)
	if err != nil {
		return nil, err
	}
	items := make([]StockItem, len(rows))
	for i, row := range rows {
		qty, _ := Float64(row["stock_quantity"])
		items[i] = StockItem{Name: row.String("name"), StockQuantity: qty}
	}
	return items, nil
}

// BestSellers implements ReportClient via /products/best-selling/{days}/{limit}.
func (c *HTTPClient) BestSellers(ctx context.Context, days, limit int) ([]SalesItem, error) {
	path := joinPath("/products/best-selling", strconv.Itoa(days), strconv.Itoa(limit))
	rows, err := c.getRows(ctx, "best-sellers", path)
	if err != nil {
		return nil, err
	}
	items := make([]SalesItem, len(rows))
	for i, row := range rows {
		sold, _ := Float64(row["total_sold"])
		items[i] = SalesItem{Name: row.String("name"), TotalSold: sold}
	}
	return items, nil
}

// Revenue implements ReportClient via /revenue/{days}. A missing or null
// total is reported as 0.
func (c *HTTPClient) Revenue(ctx context.Context, days int) (RevenueReport, error) {
	path := joinPath("/revenue", strconv.Itoa(days))
	var body map[string]any
	if err := c.do(ctx, "revenue", http.MethodGet, path, nil, &body); err != nil {
		return RevenueReport{}, err
	}
	total, _ := Float64(body["total_revenue"])
	return RevenueReport{Days: days, TotalRevenue: total}, nil
}

// OrdersByStatus implements ReportClient via /orders/status/{status}.
func (c *HTTPClient) OrdersByStatus(ctx context.Context, status string) ([]OrderSummary, error) {
	path := joinPath("/orders/status", status)
	rows, err := c.getRows(ctx, "orders-by-status", path)
	if err != nil {
		return nil, err
	}
	orders := make([]OrderSummary, len(rows))
	for i, row := range rows {
		total, _ := Float64(row["total_amount"])
		orders[i] = OrderSummary{
			OrderID:     row.String("order_id"),
			Status:      row.String("status"),
			OrderDate:   row.String("order_date"),
			TotalAmount: total,
		}
	}
	return orders, nil
}

// Login implements AuthClient via POST /login.
func (c *HTTPClient) Login(ctx context.Context, creds Credentials) error {
	return c.do(ctx, "login", http.MethodPost, "/login", creds, nil)
}

// Register implements AuthClient via POST /register.
func (c *HTTPClient) Register(ctx context.Context, reg Registration) error {
	return c.do(ctx, "register", http.MethodPost, "/register", reg, nil)
}

// Logout implements AuthClient via POST /logout.
func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout", nil, nil)
}

func (c *HTTPClient) getRows(ctx context.Context, op, path string) ([]Record, error) {
	var raw any
	if err := c.do(ctx, op, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	listing := toListing(raw, http.StatusOK)
	if !listing.IsArray {
		return nil, &Error{Kind: KindPayload, Op: op, Path: path, Message: "expected a JSON array"}
	}
	return listing.Records, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload any, target any) error {
	resp, err := c.send(ctx, op, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return remoteError(op, path, resp)
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &Error{Kind: KindPayload, Op: op, Path: path, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, op, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Op: op, Path: path, Message: "encode payload", Err: err}
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Path: path, Message: "build request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Path: path, Message: "http request", Err: err}
	}
	return resp, nil
}

func remoteError(op, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(data))
	var structured struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &structured); err == nil && strings.TrimSpace(structured.Error) != "" {
		structured.Error = strings.TrimSpace(structured.Error)
		msg = structured.Error
	} else if msg == "" || strings.HasPrefix(msg, "<") {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{
		Kind:       KindRemote,
		Op:         op,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    msg,
		Remote:     structured.Error,
		Err:        errors.New(http.StatusText(resp.StatusCode)),
	}
}

// joinPath appends escaped segments to a resource path.
func joinPath(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}
