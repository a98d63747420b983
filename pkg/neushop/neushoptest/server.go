// Package neushoptest provides an httptest-backed fake of the Neushop REST
// backend for tests and local demos.
package neushoptest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

// SessionCookie is the cookie issued by /login and /register.
const SessionCookie = "neushop_backend"

// Request is one request received by the fake backend.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// JSON decodes the request body into a map.
func (r Request) JSON() map[string]any {
	var out map[string]any
	_ = json.Unmarshal(r.Body, &out)
	return out
}

type cannedResponse struct {
	status int
	body   string
}

// Server is a fake Neushop backend. Data lives in a neushop.MockClient.
type Server struct {
	*httptest.Server

	Store *neushop.MockClient

	// RequireSession rejects data calls without the cookie issued by /login.
	RequireSession bool

	mu       sync.Mutex
	requests []Request
	canned   map[string]cannedResponse
}

// Tables returns the ten Neushop tables with their list and mutation paths.
func Tables() []neushop.MockTable {
	return []neushop.MockTable{
		{ListPath: "/user", ResourcePath: "/USER", PrimaryKey: "user_id"},
		{ListPath: "/customers", ResourcePath: "/CUSTOMER", PrimaryKey: "user_id"},
		{ListPath: "/sellers", ResourcePath: "/SELLER", PrimaryKey: "user_id"},
		{ListPath: "/admins", ResourcePath: "/ADMIN", PrimaryKey: "user_id"},
		{ListPath: "/categories", ResourcePath: "/CATEGORY", PrimaryKey: "category_id"},
		{ListPath: "/carts", ResourcePath: "/CART", PrimaryKey: "cart_id"},
		{ListPath: "/products", ResourcePath: "/PRODUCT", PrimaryKey: "product_id"},
		{ListPath: "/orders", ResourcePath: "/ORDER", PrimaryKey: "order_id"},
		{ListPath: "/orderitems", ResourcePath: "/ORDERITEM", PrimaryKey: "order_item_id"},
		{ListPath: "/payments", ResourcePath: "/PAYMENT", PrimaryKey: "payment_id"},
	}
}

// NewServer starts a fake backend. When data has no tables the ten empty
// Neushop tables are used.
func NewServer(data neushop.MockData) *Server {
	if len(data.Tables) == 0 {
		data.Tables = Tables()
	}
	s := &Server{
		Store:  neushop.NewMockClient(data),
		canned: map[string]cannedResponse{},
	}
	mux := http.NewServeMux()
	for _, table := range data.Tables {
		s.routeTable(mux, table)
	}
	mux.HandleFunc("GET /products/low-stock/{threshold}", s.lowStock)
	mux.HandleFunc("GET /products/best-selling/{days}/{limit}", s.bestSellers)
	mux.HandleFunc("GET /revenue/{days}", s.revenue)
	mux.HandleFunc("GET /orders/status/{status}", s.ordersByStatus)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /register", s.register)
	mux.HandleFunc("POST /logout", s.logout)
	s.Server = httptest.NewServer(s.capture(mux))
	return s
}

// Respond makes every later "METHOD path" request answer with status and body.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[method+" "+path] = cannedResponse{status: status, body: body}
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// NeushopClient returns an HTTP backend client pointed at the server.
func (s *Server) NeushopClient() *neushop.HTTPClient {
	client, err := neushop.NewHTTPClient(neushop.HTTPConfig{BaseURL: s.URL})
	if err != nil {
		panic(err)
	}
	return client
}

func (s *Server) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      r.Method,
			Path:        r.URL.EscapedPath(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		canned, ok := s.canned[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			_, _ = io.WriteString(w, canned.body)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) routeTable(mux *http.ServeMux, table neushop.MockTable) {
	mux.HandleFunc("GET "+table.ListPath, func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(w, r) {
			return
		}
		listing, err := s.Store.List(r.Context(), table.ListPath)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing.Records)
	})
	mux.HandleFunc("POST "+table.ResourcePath, func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(w, r) {
			return
		}
		payload, ok := decodePayload(w, r)
		if !ok {
			return
		}
		if err := s.Store.Create(r.Context(), table.ResourcePath, payload); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "created"})
	})
	mux.HandleFunc("PUT "+table.ResourcePath+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(w, r) {
			return
		}
		payload, ok := decodePayload(w, r)
		if !ok {
			return
		}
		if err := s.Store.Update(r.Context(), table.ResourcePath, r.PathValue("id"), payload); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
	})
	mux.HandleFunc("DELETE "+table.ResourcePath+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(w, r) {
			return
		}
		if err := s.Store.Delete(r.Context(), table.ResourcePath, r.PathValue("id")); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	})
}

func (s *Server) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := strconv.Atoi(r.PathValue("threshold"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid threshold"})
		return
	}
	items, err := s.Store.LowStock(r.Context(), threshold)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	rows := make([]map[string]any, len(items))
	for i, item := range items {
		rows[i] = map[string]any{"name": item.Name, "stock_quantity": item.StockQuantity}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) bestSellers(w http.ResponseWriter, r *http.Request) {
	days, errDays := strconv.Atoi(r.PathValue("days"))
	limit, errLimit := strconv.Atoi(r.PathValue("limit"))
	if errDays != nil || errLimit != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid parameters"})
		return
	}
	items, err := s.Store.BestSellers(r.Context(), days, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	rows := make([]map[string]any, len(items))
	for i, item := range items {
		rows[i] = map[string]any{"name": item.Name, "total_sold": item.TotalSold}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) revenue(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.PathValue("days"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid days"})
		return
	}
	report, err := s.Store.Revenue(r.Context(), days)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_revenue": report.TotalRevenue})
}

func (s *Server) ordersByStatus(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Store.OrdersByStatus(r.Context(), r.PathValue("status"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	rows := make([]map[string]any, len(orders))
	for i, order := range orders {
		rows[i] = map[string]any{
			"order_id":     order.OrderID,
			"status":       order.Status,
			"order_date":   order.OrderDate,
			"total_amount": order.TotalAmount,
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds neushop.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if err := s.Store.Login(r.Context(), creds); err != nil {
		writeStoreError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: creds.Username, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg neushop.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if err := s.Store.Register(r.Context(), reg); err != nil {
		writeStoreError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: reg.Username, Path: "/"})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	_ = s.Store.Logout(context.WithoutCancel(r.Context()))
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if !s.RequireSession {
		return true
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return true
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	return false
}

func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return nil, false
	}
	return payload, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var target *neushop.Error
	if errors.As(err, &target) && target.StatusCode > 0 {
		status = target.StatusCode
	}
	msg := err.Error()
	if target != nil && target.Message != "" {
		msg = target.Message
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
