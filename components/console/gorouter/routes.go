package gorouter

import (
	"errors"
	"net/http"
	"strings"
	"time"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-neushop/components/console"
	"github.com/goliatone/go-neushop/components/console/commands"
)

// Config wires go-router with the console controller, commands and events.
type Config[T any] struct {
	Router       router.Router[T]
	Controller   *console.Controller
	Executor     *commands.Executor
	Broadcast    *console.BroadcastHook
	SecureCookie bool
	CookieTTL    time.Duration
}

type route struct {
	method  string
	path    string
	params  []string
	handler func(request) response
}

// Register mounts the console pages, the JSON API under /api and the event
// WebSocket on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	exec := cfg.Executor
	if exec == nil {
		exec = commands.NewExecutor(cfg.Controller.Service(), nil)
	}
	h := &handlers{
		controller:   cfg.Controller,
		service:      cfg.Controller.Service(),
		exec:         exec,
		secureCookie: cfg.SecureCookie,
		cookieTTL:    cfg.CookieTTL,
	}

	group := cfg.Router.Group(cfg.Controller.BasePath())
	for _, rt := range h.routes() {
		handler := adapt(rt)
		switch rt.method {
		case http.MethodGet:
			group.Get(rt.path, handler)
		case http.MethodDelete:
			group.Delete(rt.path, handler)
		default:
			group.Post(rt.path, handler)
		}
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, "/ws")
	}
	return nil
}

func (h *handlers) routes() []route {
	entity := []string{"entity"}
	record := []string{"entity", "id"}
	return []route{
		{http.MethodGet, "", nil, h.showPage},
		{http.MethodGet, "/", nil, h.showPage},
		{http.MethodPost, "/login", nil, h.loginForm},
		{http.MethodPost, "/register", nil, h.registerForm},
		{http.MethodPost, "/logout", nil, h.logoutForm},
		{http.MethodPost, "/show/:view", []string{"view"}, h.showForm},
		{http.MethodPost, "/panels/:entity/load", entity, h.loadPanelForm},
		{http.MethodPost, "/panels/:entity/create", entity, h.createForm},
		{http.MethodPost, "/panels/:entity/:id/edit", record, h.editForm},
		{http.MethodPost, "/panels/:entity/:id/save", record, h.saveForm},
		{http.MethodPost, "/panels/:entity/:id/cancel", record, h.cancelForm},
		{http.MethodPost, "/panels/:entity/:id/delete", record, h.deleteForm},
		{http.MethodPost, "/widgets/:code", []string{"code"}, h.widgetForm},

		{http.MethodGet, "/api/view", nil, h.apiView},
		{http.MethodPost, "/api/login", nil, h.apiLogin},
		{http.MethodPost, "/api/register", nil, h.apiRegister},
		{http.MethodPost, "/api/logout", nil, h.apiLogout},
		{http.MethodPost, "/api/panels/:entity/load", entity, h.apiLoadPanel},
		{http.MethodPost, "/api/panels/:entity", entity, h.apiCreate},
		{http.MethodPost, "/api/panels/:entity/:id", record, h.apiSave},
		{http.MethodDelete, "/api/panels/:entity/:id", record, h.apiDelete},
		{http.MethodPost, "/api/widgets/:code", []string{"code"}, h.apiWidget},
		{http.MethodPost, "/api/preferences", nil, h.apiPreferences},
	}
}

func adapt(rt route) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		req := request{
			ctx:     ctx.Context(),
			session: sessionFromHeader(ctx.Header("Cookie")),
			params:  map[string]string{},
			query:   map[string]string{"confirm": ctx.Query("confirm")},
			body:    ctx.Body(),
		}
		for _, name := range rt.params {
			req.params[name] = ctx.Param(name)
		}
		res := rt.handler(req)
		if res.cookie != "" {
			ctx.SetHeader("Set-Cookie", res.cookie)
		}
		if res.json != nil {
			return ctx.JSON(res.status, res.json)
		}
		ctx.SetHeader("Content-Type", res.contentType)
		return ctx.Send(res.body)
	})
}

func registerWebSocket[T any](r router.Router[T], hook *console.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func sessionFromHeader(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == SessionCookie {
			return c.Value
		}
	}
	return ""
}
