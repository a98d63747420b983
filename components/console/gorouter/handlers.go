package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-neushop/components/console"
	"github.com/goliatone/go-neushop/components/console/commands"
	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/components/session"
	"github.com/goliatone/go-neushop/pkg/neushop"
)

// SessionCookie carries the workspace id between requests.
const SessionCookie = "neushop_session"

// request is the transport-neutral view of an incoming call.
type request struct {
	ctx     context.Context
	session string
	params  map[string]string
	query   map[string]string
	body    []byte
}

func (r request) param(name string) string {
	return r.params[name]
}

func (r request) form() url.Values {
	values, err := url.ParseQuery(string(r.body))
	if err != nil {
		return url.Values{}
	}
	return values
}

// response is written back by the router adapter. JSON wins over body when
// set.
type response struct {
	status      int
	contentType string
	body        []byte
	json        any
	cookie      string
}

type handlers struct {
	controller   *console.Controller
	service      *console.Service
	exec         *commands.Executor
	secureCookie bool
	cookieTTL    time.Duration
}

// workspace resolves the session cookie, opening a workspace when needed.
func (h *handlers) workspace(req request) (string, string, error) {
	ws, created, err := h.service.Resolve(req.ctx, req.session)
	if err != nil {
		return "", "", err
	}
	cookie := ""
	if created {
		cookie = h.cookie(ws.ID)
	}
	return ws.ID, cookie, nil
}

func (h *handlers) cookie(id string) string {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookieTTL > 0 {
		c.MaxAge = int(h.cookieTTL.Seconds())
	}
	return c.String()
}

// page runs action for the workspace, then renders the current page. Action
// errors are already reflected in the workspace state.
func (h *handlers) page(req request, action func(id string) error) response {
	id, cookie, err := h.workspace(req)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	if action != nil {
		_ = action(id)
	}
	return h.render(id, cookie)
}

func (h *handlers) render(id, cookie string) response {
	var buf bytes.Buffer
	if err := h.controller.RenderPage(context.Background(), id, &buf); err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	return response{status: http.StatusOK, contentType: "text/html; charset=utf-8", body: buf.Bytes(), cookie: cookie}
}

func (h *handlers) showPage(req request) response {
	return h.page(req, nil)
}

func (h *handlers) loginForm(req request) response {
	form := req.form()
	return h.page(req, func(id string) error {
		return h.exec.Login.Execute(req.ctx, commands.LoginInput{
			Workspace: id,
			Username:  form.Get("username"),
			Password:  form.Get("password"),
		})
	})
}

func (h *handlers) registerForm(req request) response {
	form := req.form()
	return h.page(req, func(id string) error {
		return h.exec.Register.Execute(req.ctx, commands.RegisterInput{
			Workspace: id,
			Username:  form.Get("username"),
			Email:     form.Get("email"),
			Password:  form.Get("password"),
		})
	})
}

func (h *handlers) logoutForm(req request) response {
	return h.page(req, func(id string) error {
		return h.exec.Logout.Execute(req.ctx, commands.LogoutInput{Workspace: id})
	})
}

func (h *handlers) showForm(req request) response {
	return h.page(req, func(id string) error {
		return h.exec.ShowForm.Execute(req.ctx, commands.ShowFormInput{Workspace: id, View: session.View(req.param("view"))})
	})
}

func (h *handlers) loadPanelForm(req request) response {
	return h.page(req, func(id string) error {
		return h.exec.LoadPanel.Execute(req.ctx, commands.PanelInput{Workspace: id, Entity: req.param("entity")})
	})
}

func (h *handlers) createForm(req request) response {
	draft := flatten(req.form())
	return h.page(req, func(id string) error {
		return h.exec.CreateRecord.Execute(req.ctx, commands.RecordInput{Workspace: id, Entity: req.param("entity"), Draft: draft})
	})
}

func (h *handlers) editForm(req request) response {
	return h.page(req, func(id string) error {
		return h.exec.StartEdit.Execute(req.ctx, commands.RecordInput{Workspace: id, Entity: req.param("entity"), ID: req.param("id")})
	})
}

func (h *handlers) cancelForm(req request) response {
	return h.page(req, func(id string) error {
		return h.exec.CancelEdit.Execute(req.ctx, commands.PanelInput{Workspace: id, Entity: req.param("entity")})
	})
}

func (h *handlers) saveForm(req request) response {
	draft := flatten(req.form())
	return h.page(req, func(id string) error {
		return h.exec.SaveEdit.Execute(req.ctx, commands.RecordInput{
			Workspace: id,
			Entity:    req.param("entity"),
			ID:        req.param("id"),
			Draft:     draft,
		})
	})
}

// deleteForm asks for confirmation first; the confirm page posts back with
// confirm=yes or confirm=no.
func (h *handlers) deleteForm(req request) response {
	answer := req.form().Get("confirm")
	if answer == "" {
		id, cookie, err := h.workspace(req)
		if err != nil {
			return errorResponse(http.StatusInternalServerError, err)
		}
		var buf bytes.Buffer
		if err := h.controller.RenderConfirm(req.ctx, id, req.param("entity"), req.param("id"), &buf); err != nil {
			return h.render(id, cookie)
		}
		return response{status: http.StatusOK, contentType: "text/html; charset=utf-8", body: buf.Bytes(), cookie: cookie}
	}
	confirm := panel.NeverConfirm
	if answer == "yes" {
		confirm = panel.AlwaysConfirm
	}
	return h.page(req, func(id string) error {
		return h.exec.DeleteRecord.Execute(req.ctx, commands.DeleteInput{
			Workspace: id,
			Entity:    req.param("entity"),
			ID:        req.param("id"),
			Confirm:   confirm,
		})
	})
}

func (h *handlers) widgetForm(req request) response {
	params := flatten(req.form())
	return h.page(req, func(id string) error {
		return h.exec.RunWidget.Execute(req.ctx, commands.RunWidgetInput{Workspace: id, Code: req.param("code"), Params: params})
	})
}

func (h *handlers) apiView(req request) response {
	id, cookie, err := h.workspace(req)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	view, err := h.exec.View.Query(req.ctx, commands.ViewInput{Workspace: id})
	if err != nil {
		return withCookie(errorResponse(statusFor(err), err), cookie)
	}
	return response{status: http.StatusOK, json: view, cookie: cookie}
}

func (h *handlers) apiLogin(req request) response {
	var in commands.LoginInput
	return h.apiSession(req, &in, func(id string) error {
		in.Workspace = id
		return h.exec.Login.Execute(req.ctx, in)
	})
}

func (h *handlers) apiRegister(req request) response {
	var in commands.RegisterInput
	return h.apiSession(req, &in, func(id string) error {
		in.Workspace = id
		return h.exec.Register.Execute(req.ctx, in)
	})
}

func (h *handlers) apiLogout(req request) response {
	return h.apiSession(req, nil, func(id string) error {
		return h.exec.Logout.Execute(req.ctx, commands.LogoutInput{Workspace: id})
	})
}

// apiSession answers with the gate state. Failures carry the text the login
// page would show.
func (h *handlers) apiSession(req request, payload any, action func(id string) error) response {
	if payload != nil {
		if err := decode(req.body, payload); err != nil {
			return errorResponse(http.StatusBadRequest, err)
		}
	}
	id, cookie, err := h.workspace(req)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	actionErr := action(id)
	view, err := h.exec.View.Query(req.ctx, commands.ViewInput{Workspace: id})
	if err != nil {
		return withCookie(errorResponse(statusFor(err), err), cookie)
	}
	if actionErr != nil && view.Session.Error != "" {
		return response{status: statusFor(actionErr), json: map[string]any{"error": view.Session.Error, "session": view.Session}, cookie: cookie}
	}
	return response{status: http.StatusOK, json: map[string]any{"session": view.Session}, cookie: cookie}
}

func (h *handlers) apiLoadPanel(req request) response {
	return h.apiPanel(req, func(id string) error {
		return h.exec.LoadPanel.Execute(req.ctx, commands.PanelInput{Workspace: id, Entity: req.param("entity")})
	})
}

func (h *handlers) apiCreate(req request) response {
	draft := map[string]string{}
	if err := decode(req.body, &draft); err != nil {
		return errorResponse(http.StatusBadRequest, err)
	}
	return h.apiPanel(req, func(id string) error {
		return h.exec.CreateRecord.Execute(req.ctx, commands.RecordInput{Workspace: id, Entity: req.param("entity"), Draft: draft})
	})
}

func (h *handlers) apiSave(req request) response {
	draft := map[string]string{}
	if err := decode(req.body, &draft); err != nil {
		return errorResponse(http.StatusBadRequest, err)
	}
	return h.apiPanel(req, func(id string) error {
		return h.exec.SaveEdit.Execute(req.ctx, commands.RecordInput{
			Workspace: id,
			Entity:    req.param("entity"),
			ID:        req.param("id"),
			Draft:     draft,
		})
	})
}

// apiDelete requires confirm=true; anything else is a declined prompt and
// issues no backend call.
func (h *handlers) apiDelete(req request) response {
	confirm := panel.NeverConfirm
	if strings.EqualFold(req.query["confirm"], "true") {
		confirm = panel.AlwaysConfirm
	}
	return h.apiPanel(req, func(id string) error {
		return h.exec.DeleteRecord.Execute(req.ctx, commands.DeleteInput{
			Workspace: id,
			Entity:    req.param("entity"),
			ID:        req.param("id"),
			Confirm:   confirm,
		})
	})
}

func (h *handlers) apiPanel(req request, action func(id string) error) response {
	id, cookie, err := h.workspace(req)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	actionErr := action(id)
	view, err := h.exec.Panel.Query(req.ctx, commands.PanelInput{Workspace: id, Entity: req.param("entity")})
	if err != nil {
		return withCookie(errorResponse(statusFor(err), err), cookie)
	}
	if actionErr != nil {
		return response{status: statusFor(actionErr), json: map[string]any{"error": messageFor(actionErr), "panel": view}, cookie: cookie}
	}
	return response{status: http.StatusOK, json: map[string]any{"panel": view}, cookie: cookie}
}

func (h *handlers) apiWidget(req request) response {
	params := map[string]string{}
	if len(bytes.TrimSpace(req.body)) > 0 {
		if err := decode(req.body, &params); err != nil {
			return errorResponse(http.StatusBadRequest, err)
		}
	}
	id, cookie, err := h.workspace(req)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	code := req.param("code")
	runErr := h.exec.RunWidget.Execute(req.ctx, commands.RunWidgetInput{Workspace: id, Code: code, Params: params})
	state, err := h.exec.Widget.Query(req.ctx, commands.WidgetInput{Workspace: id, Code: code})
	if err != nil {
		return withCookie(errorResponse(statusFor(err), err), cookie)
	}
	if runErr != nil {
		return response{status: statusFor(runErr), json: map[string]any{"error": messageFor(runErr), "widget": state}, cookie: cookie}
	}
	return response{status: http.StatusOK, json: map[string]any{"widget": state}, cookie: cookie}
}

func (h *handlers) apiPreferences(req request) response {
	var prefs console.Preferences
	if err := decode(req.body, &prefs); err != nil {
		return errorResponse(http.StatusBadRequest, err)
	}
	id, cookie, err := h.workspace(req)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	if err := h.exec.SavePreferences.Execute(req.ctx, commands.PreferencesInput{Workspace: id, Preferences: prefs}); err != nil {
		return withCookie(errorResponse(statusFor(err), err), cookie)
	}
	return response{status: http.StatusOK, json: map[string]string{"status": "saved"}, cookie: cookie}
}

func decode(body []byte, target any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.New("request body must be JSON")
	}
	return nil
}

func flatten(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, console.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, console.ErrWorkspaceNotFound),
		errors.Is(err, panel.ErrUnknownEntity),
		errors.Is(err, panel.ErrRecordNotFound),
		errors.Is(err, dashboard.ErrUnknownWidget):
		return http.StatusNotFound
	}
	switch neushop.KindOf(err) {
	case neushop.KindValidation:
		return http.StatusBadRequest
	case neushop.KindRemote:
		// backend client errors pass through; server errors become 502.
		var remote *neushop.Error
		if errors.As(err, &remote) && remote.StatusCode >= 400 && remote.StatusCode < 500 {
			return remote.StatusCode
		}
		return http.StatusBadGateway
	case neushop.KindPayload, neushop.KindTransport:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	return neushop.ErrorStatus("", err, time.Time{}).Message
}

func errorResponse(status int, err error) response {
	return response{status: status, json: map[string]string{"error": err.Error()}}
}

func withCookie(res response, cookie string) response {
	res.cookie = cookie
	return res
}
