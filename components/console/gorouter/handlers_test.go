package gorouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-neushop/components/console"
	"github.com/goliatone/go-neushop/components/console/commands"
	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/pkg/neushop"
	"github.com/goliatone/go-neushop/pkg/neushop/neushoptest"
)

type stubRenderer struct {
	names []string
	data  map[string]any
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.names = append(s.names, name)
	s.data, _ = data.(map[string]any)
	for _, w := range out {
		_, _ = io.WriteString(w, "<"+name+">")
	}
	return name, nil
}

func (s *stubRenderer) last() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}

type harness struct {
	h        *handlers
	client   *neushop.MockClient
	renderer *stubRenderer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tables := neushoptest.Tables()
	for i := range tables {
		if tables[i].ListPath == "/categories" {
			tables[i].Rows = []neushop.Record{{"category_id": "C1", "category_name": "Shoes", "description": "Footwear"}}
		}
	}
	client := neushop.NewMockClient(neushop.MockData{Tables: tables, Users: map[string]string{"alice": "secret"}})
	svc, err := console.NewService(console.Options{
		ClientFactory: func() (neushop.Client, error) { return client, nil },
	})
	require.NoError(t, err)
	renderer := &stubRenderer{}
	ctrl := console.NewController(console.ControllerOptions{Service: svc, Renderer: renderer})
	return &harness{
		h: &handlers{
			controller: ctrl,
			service:    svc,
			exec:       commands.NewExecutor(svc, nil),
		},
		client:   client,
		renderer: renderer,
	}
}

func sessionID(t *testing.T, res response) string {
	t.Helper()
	require.NotEmpty(t, res.cookie)
	c, err := http.ParseSetCookie(res.cookie)
	require.NoError(t, err)
	assert.Equal(t, SessionCookie, c.Name)
	assert.True(t, c.HttpOnly)
	return c.Value
}

func form(session string, body string, params map[string]string) request {
	return request{ctx: context.Background(), session: session, body: []byte(body), params: params, query: map[string]string{}}
}

func (hs *harness) login(t *testing.T) string {
	t.Helper()
	res := hs.h.loginForm(form("", "username=alice&password=secret", nil))
	require.Equal(t, http.StatusOK, res.status)
	return sessionID(t, res)
}

func TestShowPageOpensWorkspaceWithCookie(t *testing.T) {
	hs := newHarness(t)
	res := hs.h.showPage(form("", "", nil))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "<login>", string(res.body))
	assert.NotEmpty(t, sessionID(t, res))

	again := hs.h.showPage(form(sessionID(t, res), "", nil))
	assert.Empty(t, again.cookie)
}

func TestLoginFormRendersConsole(t *testing.T) {
	hs := newHarness(t)
	hs.login(t)
	assert.Equal(t, console.TemplateConsole, hs.renderer.last())
}

func TestLoginFormFailureStaysOnLogin(t *testing.T) {
	hs := newHarness(t)
	res := hs.h.loginForm(form("", "username=alice&password=nope", nil))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, console.TemplateLogin, hs.renderer.last())
}

func TestCreateFormAddsRecord(t *testing.T) {
	hs := newHarness(t)
	id := hs.login(t)

	res := hs.h.createForm(form(id, "category_id=C2&category_name=Hats&description=Headwear", map[string]string{"entity": "category"}))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Len(t, hs.client.Rows("/categories"), 2)
}

func TestDeleteFormAsksBeforeDeleting(t *testing.T) {
	hs := newHarness(t)
	id := hs.login(t)
	params := map[string]string{"entity": "category", "id": "C1"}

	res := hs.h.deleteForm(form(id, "", params))
	assert.Equal(t, "<confirm>", string(res.body))
	assert.Equal(t, "Delete CATEGORY with ID=C1?", hs.renderer.data["prompt"])
	assert.Len(t, hs.client.Rows("/categories"), 1)

	hs.h.deleteForm(form(id, "confirm=no", params))
	assert.Len(t, hs.client.Rows("/categories"), 1)

	hs.h.deleteForm(form(id, "confirm=yes", params))
	assert.Empty(t, hs.client.Rows("/categories"))
}

func TestAPIRequiresLogin(t *testing.T) {
	hs := newHarness(t)
	res := hs.h.apiLoadPanel(form("", "", map[string]string{"entity": "category"}))
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.NotEmpty(t, res.cookie)
}

func TestAPILoginFailureReportsInvalidLogin(t *testing.T) {
	hs := newHarness(t)
	res := hs.h.apiLogin(form("", `{"username":"alice","password":"nope"}`, nil))
	assert.Equal(t, http.StatusUnauthorized, res.status)
	body := res.json.(map[string]any)
	assert.Equal(t, "Invalid login", body["error"])
}

func TestAPIRejectsMalformedBody(t *testing.T) {
	hs := newHarness(t)
	res := hs.h.apiLogin(form("", `{not json`, nil))
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestAPIPanelLifecycle(t *testing.T) {
	hs := newHarness(t)
	id := hs.login(t)
	params := map[string]string{"entity": "category"}

	res := hs.h.apiLoadPanel(form(id, "", params))
	require.Equal(t, http.StatusOK, res.status)
	view := res.json.(map[string]any)["panel"].(panel.TableView)
	assert.Equal(t, 1, view.RowCount())

	res = hs.h.apiCreate(form(id, `{"category_id":"C2","category_name":"Hats","description":"Headwear"}`, params))
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, hs.client.Rows("/categories"), 2)

	del := form(id, "", map[string]string{"entity": "category", "id": "C2"})
	res = hs.h.apiDelete(del)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Len(t, hs.client.Rows("/categories"), 2)

	del.query["confirm"] = "true"
	res = hs.h.apiDelete(del)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Len(t, hs.client.Rows("/categories"), 1)
}

func TestAPIBackendFailureMapsToBadGateway(t *testing.T) {
	hs := newHarness(t)
	id := hs.login(t)
	hs.client.FailNext("list", neushop.ErrMockUnavailable)

	res := hs.h.apiLoadPanel(form(id, "", map[string]string{"entity": "category"}))
	assert.Equal(t, http.StatusBadGateway, res.status)
	assert.Equal(t, "backend unavailable", res.json.(map[string]any)["error"])
}

func TestAPIWidgetValidation(t *testing.T) {
	hs := newHarness(t)
	id := hs.login(t)
	params := map[string]string{"code": dashboard.WidgetRevenue}

	res := hs.h.apiWidget(form(id, `{"days":"abc"}`, params))
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = hs.h.apiWidget(form(id, `{"days":"7"}`, params))
	require.Equal(t, http.StatusOK, res.status)
	state := res.json.(map[string]any)["widget"].(dashboard.WidgetState)
	assert.True(t, state.HasData)

	res = hs.h.apiWidget(form(id, "", map[string]string{"code": "missing"}))
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestAPIViewSerializes(t *testing.T) {
	hs := newHarness(t)
	id := hs.login(t)
	res := hs.h.apiView(form(id, "", nil))
	require.Equal(t, http.StatusOK, res.status)
	raw, err := json.Marshal(res.json)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"authenticated":true`))
}

func TestSessionFromHeader(t *testing.T) {
	assert.Equal(t, "abc", sessionFromHeader("theme=dark; neushop_session=abc"))
	assert.Equal(t, "", sessionFromHeader(""))
	assert.Equal(t, "", sessionFromHeader("other=1"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(console.ErrUnauthenticated))
	assert.Equal(t, http.StatusNotFound, statusFor(panel.ErrUnknownEntity))
	assert.Equal(t, http.StatusBadRequest, statusFor(neushop.NewValidationError("x", "bad")))
	assert.Equal(t, http.StatusBadGateway, statusFor(neushop.ErrMockUnavailable))
	assert.Equal(t, http.StatusConflict, statusFor(&neushop.Error{Kind: neushop.KindRemote, StatusCode: http.StatusConflict}))
	assert.Equal(t, http.StatusBadGateway, statusFor(&neushop.Error{Kind: neushop.KindRemote, StatusCode: http.StatusInternalServerError}))
}

func TestRegisterRequiresRouterAndController(t *testing.T) {
	assert.Error(t, Register(Config[any]{}))
}
