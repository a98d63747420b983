package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-neushop/pkg/neushop"
	"github.com/goliatone/go-neushop/pkg/neushop/neushoptest"
)

func TestLoginSuccessUnlocksConsole(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Users: map[string]string{"ana": "secret"}})
	gate := New(client)

	require.NoError(t, gate.Login(context.Background(), "ana", "secret"))
	state := gate.State()
	assert.True(t, state.Authenticated)
	assert.Equal(t, ViewConsole, state.View)
	assert.Equal(t, "ana", state.Username)
	assert.Empty(t, state.Error)
}

func TestLoginFailureShowsInvalidLogin(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Users: map[string]string{"ana": "secret"}})
	gate := New(client)

	require.Error(t, gate.Login(context.Background(), "ana", "wrong"))
	state := gate.State()
	assert.False(t, state.Authenticated)
	assert.Equal(t, ViewLogin, state.View)
	assert.Equal(t, InvalidLoginText, state.Error)
}

func TestLoginOverHTTPReplaysSessionCookie(t *testing.T) {
	backend := neushoptest.NewServer(neushop.MockData{Users: map[string]string{"ana": "secret"}})
	backend.RequireSession = true
	t.Cleanup(backend.Close)
	client := backend.NeushopClient()
	gate := New(client)
	ctx := context.Background()

	require.NoError(t, gate.Login(ctx, "ana", "secret"))
	listing, err := client.List(ctx, "/categories")
	require.NoError(t, err)
	assert.True(t, listing.IsArray)

	login := backend.Requests()[0]
	assert.Equal(t, "/login", login.Path)
	assert.Equal(t, map[string]any{"username": "ana", "password": "secret"}, login.JSON())
}

func TestRegisterMissingFieldIssuesNoRequest(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{})
	gate := New(client)
	gate.Show(ViewRegister)

	err := gate.Register(context.Background(), "ana", "", "secret")
	require.Error(t, err)
	assert.Equal(t, neushop.KindValidation, neushop.KindOf(err))
	assert.Empty(t, client.Calls())
	assert.Equal(t, MissingFieldsText, gate.State().Error)
	assert.Equal(t, ViewRegister, gate.State().View)

	require.Error(t, gate.Register(context.Background(), "", "ana@example.com", "secret"))
	assert.Empty(t, client.Calls())
}

func TestRegisterAcceptsWhitespacePassword(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{})
	gate := New(client)

	require.NoError(t, gate.Register(context.Background(), "ana", "ana@example.com", "   "))
	assert.True(t, gate.Authenticated())
	assert.Len(t, client.Calls(), 1)
}

func TestRegisterSurfacesServerError(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Users: map[string]string{"ana": "secret"}})
	gate := New(client)

	require.Error(t, gate.Register(context.Background(), "ana", "ana@example.com", "pw"))
	assert.Equal(t, "Username already exists", gate.State().Error)
	assert.False(t, gate.Authenticated())
}

func TestRegisterFallsBackToGenericMessage(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{})
	client.FailNext("register", neushop.ErrMockUnavailable)
	gate := New(client)

	require.Error(t, gate.Register(context.Background(), "bo", "bo@example.com", "pw"))
	assert.Equal(t, RegistrationFailedText, gate.State().Error)
}

func TestRegisterOverHTTPUsesOnlyStructuredError(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{name: "structured", contentType: "application/json", body: `{"error":"Username already exists"}`, want: "Username already exists"},
		{name: "empty object", contentType: "application/json", body: `{}`, want: RegistrationFailedText},
		{name: "other field", contentType: "application/json", body: `{"message":"dup"}`, want: RegistrationFailedText},
		{name: "blank error", contentType: "application/json", body: `{"error":"  "}`, want: RegistrationFailedText},
		{name: "plain text", contentType: "text/plain", body: "Internal Server Error: pq: duplicate key", want: RegistrationFailedText},
		{name: "no body", contentType: "text/plain", body: "", want: RegistrationFailedText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			client, err := neushop.NewHTTPClient(neushop.HTTPConfig{BaseURL: server.URL})
			require.NoError(t, err)
			gate := New(client)
			gate.Show(ViewRegister)

			require.Error(t, gate.Register(context.Background(), "ana", "ana@example.com", "pw"))
			state := gate.State()
			assert.Equal(t, tc.want, state.Error)
			assert.Equal(t, ViewRegister, state.View)
			assert.False(t, state.Authenticated)
		})
	}
}

func TestLoginFailureKeepsExistingSession(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Users: map[string]string{"ana": "secret"}})
	gate := New(client)
	require.NoError(t, gate.Login(context.Background(), "ana", "secret"))

	require.Error(t, gate.Login(context.Background(), "ana", "wrong"))
	state := gate.State()
	assert.True(t, state.Authenticated)
	assert.Equal(t, "ana", state.Username)
	assert.Equal(t, ViewConsole, state.View)
	assert.Equal(t, InvalidLoginText, state.Error)
}

func TestRegisterSuccessSignsIn(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{})
	gate := New(client)

	require.NoError(t, gate.Register(context.Background(), "bo", "bo@example.com", "pw"))
	assert.True(t, gate.Authenticated())
	assert.Equal(t, "bo", gate.State().Username)
}

func TestLogoutAlwaysReturnsToLogin(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Users: map[string]string{"ana": "secret"}})
	gate := New(client)
	ctx := context.Background()
	require.NoError(t, gate.Login(ctx, "ana", "secret"))

	client.FailNext("logout", neushop.ErrMockUnavailable)
	require.Error(t, gate.Logout(ctx))
	assert.Equal(t, State{View: ViewLogin}, gate.State())
}

func TestShowIgnoredOnceAuthenticated(t *testing.T) {
	client := neushop.NewMockClient(neushop.MockData{Users: map[string]string{"ana": "secret"}})
	gate := New(client)
	require.NoError(t, gate.Login(context.Background(), "ana", "secret"))
	gate.Show(ViewRegister)
	assert.Equal(t, ViewConsole, gate.State().View)
}
