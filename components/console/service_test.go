package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/components/session"
	"github.com/goliatone/go-neushop/pkg/activity"
	"github.com/goliatone/go-neushop/pkg/neushop"
	"github.com/goliatone/go-neushop/pkg/neushop/neushoptest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEvents) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind + ":" + e.Code
	}
	return out
}

type recordingActivity struct {
	mu     sync.Mutex
	events []activity.Event
}

func (r *recordingActivity) Emit(_ context.Context, event activity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type fixture struct {
	service   *Service
	client    *neushop.MockClient
	clock     *fakeClock
	events    *recordingEvents
	activity  *recordingActivity
	telemetry *recordingTelemetry
}

func seededData() neushop.MockData {
	tables := neushoptest.Tables()
	for i := range tables {
		if tables[i].ListPath == "/categories" {
			tables[i].Rows = []neushop.Record{
				{"category_id": "C1", "category_name": "Shoes", "description": "Footwear"},
			}
		}
	}
	return neushop.MockData{Tables: tables, Users: map[string]string{"alice": "secret"}}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		client:    neushop.NewMockClient(seededData()),
		clock:     &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		events:    &recordingEvents{},
		activity:  &recordingActivity{},
		telemetry: &recordingTelemetry{},
	}
	svc, err := NewService(Options{
		ClientFactory: func() (neushop.Client, error) { return f.client, nil },
		Events:        f.events,
		Activity:      f.activity,
		Telemetry:     f.telemetry,
		Clock:         f.clock.Now,
		SessionTTL:    10 * time.Minute,
	})
	require.NoError(t, err)
	f.service = svc
	return f
}

func (f *fixture) signedIn(t *testing.T) string {
	t.Helper()
	ws, err := f.service.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.service.Login(context.Background(), ws.ID, "alice", "secret"))
	return ws.ID
}

func TestServiceResolveReusesLiveWorkspace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ws, created, err := f.service.Resolve(ctx, "")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.service.Resolve(ctx, ws.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, ws, again)

	_, created, err = f.service.Resolve(ctx, "unknown")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, f.service.Workspaces())
}

func TestServicePanelOperationsRequireLogin(t *testing.T) {
	f := newFixture(t)
	ws, err := f.service.Open(context.Background())
	require.NoError(t, err)

	err = f.service.LoadPanel(context.Background(), ws.ID, "category")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	err = f.service.RunWidget(context.Background(), ws.ID, dashboard.WidgetRevenue, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, f.client.Calls())
}

func TestServiceLoginFailureShowsInvalidLogin(t *testing.T) {
	f := newFixture(t)
	ws, err := f.service.Open(context.Background())
	require.NoError(t, err)

	err = f.service.Login(context.Background(), ws.ID, "alice", "wrong")
	require.Error(t, err)
	view, err := f.service.View(context.Background(), ws.ID)
	require.NoError(t, err)
	assert.False(t, view.Session.Authenticated)
	assert.Equal(t, session.InvalidLoginText, view.Session.Error)
	assert.Empty(t, view.Panels)
	assert.Contains(t, f.events.kinds(), "session:session.login")
}

func TestServiceLoadAndCreateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signedIn(t)

	require.NoError(t, f.service.LoadPanel(ctx, id, "category"))
	view, err := f.service.PanelView(id, "category")
	require.NoError(t, err)
	assert.Equal(t, 1, view.RowCount())

	err = f.service.CreateRecord(ctx, id, "category", map[string]string{
		"category_id":   "C2",
		"category_name": "Hats",
		"description":   "Headwear",
	})
	require.NoError(t, err)
	assert.Len(t, f.client.Rows("/categories"), 2)

	assert.Contains(t, f.events.kinds(), "panel:category")
	require.NotEmpty(t, f.activity.events)
	last := f.activity.events[len(f.activity.events)-1]
	assert.Equal(t, "panel.create", last.Verb)
	assert.Equal(t, "category", last.ObjectType)
	assert.Equal(t, "C2", last.ObjectID)
	assert.Equal(t, "/CATEGORY", last.DefinitionCode)
	assert.NotEqual(t, id, last.TenantID)
	assert.Contains(t, f.telemetry.events, "panel.create")
}

func TestServiceDeclinedDeleteIssuesNoRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signedIn(t)
	require.NoError(t, f.service.LoadPanel(ctx, id, "category"))
	before := len(f.client.Calls())

	attempted, err := f.service.DeleteRecord(ctx, id, "category", "C1", panel.NeverConfirm)
	require.NoError(t, err)
	assert.False(t, attempted)
	assert.Len(t, f.client.Calls(), before)
	assert.Len(t, f.client.Rows("/categories"), 1)

	attempted, err = f.service.DeleteRecord(ctx, id, "category", "C1", panel.AlwaysConfirm)
	require.NoError(t, err)
	assert.True(t, attempted)
	assert.Empty(t, f.client.Rows("/categories"))
}

func TestServiceConfirmPrompt(t *testing.T) {
	f := newFixture(t)
	prompt, err := f.service.ConfirmPrompt("customer", "7")
	require.NoError(t, err)
	assert.Equal(t, "Delete CUSTOMER with user_id=7?", prompt)

	_, err = f.service.ConfirmPrompt("nope", "7")
	assert.ErrorIs(t, err, panel.ErrUnknownEntity)
}

func TestServiceLogoutReturnsToLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signedIn(t)

	f.client.FailNext("logout", neushop.ErrMockUnavailable)
	err := f.service.Logout(ctx, id)
	require.Error(t, err)

	view, err := f.service.View(ctx, id)
	require.NoError(t, err)
	assert.False(t, view.Session.Authenticated)
	assert.Equal(t, session.ViewLogin, view.Session.View)
}

func TestServiceSweepEvictsIdleWorkspaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idle := f.signedIn(t)

	f.clock.Advance(6 * time.Minute)
	active, err := f.service.Open(ctx)
	require.NoError(t, err)

	f.clock.Advance(6 * time.Minute)
	assert.Equal(t, 1, f.service.Sweep(ctx))

	_, err = f.service.Workspace(idle)
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	_, err = f.service.Workspace(active.ID)
	assert.NoError(t, err)
	assert.Equal(t, "", f.client.LoggedIn())
}

func TestServiceViewAppliesPreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signedIn(t)

	require.NoError(t, f.service.SavePreferences(ctx, id, Preferences{
		HiddenPanels: map[string]bool{"user": true},
		PanelOrder:   []string{"payment"},
	}))

	view, err := f.service.View(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, view.Panels)
	assert.Equal(t, "payment", view.Panels[0].Code)
	for _, p := range view.Panels {
		assert.NotEqual(t, "user", p.Code)
	}
	assert.Len(t, view.Entities, 10)
	assert.Len(t, view.Widgets, 4)
	assert.Equal(t, ChannelFor(id), view.Channel)
	assert.NotEqual(t, id, view.Channel)
}

func TestServiceRunWidgetPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signedIn(t)

	require.NoError(t, f.service.RunWidget(ctx, id, dashboard.WidgetRevenue, map[string]string{"days": "7"}))
	state, err := f.service.WidgetState(id, dashboard.WidgetRevenue)
	require.NoError(t, err)
	assert.True(t, state.HasData)
	assert.Contains(t, f.events.kinds(), "widget:"+dashboard.WidgetRevenue)
}
