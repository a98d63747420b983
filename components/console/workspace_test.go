package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceStoreExpiresIdleEntries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewWorkspaceStore(time.Minute)
	ws := &Workspace{ID: "w1"}
	ws.touch(start)
	require.NoError(t, store.Put(ws))

	got, err := store.Get("w1", start.Add(30*time.Second))
	require.NoError(t, err)
	assert.Same(t, ws, got)

	_, err = store.Get("w1", start.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)

	removed := store.Sweep(start.Add(2 * time.Minute))
	require.Len(t, removed, 1)
	assert.Equal(t, 0, store.Len())
}

func TestWorkspaceStoreRejectsMissingID(t *testing.T) {
	store := NewWorkspaceStore(0)
	assert.Error(t, store.Put(&Workspace{}))
	assert.Error(t, store.Put(nil))
}

func TestWorkspaceAuditIDHidesSessionID(t *testing.T) {
	ws := &Workspace{ID: "session-123"}
	assert.NotEqual(t, ws.ID, ws.AuditID())
	assert.Equal(t, ws.AuditID(), (&Workspace{ID: "session-123"}).AuditID())
	assert.Equal(t, ChannelFor(ws.ID), ws.Channel())
}
