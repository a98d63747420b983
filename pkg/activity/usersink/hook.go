// Package usersink forwards console activity to a go-users activity sink.
package usersink

import (
	"context"
	"errors"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-neushop/pkg/activity"
)

var errMissingSink = errors.New("usersink: sink not configured")

// Sink is the subset of the go-users activity sink used here.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook maps activity events to go-users activity records.
type Hook struct {
	Sink Sink
}

var _ activity.Hook = Hook{}

// Notify logs the event. Events without a verb are ignored.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	event = activity.NormalizeEvent(event)
	if event.Verb == "" {
		return nil
	}
	if h.Sink == nil {
		return errMissingSink
	}
	data := event.Metadata
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}
	return h.Sink.Log(ctx, types.ActivityRecord{
		ActorID:    parseID(event.ActorID),
		UserID:     parseID(event.UserID),
		TenantID:   parseID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		OccurredAt: event.OccurredAt,
		Data:       data,
	})
}

// ActorID derives a stable UUID for a backend username, which has no UUID of
// its own.
func ActorID(username string) string {
	if username == "" {
		return ""
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("neushop:user:"+username)).String()
}

func parseID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
