package usersink

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-neushop/pkg/activity"
)

type recordingSink struct {
	records []types.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := ActorID("ana")
	workspaceID := uuid.New()

	event := activity.Event{
		Verb:           "panel.delete",
		ActorID:        actorID,
		TenantID:       workspaceID.String(),
		ObjectType:     "product",
		ObjectID:       "P1",
		Channel:        "console",
		DefinitionCode: "product",
		Recipients:     []string{"ops@example.com"},
		Metadata:       map[string]any{"status": "ok"},
		OccurredAt:     now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID.String() != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user id for missing value, got %s", record.UserID)
	}
	if record.TenantID != workspaceID {
		t.Fatalf("expected tenant %s got %s", workspaceID, record.TenantID)
	}
	if record.Verb != "panel.delete" || record.ObjectType != "product" || record.ObjectID != "P1" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "console" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel/time: %+v", record)
	}
	if record.Data["definition_code"] != "product" || record.Data["status"] != "ok" {
		t.Fatalf("unexpected data %v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	_ = Hook{Sink: sink}.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestActorIDIsStable(t *testing.T) {
	if ActorID("ana") != ActorID("ana") {
		t.Fatalf("expected deterministic actor id")
	}
	if ActorID("ana") == ActorID("bo") {
		t.Fatalf("expected distinct actor ids")
	}
	if ActorID("") != "" {
		t.Fatalf("expected empty actor id for empty username")
	}
}
