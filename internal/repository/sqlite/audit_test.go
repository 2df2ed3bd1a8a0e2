package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/tahsin/medistock/internal/model"
)

func TestAuditInsert_AssignsIDAndTime(t *testing.T) {
	store := NewAuditStore(newTestDB(t))

	rec := &model.AuditRecord{
		UserEmail: "a@x.com",
		Provider:  "Google",
		Action:    model.ActionLogin,
		IPAddress: "203.0.113.9",
	}
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("Insert did not assign an ID")
	}
	if rec.ActionTime.IsZero() {
		t.Error("Insert did not assign an action time")
	}
}

func TestAuditList_MostRecentFirst(t *testing.T) {
	store := NewAuditStore(newTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	events := []model.AuditRecord{
		{UserEmail: "a@x.com", Provider: "Google", Action: model.ActionLogin, ActionTime: base.Add(-time.Hour)},
		{UserEmail: "a@x.com", Provider: "Google", Action: model.ActionLogout, ActionTime: base},
	}
	for i := range events {
		if err := store.Insert(ctx, &events[i]); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(got))
	}
	if got[0].Action != model.ActionLogout {
		t.Errorf("List()[0].Action = %q, want the most recent event (Logout) first", got[0].Action)
	}
	if got[1].Action != model.ActionLogin {
		t.Errorf("List()[1].Action = %q, want Login", got[1].Action)
	}
}
