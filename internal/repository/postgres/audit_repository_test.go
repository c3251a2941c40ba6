package postgres

import (
	"context"
	"testing"

	"github.com/pratik-mahalle/altseo/internal/domain/audit"
)

func TestAuditRepository_CreateAndList(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t))
	ctx := context.Background()

	actor := int64(1)
	entries := []*audit.Entry{
		{ActorID: &actor, Action: audit.ActionRoleChanged, TargetType: audit.TargetUser, TargetID: "2",
			Details: map[string]interface{}{"from": "user", "to": "operator"}},
		{Action: audit.ActionSubscriptionChanged, TargetType: audit.TargetSubscription, TargetID: "2"},
		{Action: audit.ActionSubscriptionChanged, TargetType: audit.TargetSubscription, TargetID: "3"},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.Filter
		want   int64
	}{
		{"all", audit.Filter{}, 3},
		{"by action", audit.Filter{Action: audit.ActionSubscriptionChanged}, 2},
		{"by actor", audit.Filter{ActorID: &actor}, 1},
		{"by target", audit.Filter{TargetID: "2"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.List(ctx, tt.filter, 10, 0)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}

	list, _, _ := repo.List(ctx, audit.Filter{ActorID: &actor}, 10, 0)
	if len(list) != 1 || list[0].Details["to"] != "operator" {
		t.Errorf("details not round-tripped: %+v", list)
	}
	if list[0].ActorID == nil || *list[0].ActorID != actor {
		t.Errorf("actor = %v, want %d", list[0].ActorID, actor)
	}
}
