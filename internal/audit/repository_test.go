package audit

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-zigbee/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenMemory(ctx)
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{Action: ActionAttach, EntityType: EntityAccessory, EntityID: "0x01", Source: SourceDiscovery,
			Details: map[string]any{"kind": "XiaomiOutlet"}, CreatedAt: base},
		{Action: ActionUnsupported, EntityType: EntityAccessory, EntityID: "0x02", Source: SourceDiscovery,
			CreatedAt: base.Add(time.Minute)},
		{Action: ActionUnpair, EntityType: EntityAccessory, EntityID: "0x01", Source: SourceAPI,
			Actor: "installer", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Create() did not assign an ID")
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 3 || len(all.Entries) != 3 {
		t.Fatalf("List() total=%d len=%d, want 3/3", all.Total, len(all.Entries))
	}
	if all.Entries[0].Action != ActionUnpair {
		t.Errorf("newest entry = %q, want %q", all.Entries[0].Action, ActionUnpair)
	}
	if all.Entries[0].Actor != "installer" {
		t.Errorf("Actor = %q, want installer", all.Entries[0].Actor)
	}
	if all.Limit != defaultListLimit {
		t.Errorf("Limit = %d, want %d", all.Limit, defaultListLimit)
	}

	byDevice, err := repo.List(ctx, Filter{EntityID: "0x01"})
	if err != nil {
		t.Fatalf("List(EntityID) error = %v", err)
	}
	if byDevice.Total != 2 {
		t.Errorf("List(EntityID=0x01) total = %d, want 2", byDevice.Total)
	}
	last := byDevice.Entries[len(byDevice.Entries)-1]
	if last.Details["kind"] != "XiaomiOutlet" {
		t.Errorf("Details[kind] = %v, want XiaomiOutlet", last.Details["kind"])
	}

	paged, err := repo.List(ctx, Filter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List(paged) error = %v", err)
	}
	if len(paged.Entries) != 1 || paged.Entries[0].Action != ActionUnsupported {
		t.Errorf("List(paged) = %+v, want the unsupported entry", paged.Entries)
	}
}

func TestCreate_RequiresFields(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Create(context.Background(), &Entry{Action: ActionAttach}); err == nil {
		t.Error("Create() without entity type and source succeeded")
	}
}

func TestList_ClampsLimit(t *testing.T) {
	repo := newTestRepo(t)
	res, err := repo.List(context.Background(), Filter{Limit: 5000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != maxListLimit || res.Offset != 0 {
		t.Errorf("Limit/Offset = %d/%d, want %d/0", res.Limit, res.Offset, maxListLimit)
	}
	if res.Entries == nil {
		t.Error("Entries = nil, want empty slice")
	}
}
