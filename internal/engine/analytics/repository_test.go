package analytics

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const testSchema = `
CREATE TABLE analytics_events (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	roadmap_id TEXT NOT NULL,
	item_id TEXT NOT NULL DEFAULT '',
	visitor TEXT NOT NULL DEFAULT '',
	referrer TEXT NOT NULL DEFAULT ''
);
CREATE TABLE daily_stats (
	id TEXT PRIMARY KEY,
	roadmap_id TEXT NOT NULL,
	date TEXT NOT NULL,
	views INTEGER NOT NULL DEFAULT 0,
	unique_visitors INTEGER NOT NULL DEFAULT 0,
	votes INTEGER NOT NULL DEFAULT 0,
	subscribes INTEGER NOT NULL DEFAULT 0,
	top_item_id TEXT,
	created_at INTEGER NOT NULL,
	UNIQUE(roadmap_id, date)
);
`

func setupRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return NewRepository(db)
}

func TestRollup(t *testing.T) {
	repo := setupRepo(t)
	svc := NewService(repo)

	day, _ := time.Parse("2006-01-02", "2026-08-27")
	ts := day.Add(10 * time.Hour).UnixMilli()

	events := []*Event{
		{Timestamp: ts, EventType: EventRoadmapView, RoadmapID: "rm_1", Visitor: "v1"},
		{Timestamp: ts + 1, EventType: EventItemView, RoadmapID: "rm_1", ItemID: "itm_1", Visitor: "v1"},
		{Timestamp: ts + 2, EventType: EventItemView, RoadmapID: "rm_1", ItemID: "itm_1", Visitor: "v2"},
		{Timestamp: ts + 3, EventType: EventVote, RoadmapID: "rm_1", ItemID: "itm_2", Visitor: "v2"},
		{Timestamp: ts + 4, EventType: EventSubscribe, RoadmapID: "rm_1", ItemID: "itm_1", Visitor: "v3"},
		// next day, must not count
		{Timestamp: day.Add(25 * time.Hour).UnixMilli(), EventType: EventRoadmapView, RoadmapID: "rm_1", Visitor: "v9"},
		// other roadmap, must not count
		{Timestamp: ts, EventType: EventRoadmapView, RoadmapID: "rm_2", Visitor: "v1"},
	}
	for _, e := range events {
		svc.Record(e)
	}

	if err := svc.RollupDay("rm_1", "2026-08-27"); err != nil {
		t.Fatalf("RollupDay: %v", err)
	}

	stats, err := svc.GetStatsOverview("rm_1", "2026-08-27", "2026-08-27")
	if err != nil {
		t.Fatalf("GetStatsOverview: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %d rows, want 1", len(stats))
	}

	s := stats[0]
	if s.Views != 3 {
		t.Errorf("Views = %d, want 3", s.Views)
	}
	if s.UniqueVisitors != 3 {
		t.Errorf("UniqueVisitors = %d, want 3", s.UniqueVisitors)
	}
	if s.Votes != 1 || s.Subscribes != 1 {
		t.Errorf("Votes/Subscribes = %d/%d, want 1/1", s.Votes, s.Subscribes)
	}
	if s.TopItemID != "itm_1" {
		t.Errorf("TopItemID = %q, want itm_1", s.TopItemID)
	}

	// Rollup is idempotent.
	if err := svc.RollupDay("rm_1", "2026-08-27"); err != nil {
		t.Fatalf("second RollupDay: %v", err)
	}
	stats, _ = svc.GetStatsOverview("rm_1", "2026-08-27", "2026-08-27")
	if len(stats) != 1 || stats[0].Views != 3 {
		t.Errorf("rollup not idempotent: %+v", stats)
	}
}

func TestGetEvents_WindowAndOrder(t *testing.T) {
	repo := setupRepo(t)

	for i := int64(0); i < 5; i++ {
		if err := repo.InsertEvent(&Event{
			Timestamp: 1000 + i,
			EventType: EventRoadmapView,
			RoadmapID: "rm_1",
		}); err != nil {
			t.Fatalf("InsertEvent: %v", err)
		}
	}

	events, err := repo.GetEvents("rm_1", 1001, 1003, 10, 0)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Timestamp != 1003 {
		t.Errorf("first timestamp = %d, want newest first", events[0].Timestamp)
	}
}
