package roadmaps

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const testSchema = `
CREATE TABLE roadmaps (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	public_title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	default_zoom TEXT NOT NULL DEFAULT 'standard',
	available_views TEXT NOT NULL DEFAULT '[]',
	item_count INTEGER NOT NULL DEFAULT 0,
	created_by TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE groups (
	id TEXT PRIMARY KEY,
	roadmap_id TEXT NOT NULL,
	name TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE items (
	id TEXT PRIMARY KEY,
	roadmap_id TEXT NOT NULL,
	group_id TEXT,
	external_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	content_html TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'EXPLORING',
	confidence TEXT NOT NULL DEFAULT '',
	votes INTEGER NOT NULL DEFAULT 0,
	featured INTEGER NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '[]',
	categories TEXT NOT NULL DEFAULT '[]',
	featured_image_url TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE votes (
	id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL,
	voter_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(item_id, voter_id)
);
CREATE TABLE subscribers (
	id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL,
	email TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(item_id, email)
);
`

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepository(setupTestDB(t)))
}

func createTestRoadmap(t *testing.T, svc *Service) *Roadmap {
	t.Helper()
	rm, err := svc.CreateRoadmap(&CreateRoadmapInput{
		Title: "Product Roadmap",
		Slug:  "product-roadmap",
	}, "user_1")
	if err != nil {
		t.Fatalf("creating roadmap: %v", err)
	}
	return rm
}

func TestCreateRoadmap_Defaults(t *testing.T) {
	svc := newTestService(t)

	rm := createTestRoadmap(t, svc)
	if rm.DefaultZoom != ZoomStandard {
		t.Errorf("DefaultZoom = %q, want %q", rm.DefaultZoom, ZoomStandard)
	}
	if len(rm.AvailableViews) != 2 || rm.AvailableViews[0] != ViewList || rm.AvailableViews[1] != ViewBoard {
		t.Errorf("AvailableViews = %v, want [list board]", rm.AvailableViews)
	}

	got, err := svc.GetRoadmapBySlug("product-roadmap")
	if err != nil {
		t.Fatalf("GetRoadmapBySlug: %v", err)
	}
	if got == nil || got.ID != rm.ID {
		t.Errorf("GetRoadmapBySlug returned %+v, want id %s", got, rm.ID)
	}
}

func TestCreateRoadmap_DuplicateSlug(t *testing.T) {
	svc := newTestService(t)
	createTestRoadmap(t, svc)

	_, err := svc.CreateRoadmap(&CreateRoadmapInput{Title: "Other", Slug: "product-roadmap"}, "user_1")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields.First() != "Slug is already in use" {
		t.Errorf("expected slug error, got %+v", verr.Fields)
	}
}

func TestCreateRoadmap_InvalidSlug(t *testing.T) {
	svc := newTestService(t)

	for _, slug := range []string{"", "ab", "Bad-Slug", "has--double", "ends-"} {
		_, err := svc.CreateRoadmap(&CreateRoadmapInput{Title: "T", Slug: slug}, "user_1")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("slug %q: expected ValidationError, got %v", slug, err)
		}
	}
}

func TestCreateItem_SanitizesContent(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	item, err := svc.CreateItem(&CreateItemInput{
		RoadmapID:   rm.ID,
		Title:       "Dark mode",
		ContentHTML: `<p>Soon</p><script>alert(1)</script>`,
	}, "user_1")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if item.ContentHTML != "<p>Soon</p>" {
		t.Errorf("ContentHTML = %q, want script stripped", item.ContentHTML)
	}
	if item.Status != StatusExploring {
		t.Errorf("Status = %q, want %q", item.Status, StatusExploring)
	}
	if item.Description != "Soon" {
		t.Errorf("Description = %q, want derived from content", item.Description)
	}

	got, err := svc.GetRoadmap(rm.ID)
	if err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}
	if got.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", got.ItemCount)
	}
}

func TestCreateItem_MissingRoadmap(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.CreateItem(&CreateItemInput{RoadmapID: "rm_missing", Title: "X"}, "user_1")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil item for missing roadmap, got %+v", item)
	}
}

func TestChangeItemStatus(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	item, err := svc.CreateItem(&CreateItemInput{RoadmapID: rm.ID, Title: "SSO support"}, "user_1")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	updated, previous, err := svc.ChangeItemStatus(item.ID, StatusBuilding)
	if err != nil {
		t.Fatalf("ChangeItemStatus: %v", err)
	}
	if previous != StatusExploring {
		t.Errorf("previous = %q, want %q", previous, StatusExploring)
	}
	if updated.Status != StatusBuilding {
		t.Errorf("Status = %q, want %q", updated.Status, StatusBuilding)
	}

	if _, _, err := svc.ChangeItemStatus(item.ID, "LAUNCHED"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestVote_OncePerVoter(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	item, err := svc.CreateItem(&CreateItemInput{RoadmapID: rm.ID, Title: "API tokens"}, "user_1")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	_, counted, err := svc.Vote(item.ID, "fp_abc")
	if err != nil || !counted {
		t.Fatalf("first vote: counted=%v err=%v", counted, err)
	}

	got, counted, err := svc.Vote(item.ID, "fp_abc")
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if counted {
		t.Error("duplicate vote should not be counted")
	}
	if got.Votes != 1 {
		t.Errorf("Votes = %d, want 1", got.Votes)
	}

	if _, counted, _ = svc.Vote(item.ID, "fp_other"); !counted {
		t.Error("distinct voter should be counted")
	}
}

func TestSubscribe(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	item, err := svc.CreateItem(&CreateItemInput{RoadmapID: rm.ID, Title: "Exports"}, "user_1")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	added, err := svc.Subscribe(item.ID, "Fan@Example.com")
	if err != nil || !added {
		t.Fatalf("subscribe: added=%v err=%v", added, err)
	}

	// Case-insensitive duplicate.
	added, err = svc.Subscribe(item.ID, "fan@example.com")
	if err != nil {
		t.Fatalf("duplicate subscribe: %v", err)
	}
	if added {
		t.Error("duplicate subscription should report false")
	}

	if _, err := svc.Subscribe(item.ID, "not-an-email"); err == nil {
		t.Error("expected validation error for bad email")
	}

	subs, err := svc.ListSubscribers(item.ID)
	if err != nil {
		t.Fatalf("ListSubscribers: %v", err)
	}
	if len(subs) != 1 || subs[0].Email != "fan@example.com" {
		t.Errorf("subscribers = %+v, want one lowercased entry", subs)
	}
}

func TestDeleteItem_DecrementsCount(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	item, err := svc.CreateItem(&CreateItemInput{RoadmapID: rm.ID, Title: "Temp"}, "user_1")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	deleted, err := svc.DeleteItem(item.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if deleted == nil || deleted.ID != item.ID {
		t.Fatalf("DeleteItem returned %+v", deleted)
	}

	got, _ := svc.GetRoadmap(rm.ID)
	if got.ItemCount != 0 {
		t.Errorf("ItemCount = %d, want 0", got.ItemCount)
	}
}

func TestDeleteGroup_DetachesItems(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	g, err := svc.CreateGroup(rm.ID, "Q3", 0)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	item, err := svc.CreateItem(&CreateItemInput{RoadmapID: rm.ID, GroupID: &g.ID, Title: "Grouped"}, "user_1")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if err := svc.DeleteGroup(g.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	got, _ := svc.GetItem(item.ID)
	if got.GroupID != nil {
		t.Errorf("GroupID = %v, want nil after group deleted", *got.GroupID)
	}
}

func TestUpdateRoadmap(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	title := "Public Plans"
	zoom := ZoomDeep
	updated, err := svc.UpdateRoadmap(rm.ID, &UpdateRoadmapInput{
		Title:          &title,
		DefaultZoom:    &zoom,
		AvailableViews: []string{ViewList, ViewChangelog},
	})
	if err != nil {
		t.Fatalf("UpdateRoadmap: %v", err)
	}
	if updated.Title != "Public Plans" || updated.DefaultZoom != ZoomDeep {
		t.Errorf("update not applied: %+v", updated)
	}

	bad := "satellite"
	if _, err := svc.UpdateRoadmap(rm.ID, &UpdateRoadmapInput{DefaultZoom: &bad}); err == nil {
		t.Error("expected error for invalid zoom")
	}
}

func TestIngestLookupByExternalID(t *testing.T) {
	svc := newTestService(t)
	rm := createTestRoadmap(t, svc)

	item := &Item{RoadmapID: rm.ID, ExternalID: "flux_42", Title: "From ingest", Status: StatusShipped}
	if err := svc.repo.CreateItem(item); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	got, err := svc.repo.GetItemByExternalID("flux_42")
	if err != nil {
		t.Fatalf("GetItemByExternalID: %v", err)
	}
	if got == nil || got.ID != item.ID {
		t.Errorf("lookup returned %+v, want %s", got, item.ID)
	}

	missing, err := svc.repo.GetItemByExternalID("flux_404")
	if err != nil || missing != nil {
		t.Errorf("missing lookup = (%+v, %v), want (nil, nil)", missing, err)
	}
}
