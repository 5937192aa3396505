package roadmaps

import "testing"

func testRoadmap() *Roadmap {
	return &Roadmap{
		ID:             "rm_1",
		Title:          "Internal Name",
		PublicTitle:    "What We're Building",
		Slug:           "building",
		DefaultZoom:    ZoomStandard,
		AvailableViews: []string{ViewList, ViewBoard, ViewChangelog},
	}
}

func testItems() []*Item {
	return []*Item{
		{ID: "itm_1", Title: "Featured thing", Status: StatusBuilding, Featured: true,
			Description: "desc", ContentHTML: "<p>full</p>", UpdatedAt: 300},
		{ID: "itm_2", Title: "Plain thing", Status: StatusExploring,
			Description: "desc2", ContentHTML: "<p>full2</p>", UpdatedAt: 200},
		{ID: "itm_3", Title: "Shipped early", Status: StatusShipped, UpdatedAt: 100},
		{ID: "itm_4", Title: "Shipped late", Status: StatusShipped, UpdatedAt: 400},
	}
}

func TestBuildPublicView_SnapshotFeaturedOnly(t *testing.T) {
	pv := BuildPublicView(testRoadmap(), nil, testItems(), ZoomSnapshot, ViewList)

	if len(pv.Items) != 1 || pv.Items[0].ID != "itm_1" {
		t.Fatalf("snapshot items = %+v, want only featured", pv.Items)
	}
	if pv.Items[0].Description != "" || pv.Items[0].ContentHTML != "" {
		t.Error("snapshot must not expose description or content")
	}
	if pv.Roadmap.Title != "What We're Building" {
		t.Errorf("Title = %q, want public title", pv.Roadmap.Title)
	}
}

func TestBuildPublicView_StandardOmitsContent(t *testing.T) {
	pv := BuildPublicView(testRoadmap(), nil, testItems(), ZoomStandard, ViewList)

	if len(pv.Items) != 4 {
		t.Fatalf("standard items = %d, want 4", len(pv.Items))
	}
	if pv.Items[0].Description != "desc" {
		t.Error("standard should expose description")
	}
	if pv.Items[0].ContentHTML != "" {
		t.Error("standard must not expose full content")
	}
}

func TestBuildPublicView_DeepIncludesContent(t *testing.T) {
	pv := BuildPublicView(testRoadmap(), nil, testItems(), ZoomDeep, ViewList)

	if pv.Items[0].ContentHTML != "<p>full</p>" {
		t.Errorf("deep ContentHTML = %q", pv.Items[0].ContentHTML)
	}
}

func TestBuildPublicView_ChangelogShippedNewestFirst(t *testing.T) {
	pv := BuildPublicView(testRoadmap(), nil, testItems(), ZoomStandard, ViewChangelog)

	if len(pv.Items) != 2 {
		t.Fatalf("changelog items = %d, want 2", len(pv.Items))
	}
	if pv.Items[0].ID != "itm_4" || pv.Items[1].ID != "itm_3" {
		t.Errorf("changelog order = [%s %s], want newest first", pv.Items[0].ID, pv.Items[1].ID)
	}
}

func TestBuildPublicView_FallbackZoomAndView(t *testing.T) {
	rm := testRoadmap()
	pv := BuildPublicView(rm, nil, testItems(), "orbit", ViewTimeline)

	if pv.Zoom != ZoomStandard {
		t.Errorf("Zoom = %q, want roadmap default", pv.Zoom)
	}
	// timeline is not in this roadmap's available views
	if pv.View != ViewList {
		t.Errorf("View = %q, want first available", pv.View)
	}
}

func TestBuildPublicView_BoardCarriesGroups(t *testing.T) {
	groups := []*Group{{ID: "grp_1", RoadmapID: "rm_1", Name: "Now"}}
	pv := BuildPublicView(testRoadmap(), groups, testItems(), ZoomStandard, ViewBoard)

	if len(pv.Groups) != 1 || pv.Groups[0].ID != "grp_1" {
		t.Errorf("board view groups = %+v", pv.Groups)
	}

	pv = BuildPublicView(testRoadmap(), groups, testItems(), ZoomStandard, ViewList)
	if pv.Groups != nil {
		t.Error("list view should not carry groups")
	}
}
