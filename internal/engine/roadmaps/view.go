package roadmaps

import "sort"

// PublicItem is the item shape exposed on the public roadmap page. Which
// fields are populated depends on the zoom level.
type PublicItem struct {
	ID               string   `json:"id"`
	GroupID          *string  `json:"group_id,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	ContentHTML      string   `json:"content_html,omitempty"`
	Status           string   `json:"status"`
	Confidence       string   `json:"confidence,omitempty"`
	Votes            int      `json:"votes"`
	Featured         bool     `json:"featured"`
	Tags             []string `json:"tags,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	FeaturedImageURL string   `json:"featured_image_url,omitempty"`
	UpdatedAt        int64    `json:"updated_at"`
}

type PublicView struct {
	Roadmap struct {
		Title          string   `json:"title"`
		Slug           string   `json:"slug"`
		Description    string   `json:"description,omitempty"`
		AvailableViews []string `json:"available_views"`
	} `json:"roadmap"`
	Zoom   string        `json:"zoom"`
	View   string        `json:"view"`
	Groups []*Group      `json:"groups,omitempty"`
	Items  []*PublicItem `json:"items"`
}

// BuildPublicView shapes a roadmap and its items for the public page.
//
// Zoom controls field exposure: snapshot carries featured items only with no
// body content, standard carries every item without full content, deep carries
// everything. The changelog view restricts to SHIPPED items, newest first;
// other views keep the caller's ordering.
func BuildPublicView(rm *Roadmap, groups []*Group, items []*Item, zoom, view string) *PublicView {
	if !IsValidZoom(zoom) {
		zoom = rm.DefaultZoom
		if !IsValidZoom(zoom) {
			zoom = ZoomStandard
		}
	}
	if !isAvailableView(rm, view) {
		view = defaultView(rm)
	}

	pv := &PublicView{Zoom: zoom, View: view}
	pv.Roadmap.Title = publicTitle(rm)
	pv.Roadmap.Slug = rm.Slug
	pv.Roadmap.Description = rm.Description
	pv.Roadmap.AvailableViews = rm.AvailableViews

	selected := items
	if view == ViewChangelog {
		selected = shippedNewestFirst(items)
	}

	for _, item := range selected {
		if zoom == ZoomSnapshot && !item.Featured {
			continue
		}
		pv.Items = append(pv.Items, publicItem(item, zoom))
	}

	if view == ViewBoard || view == ViewTimeline {
		pv.Groups = groups
	}
	return pv
}

func publicTitle(rm *Roadmap) string {
	if rm.PublicTitle != "" {
		return rm.PublicTitle
	}
	return rm.Title
}

func defaultView(rm *Roadmap) string {
	if len(rm.AvailableViews) > 0 {
		return rm.AvailableViews[0]
	}
	return ViewList
}

func isAvailableView(rm *Roadmap, view string) bool {
	if !IsValidView(view) {
		return false
	}
	if len(rm.AvailableViews) == 0 {
		return view == ViewList
	}
	for _, v := range rm.AvailableViews {
		if v == view {
			return true
		}
	}
	return false
}

func publicItem(item *Item, zoom string) *PublicItem {
	pi := &PublicItem{
		ID:        item.ID,
		GroupID:   item.GroupID,
		Title:     item.Title,
		Status:    item.Status,
		Votes:     item.Votes,
		Featured:  item.Featured,
		UpdatedAt: item.UpdatedAt,
	}
	if zoom == ZoomSnapshot {
		return pi
	}

	pi.Description = item.Description
	pi.Confidence = item.Confidence
	pi.Tags = item.Tags
	pi.Categories = item.Categories
	pi.FeaturedImageURL = item.FeaturedImageURL

	if zoom == ZoomDeep {
		pi.ContentHTML = item.ContentHTML
	}
	return pi
}

func shippedNewestFirst(items []*Item) []*Item {
	var shipped []*Item
	for _, item := range items {
		if item.Status == StatusShipped {
			shipped = append(shipped, item)
		}
	}
	sort.SliceStable(shipped, func(i, j int) bool {
		return shipped[i].UpdatedAt > shipped[j].UpdatedAt
	})
	return shipped
}
