package roadmaps

// Zoom levels control how much of a roadmap the public view exposes.
const (
	ZoomSnapshot = "snapshot"
	ZoomStandard = "standard"
	ZoomDeep     = "deep"
)

// View types supported by the public roadmap page.
const (
	ViewList      = "list"
	ViewBoard     = "board"
	ViewTimeline  = "timeline"
	ViewChangelog = "changelog"
)

// Item lifecycle statuses.
const (
	StatusExploring = "EXPLORING"
	StatusBuilding  = "BUILDING"
	StatusTesting   = "TESTING"
	StatusShipped   = "SHIPPED"
	StatusCancelled = "CANCELLED"
)

var validStatuses = map[string]struct{}{
	StatusExploring: {},
	StatusBuilding:  {},
	StatusTesting:   {},
	StatusShipped:   {},
	StatusCancelled: {},
}

// Confidence levels. H/M/L are legacy shorthands still accepted on ingest.
var validConfidences = map[string]struct{}{
	"TENTATIVE": {},
	"LIKELY":    {},
	"CONFIDENT": {},
	"H":         {},
	"M":         {},
	"L":         {},
}

var validZooms = map[string]struct{}{
	ZoomSnapshot: {},
	ZoomStandard: {},
	ZoomDeep:     {},
}

var validViews = map[string]struct{}{
	ViewList:      {},
	ViewBoard:     {},
	ViewTimeline:  {},
	ViewChangelog: {},
}

type Roadmap struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	PublicTitle    string   `json:"public_title,omitempty"`
	Description    string   `json:"description,omitempty"`
	DefaultZoom    string   `json:"default_zoom"`
	AvailableViews []string `json:"available_views"` // JSON array in DB
	ItemCount      int      `json:"item_count"`
	CreatedBy      string   `json:"created_by"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

type Group struct {
	ID        string `json:"id"`
	RoadmapID string `json:"roadmap_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Item struct {
	ID               string   `json:"id"`
	RoadmapID        string   `json:"roadmap_id"`
	GroupID          *string  `json:"group_id,omitempty"`
	ExternalID       string   `json:"external_id,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	ContentHTML      string   `json:"content_html,omitempty"`
	Status           string   `json:"status"`
	Confidence       string   `json:"confidence,omitempty"`
	Votes            int      `json:"votes"`
	Featured         bool     `json:"featured"`
	Tags             []string `json:"tags,omitempty"`       // JSON array in DB
	Categories       []string `json:"categories,omitempty"` // JSON array in DB
	FeaturedImageURL string   `json:"featured_image_url,omitempty"`
	CreatedBy        string   `json:"created_by,omitempty"`
	CreatedAt        int64    `json:"created_at"`
	UpdatedAt        int64    `json:"updated_at"`
}

type Subscriber struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

func IsValidStatus(status string) bool {
	_, ok := validStatuses[status]
	return ok
}

func IsValidConfidence(confidence string) bool {
	_, ok := validConfidences[confidence]
	return ok
}

func IsValidZoom(zoom string) bool {
	_, ok := validZooms[zoom]
	return ok
}

func IsValidView(view string) bool {
	_, ok := validViews[view]
	return ok
}
