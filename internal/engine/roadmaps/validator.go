package roadmaps

import (
	"fmt"

	"signpost/internal/pkg/validator"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxContentLength     = 100000
)

type CreateRoadmapInput struct {
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	PublicTitle    string   `json:"public_title"`
	Description    string   `json:"description"`
	DefaultZoom    string   `json:"default_zoom"`
	AvailableViews []string `json:"available_views"`
}

type CreateItemInput struct {
	RoadmapID   string   `json:"roadmap_id"`
	GroupID     *string  `json:"group_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ContentHTML string   `json:"content_html"`
	Status      string   `json:"status"`
	Confidence  string   `json:"confidence"`
	Featured    bool     `json:"featured"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
}

func ValidateCreateRoadmap(input *CreateRoadmapInput) validator.Errors {
	var errs validator.Errors

	if input.Title == "" {
		errs.Add("title", "Title is required")
	} else if len(input.Title) > maxTitleLength {
		errs.Add("title", fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
	}
	if !validator.IsValidSlug(input.Slug) {
		errs.Add("slug", "Slug must be 3-50 lowercase alphanumeric characters with hyphens")
	}
	if input.PublicTitle != "" && len(input.PublicTitle) > maxTitleLength {
		errs.Add("public_title", fmt.Sprintf("Public title must be at most %d characters", maxTitleLength))
	}
	if len(input.Description) > maxDescriptionLength {
		errs.Add("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength))
	}
	if input.DefaultZoom != "" && !IsValidZoom(input.DefaultZoom) {
		errs.Add("default_zoom", "Zoom must be snapshot, standard or deep")
	}
	for _, view := range input.AvailableViews {
		if !IsValidView(view) {
			errs.Add("available_views", fmt.Sprintf("Unknown view type %q", view))
			break
		}
	}

	return errs
}

func ValidateCreateItem(input *CreateItemInput) validator.Errors {
	var errs validator.Errors

	if input.RoadmapID == "" {
		errs.Add("roadmap_id", "Roadmap ID is required")
	}
	if input.Title == "" {
		errs.Add("title", "Title is required")
	} else if len(input.Title) > maxTitleLength {
		errs.Add("title", fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
	}
	if len(input.Description) > maxDescriptionLength {
		errs.Add("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength))
	}
	if len(input.ContentHTML) > maxContentLength {
		errs.Add("content_html", fmt.Sprintf("Content must be at most %d characters", maxContentLength))
	}
	if input.Status != "" && !IsValidStatus(input.Status) {
		errs.Add("status", "Unknown item status")
	}
	if input.Confidence != "" && !IsValidConfidence(input.Confidence) {
		errs.Add("confidence", "Unknown confidence level")
	}
	if len(input.Tags) > 20 {
		errs.Add("tags", "At most 20 tags allowed")
	}
	if len(input.Categories) > 10 {
		errs.Add("categories", "At most 10 categories allowed")
	}

	return errs
}
