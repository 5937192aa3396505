package ingest

import (
	"fmt"
	"strings"

	"signpost/internal/engine/roadmaps"
	"signpost/internal/pkg/sanitize"
	"signpost/internal/pkg/validator"
)

// Image is an attachment on an inbound FluxPoster post. Role "featured"
// marks the image used as the item's hero.
type Image struct {
	URL  string `json:"url"`
	Role string `json:"role,omitempty"`
}

// Post is the FluxPoster publish payload. External ID is the publisher's
// stable identifier used for idempotent upserts.
type Post struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	BodyHTML    string   `json:"bodyHtml"`
	Summary     string   `json:"summary,omitempty"`
	Status      string   `json:"status,omitempty"`
	PublishedAt string   `json:"publishedAt,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Images      []Image  `json:"images,omitempty"`
}

type ValidationError struct {
	Fields validator.Errors
}

func (e *ValidationError) Error() string {
	return e.Fields.First()
}

// Result reports what an upsert did. Created distinguishes 201 from 200 at
// the handler.
type Result struct {
	Item    *roadmaps.Item
	Created bool
}

type Service struct {
	repo *roadmaps.Repository
}

func NewService(repo *roadmaps.Repository) *Service {
	return &Service{repo: repo}
}

func validatePost(post *Post) validator.Errors {
	var errs validator.Errors

	if post.ID == "" {
		errs.Add("id", "External post ID is required")
	}
	if strings.TrimSpace(post.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if post.BodyHTML == "" {
		errs.Add("bodyHtml", "Post body is required")
	}
	if len(post.Tags) > 20 {
		errs.Add("tags", "At most 20 tags allowed")
	}
	if len(post.Categories) > 10 {
		errs.Add("categories", "At most 10 categories allowed")
	}
	if len(post.Images) > 10 {
		errs.Add("images", "At most 10 images allowed")
	}

	return errs
}

// featuredImageURL picks the image marked featured, falling back to the
// first attachment.
func featuredImageURL(images []Image) string {
	for _, img := range images {
		if img.Role == "featured" {
			return sanitize.URL(img.URL)
		}
	}
	if len(images) > 0 {
		return sanitize.URL(images[0].URL)
	}
	return ""
}

func description(post *Post) string {
	if post.Summary != "" {
		return sanitize.StripHTML(post.Summary)
	}
	return sanitize.SafeDescription(post.BodyHTML, 200)
}

// Upsert creates or updates a roadmap item keyed by the post's external ID.
// New posts land on the oldest roadmap as shipped, featured changelog items.
func (s *Service) Upsert(post *Post) (*Result, error) {
	if errs := validatePost(post); !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	rm, err := s.repo.FirstRoadmap()
	if err != nil {
		return nil, fmt.Errorf("resolving target roadmap: %w", err)
	}
	if rm == nil {
		return nil, nil
	}

	existing, err := s.repo.GetItemByExternalID(post.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up item: %w", err)
	}

	contentHTML := sanitize.HTML(post.BodyHTML)

	if existing != nil {
		existing.Title = strings.TrimSpace(post.Title)
		existing.Description = description(post)
		existing.ContentHTML = contentHTML
		existing.Tags = post.Tags
		existing.Categories = post.Categories
		existing.FeaturedImageURL = featuredImageURL(post.Images)
		if err := s.repo.UpdateItem(existing); err != nil {
			return nil, fmt.Errorf("updating item: %w", err)
		}
		return &Result{Item: existing, Created: false}, nil
	}

	item := &roadmaps.Item{
		RoadmapID:        rm.ID,
		ExternalID:       post.ID,
		Title:            strings.TrimSpace(post.Title),
		Description:      description(post),
		ContentHTML:      contentHTML,
		Status:           roadmaps.StatusShipped,
		Confidence:       "H",
		Featured:         true,
		Tags:             post.Tags,
		Categories:       post.Categories,
		FeaturedImageURL: featuredImageURL(post.Images),
	}
	if err := s.repo.CreateItem(item); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	if err := s.repo.IncrementItemCount(rm.ID, 1); err != nil {
		return nil, fmt.Errorf("updating item count: %w", err)
	}
	return &Result{Item: item, Created: true}, nil
}

// Update modifies an existing ingested item. Returns nil when no item
// carries the external ID.
func (s *Service) Update(externalID string, post *Post) (*roadmaps.Item, error) {
	item, err := s.repo.GetItemByExternalID(externalID)
	if err != nil || item == nil {
		return item, err
	}

	var errs validator.Errors
	if strings.TrimSpace(post.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if post.BodyHTML == "" {
		errs.Add("bodyHtml", "Post body is required")
	}
	if !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	item.Title = strings.TrimSpace(post.Title)
	item.Description = description(post)
	item.ContentHTML = sanitize.HTML(post.BodyHTML)
	item.Tags = post.Tags
	item.Categories = post.Categories
	item.FeaturedImageURL = featuredImageURL(post.Images)

	if err := s.repo.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return item, nil
}

// Delete removes an ingested item by external ID and keeps the roadmap's
// item count in step. Returns the removed item, or nil when not found.
func (s *Service) Delete(externalID string) (*roadmaps.Item, error) {
	item, err := s.repo.GetItemByExternalID(externalID)
	if err != nil || item == nil {
		return item, err
	}
	if err := s.repo.DeleteItem(item.ID); err != nil {
		return nil, fmt.Errorf("deleting item: %w", err)
	}
	if err := s.repo.IncrementItemCount(item.RoadmapID, -1); err != nil {
		return nil, fmt.Errorf("updating item count: %w", err)
	}
	return item, nil
}
