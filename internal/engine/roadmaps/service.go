package roadmaps

import (
	"fmt"
	"strings"

	"signpost/internal/pkg/sanitize"
	"signpost/internal/pkg/validator"
)

// ValidationError carries field-level validation failures out of the service.
type ValidationError struct {
	Fields validator.Errors
}

func (e *ValidationError) Error() string {
	return e.Fields.First()
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateRoadmap(input *CreateRoadmapInput, createdBy string) (*Roadmap, error) {
	if errs := ValidateCreateRoadmap(input); !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	exists, err := s.repo.ExistsBySlug(input.Slug)
	if err != nil {
		return nil, fmt.Errorf("checking slug: %w", err)
	}
	if exists {
		var errs validator.Errors
		errs.Add("slug", "Slug is already in use")
		return nil, &ValidationError{Fields: errs}
	}

	zoom := input.DefaultZoom
	if zoom == "" {
		zoom = ZoomStandard
	}
	views := input.AvailableViews
	if len(views) == 0 {
		views = []string{ViewList, ViewBoard}
	}

	rm := &Roadmap{
		Title:          strings.TrimSpace(input.Title),
		Slug:           input.Slug,
		PublicTitle:    strings.TrimSpace(input.PublicTitle),
		Description:    sanitize.StripHTML(input.Description),
		DefaultZoom:    zoom,
		AvailableViews: views,
		CreatedBy:      createdBy,
	}
	if err := s.repo.CreateRoadmap(rm); err != nil {
		return nil, fmt.Errorf("creating roadmap: %w", err)
	}
	return rm, nil
}

func (s *Service) GetRoadmap(id string) (*Roadmap, error) {
	return s.repo.GetRoadmap(id)
}

func (s *Service) GetRoadmapBySlug(slug string) (*Roadmap, error) {
	return s.repo.GetRoadmapBySlug(slug)
}

func (s *Service) ListRoadmaps() ([]*Roadmap, error) {
	return s.repo.ListRoadmaps()
}

type UpdateRoadmapInput struct {
	Title          *string  `json:"title"`
	PublicTitle    *string  `json:"public_title"`
	Description    *string  `json:"description"`
	DefaultZoom    *string  `json:"default_zoom"`
	AvailableViews []string `json:"available_views"`
}

func (s *Service) UpdateRoadmap(id string, input *UpdateRoadmapInput) (*Roadmap, error) {
	rm, err := s.repo.GetRoadmap(id)
	if err != nil || rm == nil {
		return rm, err
	}

	var errs validator.Errors
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			errs.Add("title", "Title is required")
		} else if len(title) > maxTitleLength {
			errs.Add("title", fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
		} else {
			rm.Title = title
		}
	}
	if input.PublicTitle != nil {
		rm.PublicTitle = strings.TrimSpace(*input.PublicTitle)
	}
	if input.Description != nil {
		if len(*input.Description) > maxDescriptionLength {
			errs.Add("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength))
		} else {
			rm.Description = sanitize.StripHTML(*input.Description)
		}
	}
	if input.DefaultZoom != nil {
		if !IsValidZoom(*input.DefaultZoom) {
			errs.Add("default_zoom", "Zoom must be snapshot, standard or deep")
		} else {
			rm.DefaultZoom = *input.DefaultZoom
		}
	}
	if input.AvailableViews != nil {
		for _, view := range input.AvailableViews {
			if !IsValidView(view) {
				errs.Add("available_views", fmt.Sprintf("Unknown view type %q", view))
			}
		}
		if errs.Empty() {
			rm.AvailableViews = input.AvailableViews
		}
	}
	if !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	if err := s.repo.UpdateRoadmap(rm); err != nil {
		return nil, fmt.Errorf("updating roadmap: %w", err)
	}
	return rm, nil
}

func (s *Service) DeleteRoadmap(id string) error {
	return s.repo.DeleteRoadmap(id)
}

func (s *Service) CreateGroup(roadmapID, name string, position int) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxTitleLength {
		var errs validator.Errors
		errs.Add("name", "Group name must be 1-200 characters")
		return nil, &ValidationError{Fields: errs}
	}

	rm, err := s.repo.GetRoadmap(roadmapID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, nil
	}

	g := &Group{RoadmapID: roadmapID, Name: name, Position: position}
	if err := s.repo.CreateGroup(g); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}
	return g, nil
}

func (s *Service) ListGroups(roadmapID string) ([]*Group, error) {
	return s.repo.ListGroups(roadmapID)
}

func (s *Service) UpdateGroup(id, name string, position int) (*Group, error) {
	g, err := s.repo.GetGroup(id)
	if err != nil || g == nil {
		return g, err
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxTitleLength {
		var errs validator.Errors
		errs.Add("name", "Group name must be 1-200 characters")
		return nil, &ValidationError{Fields: errs}
	}

	g.Name = name
	g.Position = position
	if err := s.repo.UpdateGroup(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) DeleteGroup(id string) error {
	return s.repo.DeleteGroup(id)
}

func (s *Service) CreateItem(input *CreateItemInput, createdBy string) (*Item, error) {
	if errs := ValidateCreateItem(input); !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	rm, err := s.repo.GetRoadmap(input.RoadmapID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, nil
	}

	status := input.Status
	if status == "" {
		status = StatusExploring
	}

	contentHTML := sanitize.HTML(input.ContentHTML)
	description := sanitize.StripHTML(input.Description)
	if description == "" && contentHTML != "" {
		description = sanitize.SafeDescription(contentHTML, 0)
	}

	item := &Item{
		RoadmapID:   input.RoadmapID,
		GroupID:     input.GroupID,
		Title:       strings.TrimSpace(input.Title),
		Description: description,
		ContentHTML: contentHTML,
		Status:      status,
		Confidence:  input.Confidence,
		Featured:    input.Featured,
		Tags:        input.Tags,
		Categories:  input.Categories,
		CreatedBy:   createdBy,
	}
	if err := s.repo.CreateItem(item); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	if err := s.repo.IncrementItemCount(input.RoadmapID, 1); err != nil {
		return nil, fmt.Errorf("updating item count: %w", err)
	}
	return item, nil
}

func (s *Service) GetItem(id string) (*Item, error) {
	return s.repo.GetItem(id)
}

func (s *Service) ListItems(roadmapID string) ([]*Item, error) {
	return s.repo.ListItems(roadmapID)
}

type UpdateItemInput struct {
	GroupID     *string  `json:"group_id"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ContentHTML *string  `json:"content_html"`
	Confidence  *string  `json:"confidence"`
	Featured    *bool    `json:"featured"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
}

func (s *Service) UpdateItem(id string, input *UpdateItemInput) (*Item, error) {
	item, err := s.repo.GetItem(id)
	if err != nil || item == nil {
		return item, err
	}

	var errs validator.Errors
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			errs.Add("title", "Title is required")
		} else if len(title) > maxTitleLength {
			errs.Add("title", fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
		} else {
			item.Title = title
		}
	}
	if input.Description != nil {
		if len(*input.Description) > maxDescriptionLength {
			errs.Add("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength))
		} else {
			item.Description = sanitize.StripHTML(*input.Description)
		}
	}
	if input.ContentHTML != nil {
		if len(*input.ContentHTML) > maxContentLength {
			errs.Add("content_html", fmt.Sprintf("Content must be at most %d characters", maxContentLength))
		} else {
			item.ContentHTML = sanitize.HTML(*input.ContentHTML)
		}
	}
	if input.Confidence != nil {
		if *input.Confidence != "" && !IsValidConfidence(*input.Confidence) {
			errs.Add("confidence", "Unknown confidence level")
		} else {
			item.Confidence = *input.Confidence
		}
	}
	if input.Featured != nil {
		item.Featured = *input.Featured
	}
	if input.GroupID != nil {
		item.GroupID = input.GroupID
	}
	if input.Tags != nil {
		if len(input.Tags) > 20 {
			errs.Add("tags", "At most 20 tags allowed")
		} else {
			item.Tags = input.Tags
		}
	}
	if input.Categories != nil {
		if len(input.Categories) > 10 {
			errs.Add("categories", "At most 10 categories allowed")
		} else {
			item.Categories = input.Categories
		}
	}
	if !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	if err := s.repo.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return item, nil
}

// ChangeItemStatus transitions an item and reports the previous status so
// callers can emit a status-changed event.
func (s *Service) ChangeItemStatus(id, status string) (*Item, string, error) {
	if !IsValidStatus(status) {
		var errs validator.Errors
		errs.Add("status", "Unknown item status")
		return nil, "", &ValidationError{Fields: errs}
	}

	item, err := s.repo.GetItem(id)
	if err != nil || item == nil {
		return item, "", err
	}

	previous := item.Status
	if previous == status {
		return item, previous, nil
	}

	item.Status = status
	if err := s.repo.UpdateItem(item); err != nil {
		return nil, "", fmt.Errorf("updating item status: %w", err)
	}
	return item, previous, nil
}

func (s *Service) DeleteItem(id string) (*Item, error) {
	item, err := s.repo.GetItem(id)
	if err != nil || item == nil {
		return item, err
	}
	if err := s.repo.DeleteItem(id); err != nil {
		return nil, err
	}
	if err := s.repo.IncrementItemCount(item.RoadmapID, -1); err != nil {
		return nil, err
	}
	return item, nil
}

// Vote records a public vote. The voter identifier is an opaque fingerprint
// supplied by the caller; each voter counts once per item.
func (s *Service) Vote(itemID, voterID string) (*Item, bool, error) {
	if voterID == "" {
		var errs validator.Errors
		errs.Add("voter", "Voter identifier is required")
		return nil, false, &ValidationError{Fields: errs}
	}

	item, err := s.repo.GetItem(itemID)
	if err != nil || item == nil {
		return item, false, err
	}

	counted, err := s.repo.AddVote(itemID, voterID)
	if err != nil {
		return nil, false, fmt.Errorf("recording vote: %w", err)
	}
	if counted {
		item.Votes++
	}
	return item, counted, nil
}

func (s *Service) Subscribe(itemID, email string) (bool, error) {
	if !validator.IsValidEmail(email) {
		var errs validator.Errors
		errs.Add("email", "A valid email address is required")
		return false, &ValidationError{Fields: errs}
	}

	item, err := s.repo.GetItem(itemID)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	return s.repo.AddSubscriber(itemID, strings.ToLower(email))
}

func (s *Service) ListSubscribers(itemID string) ([]*Subscriber, error) {
	return s.repo.ListSubscribers(itemID)
}
