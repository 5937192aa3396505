package webhooks

import "context"

// Event trigger helpers used by the API layer. Each swallows failures
// through Trigger so the calling operation is never aborted by webhook
// problems.

func (s *Service) TriggerItemCreated(ctx context.Context, workspaceID string, item interface{}) {
	s.Trigger(ctx, workspaceID, EventItemCreated, map[string]interface{}{"item": item})
}

func (s *Service) TriggerItemUpdated(ctx context.Context, workspaceID string, item, changes interface{}) {
	s.Trigger(ctx, workspaceID, EventItemUpdated, map[string]interface{}{"item": item, "changes": changes})
}

func (s *Service) TriggerItemDeleted(ctx context.Context, workspaceID, itemID string) {
	s.Trigger(ctx, workspaceID, EventItemDeleted, map[string]interface{}{"itemId": itemID})
}

func (s *Service) TriggerItemVoted(ctx context.Context, workspaceID string, item interface{}, votes int) {
	s.Trigger(ctx, workspaceID, EventItemVoted, map[string]interface{}{"item": item, "votes": votes})
}

func (s *Service) TriggerItemStatusChanged(ctx context.Context, workspaceID string, item interface{}, previousStatus, newStatus string) {
	s.Trigger(ctx, workspaceID, EventItemStatusChanged, map[string]interface{}{
		"item":           item,
		"previousStatus": previousStatus,
		"newStatus":      newStatus,
	})
}

func (s *Service) TriggerRoadmapCreated(ctx context.Context, workspaceID string, roadmap interface{}) {
	s.Trigger(ctx, workspaceID, EventRoadmapCreated, map[string]interface{}{"roadmap": roadmap})
}

func (s *Service) TriggerRoadmapUpdated(ctx context.Context, workspaceID string, roadmap interface{}) {
	s.Trigger(ctx, workspaceID, EventRoadmapUpdated, map[string]interface{}{"roadmap": roadmap})
}

func (s *Service) TriggerRoadmapDeleted(ctx context.Context, workspaceID, roadmapID string) {
	s.Trigger(ctx, workspaceID, EventRoadmapDeleted, map[string]interface{}{"roadmapId": roadmapID})
}

func (s *Service) TriggerSubscriberAdded(ctx context.Context, workspaceID, itemID, email string) {
	s.Trigger(ctx, workspaceID, EventSubscriberAdded, map[string]interface{}{"itemId": itemID, "email": email})
}
