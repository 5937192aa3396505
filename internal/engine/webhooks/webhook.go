package webhooks

import "encoding/json"

// EventType tags the domain events a webhook can subscribe to.
type EventType string

const (
	EventItemCreated       EventType = "item.created"
	EventItemUpdated       EventType = "item.updated"
	EventItemDeleted       EventType = "item.deleted"
	EventItemVoted         EventType = "item.voted"
	EventItemStatusChanged EventType = "item.status_changed"
	EventRoadmapCreated    EventType = "roadmap.created"
	EventRoadmapUpdated    EventType = "roadmap.updated"
	EventRoadmapDeleted    EventType = "roadmap.deleted"
	EventSubscriberAdded   EventType = "subscriber.added"
)

var validEvents = map[EventType]struct{}{
	EventItemCreated:       {},
	EventItemUpdated:       {},
	EventItemDeleted:       {},
	EventItemVoted:         {},
	EventItemStatusChanged: {},
	EventRoadmapCreated:    {},
	EventRoadmapUpdated:    {},
	EventRoadmapDeleted:    {},
	EventSubscriberAdded:   {},
}

func IsValidEvent(event EventType) bool {
	_, ok := validEvents[event]
	return ok
}

const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Webhook struct {
	ID              string      `json:"id"`
	WorkspaceID     string      `json:"workspace_id"`
	Name            string      `json:"name"`
	URL             string      `json:"url"`
	Secret          string      `json:"secret,omitempty"`
	Events          []EventType `json:"events"` // JSON array in DB
	Active          bool        `json:"active"`
	FailureCount    int         `json:"failure_count"`
	LastTriggeredAt *int64      `json:"last_triggered_at,omitempty"`
	CreatedAt       int64       `json:"created_at"`
	UpdatedAt       int64       `json:"updated_at"`
}

// Redacted returns a copy safe to expose to API callers. The signing secret
// is only ever shown at creation and regeneration time.
func (w *Webhook) Redacted() *Webhook {
	out := *w
	out.Secret = ""
	return &out
}

func (w *Webhook) SubscribesTo(event EventType) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Payload is the JSON body POSTed to the receiving endpoint. The wire field
// names are part of the external contract.
type Payload struct {
	Event     EventType              `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	WebhookID string                 `json:"webhookId"`
}

// Delivery is one attempted transmission of a payload, with its own retry
// lifecycle independent of the webhook's active/failure-count state.
type Delivery struct {
	ID          string          `json:"id"`
	WebhookID   string          `json:"webhook_id"`
	Event       EventType       `json:"event"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"` // pending, success, failed
	StatusCode  *int            `json:"status_code,omitempty"`
	Error       string          `json:"error,omitempty"`
	Attempts    int             `json:"attempts"`
	CreatedAt   int64           `json:"created_at"`
	DeliveredAt *int64          `json:"delivered_at,omitempty"`
}
