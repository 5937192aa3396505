package webhooks

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"signpost/internal/pkg/sanitize"
	"signpost/internal/pkg/validator"
	"signpost/internal/platform/config"
)

// Service manages webhook registrations and delivers signed event
// notifications. Persistence and transport are injected so delivery can be
// tested without a network.
type Service struct {
	store  *Store
	client *http.Client
	cfg    config.WebhooksConfig
}

func NewService(store *Store, client *http.Client, cfg config.WebhooksConfig) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 10
	}
	return &Service{store: store, client: client, cfg: cfg}
}

type CreateInput struct {
	WorkspaceID string      `json:"workspace_id"`
	Name        string      `json:"name"`
	URL         string      `json:"url"`
	Events      []EventType `json:"events"`
}

type UpdateInput struct {
	Name   *string     `json:"name"`
	URL    *string     `json:"url"`
	Events []EventType `json:"events"`
	Active *bool       `json:"active"`
}

// ValidationError carries field-level failures out of create/update calls.
type ValidationError struct {
	Fields validator.Errors
}

func (e *ValidationError) Error() string {
	return e.Fields.First()
}

func validateEvents(field string, events []EventType, errs *validator.Errors) {
	if len(events) == 0 {
		errs.Add(field, "At least one event is required")
		return
	}
	for _, ev := range events {
		if !IsValidEvent(ev) {
			errs.Add(field, fmt.Sprintf("Unknown event type %q", ev))
			return
		}
	}
}

func (s *Service) Create(input CreateInput) (*Webhook, error) {
	var errs validator.Errors
	if input.WorkspaceID == "" {
		errs.Add("workspace_id", "Workspace ID is required")
	}
	if input.Name == "" {
		errs.Add("name", "Name is required")
	} else if len(input.Name) > 100 {
		errs.Add("name", "Name must be at most 100 characters")
	}
	if sanitize.URL(input.URL) == "" {
		errs.Add("url", "Must be a valid http(s) URL")
	}
	validateEvents("events", input.Events, &errs)
	if !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	webhook := &Webhook{
		WorkspaceID: input.WorkspaceID,
		Name:        input.Name,
		URL:         input.URL,
		Secret:      generateSecret(),
		Events:      input.Events,
	}

	if err := s.store.CreateWebhook(webhook); err != nil {
		return nil, err
	}

	log.Info().Str("webhook_id", webhook.ID).Str("workspace_id", input.WorkspaceID).Msg("webhook created")
	return webhook, nil
}

func (s *Service) FindByID(id string) (*Webhook, error) {
	return s.store.GetWebhook(id)
}

// FindByWorkspace returns all of a workspace's webhooks. Callers exposing
// the result to end users must redact the secrets.
func (s *Service) FindByWorkspace(workspaceID string) ([]*Webhook, error) {
	return s.store.ListByWorkspace(workspaceID)
}

func (s *Service) Update(id string, input UpdateInput) (*Webhook, error) {
	webhook, err := s.store.GetWebhook(id)
	if err != nil {
		return nil, err
	}
	if webhook == nil {
		return nil, nil
	}

	var errs validator.Errors
	if input.Name != nil {
		if *input.Name == "" || len(*input.Name) > 100 {
			errs.Add("name", "Name must be 1 to 100 characters")
		} else {
			webhook.Name = *input.Name
		}
	}
	if input.URL != nil {
		if sanitize.URL(*input.URL) == "" {
			errs.Add("url", "Must be a valid http(s) URL")
		} else {
			webhook.URL = *input.URL
		}
	}
	if input.Events != nil {
		validateEvents("events", input.Events, &errs)
		webhook.Events = input.Events
	}
	if input.Active != nil {
		webhook.Active = *input.Active
	}
	if !errs.Empty() {
		return nil, &ValidationError{Fields: errs}
	}

	if err := s.store.UpdateWebhook(webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

func (s *Service) Delete(id string) error {
	if err := s.store.DeleteWebhook(id); err != nil {
		return err
	}
	log.Info().Str("webhook_id", id).Msg("webhook deleted")
	return nil
}

// RegenerateSecret replaces the signing secret and returns the new value.
func (s *Service) RegenerateSecret(id string) (string, error) {
	secret := generateSecret()
	if err := s.store.UpdateSecret(id, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// DeliveryHistory returns recent deliveries for a webhook, newest first.
func (s *Service) DeliveryHistory(webhookID string, limit int) ([]*Delivery, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListDeliveries(webhookID, limit)
}

// Trigger fans an event out to every active, subscribed webhook in the
// workspace. Deliveries run concurrently and are isolated per webhook.
// Trigger never returns an error: webhook failures must not break the
// business operation that raised the event.
func (s *Service) Trigger(ctx context.Context, workspaceID string, event EventType, data map[string]interface{}) {
	webhooks, err := s.store.ListActiveByEvent(workspaceID, event)
	if err != nil {
		log.Error().Err(err).Str("workspace_id", workspaceID).Str("event", string(event)).Msg("webhook trigger failed")
		return
	}
	if len(webhooks) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, webhook := range webhooks {
		wg.Add(1)
		go func(w *Webhook) {
			defer wg.Done()
			if err := s.queueDelivery(ctx, w, event, data); err != nil {
				log.Error().Err(err).Str("webhook_id", w.ID).Str("event", string(event)).Msg("webhook delivery failed")
			}
		}(webhook)
	}
	wg.Wait()
}

// queueDelivery snapshots the payload into a delivery record and attempts
// it once.
func (s *Service) queueDelivery(ctx context.Context, webhook *Webhook, event EventType, data map[string]interface{}) error {
	payload := &Payload{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
		WebhookID: webhook.ID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	delivery := &Delivery{
		WebhookID: webhook.ID,
		Event:     event,
		Payload:   body,
		Status:    StatusPending,
		Attempts:  0,
	}
	if err := s.store.CreateDelivery(delivery); err != nil {
		return err
	}

	return s.deliver(ctx, delivery, webhook)
}

// deliver POSTs the payload with signature headers and records the outcome.
// Failures below the attempt ceiling leave the delivery pending for the
// background retry pass; at the ceiling it becomes terminally failed.
func (s *Service) deliver(ctx context.Context, delivery *Delivery, webhook *Webhook) error {
	signature := Sign(webhook.Secret, delivery.Payload)

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, webhook.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return s.recordFailure(delivery, webhook, nil, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("X-Webhook-Event", string(delivery.Event))
	req.Header.Set("X-Webhook-Delivery", delivery.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return s.recordFailure(delivery, webhook, nil, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return s.recordFailure(delivery, webhook, &resp.StatusCode, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, excerpt))
	}
	io.Copy(io.Discard, resp.Body)

	now := time.Now().Unix()
	if err := s.store.MarkDeliverySuccess(delivery.ID, resp.StatusCode, delivery.Attempts+1, now); err != nil {
		return err
	}
	if err := s.store.MarkTriggered(webhook.ID, now); err != nil {
		return err
	}

	log.Info().
		Str("webhook_id", webhook.ID).
		Str("delivery_id", delivery.ID).
		Str("event", string(delivery.Event)).
		Msg("webhook delivered")
	return nil
}

func (s *Service) recordFailure(delivery *Delivery, webhook *Webhook, statusCode *int, errMsg string) error {
	attempts := delivery.Attempts + 1
	status := StatusPending
	if attempts >= s.cfg.MaxAttempts {
		status = StatusFailed
	}

	if err := s.store.MarkDeliveryFailure(delivery.ID, status, errMsg, statusCode, attempts); err != nil {
		return err
	}

	count, err := s.store.IncrementFailureCount(webhook.ID)
	if err != nil {
		return err
	}
	if count >= s.cfg.FailureThreshold {
		if err := s.store.Deactivate(webhook.ID); err != nil {
			return err
		}
		log.Warn().Str("webhook_id", webhook.ID).Int("failure_count", count).Msg("webhook disabled after repeated failures")
	}

	return fmt.Errorf("delivery %s attempt %d: %s", delivery.ID, attempts, errMsg)
}

// RedeliverPending re-attempts retriable deliveries older than the retry
// interval. Used by the background worker; returns the number attempted.
func (s *Service) RedeliverPending(ctx context.Context, limit int) int {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-s.cfg.RetryInterval).Unix()

	deliveries, err := s.store.ListPendingDeliveries(cutoff, s.cfg.MaxAttempts, limit)
	if err != nil {
		log.Error().Err(err).Msg("listing pending deliveries failed")
		return 0
	}

	attempted := 0
	for _, delivery := range deliveries {
		webhook, err := s.store.GetWebhook(delivery.WebhookID)
		if err != nil || webhook == nil || !webhook.Active {
			continue
		}

		attempted++
		if err := s.deliver(ctx, delivery, webhook); err != nil {
			log.Warn().Err(err).Str("delivery_id", delivery.ID).Msg("redelivery failed")
		}
	}
	return attempted
}

func generateSecret() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return "whsec_" + hex.EncodeToString(buf)
}
