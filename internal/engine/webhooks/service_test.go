package webhooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"signpost/internal/platform/config"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		events TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		failure_count INTEGER NOT NULL DEFAULT 0,
		last_triggered_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE webhook_deliveries (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL,
		event TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		status_code INTEGER,
		error TEXT,
		attempts INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		delivered_at INTEGER
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func testConfig() config.WebhooksConfig {
	return config.WebhooksConfig{
		DeliveryTimeout:  2 * time.Second,
		MaxAttempts:      3,
		FailureThreshold: 10,
		// Negative interval makes pending deliveries immediately eligible
		// for the retry pass in tests.
		RetryInterval: -time.Second,
	}
}

func newTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store := NewStore(setupTestDB(t))
	return NewService(store, &http.Client{}, testConfig()), store
}

func TestCreate_GeneratesSecret(t *testing.T) {
	svc, _ := newTestService(t)

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "CI notifier",
		URL:         "https://example.com/hook",
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !strings.HasPrefix(webhook.Secret, "whsec_") {
		t.Errorf("secret should carry whsec_ prefix, got %q", webhook.Secret)
	}
	if len(webhook.Secret) != len("whsec_")+64 {
		t.Errorf("secret should encode 32 random bytes as hex, got length %d", len(webhook.Secret))
	}
	if !webhook.Active {
		t.Error("new webhooks start active")
	}
	if webhook.FailureCount != 0 {
		t.Errorf("new webhooks start with zero failures, got %d", webhook.FailureCount)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name  string
		input CreateInput
		field string
	}{
		{"Missing Name", CreateInput{WorkspaceID: "ws_1", URL: "https://example.com", Events: []EventType{EventItemCreated}}, "name"},
		{"Bad URL", CreateInput{WorkspaceID: "ws_1", Name: "x", URL: "javascript:alert(1)", Events: []EventType{EventItemCreated}}, "url"},
		{"No Events", CreateInput{WorkspaceID: "ws_1", Name: "x", URL: "https://example.com"}, "events"},
		{"Unknown Event", CreateInput{WorkspaceID: "ws_1", Name: "x", URL: "https://example.com", Events: []EventType{"item.exploded"}}, "events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(tt.input)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Fields {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected failure on field %q, got %+v", tt.field, verr.Fields)
			}
		})
	}
}

func TestTrigger_EndToEnd(t *testing.T) {
	svc, store := newTestService(t)

	var mu sync.Mutex
	var gotSignature, gotEvent, gotDelivery string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotEvent = r.Header.Get("X-Webhook-Event")
		gotDelivery = r.Header.Get("X-Webhook-Delivery")
		body, _ := io.ReadAll(r.Body)
		gotBody = body
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "ci",
		URL:         server.URL,
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.Trigger(context.Background(), "ws_1", EventItemCreated, map[string]interface{}{
		"item": map[string]interface{}{"id": "x"},
	})

	mu.Lock()
	defer mu.Unlock()

	if gotEvent != "item.created" {
		t.Errorf("X-Webhook-Event = %q", gotEvent)
	}
	if gotDelivery == "" {
		t.Error("X-Webhook-Delivery header missing")
	}
	if !VerifySignature(gotBody, gotSignature, webhook.Secret) {
		t.Error("signature header does not verify against the body")
	}

	var payload Payload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.Event != EventItemCreated || payload.WebhookID != webhook.ID {
		t.Errorf("unexpected payload %+v", payload)
	}
	if payload.Timestamp == "" {
		t.Error("payload timestamp missing")
	}

	deliveries, err := store.ListDeliveries(webhook.ID, 10)
	if err != nil {
		t.Fatalf("ListDeliveries failed: %v", err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	d := deliveries[0]
	if d.Status != StatusSuccess {
		t.Errorf("delivery status = %q, want success", d.Status)
	}
	if d.StatusCode == nil || *d.StatusCode != http.StatusOK {
		t.Errorf("delivery status code = %v", d.StatusCode)
	}
	if d.DeliveredAt == nil {
		t.Error("delivered_at not stamped")
	}
	if d.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", d.Attempts)
	}

	fresh, _ := store.GetWebhook(webhook.ID)
	if fresh.LastTriggeredAt == nil {
		t.Error("last_triggered_at not stamped on success")
	}
	if fresh.FailureCount != 0 {
		t.Errorf("failure count should reset to 0, got %d", fresh.FailureCount)
	}
}

func TestTrigger_NoMatchingWebhooks(t *testing.T) {
	svc, store := newTestService(t)

	// No webhooks registered at all: must be a silent no-op.
	svc.Trigger(context.Background(), "ws_1", EventItemCreated, map[string]interface{}{"item": "x"})

	// A webhook subscribed to a different event is also skipped.
	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "votes only",
		URL:         "https://example.com/hook",
		Events:      []EventType{EventItemVoted},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.Trigger(context.Background(), "ws_1", EventItemCreated, map[string]interface{}{"item": "x"})

	deliveries, _ := store.ListDeliveries(webhook.ID, 10)
	if len(deliveries) != 0 {
		t.Errorf("expected no deliveries, got %d", len(deliveries))
	}
}

func TestDelivery_RetriesThenFails(t *testing.T) {
	svc, store := newTestService(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "flaky",
		URL:         server.URL,
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.Trigger(context.Background(), "ws_1", EventItemCreated, map[string]interface{}{"item": "x"})

	deliveries, _ := store.ListDeliveries(webhook.ID, 10)
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	if deliveries[0].Status != StatusPending || deliveries[0].Attempts != 1 {
		t.Fatalf("after first failure: status %q attempts %d", deliveries[0].Status, deliveries[0].Attempts)
	}

	// Two retry passes exhaust the attempt ceiling.
	svc.RedeliverPending(context.Background(), 10)
	svc.RedeliverPending(context.Background(), 10)

	deliveries, _ = store.ListDeliveries(webhook.ID, 10)
	d := deliveries[0]
	if d.Status != StatusFailed {
		t.Errorf("status = %q, want failed", d.Status)
	}
	if d.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", d.Attempts)
	}
	if d.Error == "" {
		t.Error("terminal delivery should record the error")
	}

	fresh, _ := store.GetWebhook(webhook.ID)
	if fresh.FailureCount != 3 {
		t.Errorf("webhook failure count = %d, want 3", fresh.FailureCount)
	}

	// A terminally failed delivery is never picked up again.
	if n := svc.RedeliverPending(context.Background(), 10); n != 0 {
		t.Errorf("failed delivery re-attempted %d times", n)
	}
}

func TestWebhook_AutoDisable(t *testing.T) {
	svc, store := newTestService(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "dead endpoint",
		URL:         server.URL,
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		svc.Trigger(context.Background(), "ws_1", EventItemCreated, map[string]interface{}{"n": i})
	}

	fresh, _ := store.GetWebhook(webhook.ID)
	if fresh.Active {
		t.Errorf("webhook should be disabled after %d failures", fresh.FailureCount)
	}
	if fresh.FailureCount != 10 {
		t.Errorf("failure count = %d, want 10", fresh.FailureCount)
	}

	// Disabled webhooks are skipped by subsequent triggers.
	before, _ := store.ListDeliveries(webhook.ID, 50)
	svc.Trigger(context.Background(), "ws_1", EventItemCreated, map[string]interface{}{"n": 11})
	after, _ := store.ListDeliveries(webhook.ID, 50)
	if len(after) != len(before) {
		t.Errorf("disabled webhook still received a delivery")
	}
}

func TestDelivery_Timeout(t *testing.T) {
	store := NewStore(setupTestDB(t))
	cfg := testConfig()
	cfg.DeliveryTimeout = 50 * time.Millisecond
	svc := NewService(store, &http.Client{}, cfg)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "slow",
		URL:         server.URL,
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.Trigger(context.Background(), "ws_1", EventItemCreated, map[string]interface{}{"item": "x"})

	deliveries, _ := store.ListDeliveries(webhook.ID, 10)
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	if deliveries[0].Status != StatusPending {
		t.Errorf("timed out delivery should stay pending, got %q", deliveries[0].Status)
	}
	if deliveries[0].Error == "" {
		t.Error("timeout should be recorded as the delivery error")
	}
}

func TestRegenerateSecret(t *testing.T) {
	svc, store := newTestService(t)

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "rotate me",
		URL:         "https://example.com/hook",
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	secret, err := svc.RegenerateSecret(webhook.ID)
	if err != nil {
		t.Fatalf("RegenerateSecret failed: %v", err)
	}
	if secret == webhook.Secret {
		t.Error("regenerated secret should differ")
	}
	if !strings.HasPrefix(secret, "whsec_") {
		t.Errorf("regenerated secret format wrong: %q", secret)
	}

	fresh, _ := store.GetWebhook(webhook.ID)
	if fresh.Secret != secret {
		t.Error("new secret not persisted")
	}
}

func TestDeliveryHistory_Order(t *testing.T) {
	svc, store := newTestService(t)

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "history",
		URL:         "https://example.com/hook",
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i, ts := range []int64{1000, 2000, 3000} {
		d := &Delivery{WebhookID: webhook.ID, Event: EventItemCreated, Payload: []byte("{}"), Status: StatusSuccess, Attempts: 1}
		if err := store.CreateDelivery(d); err != nil {
			t.Fatalf("CreateDelivery %d failed: %v", i, err)
		}
		if _, err := store.db.Exec(`UPDATE webhook_deliveries SET created_at = ? WHERE id = ?`, ts, d.ID); err != nil {
			t.Fatalf("backdating delivery failed: %v", err)
		}
	}

	history, err := svc.DeliveryHistory(webhook.ID, 2)
	if err != nil {
		t.Fatalf("DeliveryHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].CreatedAt != 3000 || history[1].CreatedAt != 2000 {
		t.Errorf("history not newest-first: %d, %d", history[0].CreatedAt, history[1].CreatedAt)
	}
}

func TestUpdate_Webhook(t *testing.T) {
	svc, _ := newTestService(t)

	webhook, err := svc.Create(CreateInput{
		WorkspaceID: "ws_1",
		Name:        "before",
		URL:         "https://example.com/hook",
		Events:      []EventType{EventItemCreated},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name := "after"
	active := false
	updated, err := svc.Update(webhook.ID, UpdateInput{
		Name:   &name,
		Events: []EventType{EventRoadmapCreated, EventSubscriberAdded},
		Active: &active,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Name != "after" || updated.Active || len(updated.Events) != 2 {
		t.Errorf("update not applied: %+v", updated)
	}

	// Unknown id reports not-found as nil, nil.
	missing, err := svc.Update("wh_missing", UpdateInput{Name: &name})
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown webhook, got %v, %v", missing, err)
	}
}
