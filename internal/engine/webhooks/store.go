package webhooks

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Store persists webhooks and their deliveries in a workspace's tenant
// database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateWebhook(w *Webhook) error {
	w.ID = "wh_" + uuid.New().String()
	w.Active = true
	w.FailureCount = 0
	w.CreatedAt = time.Now().Unix()
	w.UpdatedAt = w.CreatedAt

	eventsJSON, err := json.Marshal(w.Events)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO webhooks (id, workspace_id, name, url, secret, events, active, failure_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query, w.ID, w.WorkspaceID, w.Name, w.URL, w.Secret, string(eventsJSON), w.Active, w.FailureCount, w.CreatedAt, w.UpdatedAt)
	return err
}

func (s *Store) GetWebhook(id string) (*Webhook, error) {
	query := `
		SELECT id, workspace_id, name, url, secret, events, active, failure_count, last_triggered_at, created_at, updated_at
		FROM webhooks WHERE id = ?
	`
	return scanWebhook(s.db.QueryRow(query, id))
}

func (s *Store) ListByWorkspace(workspaceID string) ([]*Webhook, error) {
	query := `
		SELECT id, workspace_id, name, url, secret, events, active, failure_count, last_triggered_at, created_at, updated_at
		FROM webhooks WHERE workspace_id = ? ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webhooks []*Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

// ListActiveByEvent returns the workspace's active webhooks subscribed to
// the event. Events are stored as a JSON array, so the subscription match
// happens in application code.
func (s *Store) ListActiveByEvent(workspaceID string, event EventType) ([]*Webhook, error) {
	query := `
		SELECT id, workspace_id, name, url, secret, events, active, failure_count, last_triggered_at, created_at, updated_at
		FROM webhooks WHERE workspace_id = ? AND active = 1
	`
	rows, err := s.db.Query(query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		if w.SubscribesTo(event) {
			matched = append(matched, w)
		}
	}
	return matched, rows.Err()
}

func (s *Store) UpdateWebhook(w *Webhook) error {
	eventsJSON, err := json.Marshal(w.Events)
	if err != nil {
		return err
	}
	w.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE webhooks SET name = ?, url = ?, events = ?, active = ?, updated_at = ? WHERE id = ?
	`
	_, err = s.db.Exec(query, w.Name, w.URL, string(eventsJSON), w.Active, w.UpdatedAt, w.ID)
	return err
}

func (s *Store) DeleteWebhook(id string) error {
	_, err := s.db.Exec(`DELETE FROM webhooks WHERE id = ?`, id)
	return err
}

func (s *Store) UpdateSecret(id, secret string) error {
	_, err := s.db.Exec(`UPDATE webhooks SET secret = ?, updated_at = ? WHERE id = ?`, secret, time.Now().Unix(), id)
	return err
}

// MarkTriggered stamps a successful delivery and clears the failure streak.
func (s *Store) MarkTriggered(id string, ts int64) error {
	_, err := s.db.Exec(`UPDATE webhooks SET last_triggered_at = ?, failure_count = 0 WHERE id = ?`, ts, id)
	return err
}

// IncrementFailureCount bumps the cumulative failure count and returns the
// new value. The increment-then-read is not atomic across concurrent
// triggers; the disable threshold tolerates that imprecision.
func (s *Store) IncrementFailureCount(id string) (int, error) {
	if _, err := s.db.Exec(`UPDATE webhooks SET failure_count = failure_count + 1 WHERE id = ?`, id); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRow(`SELECT failure_count FROM webhooks WHERE id = ?`, id).Scan(&count)
	return count, err
}

func (s *Store) Deactivate(id string) error {
	_, err := s.db.Exec(`UPDATE webhooks SET active = 0, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func scanWebhook(s interface {
	Scan(dest ...interface{}) error
}) (*Webhook, error) {
	var w Webhook
	var eventsStr string
	var lastTriggeredAt sql.NullInt64

	err := s.Scan(&w.ID, &w.WorkspaceID, &w.Name, &w.URL, &w.Secret, &eventsStr, &w.Active,
		&w.FailureCount, &lastTriggeredAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if lastTriggeredAt.Valid {
		w.LastTriggeredAt = &lastTriggeredAt.Int64
	}
	json.Unmarshal([]byte(eventsStr), &w.Events)

	return &w, nil
}

func (s *Store) CreateDelivery(d *Delivery) error {
	d.ID = "del_" + uuid.New().String()
	d.CreatedAt = time.Now().Unix()

	query := `
		INSERT INTO webhook_deliveries (id, webhook_id, event, payload, status, error, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, d.ID, d.WebhookID, string(d.Event), string(d.Payload), d.Status, d.Error, d.Attempts, d.CreatedAt)
	return err
}

func (s *Store) GetDelivery(id string) (*Delivery, error) {
	query := `
		SELECT id, webhook_id, event, payload, status, status_code, error, attempts, created_at, delivered_at
		FROM webhook_deliveries WHERE id = ?
	`
	return scanDelivery(s.db.QueryRow(query, id))
}

func (s *Store) MarkDeliverySuccess(id string, statusCode, attempts int, deliveredAt int64) error {
	_, err := s.db.Exec(`
		UPDATE webhook_deliveries SET status = ?, status_code = ?, attempts = ?, delivered_at = ?, error = '' WHERE id = ?
	`, StatusSuccess, statusCode, attempts, deliveredAt, id)
	return err
}

func (s *Store) MarkDeliveryFailure(id, status, errMsg string, statusCode *int, attempts int) error {
	_, err := s.db.Exec(`
		UPDATE webhook_deliveries SET status = ?, status_code = ?, error = ?, attempts = ? WHERE id = ?
	`, status, statusCode, errMsg, attempts, id)
	return err
}

// ListDeliveries returns the delivery history for a webhook, newest first.
func (s *Store) ListDeliveries(webhookID string, limit int) ([]*Delivery, error) {
	query := `
		SELECT id, webhook_id, event, payload, status, status_code, error, attempts, created_at, delivered_at
		FROM webhook_deliveries WHERE webhook_id = ? ORDER BY created_at DESC LIMIT ?
	`
	rows, err := s.db.Query(query, webhookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// ListPendingDeliveries returns retriable deliveries created before the
// cutoff, oldest first, for the background retry pass.
func (s *Store) ListPendingDeliveries(createdBefore int64, maxAttempts, limit int) ([]*Delivery, error) {
	query := `
		SELECT id, webhook_id, event, payload, status, status_code, error, attempts, created_at, delivered_at
		FROM webhook_deliveries
		WHERE status = ? AND attempts < ? AND created_at < ?
		ORDER BY created_at LIMIT ?
	`
	rows, err := s.db.Query(query, StatusPending, maxAttempts, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func scanDelivery(s interface {
	Scan(dest ...interface{}) error
}) (*Delivery, error) {
	var d Delivery
	var event, payload string
	var statusCode sql.NullInt64
	var errMsg sql.NullString
	var deliveredAt sql.NullInt64

	err := s.Scan(&d.ID, &d.WebhookID, &event, &payload, &d.Status, &statusCode, &errMsg, &d.Attempts, &d.CreatedAt, &deliveredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	d.Event = EventType(event)
	d.Payload = json.RawMessage(payload)
	if statusCode.Valid {
		code := int(statusCode.Int64)
		d.StatusCode = &code
	}
	if errMsg.Valid {
		d.Error = errMsg.String
	}
	if deliveredAt.Valid {
		d.DeliveredAt = &deliveredAt.Int64
	}

	return &d, nil
}
