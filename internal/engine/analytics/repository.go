package analytics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types recorded from the public roadmap page.
const (
	EventRoadmapView = "roadmap_view"
	EventItemView    = "item_view"
	EventVote        = "vote"
	EventSubscribe   = "subscribe"
)

type Event struct {
	Timestamp int64  `json:"timestamp"`
	EventType string `json:"event_type"`
	RoadmapID string `json:"roadmap_id"`
	ItemID    string `json:"item_id,omitempty"`
	Visitor   string `json:"visitor,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

type DailyStat struct {
	Date           string `json:"date"`
	Views          int    `json:"views"`
	UniqueVisitors int    `json:"unique_visitors"`
	Votes          int    `json:"votes"`
	Subscribes     int    `json:"subscribes"`
	TopItemID      string `json:"top_item_id,omitempty"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertEvent(e *Event) error {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	query := `
		INSERT INTO analytics_events (id, timestamp, event_type, roadmap_id, item_id, visitor, referrer)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, "evt_"+uuid.New().String(), e.Timestamp, e.EventType,
		e.RoadmapID, e.ItemID, e.Visitor, e.Referrer)
	return err
}

func (r *Repository) GetEvents(roadmapID string, start, end int64, limit, offset int) ([]Event, error) {
	query := `
		SELECT timestamp, event_type, roadmap_id, item_id, visitor, referrer
		FROM analytics_events
		WHERE roadmap_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, roadmapID, start, end, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.EventType, &e.RoadmapID, &e.ItemID, &e.Visitor, &e.Referrer); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) GetDailyStats(roadmapID string, startDate, endDate string) ([]DailyStat, error) {
	query := `
		SELECT date, views, unique_visitors, votes, subscribes, top_item_id
		FROM daily_stats
		WHERE roadmap_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC
	`
	rows, err := r.db.Query(query, roadmapID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var s DailyStat
		var topItem sql.NullString
		if err := rows.Scan(&s.Date, &s.Views, &s.UniqueVisitors, &s.Votes, &s.Subscribes, &topItem); err != nil {
			return nil, err
		}
		s.TopItemID = topItem.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ComputeDailyStats aggregates one roadmap's raw events for a calendar day.
// Used by the worker's nightly rollup.
func (r *Repository) ComputeDailyStats(roadmapID, date string) (*DailyStat, error) {
	startTime, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, err
	}
	startTs := startTime.UnixMilli()
	endTs := startTime.Add(24 * time.Hour).UnixMilli()

	stat := &DailyStat{Date: date}

	r.db.QueryRow(`
		SELECT COUNT(*) FROM analytics_events
		WHERE roadmap_id = ? AND timestamp >= ? AND timestamp < ? AND event_type IN (?, ?)
	`, roadmapID, startTs, endTs, EventRoadmapView, EventItemView).Scan(&stat.Views)

	r.db.QueryRow(`
		SELECT COUNT(DISTINCT visitor) FROM analytics_events
		WHERE roadmap_id = ? AND timestamp >= ? AND timestamp < ? AND visitor != ''
	`, roadmapID, startTs, endTs).Scan(&stat.UniqueVisitors)

	r.db.QueryRow(`
		SELECT COUNT(*) FROM analytics_events
		WHERE roadmap_id = ? AND timestamp >= ? AND timestamp < ? AND event_type = ?
	`, roadmapID, startTs, endTs, EventVote).Scan(&stat.Votes)

	r.db.QueryRow(`
		SELECT COUNT(*) FROM analytics_events
		WHERE roadmap_id = ? AND timestamp >= ? AND timestamp < ? AND event_type = ?
	`, roadmapID, startTs, endTs, EventSubscribe).Scan(&stat.Subscribes)

	r.db.QueryRow(`
		SELECT item_id FROM analytics_events
		WHERE roadmap_id = ? AND timestamp >= ? AND timestamp < ? AND item_id != ''
		GROUP BY item_id ORDER BY COUNT(*) DESC LIMIT 1
	`, roadmapID, startTs, endTs).Scan(&stat.TopItemID)

	return stat, nil
}

func (r *Repository) UpsertDailyStats(stat *DailyStat, roadmapID string) error {
	query := `
		INSERT INTO daily_stats (id, roadmap_id, date, views, unique_visitors, votes, subscribes, top_item_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(roadmap_id, date) DO UPDATE SET
			views=excluded.views,
			unique_visitors=excluded.unique_visitors,
			votes=excluded.votes,
			subscribes=excluded.subscribes,
			top_item_id=excluded.top_item_id
	`
	id := fmt.Sprintf("%s_%s", roadmapID, stat.Date)

	_, err := r.db.Exec(query,
		id, roadmapID, stat.Date, stat.Views, stat.UniqueVisitors,
		stat.Votes, stat.Subscribes, stat.TopItemID,
		time.Now().Unix(),
	)
	return err
}
