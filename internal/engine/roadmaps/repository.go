package roadmaps

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRoadmap(rm *Roadmap) error {
	rm.ID = "rm_" + uuid.New().String()
	rm.CreatedAt = time.Now().Unix()
	rm.UpdatedAt = rm.CreatedAt

	viewsJSON, err := json.Marshal(rm.AvailableViews)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO roadmaps (id, title, slug, public_title, description, default_zoom, available_views, item_count, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, rm.ID, rm.Title, rm.Slug, rm.PublicTitle, rm.Description, rm.DefaultZoom,
		string(viewsJSON), rm.ItemCount, rm.CreatedBy, rm.CreatedAt, rm.UpdatedAt)
	return err
}

func (r *Repository) GetRoadmap(id string) (*Roadmap, error) {
	query := `
		SELECT id, title, slug, public_title, description, default_zoom, available_views, item_count, created_by, created_at, updated_at
		FROM roadmaps WHERE id = ?
	`
	return scanRoadmap(r.db.QueryRow(query, id))
}

func (r *Repository) GetRoadmapBySlug(slug string) (*Roadmap, error) {
	query := `
		SELECT id, title, slug, public_title, description, default_zoom, available_views, item_count, created_by, created_at, updated_at
		FROM roadmaps WHERE slug = ?
	`
	return scanRoadmap(r.db.QueryRow(query, slug))
}

func (r *Repository) ExistsBySlug(slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM roadmaps WHERE slug = ?)`, slug).Scan(&exists)
	return exists, err
}

func (r *Repository) ListRoadmaps() ([]*Roadmap, error) {
	query := `
		SELECT id, title, slug, public_title, description, default_zoom, available_views, item_count, created_by, created_at, updated_at
		FROM roadmaps ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roadmaps []*Roadmap
	for rows.Next() {
		rm, err := scanRoadmap(rows)
		if err != nil {
			return nil, err
		}
		roadmaps = append(roadmaps, rm)
	}
	return roadmaps, rows.Err()
}

// FirstRoadmap returns the oldest roadmap, used as the default ingest
// target when no roadmap is named.
func (r *Repository) FirstRoadmap() (*Roadmap, error) {
	query := `
		SELECT id, title, slug, public_title, description, default_zoom, available_views, item_count, created_by, created_at, updated_at
		FROM roadmaps ORDER BY created_at LIMIT 1
	`
	return scanRoadmap(r.db.QueryRow(query))
}

func (r *Repository) UpdateRoadmap(rm *Roadmap) error {
	viewsJSON, err := json.Marshal(rm.AvailableViews)
	if err != nil {
		return err
	}
	rm.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE roadmaps SET title = ?, public_title = ?, description = ?, default_zoom = ?, available_views = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query, rm.Title, rm.PublicTitle, rm.Description, rm.DefaultZoom, string(viewsJSON), rm.UpdatedAt, rm.ID)
	return err
}

func (r *Repository) DeleteRoadmap(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items WHERE roadmap_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM groups WHERE roadmap_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM roadmaps WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) IncrementItemCount(roadmapID string, delta int) error {
	_, err := r.db.Exec(`UPDATE roadmaps SET item_count = item_count + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().Unix(), roadmapID)
	return err
}

func scanRoadmap(s interface {
	Scan(dest ...interface{}) error
}) (*Roadmap, error) {
	var rm Roadmap
	var viewsStr string

	err := s.Scan(&rm.ID, &rm.Title, &rm.Slug, &rm.PublicTitle, &rm.Description, &rm.DefaultZoom,
		&viewsStr, &rm.ItemCount, &rm.CreatedBy, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	json.Unmarshal([]byte(viewsStr), &rm.AvailableViews)
	return &rm, nil
}

func (r *Repository) CreateGroup(g *Group) error {
	g.ID = "grp_" + uuid.New().String()
	g.CreatedAt = time.Now().Unix()
	g.UpdatedAt = g.CreatedAt

	query := `
		INSERT INTO groups (id, roadmap_id, name, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, g.ID, g.RoadmapID, g.Name, g.Position, g.CreatedAt, g.UpdatedAt)
	return err
}

func (r *Repository) GetGroup(id string) (*Group, error) {
	row := r.db.QueryRow(`SELECT id, roadmap_id, name, position, created_at, updated_at FROM groups WHERE id = ?`, id)

	var g Group
	err := row.Scan(&g.ID, &g.RoadmapID, &g.Name, &g.Position, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *Repository) ListGroups(roadmapID string) ([]*Group, error) {
	rows, err := r.db.Query(`
		SELECT id, roadmap_id, name, position, created_at, updated_at
		FROM groups WHERE roadmap_id = ? ORDER BY position, created_at
	`, roadmapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.RoadmapID, &g.Name, &g.Position, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (r *Repository) UpdateGroup(g *Group) error {
	g.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`UPDATE groups SET name = ?, position = ?, updated_at = ? WHERE id = ?`,
		g.Name, g.Position, g.UpdatedAt, g.ID)
	return err
}

func (r *Repository) DeleteGroup(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Items fall back to ungrouped rather than being removed with the group.
	if _, err := tx.Exec(`UPDATE items SET group_id = NULL WHERE group_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM groups WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

const itemColumns = `id, roadmap_id, group_id, external_id, title, description, content_html, status, confidence,
	votes, featured, tags, categories, featured_image_url, created_by, created_at, updated_at`

func (r *Repository) CreateItem(item *Item) error {
	if item.ID == "" {
		item.ID = "itm_" + uuid.New().String()
	}
	item.CreatedAt = time.Now().Unix()
	item.UpdatedAt = item.CreatedAt

	tagsJSON, _ := json.Marshal(item.Tags)
	categoriesJSON, _ := json.Marshal(item.Categories)

	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, item.ID, item.RoadmapID, item.GroupID, item.ExternalID, item.Title,
		item.Description, item.ContentHTML, item.Status, item.Confidence, item.Votes, item.Featured,
		string(tagsJSON), string(categoriesJSON), item.FeaturedImageURL, item.CreatedBy,
		item.CreatedAt, item.UpdatedAt)
	return err
}

func (r *Repository) GetItem(id string) (*Item, error) {
	return scanItem(r.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
}

func (r *Repository) GetItemByExternalID(externalID string) (*Item, error) {
	return scanItem(r.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE external_id = ?`, externalID))
}

func (r *Repository) ListItems(roadmapID string) ([]*Item, error) {
	rows, err := r.db.Query(`SELECT `+itemColumns+` FROM items WHERE roadmap_id = ? ORDER BY created_at DESC`, roadmapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) UpdateItem(item *Item) error {
	item.UpdatedAt = time.Now().Unix()

	tagsJSON, _ := json.Marshal(item.Tags)
	categoriesJSON, _ := json.Marshal(item.Categories)

	query := `
		UPDATE items SET group_id = ?, title = ?, description = ?, content_html = ?, status = ?, confidence = ?,
			featured = ?, tags = ?, categories = ?, featured_image_url = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, item.GroupID, item.Title, item.Description, item.ContentHTML, item.Status,
		item.Confidence, item.Featured, string(tagsJSON), string(categoriesJSON), item.FeaturedImageURL,
		item.UpdatedAt, item.ID)
	return err
}

func (r *Repository) DeleteItem(id string) error {
	_, err := r.db.Exec(`DELETE FROM items WHERE id = ?`, id)
	return err
}

// AddVote records a vote and bumps the item counter. Returns false without
// error when the voter already voted for this item.
func (r *Repository) AddVote(itemID, voterID string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO votes (id, item_id, voter_id, created_at) VALUES (?, ?, ?, ?)
	`, "vote_"+uuid.New().String(), itemID, voterID, time.Now().Unix())
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = r.db.Exec(`UPDATE items SET votes = votes + 1, updated_at = ? WHERE id = ?`, time.Now().Unix(), itemID)
	return true, err
}

// AddSubscriber registers an email for item updates. Returns false without
// error when the email is already subscribed.
func (r *Repository) AddSubscriber(itemID, email string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO subscribers (id, item_id, email, created_at) VALUES (?, ?, ?, ?)
	`, "sub_"+uuid.New().String(), itemID, email, time.Now().Unix())
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *Repository) ListSubscribers(itemID string) ([]*Subscriber, error) {
	rows, err := r.db.Query(`SELECT id, item_id, email, created_at FROM subscribers WHERE item_id = ? ORDER BY created_at`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.ID, &s.ItemID, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

func scanItem(s interface {
	Scan(dest ...interface{}) error
}) (*Item, error) {
	var item Item
	var groupID sql.NullString
	var tagsStr, categoriesStr string

	err := s.Scan(&item.ID, &item.RoadmapID, &groupID, &item.ExternalID, &item.Title, &item.Description,
		&item.ContentHTML, &item.Status, &item.Confidence, &item.Votes, &item.Featured,
		&tagsStr, &categoriesStr, &item.FeaturedImageURL, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if groupID.Valid {
		item.GroupID = &groupID.String
	}
	json.Unmarshal([]byte(tagsStr), &item.Tags)
	json.Unmarshal([]byte(categoriesStr), &item.Categories)

	return &item, nil
}
