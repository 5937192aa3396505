package database

import "database/sql"

// GlobalSchema holds the control-plane tables shared by all workspaces.
const GlobalSchema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	db_file_path TEXT NOT NULL,
	plan_tier TEXT NOT NULL DEFAULT 'free',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	deleted_at INTEGER
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	email TEXT NOT NULL UNIQUE,
	email_verified INTEGER NOT NULL DEFAULT 0,
	password_hash TEXT NOT NULL,
	full_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'viewer',
	avatar_url TEXT NOT NULL DEFAULT '',
	last_login_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	deleted_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_users_workspace ON users(workspace_id);

CREATE TABLE IF NOT EXISTS api_keys (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL REFERENCES workspaces(id),
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	key_hash TEXT NOT NULL UNIQUE,
	key_prefix TEXT NOT NULL,
	scopes TEXT NOT NULL DEFAULT '[]',
	last_used_at INTEGER,
	expires_at INTEGER,
	created_at INTEGER NOT NULL,
	revoked_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_api_keys_workspace ON api_keys(workspace_id);

CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_workspace ON audit_logs(workspace_id, created_at);
`

// TenantSchema holds one workspace's roadmap data. Applied when the
// workspace database file is first created.
const TenantSchema = `
CREATE TABLE IF NOT EXISTS roadmaps (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	public_title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	default_zoom TEXT NOT NULL DEFAULT 'standard',
	available_views TEXT NOT NULL DEFAULT '[]',
	item_count INTEGER NOT NULL DEFAULT 0,
	created_by TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
	id TEXT PRIMARY KEY,
	roadmap_id TEXT NOT NULL REFERENCES roadmaps(id),
	name TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_groups_roadmap ON groups(roadmap_id);

CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	roadmap_id TEXT NOT NULL REFERENCES roadmaps(id),
	group_id TEXT,
	external_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	content_html TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'EXPLORING',
	confidence TEXT NOT NULL DEFAULT '',
	votes INTEGER NOT NULL DEFAULT 0,
	featured INTEGER NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '[]',
	categories TEXT NOT NULL DEFAULT '[]',
	featured_image_url TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_roadmap ON items(roadmap_id);
CREATE INDEX IF NOT EXISTS idx_items_external ON items(external_id);

CREATE TABLE IF NOT EXISTS votes (
	id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL REFERENCES items(id),
	voter_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(item_id, voter_id)
);

CREATE TABLE IF NOT EXISTS subscribers (
	id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL REFERENCES items(id),
	email TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(item_id, email)
);

CREATE TABLE IF NOT EXISTS webhooks (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	secret TEXT NOT NULL,
	events TEXT NOT NULL DEFAULT '[]',
	active INTEGER NOT NULL DEFAULT 1,
	failure_count INTEGER NOT NULL DEFAULT 0,
	last_triggered_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS webhook_deliveries (
	id TEXT PRIMARY KEY,
	webhook_id TEXT NOT NULL REFERENCES webhooks(id),
	event TEXT NOT NULL,
	payload TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	status_code INTEGER,
	error TEXT NOT NULL DEFAULT '',
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	delivered_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_deliveries_webhook ON webhook_deliveries(webhook_id, created_at);
CREATE INDEX IF NOT EXISTS idx_deliveries_status ON webhook_deliveries(status, created_at);

CREATE TABLE IF NOT EXISTS analytics_events (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	roadmap_id TEXT NOT NULL,
	item_id TEXT NOT NULL DEFAULT '',
	visitor TEXT NOT NULL DEFAULT '',
	referrer TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_roadmap ON analytics_events(roadmap_id, timestamp);

CREATE TABLE IF NOT EXISTS daily_stats (
	id TEXT PRIMARY KEY,
	roadmap_id TEXT NOT NULL,
	date TEXT NOT NULL,
	views INTEGER NOT NULL DEFAULT 0,
	unique_visitors INTEGER NOT NULL DEFAULT 0,
	votes INTEGER NOT NULL DEFAULT 0,
	subscribes INTEGER NOT NULL DEFAULT 0,
	top_item_id TEXT,
	created_at INTEGER NOT NULL,
	UNIQUE(roadmap_id, date)
);
`

// InitTenantSchema applies the tenant schema to a freshly created workspace
// database. Statements are idempotent, so re-running is safe.
func InitTenantSchema(db *sql.DB) error {
	_, err := db.Exec(TenantSchema)
	return err
}

// InitGlobalSchema applies the control-plane schema.
func InitGlobalSchema(db *sql.DB) error {
	_, err := db.Exec(GlobalSchema)
	return err
}
