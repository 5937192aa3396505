package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"signpost/internal/platform/config"
)

type GlobalDB struct {
	DB *sql.DB
}

func NewGlobalDBWrapper(db *sql.DB) *GlobalDB {
	return &GlobalDB{DB: db}
}

// NewGlobalDB opens the shared control-plane database holding workspaces,
// users, api keys and audit logs.
func NewGlobalDB(cfg config.GlobalDBConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
