// Package database provides schema instantiation
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent adds a sample whitepaper so a fresh install has a
// downloadable asset to test against.
func (tc *TableCreator) SeedInitialContent(db *sql.DB) error {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM whitepapers WHERE slug = 'getting-started')").Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for seed whitepaper: %w", err)
	}

	if !exists {
		id := security.GenerateULID()
		_, err = db.Exec(`INSERT INTO whitepapers (id, slug, title, file_path, published_at) VALUES (?, ?, ?, ?, ?)`,
			id, "getting-started", "Getting Started with Magnetiq", "/whitepapers/getting-started.pdf",
			time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to insert seed whitepaper: %w", err)
		}
	}

	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS whitepapers (id TEXT PRIMARY KEY, slug TEXT NOT NULL UNIQUE, title TEXT NOT NULL, file_path TEXT NOT NULL, published_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, download_count INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS download_sessions (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, first_name TEXT NOT NULL, company TEXT NOT NULL, website TEXT, phone TEXT, job_title TEXT, industry TEXT, company_size TEXT, created_at TIMESTAMP NOT NULL, expires_at TIMESTAMP NOT NULL, last_accessed_at TIMESTAMP NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS session_whitepapers (id TEXT PRIMARY KEY, session_id TEXT NOT NULL REFERENCES download_sessions(id) ON DELETE CASCADE, whitepaper_id TEXT NOT NULL, position INTEGER NOT NULL, UNIQUE(session_id, whitepaper_id))`,
	`CREATE TABLE IF NOT EXISTS download_records (id TEXT PRIMARY KEY, whitepaper_id TEXT NOT NULL, session_id TEXT, first_name TEXT NOT NULL, email TEXT NOT NULL, company TEXT NOT NULL, website TEXT, phone TEXT, job_title TEXT, industry TEXT, company_size TEXT, utm_source TEXT, utm_medium TEXT, utm_campaign TEXT, referrer TEXT, marketing_consent BOOLEAN NOT NULL DEFAULT 0, privacy_consent BOOLEAN NOT NULL DEFAULT 0, terms_accepted BOOLEAN NOT NULL DEFAULT 0, lead_score INTEGER NOT NULL DEFAULT 0, export_status TEXT NOT NULL DEFAULT 'pending', export_error TEXT, created_at TIMESTAMP NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS publication_links (token TEXT PRIMARY KEY, whitepaper_id TEXT NOT NULL REFERENCES whitepapers(id), email TEXT NOT NULL, remote_url TEXT NOT NULL, remote_token TEXT, issued_at TIMESTAMP NOT NULL, expires_at TIMESTAMP NOT NULL, revoked BOOLEAN NOT NULL DEFAULT 0)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_download_sessions_expires_at ON download_sessions(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_session_whitepapers_session ON session_whitepapers(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_download_records_email ON download_records(email)`,
	`CREATE INDEX IF NOT EXISTS idx_download_records_export_status ON download_records(export_status)`,
	`CREATE INDEX IF NOT EXISTS idx_publication_links_expires ON publication_links(revoked, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_publication_links_wp_email ON publication_links(whitepaper_id, email)`,
}
