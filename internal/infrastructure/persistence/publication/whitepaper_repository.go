// Package publication provides the concrete SQL-based implementations of the
// publication domain repositories (Whitepaper, PublicationLink).
package publication

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
)

// SQLWhitepaperRepository is the SQL-based implementation of the WhitepaperRepository.
type SQLWhitepaperRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLWhitepaperRepository creates a new instance of the repository.
func NewSQLWhitepaperRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLWhitepaperRepository {
	return &SQLWhitepaperRepository{
		db:     db,
		logger: logger,
	}
}

const whitepaperColumns = `id, slug, title, file_path, published_at, download_count`

// FindByID retrieves a Whitepaper by its unique identifier.
func (r *SQLWhitepaperRepository) FindByID(id string) (*publication.Whitepaper, error) {
	query := `SELECT ` + whitepaperColumns + ` FROM whitepapers WHERE id = ?`

	start := time.Now()
	wp, err := r.scanWhitepaper(r.db.QueryRow(query, id))
	if err != nil {
		r.logger.Database().Error("Failed to load whitepaper by ID", "error", err.Error(), "id", id)
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return wp, nil
}

// FindBySlug retrieves a Whitepaper by its slug.
func (r *SQLWhitepaperRepository) FindBySlug(slug string) (*publication.Whitepaper, error) {
	query := `SELECT ` + whitepaperColumns + ` FROM whitepapers WHERE slug = ?`

	wp, err := r.scanWhitepaper(r.db.QueryRow(query, slug))
	if err != nil {
		r.logger.Database().Error("Failed to load whitepaper by slug", "error", err.Error(), "slug", slug)
		return nil, err
	}
	return wp, nil
}

// List returns all whitepapers ordered by publication date, newest first.
func (r *SQLWhitepaperRepository) List() ([]*publication.Whitepaper, error) {
	query := `SELECT ` + whitepaperColumns + ` FROM whitepapers ORDER BY published_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to list whitepapers", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var papers []*publication.Whitepaper
	for rows.Next() {
		var wp publication.Whitepaper
		var publishedAtStr string
		if err := rows.Scan(&wp.ID, &wp.Slug, &wp.Title, &wp.FilePath, &publishedAtStr, &wp.DownloadCount); err != nil {
			return nil, err
		}
		if wp.PublishedAt, err = database.ParseTime(publishedAtStr); err != nil {
			return nil, err
		}
		papers = append(papers, &wp)
	}
	return papers, rows.Err()
}

// Store saves a new Whitepaper. The file path is immutable afterwards; a new
// version of an asset gets a new row.
func (r *SQLWhitepaperRepository) Store(wp *publication.Whitepaper) error {
	const query = `
		INSERT INTO whitepapers (id, slug, title, file_path, published_at, download_count)
		VALUES (?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.Exec(query, wp.ID, wp.Slug, wp.Title, wp.FilePath,
		database.FormatTime(wp.PublishedAt), wp.DownloadCount)
	if err != nil {
		r.logger.Database().Error("Whitepaper insert failed", "error", err.Error(), "slug", wp.Slug)
		return err
	}

	r.logger.Database().Info("Whitepaper insert completed", "id", wp.ID, "slug", wp.Slug, "duration", time.Since(start))
	return nil
}

// IncrementDownloadCount bumps the whitepaper's download counter.
func (r *SQLWhitepaperRepository) IncrementDownloadCount(id string) error {
	const query = `UPDATE whitepapers SET download_count = download_count + 1 WHERE id = ?`

	result, err := r.db.Exec(query, id)
	if err != nil {
		r.logger.Database().Error("Download count increment failed", "error", err.Error(), "id", id)
		return err
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("whitepaper %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// scanWhitepaper is a helper function to scan a sql.Row into a Whitepaper struct.
func (r *SQLWhitepaperRepository) scanWhitepaper(row *sql.Row) (*publication.Whitepaper, error) {
	var wp publication.Whitepaper
	var publishedAtStr string

	err := row.Scan(&wp.ID, &wp.Slug, &wp.Title, &wp.FilePath, &publishedAtStr, &wp.DownloadCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}

	if wp.PublishedAt, err = database.ParseTime(publishedAtStr); err != nil {
		return nil, err
	}

	return &wp, nil
}
