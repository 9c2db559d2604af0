// Package lead provides the concrete SQL-based implementations of the lead
// domain repositories (DownloadSession, DownloadRecord).
package lead

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
)

// SQLSessionRepository is the SQL-based implementation of the SessionRepository.
type SQLSessionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSessionRepository creates a new instance of the repository.
func NewSQLSessionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSessionRepository {
	return &SQLSessionRepository{
		db:     db,
		logger: logger,
	}
}

const sessionColumns = `id, email, first_name, company, website, phone, job_title,
	       industry, company_size, created_at, expires_at, last_accessed_at`

// FindByID retrieves a DownloadSession by its unique identifier.
func (r *SQLSessionRepository) FindByID(id string) (*lead.DownloadSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM download_sessions WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading session by ID", "id", id)

	session, err := r.scanSession(r.db.QueryRow(query, id))
	if err != nil {
		r.logger.Database().Error("Failed to load session by ID", "error", err.Error(), "id", id)
		return nil, err
	}
	if session != nil {
		if err := r.loadDownloads(session); err != nil {
			return nil, err
		}
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return session, nil
}

// FindByEmail retrieves a DownloadSession by its normalized email, whether or
// not the session is still within its validity window. Callers decide whether
// an expired row counts as absent.
func (r *SQLSessionRepository) FindByEmail(email string) (*lead.DownloadSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM download_sessions WHERE email = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading session by email", "email", logging.SanitizeEmail(email))

	session, err := r.scanSession(r.db.QueryRow(query, email))
	if err != nil {
		r.logger.Database().Error("Failed to load session by email", "error", err.Error(), "email", logging.SanitizeEmail(email))
		return nil, err
	}
	if session != nil {
		if err := r.loadDownloads(session); err != nil {
			return nil, err
		}
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return session, nil
}

// Store saves a new DownloadSession. The UNIQUE index on email is the
// concurrency-control mechanism: a concurrent insert for the same email
// fails here and the caller falls back to the refresh path.
func (r *SQLSessionRepository) Store(session *lead.DownloadSession) error {
	const query = `
		INSERT INTO download_sessions (id, email, first_name, company, website, phone,
		                               job_title, industry, company_size, created_at,
		                               expires_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing session insert", "id", session.ID, "email", logging.SanitizeEmail(session.Email))

	_, err := r.db.Exec(
		query,
		session.ID,
		session.Email,
		session.FirstName,
		session.Company,
		nullable(session.Website),
		nullable(session.Phone),
		nullable(session.JobTitle),
		nullable(session.Industry),
		nullable(session.CompanySize),
		database.FormatTime(session.CreatedAt),
		database.FormatTime(session.ExpiresAt),
		database.FormatTime(session.LastAccessedAt),
	)
	if err != nil {
		if !database.IsUniqueViolation(err) {
			r.logger.Database().Error("Session insert failed", "error", err.Error(), "id", session.ID)
		}
		return err
	}

	r.logger.Database().Info("Session insert completed", "id", session.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// Refresh updates the contact fields and last-accessed timestamp of an
// existing session. The creation and expiry timestamps never change here.
func (r *SQLSessionRepository) Refresh(session *lead.DownloadSession) error {
	const query = `
		UPDATE download_sessions
		SET first_name = ?, company = ?, website = ?, phone = ?, job_title = ?,
		    industry = ?, company_size = ?, last_accessed_at = ?
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing session refresh", "id", session.ID)

	_, err := r.db.Exec(
		query,
		session.FirstName,
		session.Company,
		nullable(session.Website),
		nullable(session.Phone),
		nullable(session.JobTitle),
		nullable(session.Industry),
		nullable(session.CompanySize),
		database.FormatTime(session.LastAccessedAt),
		session.ID,
	)
	if err != nil {
		r.logger.Database().Error("Session refresh failed", "error", err.Error(), "id", session.ID)
		return err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// DeleteExpiredByEmail removes an expired session row for the email so a
// fresh session can be inserted without tripping the unique index. Rows still
// inside their validity window are never touched.
func (r *SQLSessionRepository) DeleteExpiredByEmail(email string, now time.Time) error {
	const query = `DELETE FROM download_sessions WHERE email = ? AND expires_at < ?`

	_, err := r.db.Exec(query, email, database.FormatTime(now))
	if err != nil {
		r.logger.Database().Error("Expired session delete failed", "error", err.Error(), "email", logging.SanitizeEmail(email))
		return err
	}
	return nil
}

// AppendDownload adds the whitepaper to the session's ordered download set.
// Re-downloading the same whitepaper is a no-op thanks to the unique
// (session_id, whitepaper_id) constraint.
func (r *SQLSessionRepository) AppendDownload(sessionID, whitepaperID string) error {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM download_sessions WHERE id = ?)", sessionID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	const query = `
		INSERT OR IGNORE INTO session_whitepapers (id, session_id, whitepaper_id, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM session_whitepapers WHERE session_id = ?))`

	start := time.Now()
	_, err = r.db.Exec(query, security.GenerateULID(), sessionID, whitepaperID, sessionID)
	if err != nil {
		r.logger.Database().Error("Download append failed", "error", err.Error(), "sessionId", sessionID, "whitepaperId", whitepaperID)
		return err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// TouchLastAccessed bumps the session's last-accessed timestamp.
func (r *SQLSessionRepository) TouchLastAccessed(sessionID string, at time.Time) error {
	_, err := r.db.Exec(`UPDATE download_sessions SET last_accessed_at = ? WHERE id = ?`,
		database.FormatTime(at), sessionID)
	if err != nil {
		r.logger.Database().Error("Session touch failed", "error", err.Error(), "sessionId", sessionID)
	}
	return err
}

// loadDownloads fills the session's ordered whitepaper id list.
func (r *SQLSessionRepository) loadDownloads(session *lead.DownloadSession) error {
	rows, err := r.db.Query(
		`SELECT whitepaper_id FROM session_whitepapers WHERE session_id = ? ORDER BY position ASC`,
		session.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		session.WhitepaperIDs = append(session.WhitepaperIDs, id)
	}
	return rows.Err()
}

// scanSession is a helper function to scan a sql.Row into a DownloadSession struct.
func (r *SQLSessionRepository) scanSession(row *sql.Row) (*lead.DownloadSession, error) {
	var session lead.DownloadSession
	var website, phone, jobTitle, industry, companySize sql.NullString
	var createdAtStr, expiresAtStr, lastAccessedStr string

	err := row.Scan(
		&session.ID,
		&session.Email,
		&session.FirstName,
		&session.Company,
		&website,
		&phone,
		&jobTitle,
		&industry,
		&companySize,
		&createdAtStr,
		&expiresAtStr,
		&lastAccessedStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}

	session.Website = website.String
	session.Phone = phone.String
	session.JobTitle = jobTitle.String
	session.Industry = industry.String
	session.CompanySize = companySize.String

	if session.CreatedAt, err = database.ParseTime(createdAtStr); err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = database.ParseTime(expiresAtStr); err != nil {
		return nil, err
	}
	if session.LastAccessedAt, err = database.ParseTime(lastAccessedStr); err != nil {
		return nil, err
	}

	return &session, nil
}

// nullable converts empty strings to NULL so optional fields stay unset.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
