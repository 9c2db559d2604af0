package publication

import (
	"database/sql"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
)

// SQLLinkRepository is the SQL-based implementation of the LinkRepository.
type SQLLinkRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLLinkRepository creates a new instance of the repository.
func NewSQLLinkRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLLinkRepository {
	return &SQLLinkRepository{
		db:     db,
		logger: logger,
	}
}

const linkColumns = `token, whitepaper_id, email, remote_url, remote_token, issued_at, expires_at, revoked`

// FindByToken retrieves a PublicationLink by its token.
func (r *SQLLinkRepository) FindByToken(token string) (*publication.PublicationLink, error) {
	query := `SELECT ` + linkColumns + ` FROM publication_links WHERE token = ?`

	start := time.Now()
	link, err := r.scanLink(r.db.QueryRow(query, token))
	if err != nil {
		r.logger.Database().Error("Failed to load publication link", "error", err.Error())
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return link, nil
}

// Store saves a new PublicationLink.
func (r *SQLLinkRepository) Store(link *publication.PublicationLink) error {
	const query = `
		INSERT INTO publication_links (token, whitepaper_id, email, remote_url,
		                               remote_token, issued_at, expires_at, revoked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing link insert", "whitepaperId", link.WhitepaperID, "email", logging.SanitizeEmail(link.Email))

	_, err := r.db.Exec(
		query,
		link.Token,
		link.WhitepaperID,
		link.Email,
		link.RemoteURL,
		link.RemoteToken,
		database.FormatTime(link.IssuedAt),
		database.FormatTime(link.ExpiresAt),
		link.Revoked,
	)
	if err != nil {
		r.logger.Database().Error("Link insert failed", "error", err.Error(), "whitepaperId", link.WhitepaperID)
		return err
	}

	r.logger.Database().Info("Link insert completed", "whitepaperId", link.WhitepaperID, "expiresAt", link.ExpiresAt, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// MarkRevoked sets the revoked flag on a link. Revocation is idempotent; a
// second call for the same token affects zero rows and reports no error.
func (r *SQLLinkRepository) MarkRevoked(token string) error {
	const query = `UPDATE publication_links SET revoked = 1 WHERE token = ? AND revoked = 0`

	_, err := r.db.Exec(query, token)
	if err != nil {
		r.logger.Database().Error("Link revocation failed", "error", err.Error())
		return err
	}
	return nil
}

// ListExpiredActive returns all links past their expiry that have not yet
// been revoked. This is the sweeper's work queue.
func (r *SQLLinkRepository) ListExpiredActive(now time.Time) ([]*publication.PublicationLink, error) {
	query := `SELECT ` + linkColumns + ` FROM publication_links WHERE revoked = 0 AND expires_at <= ?`

	start := time.Now()
	rows, err := r.db.Query(query, database.FormatTime(now))
	if err != nil {
		r.logger.Database().Error("Failed to list expired links", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var links []*publication.PublicationLink
	for rows.Next() {
		var link publication.PublicationLink
		var remoteToken sql.NullString
		var issuedAtStr, expiresAtStr string
		if err := rows.Scan(&link.Token, &link.WhitepaperID, &link.Email, &link.RemoteURL,
			&remoteToken, &issuedAtStr, &expiresAtStr, &link.Revoked); err != nil {
			return nil, err
		}
		link.RemoteToken = remoteToken.String
		if link.IssuedAt, err = database.ParseTime(issuedAtStr); err != nil {
			return nil, err
		}
		if link.ExpiresAt, err = database.ParseTime(expiresAtStr); err != nil {
			return nil, err
		}
		links = append(links, &link)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return links, rows.Err()
}

// scanLink is a helper function to scan a sql.Row into a PublicationLink struct.
func (r *SQLLinkRepository) scanLink(row *sql.Row) (*publication.PublicationLink, error) {
	var link publication.PublicationLink
	var remoteToken sql.NullString
	var issuedAtStr, expiresAtStr string

	err := row.Scan(
		&link.Token,
		&link.WhitepaperID,
		&link.Email,
		&link.RemoteURL,
		&remoteToken,
		&issuedAtStr,
		&expiresAtStr,
		&link.Revoked,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}

	link.RemoteToken = remoteToken.String
	if link.IssuedAt, err = database.ParseTime(issuedAtStr); err != nil {
		return nil, err
	}
	if link.ExpiresAt, err = database.ParseTime(expiresAtStr); err != nil {
		return nil, err
	}

	return &link, nil
}
