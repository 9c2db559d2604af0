package lead

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
)

// SQLDownloadRepository is the SQL-based implementation of the DownloadRepository.
type SQLDownloadRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLDownloadRepository creates a new instance of the repository.
func NewSQLDownloadRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLDownloadRepository {
	return &SQLDownloadRepository{
		db:     db,
		logger: logger,
	}
}

const recordColumns = `id, whitepaper_id, session_id, first_name, email, company, website,
	       phone, job_title, industry, company_size, utm_source, utm_medium,
	       utm_campaign, referrer, marketing_consent, privacy_consent,
	       terms_accepted, lead_score, export_status, export_error, created_at`

// Store saves a new DownloadRecord audit row.
func (r *SQLDownloadRepository) Store(record *lead.DownloadRecord) error {
	const query = `
		INSERT INTO download_records (id, whitepaper_id, session_id, first_name, email,
		                              company, website, phone, job_title, industry,
		                              company_size, utm_source, utm_medium, utm_campaign,
		                              referrer, marketing_consent, privacy_consent,
		                              terms_accepted, lead_score, export_status,
		                              export_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing download record insert", "id", record.ID, "whitepaperId", record.WhitepaperID)

	var sessionID any
	if record.SessionID != nil {
		sessionID = *record.SessionID
	}

	_, err := r.db.Exec(
		query,
		record.ID,
		record.WhitepaperID,
		sessionID,
		record.FirstName,
		record.Email,
		record.Company,
		nullable(record.Website),
		nullable(record.Phone),
		nullable(record.JobTitle),
		nullable(record.Industry),
		nullable(record.CompanySize),
		nullable(record.UTMSource),
		nullable(record.UTMMedium),
		nullable(record.UTMCampaign),
		nullable(record.Referrer),
		record.MarketingConsent,
		record.PrivacyConsent,
		record.TermsAccepted,
		record.LeadScore,
		record.ExportStatus,
		nullable(record.ExportError),
		database.FormatTime(record.CreatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Download record insert failed", "error", err.Error(), "id", record.ID)
		return err
	}

	r.logger.Database().Info("Download record insert completed", "id", record.ID, "score", record.LeadScore, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// FindByID retrieves a DownloadRecord by its unique identifier.
func (r *SQLDownloadRepository) FindByID(id string) (*lead.DownloadRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM download_records WHERE id = ?`

	record, err := scanRecord(r.db.QueryRow(query, id))
	if err != nil {
		r.logger.Database().Error("Failed to load download record", "error", err.Error(), "id", id)
		return nil, err
	}
	return record, nil
}

// ListRecent returns the most recent download records, newest first.
func (r *SQLDownloadRepository) ListRecent(limit int) ([]*lead.DownloadRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM download_records ORDER BY created_at DESC LIMIT ?`

	start := time.Now()
	rows, err := r.db.Query(query, limit)
	if err != nil {
		r.logger.Database().Error("Failed to list download records", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*lead.DownloadRecord
	for rows.Next() {
		record, err := scanRecordRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return records, rows.Err()
}

// UpdateExportStatus records the asynchronous CRM export outcome. This is the
// only mutation a download record ever receives.
func (r *SQLDownloadRepository) UpdateExportStatus(id, status, exportError string) error {
	const query = `UPDATE download_records SET export_status = ?, export_error = ? WHERE id = ?`

	result, err := r.db.Exec(query, status, nullable(exportError), id)
	if err != nil {
		r.logger.Database().Error("Export status update failed", "error", err.Error(), "id", id)
		return err
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("download record %s: %w", id, domain.ErrNotFound)
	}

	r.logger.Database().Info("Export status updated", "id", id, "status", status)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (*lead.DownloadRecord, error) {
	record, err := scanRecordFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

func scanRecordRows(rows *sql.Rows) (*lead.DownloadRecord, error) {
	return scanRecordFrom(rows)
}

func scanRecordFrom(s rowScanner) (*lead.DownloadRecord, error) {
	var record lead.DownloadRecord
	var sessionID, website, phone, jobTitle, industry, companySize sql.NullString
	var utmSource, utmMedium, utmCampaign, referrer, exportError sql.NullString
	var createdAtStr string

	err := s.Scan(
		&record.ID,
		&record.WhitepaperID,
		&sessionID,
		&record.FirstName,
		&record.Email,
		&record.Company,
		&website,
		&phone,
		&jobTitle,
		&industry,
		&companySize,
		&utmSource,
		&utmMedium,
		&utmCampaign,
		&referrer,
		&record.MarketingConsent,
		&record.PrivacyConsent,
		&record.TermsAccepted,
		&record.LeadScore,
		&record.ExportStatus,
		&exportError,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	if sessionID.Valid {
		record.SessionID = &sessionID.String
	}
	record.Website = website.String
	record.Phone = phone.String
	record.JobTitle = jobTitle.String
	record.Industry = industry.String
	record.CompanySize = companySize.String
	record.UTMSource = utmSource.String
	record.UTMMedium = utmMedium.String
	record.UTMCampaign = utmCampaign.String
	record.Referrer = referrer.String
	record.ExportError = exportError.String

	if record.CreatedAt, err = database.ParseTime(createdAtStr); err != nil {
		return nil, err
	}

	return &record, nil
}
