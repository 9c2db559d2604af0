package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
)

// emailPattern is an RFC-5322-lite check: printable local part, a domain
// with at least one dot, no whitespace.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// SessionService is the download-session store. Within one email address,
// create-or-refresh is linearized by the unique index on the normalized
// email column; this service never takes an application-level lock.
type SessionService struct {
	sessions      lead.SessionRepository
	sessionWindow time.Duration
	logger        *logging.ChanneledLogger
	now           func() time.Time
}

// NewSessionService creates a session service with the given validity window.
func NewSessionService(sessions lead.SessionRepository, sessionWindowDays int, logger *logging.ChanneledLogger) *SessionService {
	return &SessionService{
		sessions:      sessions,
		sessionWindow: time.Duration(sessionWindowDays) * 24 * time.Hour,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address passes the RFC-5322-lite check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// FindActive returns the non-expired session for the email, or nil if the
// email is unknown or its session has lapsed.
func (s *SessionService) FindActive(email string) (*lead.DownloadSession, error) {
	normalized := NormalizeEmail(email)
	if !ValidEmail(normalized) {
		return nil, domain.NewValidationError(map[string]string{"email": "invalid email address"})
	}

	session, err := s.sessions.FindByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Active(s.now()) {
		return nil, nil
	}
	return session, nil
}

// CreateOrRefresh resolves the session for the email: an active session gets
// its fields merged (new non-empty values win) and its last-accessed bumped;
// otherwise a fresh session is created with a full validity window. The
// second return value reports whether the session is newly created.
func (s *SessionService) CreateOrRefresh(email string, fields lead.ContactFields) (*lead.DownloadSession, bool, error) {
	normalized := NormalizeEmail(email)
	if !ValidEmail(normalized) {
		return nil, false, domain.NewValidationError(map[string]string{"email": "invalid email address"})
	}

	now := s.now()

	existing, err := s.sessions.FindByEmail(normalized)
	if err != nil {
		return nil, false, err
	}

	if existing != nil && existing.Active(now) {
		return s.refresh(existing, fields, now)
	}

	if existing != nil {
		// Expired row: remove it so the fresh insert passes the unique index.
		// Old data is never merged into the new session.
		if err := s.sessions.DeleteExpiredByEmail(normalized, now); err != nil {
			return nil, false, err
		}
	}

	session := &lead.DownloadSession{
		ID:             security.GenerateULID(),
		Email:          normalized,
		FirstName:      fields.FirstName,
		Company:        fields.Company,
		Website:        fields.Website,
		Phone:          fields.Phone,
		JobTitle:       fields.JobTitle,
		Industry:       fields.Industry,
		CompanySize:    fields.CompanySize,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.sessionWindow),
		LastAccessedAt: now,
	}

	if err := s.sessions.Store(session); err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent submission for the same email won the insert race.
			// Fall back to the refresh path against the winner's row.
			winner, ferr := s.sessions.FindByEmail(normalized)
			if ferr != nil {
				return nil, false, ferr
			}
			if winner != nil && winner.Active(now) {
				return s.refresh(winner, fields, now)
			}
		}
		return nil, false, err
	}

	s.logger.Capture().Info("Download session created",
		"sessionId", session.ID,
		"email", logging.SanitizeEmail(normalized),
		"expiresAt", session.ExpiresAt)
	return session, true, nil
}

// RecordDownload appends the whitepaper to the session's ordered download
// set. Re-downloading the same whitepaper within the window is idempotent.
func (s *SessionService) RecordDownload(sessionID, whitepaperID string) error {
	if err := s.sessions.AppendDownload(sessionID, whitepaperID); err != nil {
		return err
	}
	return s.sessions.TouchLastAccessed(sessionID, s.now())
}

func (s *SessionService) refresh(session *lead.DownloadSession, fields lead.ContactFields, now time.Time) (*lead.DownloadSession, bool, error) {
	mergeField(&session.FirstName, fields.FirstName)
	mergeField(&session.Company, fields.Company)
	mergeField(&session.Website, fields.Website)
	mergeField(&session.Phone, fields.Phone)
	mergeField(&session.JobTitle, fields.JobTitle)
	mergeField(&session.Industry, fields.Industry)
	mergeField(&session.CompanySize, fields.CompanySize)
	session.LastAccessedAt = now

	if err := s.sessions.Refresh(session); err != nil {
		return nil, false, err
	}

	s.logger.Capture().Debug("Download session refreshed",
		"sessionId", session.ID,
		"downloads", len(session.WhitepaperIDs))
	return session, false, nil
}

// mergeField overwrites dst only when the new value is non-empty.
func mergeField(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

// GetByID loads a session regardless of expiry, for admin inspection.
func (s *SessionService) GetByID(id string) (*lead.DownloadSession, error) {
	session, err := s.sessions.FindByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return session, nil
}
