// Package lead defines the entities and repository interfaces for the
// download-session and lead-capture core. These repositories abstract the
// data persistence details, ensuring the core application is clean and
// decoupled from the database.
package lead

import "time"

// DownloadSession is the unit of lead identity across repeated downloads.
// At most one non-expired session exists per normalized email; an expired
// session is treated as absent and never resurrected.
type DownloadSession struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"` // normalized: trimmed, lowercased
	FirstName      string    `json:"firstName"`
	Company        string    `json:"company"`
	Website        string    `json:"website,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	JobTitle       string    `json:"jobTitle,omitempty"`
	Industry       string    `json:"industry,omitempty"`
	CompanySize    string    `json:"companySize,omitempty"`
	WhitepaperIDs  []string  `json:"whitepaperIds"` // ordered, no duplicates
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

// Active reports whether the session is still within its validity window.
// A session lapses only once now is strictly past its expiry.
func (s *DownloadSession) Active(now time.Time) bool {
	return !now.After(s.ExpiresAt)
}

// HasDownloaded reports whether the session already contains the whitepaper.
func (s *DownloadSession) HasDownloaded(whitepaperID string) bool {
	for _, id := range s.WhitepaperIDs {
		if id == whitepaperID {
			return true
		}
	}
	return false
}

// ContactFields holds the capture-form contact and firm attributes that get
// merged into a session. Empty values never overwrite existing ones.
type ContactFields struct {
	FirstName   string
	Company     string
	Website     string
	Phone       string
	JobTitle    string
	Industry    string
	CompanySize string
}

// Export status values for a DownloadRecord.
const (
	ExportPending = "pending"
	ExportSuccess = "success"
	ExportFailed  = "failed"
)

// DownloadRecord is the immutable audit row written once per download event.
// Only the export status and error fields are updated after creation.
type DownloadRecord struct {
	ID               string    `json:"id"`
	WhitepaperID     string    `json:"whitepaperId"`
	SessionID        *string   `json:"sessionId,omitempty"`
	FirstName        string    `json:"firstName"`
	Email            string    `json:"email"`
	Company          string    `json:"company"`
	Website          string    `json:"website,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	JobTitle         string    `json:"jobTitle,omitempty"`
	Industry         string    `json:"industry,omitempty"`
	CompanySize      string    `json:"companySize,omitempty"`
	UTMSource        string    `json:"utmSource,omitempty"`
	UTMMedium        string    `json:"utmMedium,omitempty"`
	UTMCampaign      string    `json:"utmCampaign,omitempty"`
	Referrer         string    `json:"referrer,omitempty"`
	MarketingConsent bool      `json:"marketingConsent"`
	PrivacyConsent   bool      `json:"privacyConsent"`
	TermsAccepted    bool      `json:"termsAccepted"`
	LeadScore        int       `json:"leadScore"`
	ExportStatus     string    `json:"exportStatus"`
	ExportError      string    `json:"exportError,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SessionRepository defines the operations for persisting DownloadSession
// entities. Concurrency control is the unique index on the normalized email
// column, not an application-level lock.
type SessionRepository interface {
	FindByID(id string) (*DownloadSession, error)
	FindByEmail(email string) (*DownloadSession, error)
	Store(session *DownloadSession) error
	Refresh(session *DownloadSession) error
	DeleteExpiredByEmail(email string, now time.Time) error
	AppendDownload(sessionID, whitepaperID string) error
	TouchLastAccessed(sessionID string, at time.Time) error
}

// DownloadRepository defines the operations for persisting DownloadRecord
// audit rows.
type DownloadRepository interface {
	Store(record *DownloadRecord) error
	FindByID(id string) (*DownloadRecord, error)
	ListRecent(limit int) ([]*DownloadRecord, error)
	UpdateExportStatus(id, status, exportError string) error
}
