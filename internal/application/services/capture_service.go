package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/email"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/performance"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
	"github.com/magnetiq/magnetiq-go/pkg/config"
)

// CaptureRequest carries the whitepaper download form submission.
type CaptureRequest struct {
	WhitepaperID     string `json:"whitepaperId"`
	FirstName        string `json:"firstName"`
	Email            string `json:"email"`
	Company          string `json:"company"`
	Website          string `json:"website"`
	Phone            string `json:"phone"`
	JobTitle         string `json:"jobTitle"`
	Industry         string `json:"industry"`
	CompanySize      string `json:"companySize"`
	UTMSource        string `json:"utmSource"`
	UTMMedium        string `json:"utmMedium"`
	UTMCampaign      string `json:"utmCampaign"`
	Referrer         string `json:"referrer"`
	MarketingConsent bool   `json:"marketingConsent"`
	PrivacyConsent   bool   `json:"privacyConsent"`
	TermsAccepted    bool   `json:"termsAccepted"`
}

// CaptureResult is what a successful capture hands back to the HTTP layer.
type CaptureResult struct {
	Session      *lead.DownloadSession
	Record       *lead.DownloadRecord
	Link         *publication.PublicationLink
	IsNewSession bool
	SessionToken string
}

// CaptureService orchestrates a whitepaper download submission: validation,
// session create-or-refresh, audit record, link issuance, then the async
// email send and CRM export. Nothing is persisted until validation passes.
type CaptureService struct {
	sessions    *SessionService
	links       *LinkService
	scoring     *ScoringService
	export      *ExportService
	downloads   lead.DownloadRepository
	whitepapers publication.WhitepaperRepository
	mailer      email.Service
	logger      *logging.ChanneledLogger
	perf        *performance.Tracker
	now         func() time.Time
}

// NewCaptureService creates a capture service.
func NewCaptureService(
	sessions *SessionService,
	links *LinkService,
	scoring *ScoringService,
	export *ExportService,
	downloads lead.DownloadRepository,
	whitepapers publication.WhitepaperRepository,
	mailer email.Service,
	logger *logging.ChanneledLogger,
	perf *performance.Tracker,
) *CaptureService {
	return &CaptureService{
		sessions:    sessions,
		links:       links,
		scoring:     scoring,
		export:      export,
		downloads:   downloads,
		whitepapers: whitepapers,
		mailer:      mailer,
		logger:      logger,
		perf:        perf,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit processes a capture form submission end to end. The returned
// CaptureResult reflects the state at response time; the email send and CRM
// export continue in the background.
func (s *CaptureService) Submit(ctx context.Context, req *CaptureRequest) (*CaptureResult, error) {
	marker := s.perf.StartOperation("whitepaper_capture")
	defer marker.Complete()

	if err := s.validate(req); err != nil {
		marker.SetError(err)
		return nil, err
	}

	wp, err := s.whitepapers.FindByID(req.WhitepaperID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if wp == nil {
		err := fmt.Errorf("whitepaper %s: %w", req.WhitepaperID, domain.ErrNotFound)
		marker.SetError(err)
		return nil, err
	}

	session, isNew, err := s.sessions.CreateOrRefresh(req.Email, lead.ContactFields{
		FirstName:   req.FirstName,
		Company:     req.Company,
		Website:     req.Website,
		Phone:       req.Phone,
		JobTitle:    req.JobTitle,
		Industry:    req.Industry,
		CompanySize: req.CompanySize,
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if err := s.sessions.RecordDownload(session.ID, wp.ID); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if !session.HasDownloaded(wp.ID) {
		session.WhitepaperIDs = append(session.WhitepaperIDs, wp.ID)
	}

	score := s.scoring.Score(ScoringInput{
		Email:            session.Email,
		JobTitle:         session.JobTitle,
		Industry:         session.Industry,
		CompanySize:      session.CompanySize,
		Website:          session.Website,
		Phone:            session.Phone,
		SessionDownloads: len(session.WhitepaperIDs),
	})

	record := &lead.DownloadRecord{
		ID:               security.GenerateULID(),
		WhitepaperID:     wp.ID,
		SessionID:        &session.ID,
		FirstName:        session.FirstName,
		Email:            session.Email,
		Company:          session.Company,
		Website:          session.Website,
		Phone:            session.Phone,
		JobTitle:         session.JobTitle,
		Industry:         session.Industry,
		CompanySize:      session.CompanySize,
		UTMSource:        req.UTMSource,
		UTMMedium:        req.UTMMedium,
		UTMCampaign:      req.UTMCampaign,
		Referrer:         req.Referrer,
		MarketingConsent: req.MarketingConsent,
		PrivacyConsent:   req.PrivacyConsent,
		TermsAccepted:    req.TermsAccepted,
		LeadScore:        score,
		ExportStatus:     lead.ExportPending,
		CreatedAt:        s.now(),
	}
	if err := s.downloads.Store(record); err != nil {
		marker.SetError(err)
		return nil, err
	}
	// Once the record exists the export is owed, even if link issuance fails
	// below and the submission returns an error.
	s.export.Dispatch(record)

	link, err := s.links.IssueLink(ctx, wp.ID, session.Email, config.LinkValidityDays)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if err := s.whitepapers.IncrementDownloadCount(wp.ID); err != nil {
		s.logger.Capture().Warn("Download counter bump failed", "whitepaperId", wp.ID, "error", err.Error())
	}

	sessionToken, err := security.GenerateSessionToken(session.ID, session.Email, config.JWTSecret, session.ExpiresAt)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	linkURL := s.links.PublicURL(config.PublicBaseURL, link)
	go s.sendLinkEmail(session.Email, wp.Title, linkURL, link.ExpiresAt)

	marker.AddMetadata("isNewSession", isNew)
	marker.AddMetadata("leadScore", score)
	s.logger.Capture().Info("Whitepaper capture completed",
		"whitepaperId", wp.ID,
		"email", logging.SanitizeEmail(session.Email),
		"isNewSession", isNew,
		"leadScore", score)

	return &CaptureResult{
		Session:      session,
		Record:       record,
		Link:         link,
		IsNewSession: isNew,
		SessionToken: sessionToken,
	}, nil
}

func (s *CaptureService) sendLinkEmail(toEmail, title, linkURL string, expiresAt time.Time) {
	if err := s.mailer.SendWhitepaperLinkEmail(toEmail, title, linkURL, expiresAt); err != nil {
		s.logger.Email().Error("Whitepaper link email failed",
			"email", logging.SanitizeEmail(toEmail), "error", err.Error())
	}
}

// validate checks required fields before anything is persisted. All failures
// for a submission are reported together. Terms acceptance is the only gate;
// the marketing and privacy consent flags are recorded as given and only
// steer downstream processing.
func (s *CaptureService) validate(req *CaptureRequest) error {
	fields := map[string]string{}

	if strings.TrimSpace(req.WhitepaperID) == "" {
		fields["whitepaperId"] = "whitepaper is required"
	}
	if strings.TrimSpace(req.FirstName) == "" {
		fields["firstName"] = "first name is required"
	}
	if strings.TrimSpace(req.Company) == "" {
		fields["company"] = "company is required"
	}
	if !ValidEmail(NormalizeEmail(req.Email)) {
		fields["email"] = "a valid email address is required"
	}
	if !req.TermsAccepted {
		fields["termsAccepted"] = "terms must be accepted"
	}

	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}
