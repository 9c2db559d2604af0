package services

import (
	"context"
	"fmt"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/filehost"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
)

// linkTokenBytes gives 192 bits of entropy, comfortably past the 128-bit
// floor for unguessable URLs.
const linkTokenBytes = 24

// LinkService mints, resolves, and revokes time-bounded publication links.
// Re-issuing for a (whitepaper, email) pair never revokes earlier links;
// each link lives out its own validity window.
type LinkService struct {
	links       publication.LinkRepository
	whitepapers publication.WhitepaperRepository
	fileHost    filehost.Client
	logger      *logging.ChanneledLogger
	now         func() time.Time
}

// NewLinkService creates a link service.
func NewLinkService(links publication.LinkRepository, whitepapers publication.WhitepaperRepository, fileHost filehost.Client, logger *logging.ChanneledLogger) *LinkService {
	return &LinkService{
		links:       links,
		whitepapers: whitepapers,
		fileHost:    fileHost,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// IssueLink mints a new publication link for the whitepaper and recipient.
// validityDays is passed in from the settings in force at call time, so a
// later settings change never retroactively moves an issued link's expiry.
// The remote share is created before the local row is written; the row only
// exists once the link actually resolves to a file.
func (s *LinkService) IssueLink(ctx context.Context, whitepaperID, email string, validityDays int) (*publication.PublicationLink, error) {
	wp, err := s.whitepapers.FindByID(whitepaperID)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		return nil, fmt.Errorf("whitepaper %s: %w", whitepaperID, domain.ErrNotFound)
	}

	token, err := security.GenerateSecureToken(linkTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(validityDays) * 24 * time.Hour)

	share, err := s.fileHost.CreateShareLink(ctx, wp.FilePath, expiresAt)
	if err != nil {
		s.logger.Link().Error("Remote share creation failed, link not issued",
			"whitepaperId", whitepaperID, "error", err.Error())
		return nil, err
	}

	link := &publication.PublicationLink{
		Token:        token,
		WhitepaperID: whitepaperID,
		Email:        NormalizeEmail(email),
		RemoteURL:    share.RemoteURL,
		RemoteToken:  share.RemoteToken,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
	}

	if err := s.links.Store(link); err != nil {
		return nil, err
	}

	s.logger.Link().Info("Publication link issued",
		"whitepaperId", whitepaperID,
		"email", logging.SanitizeEmail(link.Email),
		"validityDays", validityDays,
		"expiresAt", expiresAt)
	return link, nil
}

// PublicURL renders the link's public download URL for the given site base.
func (s *LinkService) PublicURL(baseURL string, link *publication.PublicationLink) string {
	return fmt.Sprintf("%s/downloads/%s", baseURL, link.Token)
}

// Resolve maps a token to the remote file URL. Unknown, expired, and revoked
// tokens return distinct errors for logging; callers must collapse all three
// into one generic public response so token existence never leaks.
func (s *LinkService) Resolve(token string) (string, error) {
	link, err := s.links.FindByToken(token)
	if err != nil {
		return "", err
	}
	if link == nil {
		s.logger.Link().Debug("Link resolution for unknown token")
		return "", domain.ErrNotFound
	}
	if link.Revoked {
		s.logger.Link().Debug("Link resolution for revoked link", "whitepaperId", link.WhitepaperID)
		return "", domain.ErrLinkRevoked
	}
	if s.now().After(link.ExpiresAt) {
		s.logger.Link().Debug("Link resolution for expired link",
			"whitepaperId", link.WhitepaperID, "expiredAt", link.ExpiresAt)
		return "", domain.ErrLinkExpired
	}

	return link.RemoteURL, nil
}

// Revoke immediately invalidates a link. The remote share delete is
// attempted first but local revocation proceeds regardless of its outcome.
func (s *LinkService) Revoke(ctx context.Context, token string) error {
	link, err := s.links.FindByToken(token)
	if err != nil {
		return err
	}
	if link == nil {
		return fmt.Errorf("publication link: %w", domain.ErrNotFound)
	}

	if link.RemoteToken != "" {
		if err := s.fileHost.DeleteShareLink(ctx, link.RemoteToken); err != nil {
			s.logger.Link().Warn("Remote share delete failed during revocation, revoking locally anyway",
				"whitepaperId", link.WhitepaperID, "error", err.Error())
		}
	}

	if err := s.links.MarkRevoked(token); err != nil {
		return err
	}

	s.logger.Link().Info("Publication link revoked", "whitepaperId", link.WhitepaperID)
	return nil
}
