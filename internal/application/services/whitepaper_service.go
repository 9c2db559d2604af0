package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
)

// WhitepaperService exposes whitepaper lookup and the admin create path.
type WhitepaperService struct {
	whitepapers publication.WhitepaperRepository
	logger      *logging.ChanneledLogger
}

// NewWhitepaperService creates a whitepaper service.
func NewWhitepaperService(whitepapers publication.WhitepaperRepository, logger *logging.ChanneledLogger) *WhitepaperService {
	return &WhitepaperService{whitepapers: whitepapers, logger: logger}
}

// List returns all published whitepapers.
func (s *WhitepaperService) List() ([]*publication.Whitepaper, error) {
	return s.whitepapers.List()
}

// GetByID returns a whitepaper or domain.ErrNotFound.
func (s *WhitepaperService) GetByID(id string) (*publication.Whitepaper, error) {
	wp, err := s.whitepapers.FindByID(id)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		return nil, fmt.Errorf("whitepaper %s: %w", id, domain.ErrNotFound)
	}
	return wp, nil
}

// GetBySlug returns a whitepaper by its URL slug or domain.ErrNotFound.
func (s *WhitepaperService) GetBySlug(slug string) (*publication.Whitepaper, error) {
	wp, err := s.whitepapers.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		return nil, fmt.Errorf("whitepaper %s: %w", slug, domain.ErrNotFound)
	}
	return wp, nil
}

// Create registers a new whitepaper asset. The file must already exist on
// the file host at filePath.
func (s *WhitepaperService) Create(slug, title, filePath string) (*publication.Whitepaper, error) {
	fields := map[string]string{}
	if strings.TrimSpace(slug) == "" {
		fields["slug"] = "slug is required"
	}
	if strings.TrimSpace(title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(filePath) == "" {
		fields["filePath"] = "file path is required"
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	existing, err := s.whitepapers.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError(map[string]string{"slug": "slug already in use"})
	}

	wp := &publication.Whitepaper{
		ID:          security.GenerateULID(),
		Slug:        strings.TrimSpace(slug),
		Title:       strings.TrimSpace(title),
		FilePath:    strings.TrimSpace(filePath),
		PublishedAt: time.Now().UTC(),
	}
	if err := s.whitepapers.Store(wp); err != nil {
		return nil, err
	}

	s.logger.System().Info("Whitepaper published", "id", wp.ID, "slug", wp.Slug)
	return wp, nil
}
