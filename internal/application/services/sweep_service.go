package services

import (
	"context"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/filehost"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/performance"
)

// SweepResult reports what a single sweep pass did.
type SweepResult struct {
	RevokedCount         int `json:"revokedCount"`
	RemoteDeleteFailures int `json:"remoteDeleteFailures"`
}

// SweepService revokes publication links whose validity window has passed.
// Each link is handled independently, so a failure on one never blocks the
// rest, and re-running a sweep is a no-op for links already revoked.
type SweepService struct {
	links    publication.LinkRepository
	fileHost filehost.Client
	logger   *logging.ChanneledLogger
	perf     *performance.Tracker
}

// NewSweepService creates a sweep service.
func NewSweepService(links publication.LinkRepository, fileHost filehost.Client, logger *logging.ChanneledLogger, perf *performance.Tracker) *SweepService {
	return &SweepService{
		links:    links,
		fileHost: fileHost,
		logger:   logger,
		perf:     perf,
	}
}

// Sweep revokes every non-revoked link with expiresAt <= now. For each link
// the remote share delete is attempted first; if it fails the local
// revocation still happens and the failure is counted and logged.
func (s *SweepService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	marker := s.perf.StartOperation("link_expiry_sweep")
	defer marker.Complete()

	expired, err := s.links.ListExpiredActive(now)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	result := &SweepResult{}
	for _, link := range expired {
		if link.RemoteToken != "" {
			if err := s.fileHost.DeleteShareLink(ctx, link.RemoteToken); err != nil {
				result.RemoteDeleteFailures++
				s.logger.Sweep().Warn("Remote share delete failed, revoking locally anyway",
					"whitepaperId", link.WhitepaperID, "error", err.Error())
			}
		}

		if err := s.links.MarkRevoked(link.Token); err != nil {
			s.logger.Sweep().Error("Local revocation failed", "whitepaperId", link.WhitepaperID, "error", err.Error())
			continue
		}
		result.RevokedCount++
	}

	marker.AddMetadata("revoked", result.RevokedCount)
	marker.AddMetadata("remoteFailures", result.RemoteDeleteFailures)
	s.logger.Sweep().Info("Expiry sweep complete",
		"candidates", len(expired),
		"revoked", result.RevokedCount,
		"remoteFailures", result.RemoteDeleteFailures)
	return result, nil
}

// StartWorker runs periodic sweeps until the context is cancelled. An
// interval of zero disables the worker; sweeps are then only triggered
// through the admin endpoint.
func (s *SweepService) StartWorker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Sweep().Info("Periodic sweep worker disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Sweep().Info("Periodic sweep worker started", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				s.logger.Sweep().Info("Periodic sweep worker stopped")
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx, time.Now().UTC()); err != nil {
					s.logger.Sweep().Error("Scheduled sweep failed", "error", err.Error())
				}
			}
		}
	}()
}
