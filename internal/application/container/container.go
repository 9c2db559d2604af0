// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/magnetiq/magnetiq-go/internal/application/services"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/crm"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/email"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/filehost"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/performance"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
	leadpersist "github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/lead"
	pubpersist "github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/publication"
	"github.com/magnetiq/magnetiq-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	SessionService    *services.SessionService
	CaptureService    *services.CaptureService
	LinkService       *services.LinkService
	SweepService      *services.SweepService
	ExportService     *services.ExportService
	ScoringService    *services.ScoringService
	WhitepaperService *services.WhitepaperService
	AuthService       *services.AuthService

	// Infrastructure
	DownloadRepository lead.DownloadRepository
	DB                 *database.DB
	Logger             *logging.ChanneledLogger
	PerfTracker        *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger) (*Container, error) {
	perfTracker := performance.NewTracker()

	sessionRepo := leadpersist.NewSQLSessionRepository(db, logger)
	downloadRepo := leadpersist.NewSQLDownloadRepository(db, logger)
	whitepaperRepo := pubpersist.NewSQLWhitepaperRepository(db, logger)
	linkRepo := pubpersist.NewSQLLinkRepository(db, logger)

	fileHost := filehost.NewNextCloudClient(
		config.NextCloudBaseURL,
		config.NextCloudUser,
		config.NextCloudPassword,
		config.FileHostTimeout,
		logger,
	)
	crmGateway := crm.NewHTTPGateway(config.CRMExportURL, config.ExportTimeout, logger)

	mailer, err := email.NewService()
	if err != nil {
		return nil, fmt.Errorf("email service init failed: %w", err)
	}

	sessionService := services.NewSessionService(sessionRepo, config.SessionWindowDays, logger)
	scoringService := services.NewScoringService(config.TargetIndustries)
	linkService := services.NewLinkService(linkRepo, whitepaperRepo, fileHost, logger)
	sweepService := services.NewSweepService(linkRepo, fileHost, logger, perfTracker)
	exportService := services.NewExportService(downloadRepo, crmGateway, config.ExportTimeout, logger)
	captureService := services.NewCaptureService(
		sessionService,
		linkService,
		scoringService,
		exportService,
		downloadRepo,
		whitepaperRepo,
		mailer,
		logger,
		perfTracker,
	)
	whitepaperService := services.NewWhitepaperService(whitepaperRepo, logger)
	authService := services.NewAuthService(logger)

	return &Container{
		SessionService:    sessionService,
		CaptureService:    captureService,
		LinkService:       linkService,
		SweepService:      sweepService,
		ExportService:     exportService,
		ScoringService:    scoringService,
		WhitepaperService: whitepaperService,
		AuthService:       authService,

		DownloadRepository: downloadRepo,
		DB:                 db,
		Logger:             logger,
		PerfTracker:        perfTracker,
	}, nil
}
