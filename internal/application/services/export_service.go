package services

import (
	"context"
	"fmt"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/crm"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
)

// ExportService pushes download records to the CRM. Export runs off the
// request path; a CRM outage degrades the record to export_failed but never
// breaks a capture.
type ExportService struct {
	downloads lead.DownloadRepository
	gateway   crm.Gateway
	timeout   time.Duration
	logger    *logging.ChanneledLogger
}

// NewExportService creates an export service.
func NewExportService(downloads lead.DownloadRepository, gateway crm.Gateway, timeout time.Duration, logger *logging.ChanneledLogger) *ExportService {
	return &ExportService{
		downloads: downloads,
		gateway:   gateway,
		timeout:   timeout,
		logger:    logger,
	}
}

// Dispatch exports a record in the background and writes the outcome back
// to its export status. The caller's context is not used; the export
// outlives the request that triggered it.
func (s *ExportService) Dispatch(record *lead.DownloadRecord) {
	go s.export(record)
}

func (s *ExportService) export(record *lead.DownloadRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	status := lead.ExportSuccess
	exportError := ""
	if err := s.gateway.ExportLead(ctx, record); err != nil {
		status = lead.ExportFailed
		exportError = err.Error()
		s.logger.Export().Error("CRM export failed",
			"recordId", record.ID,
			"email", logging.SanitizeEmail(record.Email),
			"error", err.Error())
	} else {
		s.logger.Export().Info("CRM export succeeded",
			"recordId", record.ID,
			"leadScore", record.LeadScore)
	}

	if err := s.downloads.UpdateExportStatus(record.ID, status, exportError); err != nil {
		s.logger.Export().Error("Export status writeback failed",
			"recordId", record.ID, "status", status, "error", err.Error())
	}
}

// Retry re-exports a previously failed record synchronously. Used by the
// admin retry endpoint.
func (s *ExportService) Retry(recordID string) error {
	record, err := s.downloads.FindByID(recordID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("download record %s: %w", recordID, domain.ErrNotFound)
	}

	s.export(record)
	return nil
}
