// Package crm provides the client for the external CRM export gateway.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
)

// Gateway defines the narrow interface the core needs from the CRM export
// collaborator. Retry policy on repeated failure belongs to the gateway, not
// to this core.
type Gateway interface {
	ExportLead(ctx context.Context, record *lead.DownloadRecord) error
}

// HTTPGateway posts completed leads to the CRM integration layer as JSON.
type HTTPGateway struct {
	exportURL  string
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewHTTPGateway creates a CRM gateway client with a bounded request timeout.
func NewHTTPGateway(exportURL string, timeout time.Duration, logger *logging.ChanneledLogger) *HTTPGateway {
	return &HTTPGateway{
		exportURL: exportURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ExportLead forwards a download record to the CRM gateway.
func (g *HTTPGateway) ExportLead(ctx context.Context, record *lead.DownloadRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return &domain.ExternalServiceError{Service: "crm", Op: "exportLead", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.exportURL, bytes.NewReader(payload))
	if err != nil {
		return &domain.ExternalServiceError{Service: "crm", Op: "exportLead", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Export().Error("CRM export request failed", "error", err.Error(), "recordId", record.ID)
		return &domain.ExternalServiceError{Service: "crm", Op: "exportLead", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		g.logger.Export().Error("CRM export rejected", "status", resp.StatusCode, "recordId", record.ID)
		return &domain.ExternalServiceError{Service: "crm", Op: "exportLead", Err: err}
	}

	g.logger.Export().Info("CRM export completed", "recordId", record.ID, "duration", time.Since(start))
	return nil
}
