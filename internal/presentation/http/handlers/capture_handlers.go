// Package handlers provides HTTP handlers for the lead-capture endpoints
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/application/services"
	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/performance"
	"github.com/magnetiq/magnetiq-go/internal/presentation/http/middleware"
)

// CaptureHandlers contains the whitepaper download submission handlers
type CaptureHandlers struct {
	captureService *services.CaptureService
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewCaptureHandlers creates capture handlers with injected dependencies
func NewCaptureHandlers(captureService *services.CaptureService, sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *CaptureHandlers {
	return &CaptureHandlers{
		captureService: captureService,
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// SubmitDownload accepts a whitepaper download form submission. On success
// the response is 202: the download link travels by email, not in the
// response body.
func (h *CaptureHandlers) SubmitDownload(c *gin.Context) {
	start := time.Now()
	h.logger.Capture().Debug("Received download submission", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req services.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.WhitepaperID = c.Param("id")

	result, err := h.captureService.Submit(c.Request.Context(), &req)
	if err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validationErr.Fields})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "whitepaper not found"})
		default:
			h.logger.Capture().Error("Download submission failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submission could not be processed"})
		}
		return
	}

	h.logger.Capture().Info("Download submission completed",
		"whitepaperId", result.Record.WhitepaperID,
		"isNewSession", result.IsNewSession,
		"duration", time.Since(start))

	c.JSON(http.StatusAccepted, gin.H{
		"sessionToken": result.SessionToken,
		"isNewSession": result.IsNewSession,
		"expiresAt":    result.Session.ExpiresAt,
	})
}

// GetSession returns the caller's download session. The session ID comes
// from the session JWT issued at capture time; an expired session reads as
// not found.
func (h *CaptureHandlers) GetSession(c *gin.Context) {
	sessionID := c.GetString(middleware.SessionIDKey)

	session, err := h.sessionService.GetByID(sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}
	if !session.Active(time.Now().UTC()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, session)
}
