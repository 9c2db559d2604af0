package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/application/services"
	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/performance"
)

const defaultDownloadListLimit = 50

// LoginRequest carries the admin password.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminHandlers contains the operator-facing HTTP handlers
type AdminHandlers struct {
	authService   *services.AuthService
	sweepService  *services.SweepService
	linkService   *services.LinkService
	exportService *services.ExportService
	downloads     lead.DownloadRepository
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewAdminHandlers creates admin handlers with injected dependencies
func NewAdminHandlers(
	authService *services.AuthService,
	sweepService *services.SweepService,
	linkService *services.LinkService,
	exportService *services.ExportService,
	downloads lead.DownloadRepository,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *AdminHandlers {
	return &AdminHandlers{
		authService:   authService,
		sweepService:  sweepService,
		linkService:   linkService,
		exportService: exportService,
		downloads:     downloads,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// Login exchanges the admin password for a bearer token
func (h *AdminHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// TriggerSweep runs an expiry sweep immediately
func (h *AdminHandlers) TriggerSweep(c *gin.Context) {
	result, err := h.sweepService.Sweep(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RevokeLink invalidates a publication link ahead of its expiry
func (h *AdminHandlers) RevokeLink(c *gin.Context) {
	token := c.Param("token")

	if err := h.linkService.Revoke(c.Request.Context(), token); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

// ListDownloads returns recent download records, newest first
func (h *AdminHandlers) ListDownloads(c *gin.Context) {
	limit := defaultDownloadListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := h.downloads.ListRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"downloads": records,
		"count":     len(records),
	})
}

// RetryExport re-runs the CRM export for a failed download record
func (h *AdminHandlers) RetryExport(c *gin.Context) {
	id := c.Param("id")

	if err := h.exportService.Retry(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "download record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"retried": true})
}

// GetPerformanceStats exposes the in-process operation metrics
func (h *AdminHandlers) GetPerformanceStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.perfTracker.GetStats())
}

// GetLogLevels returns the current per-channel log levels
func (h *AdminHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// SetLogLevel adjusts a channel's log level at runtime
func (h *AdminHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel and level required"})
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "level": req.Level})
}
