package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/application/services"
	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/performance"
)

// CreateWhitepaperRequest defines the structure for publishing a whitepaper.
type CreateWhitepaperRequest struct {
	Slug     string `json:"slug" binding:"required"`
	Title    string `json:"title" binding:"required"`
	FilePath string `json:"filePath" binding:"required"`
}

// WhitepaperHandlers contains whitepaper catalog HTTP handlers
type WhitepaperHandlers struct {
	whitepaperService *services.WhitepaperService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewWhitepaperHandlers creates whitepaper handlers with injected dependencies
func NewWhitepaperHandlers(whitepaperService *services.WhitepaperService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *WhitepaperHandlers {
	return &WhitepaperHandlers{
		whitepaperService: whitepaperService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// ListWhitepapers returns the published whitepaper catalog
func (h *WhitepaperHandlers) ListWhitepapers(c *gin.Context) {
	whitepapers, err := h.whitepaperService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"whitepapers": whitepapers,
		"count":       len(whitepapers),
	})
}

// GetWhitepaper returns a single whitepaper by ID, falling back to a slug
// lookup so marketing pages can link by either
func (h *WhitepaperHandlers) GetWhitepaper(c *gin.Context) {
	key := c.Param("id")

	wp, err := h.whitepaperService.GetByID(key)
	if errors.Is(err, domain.ErrNotFound) {
		wp, err = h.whitepaperService.GetBySlug(key)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "whitepaper not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, wp)
}

// CreateWhitepaper publishes a new whitepaper asset (admin only)
func (h *WhitepaperHandlers) CreateWhitepaper(c *gin.Context) {
	marker := h.perfTracker.StartOperation("create_whitepaper_request")
	defer marker.Complete()

	var req CreateWhitepaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	wp, err := h.whitepaperService.Create(req.Slug, req.Title, req.FilePath)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validationErr.Fields})
			return
		}
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.System().Info("Whitepaper created via admin API", "id", wp.ID, "slug", wp.Slug)
	c.JSON(http.StatusCreated, wp)
}
