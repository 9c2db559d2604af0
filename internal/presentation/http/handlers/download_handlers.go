package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/application/services"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
)

// notFoundBody is the single response for every failed link resolution.
// Unknown, expired, and revoked tokens must be indistinguishable from the
// outside, so they all share this exact body.
const notFoundBody = "Not Found"

// DownloadHandlers serves the public /downloads/:token redirect.
type DownloadHandlers struct {
	linkService *services.LinkService
	logger      *logging.ChanneledLogger
}

// NewDownloadHandlers creates download handlers with injected dependencies
func NewDownloadHandlers(linkService *services.LinkService, logger *logging.ChanneledLogger) *DownloadHandlers {
	return &DownloadHandlers{
		linkService: linkService,
		logger:      logger,
	}
}

// ResolveLink redirects a valid publication link to the file host. Any
// failure, including internal errors, collapses to the same generic 404.
func (h *DownloadHandlers) ResolveLink(c *gin.Context) {
	token := c.Param("token")

	remoteURL, err := h.linkService.Resolve(token)
	if err != nil {
		c.String(http.StatusNotFound, notFoundBody)
		return
	}

	c.Redirect(http.StatusFound, remoteURL)
}
