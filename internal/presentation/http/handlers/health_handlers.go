package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
)

// HealthHandlers exposes liveness and database status probes.
type HealthHandlers struct {
	db *database.DB
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(db *database.DB) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// Health reports process liveness
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DBStatus reports database connectivity
func (h *HealthHandlers) DBStatus(c *gin.Context) {
	start := time.Now()
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"latency": time.Since(start).String(),
	})
}
