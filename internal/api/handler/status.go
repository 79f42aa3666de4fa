package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/applytrack/internal/service"
)

// StatusHandler handles status catalog endpoints.
type StatusHandler struct {
	catalog *service.StatusCatalogService
}

// NewStatusHandler creates a new status catalog handler.
func NewStatusHandler(catalog *service.StatusCatalogService) *StatusHandler {
	return &StatusHandler{catalog: catalog}
}

type labelRequest struct {
	Label string `json:"label" binding:"required"`
}

type migrateRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// List handles GET /api/v1/statuses.
func (h *StatusHandler) List(c *gin.Context) {
	labels, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": labels})
}

// Add handles POST /api/v1/statuses.
func (h *StatusHandler) Add(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	labels, err := h.catalog.Add(c.Request.Context(), req.Label)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": labels})
}

// Remove handles DELETE /api/v1/statuses/:label?migrate_to=target.
// Without migrate_to, rows at the label keep it as an orphaned status.
func (h *StatusHandler) Remove(c *gin.Context) {
	labels, migrated, err := h.catalog.Retire(c.Request.Context(), c.Param("label"), c.Query("migrate_to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statuses": labels,
		"migrated": migrated,
	})
}

// Reset handles POST /api/v1/statuses/reset.
func (h *StatusHandler) Reset(c *gin.Context) {
	labels, err := h.catalog.Reset(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": labels})
}

// Migrate handles POST /api/v1/statuses/migrate.
func (h *StatusHandler) Migrate(c *gin.Context) {
	var req migrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	moved, err := h.catalog.BulkMigrate(c.Request.Context(), req.From, req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"migrated": moved})
}

// Usage handles GET /api/v1/statuses/usage.
func (h *StatusHandler) Usage(c *gin.Context) {
	usage, err := h.catalog.Usage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
