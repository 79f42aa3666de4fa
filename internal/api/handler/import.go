package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/timmy/applytrack/internal/service"
	"github.com/timmy/applytrack/internal/source"
)

// ImportHandler handles bulk import endpoints. Only one import runs at a time.
type ImportHandler struct {
	imports *service.ImportService

	mu      sync.Mutex
	running bool
}

// NewImportHandler creates a new import handler.
// Parameters:
//   - imports: import service instance.
//
// Returns:
//   - *ImportHandler: initialized handler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// ImportRecords handles POST /api/v1/import?source=name.
// The body is a JSON array of objects keyed by column name.
func (h *ImportHandler) ImportRecords(c *gin.Context) {
	var records []map[string]any
	if err := c.ShouldBindJSON(&records); err != nil {
		badRequest(c, "Invalid request: expected a JSON array of rows")
		return
	}
	h.run(c, source.NewSheetSource(c.DefaultQuery("source", "api"), source.SheetFromRecords(records)))
}

// ImportSheet handles POST /api/v1/import/sheet?source=name.
// The body is {"headers": [...], "rows": [[...], ...]}.
func (h *ImportHandler) ImportSheet(c *gin.Context) {
	var sheet source.Sheet
	if err := c.ShouldBindJSON(&sheet); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if len(sheet.Headers) == 0 {
		badRequest(c, "Invalid request: headers are required")
		return
	}
	h.run(c, source.NewSheetSource(c.DefaultQuery("source", "api"), &sheet))
}

func (h *ImportHandler) run(c *gin.Context, src source.Source) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{
			"error": "An import is already running",
		})
		return
	}
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	result, err := h.imports.ImportFromSource(c.Request.Context(), src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListJobs handles GET /api/v1/imports?limit=N.
func (h *ImportHandler) ListJobs(c *gin.Context) {
	jobs, err := h.imports.RecentJobs(c.Request.Context(), queryLimit(c, 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs": jobs,
	})
}
