package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/service"
)

// ApplicationHandler handles application and history endpoints.
type ApplicationHandler struct {
	applications  *service.ApplicationService
	activityLimit int
}

// NewApplicationHandler creates a new application handler.
// Parameters:
//   - applications: application service instance.
//   - activityLimit: default size of the global history feed.
//
// Returns:
//   - *ApplicationHandler: initialized handler.
func NewApplicationHandler(applications *service.ApplicationService, activityLimit int) *ApplicationHandler {
	if activityLimit <= 0 {
		activityLimit = 50
	}
	return &ApplicationHandler{applications: applications, activityLimit: activityLimit}
}

// createRequest is the body of POST /applications. date_applied may be an
// ISO date, RFC3339 timestamp or spreadsheet serial number.
type createRequest struct {
	Company          string   `json:"company"`
	Title            string   `json:"title"`
	Status           *string  `json:"status"`
	DateApplied      any      `json:"date_applied"`
	ProcessSteps     []string `json:"process_steps"`
	CurrentStepIndex int      `json:"current_step_index"`
	Outcome          string   `json:"outcome"`
	Notes            string   `json:"notes"`
}

// patchRequest is the body of PATCH /applications/:id. Absent fields are untouched.
type patchRequest struct {
	Company          *string   `json:"company"`
	Title            *string   `json:"title"`
	Status           *string   `json:"status"`
	DateApplied      any       `json:"date_applied"`
	ProcessSteps     *[]string `json:"process_steps"`
	CurrentStepIndex *int      `json:"current_step_index"`
	Outcome          *string   `json:"outcome"`
	Notes            *string   `json:"notes"`
}

// Create handles POST /api/v1/applications.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	date, err := parseDateField(req.DateApplied)
	if err != nil {
		respondError(c, err)
		return
	}

	app, err := h.applications.Create(c.Request.Context(), domain.ApplicationInput{
		Company:          req.Company,
		Title:            req.Title,
		Status:           req.Status,
		DateApplied:      date,
		ProcessSteps:     req.ProcessSteps,
		CurrentStepIndex: req.CurrentStepIndex,
		Outcome:          req.Outcome,
		Notes:            req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// List handles GET /api/v1/applications.
func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.applications.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"total":        len(apps),
	})
}

// Get handles GET /api/v1/applications/:id.
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	app, err := h.applications.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Update handles PATCH /api/v1/applications/:id.
func (h *ApplicationHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	date, err := parseDateField(req.DateApplied)
	if err != nil {
		respondError(c, err)
		return
	}

	app, err := h.applications.Update(c.Request.Context(), id, domain.ApplicationPatch{
		Company:          req.Company,
		Title:            req.Title,
		Status:           req.Status,
		DateApplied:      date,
		ProcessSteps:     req.ProcessSteps,
		CurrentStepIndex: req.CurrentStepIndex,
		Outcome:          req.Outcome,
		Notes:            req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Delete handles DELETE /api/v1/applications/:id.
func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.applications.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// History handles GET /api/v1/applications/:id/history.
func (h *ApplicationHandler) History(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	events, err := h.applications.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"history": events,
	})
}

// Activity handles GET /api/v1/history?limit=N.
func (h *ApplicationHandler) Activity(c *gin.Context) {
	entries, err := h.applications.Activity(c.Request.Context(), queryLimit(c, h.activityLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activity": entries,
	})
}
