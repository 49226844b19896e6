package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/debtflow/debtflow-api/internal/middleware"
	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/internal/services"
)

type CaseHandler struct {
	caseService   *services.CaseService
	orgService    *services.OrganizationService
	exportService *services.ExportService
}

func NewCaseHandler(caseService *services.CaseService, orgService *services.OrganizationService, exportService *services.ExportService) *CaseHandler {
	return &CaseHandler{
		caseService:   caseService,
		orgService:    orgService,
		exportService: exportService,
	}
}

// @Summary List Cases
// @Description Get a paginated list of cases for the current organization
// @Tags Cases
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param debtor_id query string false "Filter by debtor"
// @Param due_before query string false "Only cases due before this date (YYYY-MM-DD)"
// @Param search query string false "Search by debtor name or reference"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cases [get]
func (h *CaseHandler) Index(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")
	query.Filters["status"] = c.Query("status")
	query.Filters["debtor_id"] = c.Query("debtor_id")
	query.Filters["due_before"] = c.Query("due_before")

	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	cases, total, err := h.caseService.List(c.Request.Context(), orgID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range cases {
		responses = append(responses, cases[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"cases": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Case
// @Description Get a case with debtor, payments and audit trail
// @Tags Cases
// @Produce json
// @Param case_id path string true "Case ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /cases/{case_id} [get]
func (h *CaseHandler) Show(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	record, err := h.caseService.FindByID(c.Request.Context(), c.Param("case_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if record.OrganizationID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": record.ToResponse()})
}

// @Summary Create Case
// @Description Open a new case against an existing debtor
// @Tags Cases
// @Accept json
// @Produce json
// @Param request body services.CreateCaseInput true "Case"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	var input services.CreateCaseInput
	if err := BindNestedOrFlat(c, "case", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	record, err := h.caseService.Create(c.Request.Context(), orgID, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"case": record.ToResponse()})
}

type UpdateCaseRequest struct {
	LastContactDate *time.Time `json:"last_contact_date"`
	NextActionDate  *time.Time `json:"next_action_date"`
	Details         *string    `json:"details"`
}

// @Summary Update Case
// @Description Update the contact tracking fields of a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param case_id path string true "Case ID"
// @Param request body UpdateCaseRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cases/{case_id} [patch]
func (h *CaseHandler) Update(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}
	if !h.ownsCase(c, orgID) {
		return
	}

	var req UpdateCaseRequest
	if err := BindNestedOrFlat(c, "case", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	record, err := h.caseService.Update(c.Request.Context(), c.Param("case_id"), req.LastContactDate, req.NextActionDate, req.Details)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": record.ToResponse()})
}

type TransitionCaseRequest struct {
	Event string `json:"event" binding:"required"`
	Notes string `json:"notes"`
}

// @Summary Transition Case Status
// @Description Apply a state machine event (activate, submit_for_approval, mark_broken_promise, mark_paid, mark_uncollectible, close, reopen)
// @Tags Cases
// @Accept json
// @Produce json
// @Param case_id path string true "Case ID"
// @Param request body TransitionCaseRequest true "Transition"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /cases/{case_id}/transition [post]
func (h *CaseHandler) Transition(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}
	if !h.ownsCase(c, orgID) {
		return
	}

	var req TransitionCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var roleID *string
	if role, err := h.orgService.RoleForUser(c.Request.Context(), middleware.GetUserID(c)); err == nil {
		roleID = &role.ID
	}

	record, err := h.caseService.Transition(c.Request.Context(), c.Param("case_id"), req.Event, roleID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": record.ToResponse()})
}

// @Summary Case Events
// @Description Get the audit trail of a case
// @Tags Cases
// @Produce json
// @Param case_id path string true "Case ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cases/{case_id}/events [get]
func (h *CaseHandler) Events(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}
	if !h.ownsCase(c, orgID) {
		return
	}

	events, err := h.caseService.Events(c.Request.Context(), c.Param("case_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"events": responses})
}

// @Summary Export Cases
// @Description Download the organization's case book as XLSX or CSV
// @Tags Cases
// @Produce application/octet-stream
// @Param format query string false "Export format (xlsx|csv)" default(xlsx)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /cases/export [get]
func (h *CaseHandler) Export(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "xlsx")

	var (
		data     []byte
		filename string
		mimeType string
		err      error
	)
	switch format {
	case "csv":
		data, filename, err = h.exportService.ExportCasesCSV(c.Request.Context(), orgID)
		mimeType = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ExportCasesXLSX(c.Request.Context(), orgID)
		mimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Format must be xlsx or csv"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, mimeType, data)
}

// ownsCase verifies the requested case belongs to the caller's organization
func (h *CaseHandler) ownsCase(c *gin.Context, orgID string) bool {
	record, err := h.caseService.FindByID(c.Request.Context(), c.Param("case_id"))
	if err != nil {
		respondError(c, err)
		return false
	}
	if record.OrganizationID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		return false
	}
	return true
}
