package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/internal/services"
)

type DebtorHandler struct {
	debtorService *services.DebtorService
	orgService    *services.OrganizationService
}

func NewDebtorHandler(debtorService *services.DebtorService, orgService *services.OrganizationService) *DebtorHandler {
	return &DebtorHandler{debtorService: debtorService, orgService: orgService}
}

// @Summary List Debtors
// @Description Get a paginated list of debtors for the current organization
// @Tags Debtors
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param type query string false "Filter by type (individual|company)"
// @Param search query string false "Search by name or email"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /debtors [get]
func (h *DebtorHandler) Index(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")
	query.Filters["type"] = c.Query("type")

	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	debtors, total, err := h.debtorService.List(c.Request.Context(), orgID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range debtors {
		responses = append(responses, debtors[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"debtors": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Debtor
// @Description Get a debtor with their cases
// @Tags Debtors
// @Produce json
// @Param debtor_id path string true "Debtor ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /debtors/{debtor_id} [get]
func (h *DebtorHandler) Show(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	debtor, err := h.debtorService.FindByID(c.Request.Context(), c.Param("debtor_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if debtor.OrganizationID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Debtor not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"debtor": debtor})
}

// @Summary Create Debtor
// @Description Register a debtor in the current organization
// @Tags Debtors
// @Accept json
// @Produce json
// @Param request body services.CreateDebtorInput true "Debtor"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /debtors [post]
func (h *DebtorHandler) Create(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	var input services.CreateDebtorInput
	if err := BindNestedOrFlat(c, "debtor", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	debtor, err := h.debtorService.Create(c.Request.Context(), orgID, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"debtor": debtor.ToResponse()})
}

// @Summary Update Debtor
// @Description Update a debtor's contact details
// @Tags Debtors
// @Accept json
// @Produce json
// @Param debtor_id path string true "Debtor ID"
// @Param request body services.CreateDebtorInput true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /debtors/{debtor_id} [put]
func (h *DebtorHandler) Update(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	existing, err := h.debtorService.FindByID(c.Request.Context(), c.Param("debtor_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.OrganizationID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Debtor not found"})
		return
	}

	var input services.CreateDebtorInput
	if err := BindNestedOrFlat(c, "debtor", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	debtor, err := h.debtorService.Update(c.Request.Context(), existing.ID, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debtor": debtor.ToResponse()})
}
