package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debtflow/debtflow-api/internal/middleware"
	"github.com/debtflow/debtflow-api/internal/services"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// @Summary Health Check
// @Description Checks if the API is running
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "debtflow-api",
		"version": "1.0.0",
	})
}

type OrganizationHandler struct {
	orgService *services.OrganizationService
}

func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// @Summary Current Organization
// @Description Get the organization the authenticated user works for
// @Tags Organizations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /organizations/current [get]
func (h *OrganizationHandler) Current(c *gin.Context) {
	userID := middleware.GetUserID(c)
	org, err := h.orgService.FindByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

type CreateOrganizationRequest struct {
	Name        string  `json:"name" binding:"required"`
	ExternalRef *string `json:"external_ref"`
}

// @Summary Create Organization
// @Description Bootstrap an organization owned by the authenticated user
// @Tags Organizations
// @Accept json
// @Produce json
// @Param request body CreateOrganizationRequest true "Organization"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := BindNestedOrFlat(c, "organization", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)
	org, err := h.orgService.Create(c.Request.Context(), userID, email, req.Name, req.ExternalRef)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"organization": org})
}
