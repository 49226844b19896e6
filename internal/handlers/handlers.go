package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debtflow/debtflow-api/internal/middleware"
	"github.com/debtflow/debtflow-api/internal/processor"
	"github.com/debtflow/debtflow-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Organization *OrganizationHandler
	Debtor       *DebtorHandler
	Case         *CaseHandler
	Payment      *PaymentHandler
	Webhook      *WebhookHandler
	Stats        *StatsHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, verifier processor.EventVerifier) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Organization: NewOrganizationHandler(svcs.Organization),
		Debtor:       NewDebtorHandler(svcs.Debtor, svcs.Organization),
		Case:         NewCaseHandler(svcs.Case, svcs.Organization, svcs.Export),
		Payment:      NewPaymentHandler(svcs.Payment, svcs.Organization),
		Webhook:      NewWebhookHandler(svcs.Payment, svcs.Transcript, verifier),
		Stats:        NewStatsHandler(svcs.Stats, svcs.Organization),
		Job:          NewJobHandler(svcs.Job),
	}
}

// currentOrg resolves the authenticated user's organization. Aborts with 403
// when the user has no role anywhere.
func currentOrg(c *gin.Context, orgService *services.OrganizationService) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return "", false
	}

	org, err := orgService.FindByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not belong to an organization"})
			return "", false
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return "", false
	}
	return org.ID, true
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
