package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debtflow/debtflow-api/internal/middleware"
	"github.com/debtflow/debtflow-api/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	orgService     *services.OrganizationService
}

func NewPaymentHandler(paymentService *services.PaymentService, orgService *services.OrganizationService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, orgService: orgService}
}

// @Summary Create Payment Link
// @Description Issue a hosted checkout link for a case and store the pending payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body services.CreatePaymentLinkInput true "Payment link request"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/links [post]
func (h *PaymentHandler) CreateLink(c *gin.Context) {
	var input services.CreatePaymentLinkInput
	if err := BindNestedOrFlat(c, "payment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.CaseID == "" || input.Amount == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "case_id and amount are required"})
		return
	}

	result, err := h.paymentService.CreatePaymentLink(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment": result.Payment.ToResponse(),
		"url":     result.URL,
	})
}

// @Summary Case Payments
// @Description List all payments recorded against a case
// @Tags Payments
// @Produce json
// @Param case_id path string true "Case ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cases/{case_id}/payments [get]
func (h *PaymentHandler) IndexByCase(c *gin.Context) {
	payments, err := h.paymentService.FindByCase(c.Request.Context(), c.Param("case_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range payments {
		responses = append(responses, payments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"payments": responses})
}

// @Summary Get Payment
// @Description Get a payment by ID
// @Tags Payments
// @Produce json
// @Param payment_id path string true "Payment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	payment, err := h.paymentService.FindByID(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Cancel Payment Link
// @Description Withdraw a pending payment link before the customer pays it
// @Tags Payments
// @Produce json
// @Param payment_id path string true "Payment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	// Attribution is best-effort, the cancel proceeds without a role
	var roleID *string
	if userID := middleware.GetUserID(c); userID != "" {
		if role, err := h.orgService.RoleForUser(c.Request.Context(), userID); err == nil {
			roleID = &role.ID
		}
	}

	payment, err := h.paymentService.Cancel(c.Request.Context(), c.Param("payment_id"), roleID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}
