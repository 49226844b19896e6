package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debtflow/debtflow-api/internal/processor"
	"github.com/debtflow/debtflow-api/internal/services"
	"github.com/debtflow/debtflow-api/pkg/logger"
)

type WebhookHandler struct {
	paymentService    *services.PaymentService
	transcriptService *services.TranscriptService
	verifier          processor.EventVerifier
}

func NewWebhookHandler(paymentService *services.PaymentService, transcriptService *services.TranscriptService, verifier processor.EventVerifier) *WebhookHandler {
	return &WebhookHandler{
		paymentService:    paymentService,
		transcriptService: transcriptService,
		verifier:          verifier,
	}
}

// @Summary Stripe Webhook
// @Description Receives checkout session notifications from the payment processor
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	event, err := h.verifier.VerifyAndParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, processor.ErrSecretNotConfigured):
			logger.Error("[Webhook] Rejecting event: webhook secret is not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret not configured"})
		case errors.Is(err, processor.ErrMissingSignature), errors.Is(err, processor.ErrInvalidSignature):
			logger.Warn(fmt.Sprintf("[Webhook] Signature verification failed: %v", err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		default:
			logger.Warn(fmt.Sprintf("[Webhook] Failed to parse event: %v", err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		}
		return
	}

	if err := h.paymentService.HandleCheckoutEvent(c.Request.Context(), event); err != nil {
		// A failed write means we have not applied the event. Let the
		// processor retry the delivery.
		logger.Error(fmt.Sprintf("[Webhook] Failed to process %s (%s): %v", event.Type, event.ID, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// @Summary Assistant Webhook
// @Description Receives post-call notifications from the voice assistant
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /webhooks/assistant [post]
func (h *WebhookHandler) Assistant(c *gin.Context) {
	var payload services.AssistantCallPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		// Accept anything, the assistant retries aggressively on non-2xx
		logger.Warn(fmt.Sprintf("[Assistant] Unparseable webhook payload: %v", err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	h.transcriptService.ProcessAssistantCall(c.Request.Context(), &payload)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
