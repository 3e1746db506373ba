package handler

import (
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/pkg/response"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler receives provider event deliveries.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// Receive handles POST /webhook. The body is read raw: the signature covers
// the exact bytes sent.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.WebhookError(c, h.webhookSvc.RejectDelivery(err))
		return
	}

	ack, err := h.webhookSvc.HandleWebhook(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		response.WebhookError(c, err)
		return
	}

	response.OK(c, ack)
}
