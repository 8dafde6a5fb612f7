package handlers

import (
	"net/http"

	request "homeservices/internal/adapter/http/dto/request"
	response "homeservices/internal/adapter/http/dto/response"
	"homeservices/internal/adapter/http/middleware"
	"homeservices/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// webhookSignatureHeaders lists where each supported gateway puts its
// signature: Stripe, Mercado Pago and the local mock gateway.
var webhookSignatureHeaders = []string{"Stripe-Signature", "X-Signature", "X-Mock-Signature"}

// PaymentHandler handles HTTP requests for payments and gateway webhooks.
type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
	logger  *zap.Logger
}

func NewPaymentHandler(uc usecase.IPaymentUseCase, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{usecase: uc, logger: logger}
}

// CreatePaymentIntent opens a gateway intent for an accepted quote.
//
// A quote that already has a pending or completed payment answers 409 with the
// existing payment in details.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var payload request.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	requesterID, _ := middleware.Requester(c)

	intent, err := h.usecase.CreatePaymentIntent(c.Request.Context(), payload.QuoteID, requesterID)
	if err != nil {
		h.logger.Info("[payment][handler] create intent failed", zap.String("quote_id", payload.QuoteID), zap.Error(err))
		writeError(c, err)
		return
	}
	h.logger.Info("[payment][handler] create intent success",
		zap.String("quote_id", payload.QuoteID), zap.String("payment_id", intent.Payment.ID))
	c.JSON(http.StatusCreated, response.FromPaymentIntent(intent))
}

func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	paymentID := c.Param("id")
	requesterID, _ := middleware.Requester(c)

	payment, err := h.usecase.ConfirmPayment(c.Request.Context(), paymentID, requesterID)
	if err != nil {
		h.logger.Info("[payment][handler] confirm failed", zap.String("payment_id", paymentID), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(payment))
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	requesterID, role := middleware.Requester(c)
	payments, err := h.usecase.ListPayments(c.Request.Context(), requesterID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPayments(payments))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	requesterID, role := middleware.Requester(c)
	payment, err := h.usecase.GetPayment(c.Request.Context(), c.Param("id"), requesterID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(payment))
}

// Webhook receives gateway notifications. The raw body is passed through
// untouched because signatures are computed over the exact bytes.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil || len(payload) == 0 {
		writeAppError(c, errInvalidPayload)
		return
	}

	if err := h.usecase.HandleGatewayWebhook(c.Request.Context(), payload, webhookSignature(c)); err != nil {
		h.logger.Warn("[payment][webhook] rejected", zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func webhookSignature(c *gin.Context) string {
	for _, header := range webhookSignatureHeaders {
		if sig := c.GetHeader(header); sig != "" {
			return sig
		}
	}
	return ""
}
