package request

type CreatePaymentIntentRequest struct {
	QuoteID string `json:"quote_id" binding:"required"`
}
