package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment processing outcome.
//
// pending -> processing -> completed | failed; completed -> refunded.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// IsOpen reports whether the payment blocks a new payment for the same quote.
func (s PaymentStatus) IsOpen() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing || s == PaymentStatusCompleted
}

// Payment is the monetary transaction tied to an accepted Quote.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (quote_id-index): quote_id
//   - GSI2 (external_intent_id-index): external_intent_id
//   - GSI3 (user_id-index), GSI4 (technician_id-index)
//
// Amount is copied from the quote when the payment is created and never recomputed.
type Payment struct {
	ID               string          `json:"id"`
	ServiceID        string          `json:"service_id"`
	QuoteID          string          `json:"quote_id"`
	UserID           string          `json:"user_id"`
	TechnicianID     string          `json:"technician_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Gateway          string          `json:"gateway"`
	ExternalIntentID string          `json:"external_intent_id"`
	ExternalChargeID string          `json:"external_charge_id,omitempty"`
	Status           PaymentStatus   `json:"status"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PaymentIntent is what CreatePaymentIntent hands back to the caller.
type PaymentIntent struct {
	ClientSecret string
	Payment      Payment
}
