package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus represents the lifecycle of a technician's quote.
//
// Domain notes:
//   - pending is the only transient state; accepted, rejected and expired are terminal.
//   - expiry is enforced when the quote is touched (accept) or by the optional sweeper.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// DefaultQuoteTTL is how long a quote stays acceptable.
const DefaultQuoteTTL = 7 * 24 * time.Hour

// Quote is a technician's priced proposal against a Service.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (service_id-index): service_id
//   - GSI2 (technician_id-index): technician_id
//
// Amount is immutable after creation. ActivePaymentID is the duplicate-payment
// guard: it is claimed atomically with the insert of a non-terminal Payment and
// released when that payment fails.
type Quote struct {
	ID              string          `json:"id"`
	ServiceID       string          `json:"service_id"`
	TechnicianID    string          `json:"technician_id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	MaterialsCost   decimal.Decimal `json:"materials_cost"`
	EstimatedHours  float64         `json:"estimated_hours"`
	Status          QuoteStatus     `json:"status"`
	ExpiresAt       time.Time       `json:"expires_at"`
	AcceptedAt      *time.Time      `json:"accepted_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	ActivePaymentID string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (q Quote) IsExpiredAt(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// IsActive reports whether the quote still blocks its technician from quoting again.
func (q Quote) IsActive() bool {
	return q.Status == QuoteStatusPending || q.Status == QuoteStatusAccepted
}
