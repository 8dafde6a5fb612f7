package response

import (
	"time"

	"homeservices/internal/domain/entities"
)

// QuoteResponse renders money as fixed two-decimal strings.
type QuoteResponse struct {
	ID             string     `json:"id"`
	ServiceID      string     `json:"service_id"`
	TechnicianID   string     `json:"technician_id"`
	Amount         string     `json:"amount"`
	Description    string     `json:"description"`
	LaborCost      string     `json:"labor_cost"`
	MaterialsCost  string     `json:"materials_cost"`
	EstimatedHours float64    `json:"estimated_hours"`
	Status         string     `json:"status"`
	ExpiresAt      time.Time  `json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func FromQuote(q entities.Quote) QuoteResponse {
	return QuoteResponse{
		ID:             q.ID,
		ServiceID:      q.ServiceID,
		TechnicianID:   q.TechnicianID,
		Amount:         q.Amount.StringFixed(2),
		Description:    q.Description,
		LaborCost:      q.LaborCost.StringFixed(2),
		MaterialsCost:  q.MaterialsCost.StringFixed(2),
		EstimatedHours: q.EstimatedHours,
		Status:         string(q.Status),
		ExpiresAt:      q.ExpiresAt,
		AcceptedAt:     q.AcceptedAt,
		RejectedAt:     q.RejectedAt,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func FromQuotes(qs []entities.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, FromQuote(q))
	}
	return out
}

// AcceptQuoteResponse is returned by the accept route: the accepted quote and
// the service it now drives.
type AcceptQuoteResponse struct {
	Quote   QuoteResponse   `json:"quote"`
	Service ServiceResponse `json:"service"`
}
