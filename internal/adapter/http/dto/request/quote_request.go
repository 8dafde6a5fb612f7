package request

import (
	"strings"

	"homeservices/internal/usecase"

	"github.com/shopspring/decimal"
)

// CreateQuoteRequest accepts amounts as JSON numbers or strings ("150.10").
type CreateQuoteRequest struct {
	ServiceID      string          `json:"service_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	LaborCost      decimal.Decimal `json:"labor_cost"`
	MaterialsCost  decimal.Decimal `json:"materials_cost"`
	EstimatedHours float64         `json:"estimated_hours"`
}

func (r CreateQuoteRequest) ToInput(technicianID string) usecase.CreateQuoteInput {
	return usecase.CreateQuoteInput{
		ServiceID:      strings.TrimSpace(r.ServiceID),
		TechnicianID:   technicianID,
		Amount:         r.Amount,
		Description:    r.Description,
		LaborCost:      r.LaborCost,
		MaterialsCost:  r.MaterialsCost,
		EstimatedHours: r.EstimatedHours,
	}
}
