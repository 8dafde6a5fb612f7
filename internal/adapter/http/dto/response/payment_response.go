package response

import (
	"time"

	"homeservices/internal/domain/entities"
)

type PaymentResponse struct {
	ID               string     `json:"id"`
	ServiceID        string     `json:"service_id"`
	QuoteID          string     `json:"quote_id"`
	UserID           string     `json:"user_id"`
	TechnicianID     string     `json:"technician_id"`
	Amount           string     `json:"amount"`
	Currency         string     `json:"currency"`
	Gateway          string     `json:"gateway"`
	ExternalIntentID string     `json:"external_intent_id"`
	ExternalChargeID string     `json:"external_charge_id,omitempty"`
	Status           string     `json:"status"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		ServiceID:        p.ServiceID,
		QuoteID:          p.QuoteID,
		UserID:           p.UserID,
		TechnicianID:     p.TechnicianID,
		Amount:           p.Amount.StringFixed(2),
		Currency:         p.Currency,
		Gateway:          p.Gateway,
		ExternalIntentID: p.ExternalIntentID,
		ExternalChargeID: p.ExternalChargeID,
		Status:           string(p.Status),
		PaidAt:           p.PaidAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func FromPayments(ps []entities.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromPayment(p))
	}
	return out
}

type PaymentIntentResponse struct {
	ClientSecret string          `json:"client_secret"`
	Payment      PaymentResponse `json:"payment"`
}

func FromPaymentIntent(pi entities.PaymentIntent) PaymentIntentResponse {
	return PaymentIntentResponse{ClientSecret: pi.ClientSecret, Payment: FromPayment(pi.Payment)}
}
