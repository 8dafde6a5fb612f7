package response

import (
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase"
)

type AddressResponse struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

type ServiceResponse struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	Category             string          `json:"category"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Urgency              string          `json:"urgency"`
	Address              AddressResponse `json:"address"`
	PreferredDate        *time.Time      `json:"preferred_date,omitempty"`
	Status               string          `json:"status"`
	AcceptedQuoteID      string          `json:"accepted_quote_id,omitempty"`
	AssignedTechnicianID string          `json:"assigned_technician_id,omitempty"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	Rating               int             `json:"rating,omitempty"`
	Review               string          `json:"review,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func FromService(s entities.Service) ServiceResponse {
	return ServiceResponse{
		ID:                   s.ID,
		UserID:               s.UserID,
		Category:             string(s.Category),
		Title:                s.Title,
		Description:          s.Description,
		Urgency:              string(s.Urgency),
		Address:              AddressResponse(s.Address),
		PreferredDate:        s.PreferredDate,
		Status:               string(s.Status),
		AcceptedQuoteID:      s.AcceptedQuoteID,
		AssignedTechnicianID: s.AssignedTechnicianID,
		CompletedAt:          s.CompletedAt,
		Rating:               s.Rating,
		Review:               s.Review,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func FromServices(ss []entities.Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, FromService(s))
	}
	return out
}

type ServiceDetailsResponse struct {
	ServiceResponse
	Quotes []QuoteResponse `json:"quotes"`
}

func FromServiceDetails(d usecase.ServiceDetails) ServiceDetailsResponse {
	return ServiceDetailsResponse{ServiceResponse: FromService(d.Service), Quotes: FromQuotes(d.Quotes)}
}
