package request

import (
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase"
)

type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

func (a *AddressRequest) toEntity() entities.Address {
	if a == nil {
		return entities.Address{}
	}
	return entities.Address{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode}
}

type CreateServiceRequest struct {
	Category      string          `json:"category"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Urgency       string          `json:"urgency"`
	Address       *AddressRequest `json:"address"`
	PreferredDate *time.Time      `json:"preferred_date"`
}

func (r CreateServiceRequest) ToInput(ownerID string) usecase.CreateServiceInput {
	return usecase.CreateServiceInput{
		OwnerID:       ownerID,
		Category:      entities.Category(r.Category),
		Title:         r.Title,
		Description:   r.Description,
		Urgency:       entities.Urgency(r.Urgency),
		Address:       r.Address.toEntity(),
		PreferredDate: r.PreferredDate,
	}
}

type UpdateServiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type RateServiceRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review"`
}
