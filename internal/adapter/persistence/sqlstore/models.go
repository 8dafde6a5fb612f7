package sqlstore

import (
	"strings"
	"time"

	"homeservices/internal/domain/entities"

	"github.com/shopspring/decimal"
)

type addressColumns struct {
	Street  string
	City    string
	State   string
	ZipCode string
}

type userRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	Name            string `gorm:"not null"`
	Email           string `gorm:"not null;uniqueIndex"`
	Phone           string
	Role            string         `gorm:"size:20;not null;index"`
	Active          bool           `gorm:"not null"`
	Address         addressColumns `gorm:"embedded;embeddedPrefix:address_"`
	Specialties     string         // comma separated categories
	ExperienceYears int
	Rating          float64
	TotalReviews    int `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (userRow) TableName() string { return "users" }

type serviceRow struct {
	ID                   string `gorm:"primaryKey;size:36"`
	UserID               string `gorm:"size:36;not null;index"`
	Category             string `gorm:"size:20;not null"`
	Title                string `gorm:"not null"`
	Description          string
	Urgency              string         `gorm:"size:20;not null"`
	Address              addressColumns `gorm:"embedded;embeddedPrefix:address_"`
	PreferredDate        *time.Time
	Status               string `gorm:"size:20;not null;index"`
	AcceptedQuoteID      string `gorm:"size:36"`
	AssignedTechnicianID string `gorm:"size:36;index"`
	CompletedAt          *time.Time
	Rating               int
	Review               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (serviceRow) TableName() string { return "services" }

type quoteRow struct {
	ID              string          `gorm:"primaryKey;size:36"`
	ServiceID       string          `gorm:"size:36;not null;index"`
	TechnicianID    string          `gorm:"size:36;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description     string
	LaborCost       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MaterialsCost   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EstimatedHours  float64
	Status          string `gorm:"size:20;not null;index"`
	ExpiresAt       time.Time
	AcceptedAt      *time.Time
	RejectedAt      *time.Time
	ActivePaymentID string `gorm:"size:36"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (quoteRow) TableName() string { return "quotes" }

type paymentRow struct {
	ID               string          `gorm:"primaryKey;size:36"`
	ServiceID        string          `gorm:"size:36;not null"`
	QuoteID          string          `gorm:"size:36;not null;index"`
	UserID           string          `gorm:"size:36;not null;index"`
	TechnicianID     string          `gorm:"size:36;not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency         string          `gorm:"size:3;not null"`
	Gateway          string          `gorm:"size:20;not null"`
	ExternalIntentID string          `gorm:"not null;uniqueIndex"`
	ExternalChargeID string
	Status           string `gorm:"size:20;not null;index"`
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (paymentRow) TableName() string { return "payments" }

func toUserRow(u entities.User) userRow {
	specialties := make([]string, 0, len(u.TechnicianProfile.Specialties))
	for _, c := range u.TechnicianProfile.Specialties {
		specialties = append(specialties, string(c))
	}
	return userRow{
		ID:              u.ID,
		Name:            u.Name,
		Email:           strings.ToLower(u.Email),
		Phone:           u.Phone,
		Role:            string(u.Role),
		Active:          u.Active,
		Address:         addressColumns(u.Address),
		Specialties:     strings.Join(specialties, ","),
		ExperienceYears: u.TechnicianProfile.ExperienceYears,
		Rating:          u.TechnicianProfile.Rating,
		TotalReviews:    u.TechnicianProfile.TotalReviews,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (r userRow) toEntity() entities.User {
	var specialties []entities.Category
	if r.Specialties != "" {
		for _, s := range strings.Split(r.Specialties, ",") {
			specialties = append(specialties, entities.Category(s))
		}
	}
	return entities.User{
		ID:      r.ID,
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Role:    entities.Role(r.Role),
		Active:  r.Active,
		Address: entities.Address(r.Address),
		TechnicianProfile: entities.TechnicianProfile{
			Specialties:     specialties,
			ExperienceYears: r.ExperienceYears,
			Rating:          r.Rating,
			TotalReviews:    r.TotalReviews,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toServiceRow(s entities.Service) serviceRow {
	return serviceRow{
		ID:                   s.ID,
		UserID:               s.UserID,
		Category:             string(s.Category),
		Title:                s.Title,
		Description:          s.Description,
		Urgency:              string(s.Urgency),
		Address:              addressColumns(s.Address),
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

func (r serviceRow) toEntity() entities.Service {
	return entities.Service{
		ID:                   r.ID,
		UserID:               r.UserID,
		Category:             entities.Category(r.Category),
		Title:                r.Title,
		Description:          r.Description,
		Urgency:              entities.Urgency(r.Urgency),
		Address:              entities.Address(r.Address),
		PreferredDate:        r.PreferredDate,
		Status:               entities.ServiceStatus(r.Status),
		AcceptedQuoteID:      r.AcceptedQuoteID,
		AssignedTechnicianID: r.AssignedTechnicianID,
		CompletedAt:          r.CompletedAt,
		Rating:               r.Rating,
		Review:               r.Review,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toQuoteRow(q entities.Quote) quoteRow {
	return quoteRow{
		ID:              q.ID,
		ServiceID:       q.ServiceID,
		TechnicianID:    q.TechnicianID,
		Amount:          q.Amount,
		Description:     q.Description,
		LaborCost:       q.LaborCost,
		MaterialsCost:   q.MaterialsCost,
		EstimatedHours:  q.EstimatedHours,
		Status:          string(q.Status),
		ExpiresAt:       q.ExpiresAt,
		AcceptedAt:      q.AcceptedAt,
		RejectedAt:      q.RejectedAt,
		ActivePaymentID: q.ActivePaymentID,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}

func (r quoteRow) toEntity() entities.Quote {
	return entities.Quote{
		ID:              r.ID,
		ServiceID:       r.ServiceID,
		TechnicianID:    r.TechnicianID,
		Amount:          r.Amount,
		Description:     r.Description,
		LaborCost:       r.LaborCost,
		MaterialsCost:   r.MaterialsCost,
		EstimatedHours:  r.EstimatedHours,
		Status:          entities.QuoteStatus(r.Status),
		ExpiresAt:       r.ExpiresAt,
		AcceptedAt:      r.AcceptedAt,
		RejectedAt:      r.RejectedAt,
		ActivePaymentID: r.ActivePaymentID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toPaymentRow(p entities.Payment) paymentRow {
	return paymentRow{
		ID:               p.ID,
		ServiceID:        p.ServiceID,
		QuoteID:          p.QuoteID,
		UserID:           p.UserID,
		TechnicianID:     p.TechnicianID,
		Amount:           p.Amount,
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

func (r paymentRow) toEntity() entities.Payment {
	return entities.Payment{
		ID:               r.ID,
		ServiceID:        r.ServiceID,
		QuoteID:          r.QuoteID,
		UserID:           r.UserID,
		TechnicianID:     r.TechnicianID,
		Amount:           r.Amount,
		Currency:         r.Currency,
		Gateway:          r.Gateway,
		ExternalIntentID: r.ExternalIntentID,
		ExternalChargeID: r.ExternalChargeID,
		Status:           entities.PaymentStatus(r.Status),
		PaidAt:           r.PaidAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
