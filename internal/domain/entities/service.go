package entities

import "time"

// ServiceStatus is the lifecycle of a customer's service request.
type ServiceStatus string

const (
	ServiceStatusPending    ServiceStatus = "pending"
	ServiceStatusQuoted     ServiceStatus = "quoted"
	ServiceStatusAccepted   ServiceStatus = "accepted"
	ServiceStatusInProgress ServiceStatus = "in_progress"
	ServiceStatusCompleted  ServiceStatus = "completed"
	ServiceStatusCancelled  ServiceStatus = "cancelled"
)

// QuotableServiceStatuses are the statuses in which technicians may quote and a quote may be accepted.
var QuotableServiceStatuses = []ServiceStatus{ServiceStatusPending, ServiceStatusQuoted}

func (s ServiceStatus) IsQuotable() bool {
	return s == ServiceStatusPending || s == ServiceStatusQuoted
}

type Category string

const (
	CategoryPlumbing    Category = "plumbing"
	CategoryElectrical  Category = "electrical"
	CategoryLocksmith   Category = "locksmith"
	CategoryGas         Category = "gas"
	CategoryPainting    Category = "painting"
	CategoryCarpentry   Category = "carpentry"
	CategoryMaintenance Category = "maintenance"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryPlumbing, CategoryElectrical, CategoryLocksmith, CategoryGas,
	CategoryPainting, CategoryCarpentry, CategoryMaintenance, CategoryOther,
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// Service is a customer's request for home-repair work.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (user_id-index): user_id
//   - GSI2 (assigned_technician_id-index): assigned_technician_id
//
// AcceptedQuoteID and AssignedTechnicianID are set together by the accept-quote
// workflow. Rating and Review are set once, only when the service is completed.
type Service struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"user_id"`
	Category             Category      `json:"category"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Urgency              Urgency       `json:"urgency"`
	Address              Address       `json:"address"`
	PreferredDate        *time.Time    `json:"preferred_date,omitempty"`
	Status               ServiceStatus `json:"status"`
	AcceptedQuoteID      string        `json:"accepted_quote_id,omitempty"`
	AssignedTechnicianID string        `json:"assigned_technician_id,omitempty"`
	CompletedAt          *time.Time    `json:"completed_at,omitempty"`
	Rating               int           `json:"rating,omitempty"`
	Review               string        `json:"review,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// ServiceFilter narrows a service listing. Empty fields are ignored.
type ServiceFilter struct {
	UserID               string
	AssignedTechnicianID string
	Categories           []Category
	Statuses             []ServiceStatus
}
