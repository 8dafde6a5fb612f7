package entities

import "fmt"

// Notification event names emitted on lifecycle changes.
const (
	EventNewService       = "new-service"
	EventServiceUpdated   = "service-updated"
	EventNewQuote         = "new-quote"
	EventQuoteReceived    = "quote-received"
	EventQuoteAccepted    = "quote-accepted"
	EventQuoteRejected    = "quote-rejected"
	EventQuoteExpired     = "quote-expired"
	EventPaymentCompleted = "payment-completed"
	EventPaymentReceived  = "payment-received"
	EventPaymentFailed    = "payment-failed"
)

// ChannelTechnicians is the broadcast channel every technician listens on.
const ChannelTechnicians = "technicians"

func ServiceChannel(serviceID string) string { return fmt.Sprintf("service-%s", serviceID) }

func TechnicianChannel(technicianID string) string {
	return fmt.Sprintf("technician-%s", technicianID)
}

func UserChannel(userID string) string { return fmt.Sprintf("user-%s", userID) }

// Stats is the admin dashboard snapshot.
type Stats struct {
	UsersByRole      map[Role]int          `json:"users_by_role"`
	ServicesByStatus map[ServiceStatus]int `json:"services_by_status"`
	QuotesByStatus   map[QuoteStatus]int   `json:"quotes_by_status"`
	PaymentsByStatus map[PaymentStatus]int `json:"payments_by_status"`
	Revenue          string                `json:"revenue"`
}
