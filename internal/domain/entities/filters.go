package entities

import "time"

// UserFilter narrows a user listing. Empty fields are ignored.
type UserFilter struct {
	Role       Role
	Specialty  Category
	ActiveOnly bool
}

// QuoteFilter narrows a quote listing. Empty fields are ignored.
type QuoteFilter struct {
	ServiceIDs    []string
	TechnicianID  string
	Statuses      []QuoteStatus
	ExpiresBefore time.Time
}

// PaymentFilter narrows a payment listing. Empty fields are ignored.
type PaymentFilter struct {
	QuoteID      string
	UserID       string
	TechnicianID string
	Statuses     []PaymentStatus
}

func (f UserFilter) Match(u User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.ActiveOnly && !u.Active {
		return false
	}
	if f.Specialty != "" && !u.TechnicianProfile.HasSpecialty(f.Specialty) {
		return false
	}
	return true
}

func (f ServiceFilter) Match(s Service) bool {
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if f.AssignedTechnicianID != "" && s.AssignedTechnicianID != f.AssignedTechnicianID {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, s.Category) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, s.Status) {
		return false
	}
	return true
}

func (f QuoteFilter) Match(q Quote) bool {
	if len(f.ServiceIDs) > 0 && !contains(f.ServiceIDs, q.ServiceID) {
		return false
	}
	if f.TechnicianID != "" && q.TechnicianID != f.TechnicianID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, q.Status) {
		return false
	}
	if !f.ExpiresBefore.IsZero() && q.ExpiresAt.After(f.ExpiresBefore) {
		return false
	}
	return true
}

func (f PaymentFilter) Match(p Payment) bool {
	if f.QuoteID != "" && p.QuoteID != f.QuoteID {
		return false
	}
	if f.UserID != "" && p.UserID != f.UserID {
		return false
	}
	if f.TechnicianID != "" && p.TechnicianID != f.TechnicianID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, p.Status) {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
