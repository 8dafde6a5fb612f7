// Package memory is an in-process Entity Store used by tests and by
// deployments that run without a database. One mutex guards every map, so each
// method is atomic with respect to the others.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
)

type Store struct {
	mu       sync.Mutex
	users    map[string]entities.User
	services map[string]entities.Service
	quotes   map[string]entities.Quote
	payments map[string]entities.Payment
}

var (
	_ interfaces.IUserRepository    = (*UserRepository)(nil)
	_ interfaces.IServiceRepository = (*ServiceRepository)(nil)
	_ interfaces.IQuoteRepository   = (*QuoteRepository)(nil)
	_ interfaces.IPaymentRepository = (*PaymentRepository)(nil)
	_ interfaces.IWorkflowStore     = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		users:    map[string]entities.User{},
		services: map[string]entities.Service{},
		quotes:   map[string]entities.Quote{},
		payments: map[string]entities.Payment{},
	}
}

// Bundle exposes the store through the persistence ports.
func (s *Store) Bundle() interfaces.Store {
	return interfaces.Store{
		Users:    s.Users(),
		Services: s.Services(),
		Quotes:   s.Quotes(),
		Payments: s.Payments(),
		Workflow: s,
	}
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Services() *ServiceRepository { return &ServiceRepository{s: s} }
func (s *Store) Quotes() *QuoteRepository     { return &QuoteRepository{s: s} }
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{s: s} }

// Users

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u entities.User) (entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok {
		return entities.User{}, interfaces.ErrConditionFailed
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return entities.User{}, interfaces.ErrDuplicateKey
		}
	}
	r.s.users[u.ID] = cloneUser(u)
	return u, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneUser(r.s.users[id]), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return entities.User{}, nil
}

func (r *UserRepository) List(_ context.Context, filter entities.UserFilter) ([]entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.User, 0)
	for _, u := range r.s.users {
		if filter.Match(u) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, u entities.User) (entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return entities.User{}, nil
	}
	cur.Name = u.Name
	cur.Phone = u.Phone
	cur.Address = u.Address
	cur.TechnicianProfile.Specialties = append([]entities.Category(nil), u.TechnicianProfile.Specialties...)
	cur.TechnicianProfile.ExperienceYears = u.TechnicianProfile.ExperienceYears
	cur.UpdatedAt = u.UpdatedAt
	r.s.users[u.ID] = cur
	return cloneUser(cur), nil
}

func (r *UserRepository) UpdateRating(_ context.Context, id string, expectedTotal int, profile entities.TechnicianProfile, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[id]
	if !ok || cur.TechnicianProfile.TotalReviews != expectedTotal {
		return interfaces.ErrConditionFailed
	}
	cur.TechnicianProfile.Rating = profile.Rating
	cur.TechnicianProfile.TotalReviews = profile.TotalReviews
	cur.UpdatedAt = at
	r.s.users[id] = cur
	return nil
}

// Services

type ServiceRepository struct{ s *Store }

func (r *ServiceRepository) Create(_ context.Context, svc entities.Service) (entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.services[svc.ID]; ok {
		return entities.Service{}, interfaces.ErrConditionFailed
	}
	r.s.services[svc.ID] = svc
	return svc, nil
}

func (r *ServiceRepository) GetByID(_ context.Context, id string) (entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.services[id], nil
}

func (r *ServiceRepository) List(_ context.Context, filter entities.ServiceFilter) ([]entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.Service, 0)
	for _, svc := range r.s.services {
		if filter.Match(svc) {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ServiceRepository) TransitionStatus(_ context.Context, id string, from []entities.ServiceStatus, to entities.ServiceStatus, at time.Time) (entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok || !statusIn(svc.Status, from) {
		return entities.Service{}, interfaces.ErrConditionFailed
	}
	svc.Status = to
	svc.UpdatedAt = at
	if to == entities.ServiceStatusCompleted {
		completedAt := at
		svc.CompletedAt = &completedAt
	}
	r.s.services[id] = svc
	return svc, nil
}

func (r *ServiceRepository) SetRating(_ context.Context, id string, rating int, review string, at time.Time) (entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok || svc.Status != entities.ServiceStatusCompleted || svc.Rating != 0 {
		return entities.Service{}, interfaces.ErrConditionFailed
	}
	svc.Rating = rating
	svc.Review = review
	svc.UpdatedAt = at
	r.s.services[id] = svc
	return svc, nil
}

func (r *ServiceRepository) ClearRating(_ context.Context, id string, rating int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok || svc.Rating != rating {
		return interfaces.ErrConditionFailed
	}
	svc.Rating = 0
	svc.Review = ""
	svc.UpdatedAt = at
	r.s.services[id] = svc
	return nil
}

// Quotes

type QuoteRepository struct{ s *Store }

func (r *QuoteRepository) GetByID(_ context.Context, id string) (entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.quotes[id], nil
}

func (r *QuoteRepository) List(_ context.Context, filter entities.QuoteFilter) ([]entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.Quote, 0)
	for _, q := range r.s.quotes {
		if filter.Match(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *QuoteRepository) TransitionStatus(_ context.Context, id string, from, to entities.QuoteStatus, at time.Time) (entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.quotes[id]
	if !ok || q.Status != from {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}
	q = withQuoteStatus(q, to, at)
	r.s.quotes[id] = q
	return q, nil
}

// Payments

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) GetByID(_ context.Context, id string) (entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.payments[id], nil
}

func (r *PaymentRepository) GetByIntentID(_ context.Context, intentID string) (entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ExternalIntentID == intentID {
			return p, nil
		}
	}
	return entities.Payment{}, nil
}

func (r *PaymentRepository) List(_ context.Context, filter entities.PaymentFilter) ([]entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.Payment, 0)
	for _, p := range r.s.payments {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Workflow

func (s *Store) CreateQuote(_ context.Context, q entities.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[q.ServiceID]
	if !ok || !svc.Status.IsQuotable() {
		return interfaces.ErrConditionFailed
	}
	if _, exists := s.quotes[q.ID]; exists {
		return interfaces.ErrConditionFailed
	}
	for _, other := range s.quotes {
		if other.ServiceID == q.ServiceID && other.TechnicianID == q.TechnicianID && other.IsActive() {
			return interfaces.ErrDuplicateKey
		}
	}
	s.quotes[q.ID] = q
	svc.Status = entities.ServiceStatusQuoted
	svc.UpdatedAt = q.CreatedAt
	s.services[svc.ID] = svc
	return nil
}

func (s *Store) AcceptQuote(_ context.Context, cmd interfaces.AcceptQuoteCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[cmd.QuoteID]
	if !ok || q.Status != entities.QuoteStatusPending || q.ServiceID != cmd.ServiceID {
		return interfaces.ErrConditionFailed
	}
	svc, ok := s.services[cmd.ServiceID]
	if !ok || !svc.Status.IsQuotable() {
		return interfaces.ErrConditionFailed
	}
	for _, id := range cmd.SiblingIDs {
		sib, ok := s.quotes[id]
		if !ok || sib.Status != entities.QuoteStatusPending {
			return interfaces.ErrConditionFailed
		}
	}

	for _, id := range cmd.SiblingIDs {
		s.quotes[id] = withQuoteStatus(s.quotes[id], entities.QuoteStatusRejected, cmd.At)
	}
	s.quotes[q.ID] = withQuoteStatus(q, entities.QuoteStatusAccepted, cmd.At)
	svc.Status = entities.ServiceStatusAccepted
	svc.AcceptedQuoteID = q.ID
	svc.AssignedTechnicianID = cmd.TechnicianID
	svc.UpdatedAt = cmd.At
	s.services[svc.ID] = svc
	return nil
}

func (s *Store) CreatePayment(_ context.Context, p entities.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[p.QuoteID]
	if !ok || q.Status != entities.QuoteStatusAccepted || q.ActivePaymentID != "" {
		return interfaces.ErrConditionFailed
	}
	if _, exists := s.payments[p.ID]; exists {
		return interfaces.ErrConditionFailed
	}
	q.ActivePaymentID = p.ID
	q.UpdatedAt = p.CreatedAt
	s.quotes[q.ID] = q
	s.payments[p.ID] = p
	return nil
}

func (s *Store) CompletePayment(_ context.Context, paymentID, serviceID, chargeID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || (p.Status != entities.PaymentStatusPending && p.Status != entities.PaymentStatusProcessing) {
		return interfaces.ErrConditionFailed
	}
	svc, ok := s.services[serviceID]
	if !ok || (svc.Status != entities.ServiceStatusAccepted && svc.Status != entities.ServiceStatusInProgress) {
		return interfaces.ErrConditionFailed
	}
	paidAt := at
	p.Status = entities.PaymentStatusCompleted
	p.PaidAt = &paidAt
	p.ExternalChargeID = chargeID
	p.UpdatedAt = at
	s.payments[p.ID] = p
	svc.Status = entities.ServiceStatusInProgress
	svc.UpdatedAt = at
	s.services[svc.ID] = svc
	return nil
}

func (s *Store) FailPayment(_ context.Context, paymentID, quoteID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || (p.Status != entities.PaymentStatusPending && p.Status != entities.PaymentStatusProcessing) {
		return interfaces.ErrConditionFailed
	}
	p.Status = entities.PaymentStatusFailed
	p.UpdatedAt = at
	s.payments[p.ID] = p
	if q, ok := s.quotes[quoteID]; ok && q.ActivePaymentID == paymentID {
		q.ActivePaymentID = ""
		q.UpdatedAt = at
		s.quotes[q.ID] = q
	}
	return nil
}

func withQuoteStatus(q entities.Quote, to entities.QuoteStatus, at time.Time) entities.Quote {
	q.Status = to
	q.UpdatedAt = at
	stamp := at
	switch to {
	case entities.QuoteStatusAccepted:
		q.AcceptedAt = &stamp
	case entities.QuoteStatusRejected:
		q.RejectedAt = &stamp
	}
	return q
}

func statusIn(s entities.ServiceStatus, list []entities.ServiceStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneUser(u entities.User) entities.User {
	u.TechnicianProfile.Specialties = append([]entities.Category(nil), u.TechnicianProfile.Specialties...)
	return u
}
