package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
	"homeservices/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxAcceptAttempts bounds how often AcceptQuote re-reads siblings after losing
// a race with a concurrent quote submission or rejection.
const maxAcceptAttempts = 3

type CreateQuoteInput struct {
	ServiceID      string
	TechnicianID   string
	Amount         decimal.Decimal
	Description    string
	LaborCost      decimal.Decimal
	MaterialsCost  decimal.Decimal
	EstimatedHours float64
}

// IQuoteUseCase manages the quote state machine:
//
//	pending -> accepted | rejected | expired
//
// Accepting one quote rejects every other pending quote on the same service and
// moves the service to accepted, all in one atomic store operation.
type IQuoteUseCase interface {
	CreateQuote(ctx context.Context, in CreateQuoteInput) (entities.Quote, error)
	AcceptQuote(ctx context.Context, quoteID, requesterID string) (entities.Quote, entities.Service, error)
	RejectQuote(ctx context.Context, quoteID, requesterID string) (entities.Quote, error)
	ListQuotes(ctx context.Context, requesterID string, role entities.Role) ([]entities.Quote, error)
	GetQuote(ctx context.Context, quoteID, requesterID string, role entities.Role) (entities.Quote, error)
	ExpireStaleQuotes(ctx context.Context) (int, error)
}

type QuoteUseCase struct {
	store    interfaces.Store
	notifier interfaces.INotifier
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

var _ IQuoteUseCase = (*QuoteUseCase)(nil)

func NewQuoteUseCase(store interfaces.Store, notifier interfaces.INotifier, ttl time.Duration, logger *zap.Logger) *QuoteUseCase {
	if ttl <= 0 {
		ttl = entities.DefaultQuoteTTL
	}
	return &QuoteUseCase{store: store, notifier: notifier, ttl: ttl, logger: logger, now: utcNow}
}

func (u *QuoteUseCase) CreateQuote(ctx context.Context, in CreateQuoteInput) (entities.Quote, error) {
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	in.Description = strings.TrimSpace(in.Description)

	v := validation.Violations{}
	validation.Required("service_id", in.ServiceID, v)
	validation.Required("description", in.Description, v)
	validation.PositiveDecimal("amount", in.Amount, v)
	validation.PositiveDecimal("labor_cost", in.LaborCost, v)
	validation.NonNegativeDecimal("materials_cost", in.MaterialsCost, v)
	if in.EstimatedHours < 0 {
		v["estimated_hours"] = "must_not_be_negative"
	}
	if err := v.Err(); err != nil {
		return entities.Quote{}, err
	}
	if in.EstimatedHours == 0 {
		in.EstimatedHours = 1
	}

	svc, err := u.store.Services.GetByID(ctx, in.ServiceID)
	if err != nil {
		return entities.Quote{}, err
	}
	if svc.ID == "" {
		return entities.Quote{}, ErrServiceNotFound
	}
	if !svc.Status.IsQuotable() {
		return entities.Quote{}, ErrServiceNotQuotable
	}

	active, err := u.store.Quotes.List(ctx, entities.QuoteFilter{
		ServiceIDs:   []string{svc.ID},
		TechnicianID: in.TechnicianID,
		Statuses:     []entities.QuoteStatus{entities.QuoteStatusPending, entities.QuoteStatusAccepted},
	})
	if err != nil {
		return entities.Quote{}, err
	}
	if len(active) > 0 {
		return entities.Quote{}, ErrQuoteAlreadySubmitted
	}

	now := u.now()
	q := entities.Quote{
		ID:             uuid.NewString(),
		ServiceID:      svc.ID,
		TechnicianID:   in.TechnicianID,
		Amount:         in.Amount,
		Description:    in.Description,
		LaborCost:      in.LaborCost,
		MaterialsCost:  in.MaterialsCost,
		EstimatedHours: in.EstimatedHours,
		Status:         entities.QuoteStatusPending,
		ExpiresAt:      now.Add(u.ttl),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.store.Workflow.CreateQuote(ctx, q); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return entities.Quote{}, ErrQuoteAlreadySubmitted
		}
		if errors.Is(err, interfaces.ErrConditionFailed) {
			return entities.Quote{}, ErrServiceNotQuotable
		}
		u.logger.Error("[quote][usecase] create failed", zap.String("service_id", svc.ID), zap.Error(err))
		return entities.Quote{}, err
	}
	u.logger.Info("[quote][usecase] create success", zap.String("quote_id", q.ID), zap.String("service_id", svc.ID), zap.String("technician_id", q.TechnicianID))

	u.notifier.Notify(ctx, entities.ServiceChannel(svc.ID), entities.EventNewQuote, map[string]any{"quote": q})
	u.notifier.Notify(ctx, entities.UserChannel(svc.UserID), entities.EventQuoteReceived, map[string]any{
		"quote":      q,
		"service_id": svc.ID,
		"title":      svc.Title,
	})
	return q, nil
}

func (u *QuoteUseCase) AcceptQuote(ctx context.Context, quoteID, requesterID string) (entities.Quote, entities.Service, error) {
	quoteID = strings.TrimSpace(quoteID)

	for attempt := 1; attempt <= maxAcceptAttempts; attempt++ {
		q, svc, err := u.loadQuoteWithService(ctx, quoteID)
		if err != nil {
			return entities.Quote{}, entities.Service{}, err
		}
		if svc.UserID != requesterID {
			return entities.Quote{}, entities.Service{}, ErrNotServiceOwner
		}
		switch q.Status {
		case entities.QuoteStatusPending:
		case entities.QuoteStatusExpired:
			return entities.Quote{}, entities.Service{}, ErrQuoteExpired
		default:
			return entities.Quote{}, entities.Service{}, ErrQuoteNotPending
		}

		now := u.now()
		if q.IsExpiredAt(now) {
			expired, err := u.expire(ctx, q, now)
			if errors.Is(err, interfaces.ErrConditionFailed) {
				continue
			}
			if err != nil {
				return entities.Quote{}, entities.Service{}, err
			}
			u.logger.Info("[quote][usecase] accept rejected, quote expired", zap.String("quote_id", expired.ID))
			return entities.Quote{}, entities.Service{}, ErrQuoteExpired
		}
		if !svc.Status.IsQuotable() {
			return entities.Quote{}, entities.Service{}, ErrServiceNotQuotable
		}

		pending, err := u.store.Quotes.List(ctx, entities.QuoteFilter{
			ServiceIDs: []string{svc.ID},
			Statuses:   []entities.QuoteStatus{entities.QuoteStatusPending},
		})
		if err != nil {
			return entities.Quote{}, entities.Service{}, err
		}
		siblings := make([]entities.Quote, 0, len(pending))
		siblingIDs := make([]string, 0, len(pending))
		for _, s := range pending {
			if s.ID == q.ID {
				continue
			}
			siblings = append(siblings, s)
			siblingIDs = append(siblingIDs, s.ID)
		}

		err = u.store.Workflow.AcceptQuote(ctx, interfaces.AcceptQuoteCommand{
			QuoteID:      q.ID,
			ServiceID:    svc.ID,
			TechnicianID: q.TechnicianID,
			SiblingIDs:   siblingIDs,
			At:           now,
		})
		if errors.Is(err, interfaces.ErrConditionFailed) {
			u.logger.Warn("[quote][usecase] accept lost race, re-reading", zap.String("quote_id", q.ID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			u.logger.Error("[quote][usecase] accept failed", zap.String("quote_id", q.ID), zap.Error(err))
			return entities.Quote{}, entities.Service{}, err
		}

		acceptedAt := now
		q.Status = entities.QuoteStatusAccepted
		q.AcceptedAt = &acceptedAt
		q.UpdatedAt = now
		svc.Status = entities.ServiceStatusAccepted
		svc.AcceptedQuoteID = q.ID
		svc.AssignedTechnicianID = q.TechnicianID
		svc.UpdatedAt = now
		u.logger.Info("[quote][usecase] accept success", zap.String("quote_id", q.ID), zap.String("service_id", svc.ID), zap.Int("rejected", len(siblings)))

		payload := map[string]any{"quote": q, "service": svc}
		u.notifier.Notify(ctx, entities.ServiceChannel(svc.ID), entities.EventQuoteAccepted, payload)
		u.notifier.Notify(ctx, entities.TechnicianChannel(q.TechnicianID), entities.EventQuoteAccepted, payload)
		for _, s := range siblings {
			u.notifier.Notify(ctx, entities.TechnicianChannel(s.TechnicianID), entities.EventQuoteRejected, map[string]any{
				"quote_id":   s.ID,
				"service_id": svc.ID,
			})
		}
		return q, svc, nil
	}

	// Every attempt lost a race; report the state as it stands now.
	q, _, err := u.loadQuoteWithService(ctx, quoteID)
	if err != nil {
		return entities.Quote{}, entities.Service{}, err
	}
	switch q.Status {
	case entities.QuoteStatusExpired:
		return entities.Quote{}, entities.Service{}, ErrQuoteExpired
	case entities.QuoteStatusPending:
		return entities.Quote{}, entities.Service{}, ErrConcurrentUpdate
	}
	return entities.Quote{}, entities.Service{}, ErrQuoteNotPending
}

func (u *QuoteUseCase) RejectQuote(ctx context.Context, quoteID, requesterID string) (entities.Quote, error) {
	q, svc, err := u.loadQuoteWithService(ctx, strings.TrimSpace(quoteID))
	if err != nil {
		return entities.Quote{}, err
	}
	if svc.UserID != requesterID {
		return entities.Quote{}, ErrNotServiceOwner
	}
	if q.Status != entities.QuoteStatusPending {
		return entities.Quote{}, ErrQuoteNotPending
	}

	rejected, err := u.store.Quotes.TransitionStatus(ctx, q.ID, entities.QuoteStatusPending, entities.QuoteStatusRejected, u.now())
	if errors.Is(err, interfaces.ErrConditionFailed) {
		return entities.Quote{}, ErrQuoteNotPending
	}
	if err != nil {
		return entities.Quote{}, err
	}
	u.logger.Info("[quote][usecase] reject success", zap.String("quote_id", q.ID))
	u.notifier.Notify(ctx, entities.TechnicianChannel(q.TechnicianID), entities.EventQuoteRejected, map[string]any{
		"quote_id":   q.ID,
		"service_id": svc.ID,
	})
	return rejected, nil
}

func (u *QuoteUseCase) ListQuotes(ctx context.Context, requesterID string, role entities.Role) ([]entities.Quote, error) {
	switch role {
	case entities.RoleAdmin:
		return u.store.Quotes.List(ctx, entities.QuoteFilter{})
	case entities.RoleTechnician:
		return u.store.Quotes.List(ctx, entities.QuoteFilter{TechnicianID: requesterID})
	case entities.RoleCustomer:
		services, err := u.store.Services.List(ctx, entities.ServiceFilter{UserID: requesterID})
		if err != nil {
			return nil, err
		}
		if len(services) == 0 {
			return []entities.Quote{}, nil
		}
		ids := make([]string, 0, len(services))
		for _, s := range services {
			ids = append(ids, s.ID)
		}
		return u.store.Quotes.List(ctx, entities.QuoteFilter{ServiceIDs: ids})
	}
	return nil, ErrAccessDenied
}

func (u *QuoteUseCase) GetQuote(ctx context.Context, quoteID, requesterID string, role entities.Role) (entities.Quote, error) {
	q, svc, err := u.loadQuoteWithService(ctx, strings.TrimSpace(quoteID))
	if err != nil {
		return entities.Quote{}, err
	}
	switch {
	case role == entities.RoleAdmin:
	case role == entities.RoleTechnician && q.TechnicianID == requesterID:
	case role == entities.RoleCustomer && svc.UserID == requesterID:
	default:
		return entities.Quote{}, ErrAccessDenied
	}
	return q, nil
}

// ExpireStaleQuotes moves every pending quote past its expiry to expired and
// returns how many it moved. Quotes that change status concurrently are skipped.
func (u *QuoteUseCase) ExpireStaleQuotes(ctx context.Context) (int, error) {
	now := u.now()
	stale, err := u.store.Quotes.List(ctx, entities.QuoteFilter{
		Statuses:      []entities.QuoteStatus{entities.QuoteStatusPending},
		ExpiresBefore: now,
	})
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, q := range stale {
		if !q.IsExpiredAt(now) {
			continue
		}
		if _, err := u.expire(ctx, q, now); err != nil {
			if errors.Is(err, interfaces.ErrConditionFailed) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (u *QuoteUseCase) expire(ctx context.Context, q entities.Quote, now time.Time) (entities.Quote, error) {
	expired, err := u.store.Quotes.TransitionStatus(ctx, q.ID, entities.QuoteStatusPending, entities.QuoteStatusExpired, now)
	if err != nil {
		return entities.Quote{}, err
	}
	u.notifier.Notify(ctx, entities.TechnicianChannel(q.TechnicianID), entities.EventQuoteExpired, map[string]any{
		"quote_id":   q.ID,
		"service_id": q.ServiceID,
	})
	return expired, nil
}

func (u *QuoteUseCase) loadQuoteWithService(ctx context.Context, quoteID string) (entities.Quote, entities.Service, error) {
	if quoteID == "" {
		return entities.Quote{}, entities.Service{}, ErrQuoteNotFound
	}
	q, err := u.store.Quotes.GetByID(ctx, quoteID)
	if err != nil {
		return entities.Quote{}, entities.Service{}, err
	}
	if q.ID == "" {
		return entities.Quote{}, entities.Service{}, ErrQuoteNotFound
	}
	svc, err := u.store.Services.GetByID(ctx, q.ServiceID)
	if err != nil {
		return entities.Quote{}, entities.Service{}, err
	}
	if svc.ID == "" {
		return entities.Quote{}, entities.Service{}, ErrServiceNotFound
	}
	return q, svc, nil
}

func utcNow() time.Time { return time.Now().UTC() }
