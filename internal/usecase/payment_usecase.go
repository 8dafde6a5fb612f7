package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCurrency is used when no PAYMENT_CURRENCY is configured.
const DefaultCurrency = "USD"

var openPaymentStatuses = []entities.PaymentStatus{
	entities.PaymentStatusPending,
	entities.PaymentStatusProcessing,
	entities.PaymentStatusCompleted,
}

// IPaymentUseCase manages the payment state machine:
//
//	pending -> processing -> completed | failed; completed -> refunded
//
// Completion is shared by client confirmation and gateway webhooks and is
// idempotent: only the first writer mutates state and emits notifications.
type IPaymentUseCase interface {
	CreatePaymentIntent(ctx context.Context, quoteID, requesterID string) (entities.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, paymentID, requesterID string) (entities.Payment, error)
	HandleGatewayWebhook(ctx context.Context, payload []byte, signature string) error
	ListPayments(ctx context.Context, requesterID string, role entities.Role) ([]entities.Payment, error)
	GetPayment(ctx context.Context, paymentID, requesterID string, role entities.Role) (entities.Payment, error)
}

type PaymentUseCase struct {
	store    interfaces.Store
	gateway  interfaces.IPaymentGateway
	notifier interfaces.INotifier
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(store interfaces.Store, gateway interfaces.IPaymentGateway, notifier interfaces.INotifier, currency string, logger *zap.Logger) *PaymentUseCase {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return &PaymentUseCase{store: store, gateway: gateway, notifier: notifier, currency: currency, logger: logger, now: utcNow}
}

func (u *PaymentUseCase) CreatePaymentIntent(ctx context.Context, quoteID, requesterID string) (entities.PaymentIntent, error) {
	quoteID = strings.TrimSpace(quoteID)
	u.logger.Info("[payment][usecase] create-intent start", zap.String("quote_id", quoteID), zap.String("requester_id", requesterID))

	if quoteID == "" {
		return entities.PaymentIntent{}, ErrQuoteNotFound
	}
	q, err := u.store.Quotes.GetByID(ctx, quoteID)
	if err != nil {
		return entities.PaymentIntent{}, err
	}
	if q.ID == "" {
		return entities.PaymentIntent{}, ErrQuoteNotFound
	}
	svc, err := u.store.Services.GetByID(ctx, q.ServiceID)
	if err != nil {
		return entities.PaymentIntent{}, err
	}
	if svc.ID == "" {
		return entities.PaymentIntent{}, ErrServiceNotFound
	}
	if svc.UserID != requesterID {
		return entities.PaymentIntent{}, ErrNotServiceOwner
	}
	if q.Status != entities.QuoteStatusAccepted {
		return entities.PaymentIntent{}, ErrQuoteNotAccepted
	}

	if existing, err := u.openPayment(ctx, q.ID); err != nil {
		return entities.PaymentIntent{}, err
	} else if existing.ID != "" {
		u.logger.Info("[payment][usecase] duplicate intent refused", zap.String("quote_id", q.ID), zap.String("payment_id", existing.ID))
		return entities.PaymentIntent{}, &DuplicatePaymentError{Existing: existing}
	}

	// No store lock is held across the gateway call; the claim below decides the winner.
	intent, err := u.gateway.CreateIntent(ctx, MinorUnits(q.Amount, u.currency), u.currency, map[string]string{
		"quoteId":      q.ID,
		"serviceId":    svc.ID,
		"userId":       svc.UserID,
		"technicianId": q.TechnicianID,
	})
	if err != nil {
		u.logger.Error("[payment][usecase] gateway create-intent failed", zap.String("quote_id", q.ID), zap.String("gateway", u.gateway.Name()), zap.Error(err))
		return entities.PaymentIntent{}, fmt.Errorf("%w: %w", ErrPaymentGatewayFailure, err)
	}

	now := u.now()
	p := entities.Payment{
		ID:               uuid.NewString(),
		ServiceID:        svc.ID,
		QuoteID:          q.ID,
		UserID:           svc.UserID,
		TechnicianID:     q.TechnicianID,
		Amount:           q.Amount,
		Currency:         u.currency,
		Gateway:          u.gateway.Name(),
		ExternalIntentID: intent.IntentID,
		Status:           entities.PaymentStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.store.Workflow.CreatePayment(ctx, p); err != nil {
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			u.logger.Error("[payment][usecase] payment insert failed", zap.String("quote_id", q.ID), zap.Error(err))
			return entities.PaymentIntent{}, err
		}
		u.logger.Warn("[payment][usecase] quote claim lost, gateway intent left unused",
			zap.String("quote_id", q.ID), zap.String("intent_id", intent.IntentID))
		return entities.PaymentIntent{}, u.claimConflict(ctx, q.ID)
	}

	u.logger.Info("[payment][usecase] create-intent success", zap.String("quote_id", q.ID), zap.String("payment_id", p.ID), zap.String("amount", p.Amount.StringFixed(2)))
	return entities.PaymentIntent{ClientSecret: intent.ClientSecret, Payment: p}, nil
}

// claimConflict explains why the quote claim was refused.
func (u *PaymentUseCase) claimConflict(ctx context.Context, quoteID string) error {
	q, err := u.store.Quotes.GetByID(ctx, quoteID)
	if err != nil {
		return err
	}
	if q.Status != entities.QuoteStatusAccepted {
		return ErrQuoteNotAccepted
	}
	if q.ActivePaymentID != "" {
		existing, err := u.store.Payments.GetByID(ctx, q.ActivePaymentID)
		if err != nil {
			return err
		}
		if existing.ID != "" {
			return &DuplicatePaymentError{Existing: existing}
		}
	}
	return ErrConcurrentUpdate
}

func (u *PaymentUseCase) ConfirmPayment(ctx context.Context, paymentID, requesterID string) (entities.Payment, error) {
	p, err := u.loadPayment(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.UserID != requesterID {
		return entities.Payment{}, ErrNotPaymentOwner
	}
	switch p.Status {
	case entities.PaymentStatusCompleted:
		return p, nil
	case entities.PaymentStatusFailed, entities.PaymentStatusRefunded:
		return entities.Payment{}, &PaymentNotCompletedError{Payment: p}
	}

	state, err := u.gateway.RetrieveIntent(ctx, p.ExternalIntentID)
	if err != nil {
		u.logger.Error("[payment][usecase] gateway retrieve failed", zap.String("payment_id", p.ID), zap.Error(err))
		return entities.Payment{}, fmt.Errorf("%w: %w", ErrPaymentGatewayFailure, err)
	}
	u.logger.Info("[payment][usecase] confirm intent state", zap.String("payment_id", p.ID), zap.String("gateway_status", string(state.Status)))

	if state.Status == entities.GatewayIntentSucceeded {
		return u.complete(ctx, p, state.ChargeID)
	}

	failed, err := u.fail(ctx, p)
	if err != nil {
		return entities.Payment{}, err
	}
	if failed.Status == entities.PaymentStatusCompleted {
		// A webhook completed it while we were talking to the gateway.
		return failed, nil
	}
	return entities.Payment{}, &PaymentNotCompletedError{Payment: failed}
}

func (u *PaymentUseCase) HandleGatewayWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.gateway.ParseWebhook(ctx, payload, signature)
	switch {
	case errors.Is(err, interfaces.ErrInvalidSignature):
		u.logger.Warn("[payment][webhook] signature rejected", zap.String("gateway", u.gateway.Name()))
		return ErrInvalidWebhookSignature
	case errors.Is(err, interfaces.ErrMalformedWebhook):
		return fmt.Errorf("%w: %w", ErrInvalidWebhookPayload, err)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrPaymentGatewayFailure, err)
	}

	log := u.logger.With(zap.String("event_id", ev.ID), zap.String("event_type", string(ev.Type)), zap.String("intent_id", ev.IntentID))
	if ev.Type == entities.GatewayEventIgnored {
		log.Info("[payment][webhook] event ignored")
		return nil
	}

	p, err := u.store.Payments.GetByIntentID(ctx, ev.IntentID)
	if err != nil {
		return err
	}
	if p.ID == "" {
		log.Warn("[payment][webhook] unknown intent acknowledged")
		return nil
	}

	switch ev.Type {
	case entities.GatewayEventPaymentSucceeded:
		_, err := u.complete(ctx, p, ev.ChargeID)
		var notCompleted *PaymentNotCompletedError
		if errors.As(err, &notCompleted) || errors.Is(err, ErrServiceNotPayable) {
			// Money moved but the workflow cannot follow; acknowledge and leave it for reconciliation.
			log.Error("[payment][webhook] succeeded event could not be applied", zap.String("payment_id", p.ID), zap.Error(err))
			return nil
		}
		return err
	case entities.GatewayEventPaymentFailed:
		if p.Status != entities.PaymentStatusPending && p.Status != entities.PaymentStatusProcessing {
			log.Info("[payment][webhook] failed event replay ignored", zap.String("payment_id", p.ID), zap.String("status", string(p.Status)))
			return nil
		}
		_, err := u.fail(ctx, p)
		return err
	}
	return nil
}

func (u *PaymentUseCase) ListPayments(ctx context.Context, requesterID string, role entities.Role) ([]entities.Payment, error) {
	switch role {
	case entities.RoleAdmin:
		return u.store.Payments.List(ctx, entities.PaymentFilter{})
	case entities.RoleTechnician:
		return u.store.Payments.List(ctx, entities.PaymentFilter{TechnicianID: requesterID})
	case entities.RoleCustomer:
		return u.store.Payments.List(ctx, entities.PaymentFilter{UserID: requesterID})
	}
	return nil, ErrAccessDenied
}

func (u *PaymentUseCase) GetPayment(ctx context.Context, paymentID, requesterID string, role entities.Role) (entities.Payment, error) {
	p, err := u.loadPayment(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if role != entities.RoleAdmin && p.UserID != requesterID && p.TechnicianID != requesterID {
		return entities.Payment{}, ErrAccessDenied
	}
	return p, nil
}

// complete applies the completion effect. Only the writer that actually moves
// the payment emits notifications; later callers observe the completed payment.
func (u *PaymentUseCase) complete(ctx context.Context, p entities.Payment, chargeID string) (entities.Payment, error) {
	if p.Status == entities.PaymentStatusCompleted {
		return p, nil
	}
	now := u.now()
	err := u.store.Workflow.CompletePayment(ctx, p.ID, p.ServiceID, chargeID, now)
	if errors.Is(err, interfaces.ErrConditionFailed) {
		cur, rerr := u.loadPayment(ctx, p.ID)
		if rerr != nil {
			return entities.Payment{}, rerr
		}
		switch cur.Status {
		case entities.PaymentStatusCompleted:
			return cur, nil
		case entities.PaymentStatusPending, entities.PaymentStatusProcessing:
			u.logger.Error("[payment][usecase] service no longer payable", zap.String("payment_id", p.ID), zap.String("service_id", p.ServiceID))
			return entities.Payment{}, ErrServiceNotPayable
		}
		return entities.Payment{}, &PaymentNotCompletedError{Payment: cur}
	}
	if err != nil {
		u.logger.Error("[payment][usecase] completion failed", zap.String("payment_id", p.ID), zap.Error(err))
		return entities.Payment{}, err
	}

	paidAt := now
	p.Status = entities.PaymentStatusCompleted
	p.PaidAt = &paidAt
	p.ExternalChargeID = chargeID
	p.UpdatedAt = now
	u.logger.Info("[payment][usecase] payment completed", zap.String("payment_id", p.ID), zap.String("service_id", p.ServiceID))

	payload := map[string]any{"payment": p}
	u.notifier.Notify(ctx, entities.ServiceChannel(p.ServiceID), entities.EventPaymentCompleted, payload)
	u.notifier.Notify(ctx, entities.TechnicianChannel(p.TechnicianID), entities.EventPaymentReceived, payload)
	return p, nil
}

// fail moves an open payment to failed and releases the quote for a new attempt.
func (u *PaymentUseCase) fail(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	now := u.now()
	err := u.store.Workflow.FailPayment(ctx, p.ID, p.QuoteID, now)
	if errors.Is(err, interfaces.ErrConditionFailed) {
		return u.loadPayment(ctx, p.ID)
	}
	if err != nil {
		return entities.Payment{}, err
	}
	p.Status = entities.PaymentStatusFailed
	p.UpdatedAt = now
	u.logger.Info("[payment][usecase] payment failed", zap.String("payment_id", p.ID))
	u.notifier.Notify(ctx, entities.UserChannel(p.UserID), entities.EventPaymentFailed, map[string]any{"payment": p})
	return p, nil
}

func (u *PaymentUseCase) openPayment(ctx context.Context, quoteID string) (entities.Payment, error) {
	open, err := u.store.Payments.List(ctx, entities.PaymentFilter{QuoteID: quoteID, Statuses: openPaymentStatuses})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(open) == 0 {
		return entities.Payment{}, nil
	}
	return open[0], nil
}

func (u *PaymentUseCase) loadPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	p, err := u.store.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

// MinorUnits converts an amount to the gateway's smallest unit of currency
// (cents for USD, yen for JPY).
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(entities.CurrencyExponent(currency)).Round(0).IntPart()
}
