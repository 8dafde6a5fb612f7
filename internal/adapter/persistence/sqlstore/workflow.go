package sqlstore

import (
	"context"
	"errors"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"gorm.io/gorm"
)

// WorkflowStore runs each workflow write in a single transaction. Every step is
// an UPDATE guarded by the expected status; a step that matches no row rolls the
// whole transaction back with ErrConditionFailed.
type WorkflowStore struct{ db *gorm.DB }

var openPaymentStatuses = []string{string(entities.PaymentStatusPending), string(entities.PaymentStatusProcessing)}

func (s *WorkflowStore) CreateQuote(ctx context.Context, q entities.Quote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardedUpdate(tx, &serviceRow{}, map[string]any{
			"status":     string(entities.ServiceStatusQuoted),
			"updated_at": q.CreatedAt,
		}, "id = ? AND status IN ?", q.ServiceID, stringsOf(entities.QuotableServiceStatuses)); err != nil {
			return err
		}
		// The service row stays locked until commit, so concurrent quotes on it queue here.
		var active int64
		if err := tx.Model(&quoteRow{}).
			Where("service_id = ? AND technician_id = ? AND status IN ?", q.ServiceID, q.TechnicianID,
				[]string{string(entities.QuoteStatusPending), string(entities.QuoteStatusAccepted)}).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return interfaces.ErrDuplicateKey
		}
		row := toQuoteRow(q)
		return insert(tx, &row)
	})
}

func (s *WorkflowStore) AcceptQuote(ctx context.Context, cmd interfaces.AcceptQuoteCommand) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardedUpdate(tx, &quoteRow{}, quoteStatusValues(entities.QuoteStatusAccepted, cmd.At),
			"id = ? AND service_id = ? AND status = ?", cmd.QuoteID, cmd.ServiceID, string(entities.QuoteStatusPending)); err != nil {
			return err
		}
		for _, id := range cmd.SiblingIDs {
			if err := guardedUpdate(tx, &quoteRow{}, quoteStatusValues(entities.QuoteStatusRejected, cmd.At),
				"id = ? AND status = ?", id, string(entities.QuoteStatusPending)); err != nil {
				return err
			}
		}
		return guardedUpdate(tx, &serviceRow{}, map[string]any{
			"status":                 string(entities.ServiceStatusAccepted),
			"accepted_quote_id":      cmd.QuoteID,
			"assigned_technician_id": cmd.TechnicianID,
			"updated_at":             cmd.At,
		}, "id = ? AND status IN ?", cmd.ServiceID, stringsOf(entities.QuotableServiceStatuses))
	})
}

func (s *WorkflowStore) CreatePayment(ctx context.Context, p entities.Payment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardedUpdate(tx, &quoteRow{}, map[string]any{
			"active_payment_id": p.ID,
			"updated_at":        p.CreatedAt,
		}, "id = ? AND status = ? AND active_payment_id = ?", p.QuoteID, string(entities.QuoteStatusAccepted), ""); err != nil {
			return err
		}
		row := toPaymentRow(p)
		return insert(tx, &row)
	})
}

func (s *WorkflowStore) CompletePayment(ctx context.Context, paymentID, serviceID, chargeID string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values := map[string]any{
			"status":     string(entities.PaymentStatusCompleted),
			"paid_at":    at,
			"updated_at": at,
		}
		if chargeID != "" {
			values["external_charge_id"] = chargeID
		}
		if err := guardedUpdate(tx, &paymentRow{}, values, "id = ? AND status IN ?", paymentID, openPaymentStatuses); err != nil {
			return err
		}
		return guardedUpdate(tx, &serviceRow{}, map[string]any{
			"status":     string(entities.ServiceStatusInProgress),
			"updated_at": at,
		}, "id = ? AND status IN ?", serviceID, []string{string(entities.ServiceStatusAccepted), string(entities.ServiceStatusInProgress)})
	})
}

func (s *WorkflowStore) FailPayment(ctx context.Context, paymentID, quoteID string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardedUpdate(tx, &paymentRow{}, map[string]any{
			"status":     string(entities.PaymentStatusFailed),
			"updated_at": at,
		}, "id = ? AND status IN ?", paymentID, openPaymentStatuses); err != nil {
			return err
		}
		// the claim may already be gone; releasing it is best effort
		return tx.Model(&quoteRow{}).
			Where("id = ? AND active_payment_id = ?", quoteID, paymentID).
			Updates(map[string]any{"active_payment_id": "", "updated_at": at}).Error
	})
}

func insert(tx *gorm.DB, row any) error {
	err := tx.Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return interfaces.ErrConditionFailed
	}
	return err
}
