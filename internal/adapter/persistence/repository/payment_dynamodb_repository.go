package repository

import (
	"context"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
)

const (
	defaultPaymentsTableName  = "payments"
	paymentsQuoteIDIndex      = "quote_id-index"
	paymentsIntentIDIndex     = "external_intent_id-index"
	paymentsUserIDIndex       = "user_id-index"
	paymentsTechnicianIDIndex = "technician_id-index"
)

type paymentItem struct {
	ID               string `dynamodbav:"id"`
	ServiceID        string `dynamodbav:"service_id"`
	QuoteID          string `dynamodbav:"quote_id"`
	UserID           string `dynamodbav:"user_id"`
	TechnicianID     string `dynamodbav:"technician_id"`
	Amount           string `dynamodbav:"amount"`
	Currency         string `dynamodbav:"currency"`
	Gateway          string `dynamodbav:"gateway"`
	ExternalIntentID string `dynamodbav:"external_intent_id"`
	ExternalChargeID string `dynamodbav:"external_charge_id,omitempty"`
	Status           string `dynamodbav:"status"`
	PaidAt           string `dynamodbav:"paid_at,omitempty"`
	CreatedAt        string `dynamodbav:"created_at"`
	UpdatedAt        string `dynamodbav:"updated_at"`
}

// PaymentDynamoRepository reads Payment entities from DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: quote_id-index (PK: quote_id)
//   - GSI: external_intent_id-index (PK: external_intent_id)
//   - GSI: user_id-index (PK: user_id)
//   - GSI: technician_id-index (PK: technician_id)
//
// Writes happen in WorkflowDynamoStore, always paired with the quote or service they affect.
type PaymentDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

func NewPaymentDynamoRepository(ddb DynamoDBAPI, table string) *PaymentDynamoRepository {
	return &PaymentDynamoRepository{
		ddb:       ddb,
		tableName: orDefault(table, defaultPaymentsTableName),
	}
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	it, ok, err := getItem[paymentItem](ctx, r.ddb, r.tableName, id)
	if err != nil || !ok {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

func (r *PaymentDynamoRepository) GetByIntentID(ctx context.Context, intentID string) (entities.Payment, error) {
	items, err := queryIndex[paymentItem](ctx, r.ddb, r.tableName, paymentsIntentIDIndex, "external_intent_id", intentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if len(items) == 0 {
		return entities.Payment{}, nil
	}
	// The index is eventually consistent; re-read the base item for the current status.
	return r.GetByID(ctx, items[0].ID)
}

func (r *PaymentDynamoRepository) List(ctx context.Context, filter entities.PaymentFilter) ([]entities.Payment, error) {
	var (
		items []paymentItem
		err   error
	)
	switch {
	case filter.QuoteID != "":
		items, err = queryIndex[paymentItem](ctx, r.ddb, r.tableName, paymentsQuoteIDIndex, "quote_id", filter.QuoteID)
	case filter.UserID != "":
		items, err = queryIndex[paymentItem](ctx, r.ddb, r.tableName, paymentsUserIDIndex, "user_id", filter.UserID)
	case filter.TechnicianID != "":
		items, err = queryIndex[paymentItem](ctx, r.ddb, r.tableName, paymentsTechnicianIDIndex, "technician_id", filter.TechnicianID)
	default:
		items, err = scanTable[paymentItem](ctx, r.ddb, r.tableName)
	}
	if err != nil {
		return nil, err
	}
	out := make([]entities.Payment, 0, len(items))
	for _, it := range items {
		if p := fromPaymentItem(it); filter.Match(p) {
			out = append(out, p)
		}
	}
	newestFirst(out, func(p entities.Payment) time.Time { return p.CreatedAt })
	return out, nil
}

func toPaymentItem(p entities.Payment) paymentItem {
	return paymentItem{
		ID:               p.ID,
		ServiceID:        p.ServiceID,
		QuoteID:          p.QuoteID,
		UserID:           p.UserID,
		TechnicianID:     p.TechnicianID,
		Amount:           p.Amount.String(),
		Currency:         p.Currency,
		Gateway:          p.Gateway,
		ExternalIntentID: p.ExternalIntentID,
		ExternalChargeID: p.ExternalChargeID,
		Status:           string(p.Status),
		PaidAt:           formatTimePtr(p.PaidAt),
		CreatedAt:        formatTime(p.CreatedAt),
		UpdatedAt:        formatTime(p.UpdatedAt),
	}
}

func fromPaymentItem(it paymentItem) entities.Payment {
	return entities.Payment{
		ID:               it.ID,
		ServiceID:        it.ServiceID,
		QuoteID:          it.QuoteID,
		UserID:           it.UserID,
		TechnicianID:     it.TechnicianID,
		Amount:           parseDecimal(it.Amount),
		Currency:         it.Currency,
		Gateway:          it.Gateway,
		ExternalIntentID: it.ExternalIntentID,
		ExternalChargeID: it.ExternalChargeID,
		Status:           entities.PaymentStatus(it.Status),
		PaidAt:           parseTimePtr(it.PaidAt),
		CreatedAt:        parseTime(it.CreatedAt),
		UpdatedAt:        parseTime(it.UpdatedAt),
	}
}
