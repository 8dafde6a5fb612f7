package repository

import (
	"context"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	defaultQuotesTableName  = "quotes"
	quotesServiceIDIndex    = "service_id-index"
	quotesTechnicianIDIndex = "technician_id-index"
)

// Amounts are stored as decimal strings so no precision is lost in transit.
type quoteItem struct {
	ID              string  `dynamodbav:"id"`
	ServiceID       string  `dynamodbav:"service_id"`
	TechnicianID    string  `dynamodbav:"technician_id"`
	Amount          string  `dynamodbav:"amount"`
	Description     string  `dynamodbav:"description"`
	LaborCost       string  `dynamodbav:"labor_cost"`
	MaterialsCost   string  `dynamodbav:"materials_cost"`
	EstimatedHours  float64 `dynamodbav:"estimated_hours"`
	Status          string  `dynamodbav:"status"`
	ExpiresAt       string  `dynamodbav:"expires_at"`
	AcceptedAt      string  `dynamodbav:"accepted_at,omitempty"`
	RejectedAt      string  `dynamodbav:"rejected_at,omitempty"`
	ActivePaymentID string  `dynamodbav:"active_payment_id,omitempty"`
	CreatedAt       string  `dynamodbav:"created_at"`
	UpdatedAt       string  `dynamodbav:"updated_at"`
}

// QuoteDynamoRepository persists Quote entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: service_id-index (PK: service_id)
//   - GSI: technician_id-index (PK: technician_id)
//
// Inserts go through WorkflowDynamoStore so the service moves to quoted in the same transaction.
type QuoteDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IQuoteRepository = (*QuoteDynamoRepository)(nil)

func NewQuoteDynamoRepository(ddb DynamoDBAPI, table string) *QuoteDynamoRepository {
	return &QuoteDynamoRepository{
		ddb:       ddb,
		tableName: orDefault(table, defaultQuotesTableName),
	}
}

func (r *QuoteDynamoRepository) GetByID(ctx context.Context, id string) (entities.Quote, error) {
	it, ok, err := getItem[quoteItem](ctx, r.ddb, r.tableName, id)
	if err != nil || !ok {
		return entities.Quote{}, err
	}
	return fromQuoteItem(it), nil
}

func (r *QuoteDynamoRepository) List(ctx context.Context, filter entities.QuoteFilter) ([]entities.Quote, error) {
	var items []quoteItem
	switch {
	case len(filter.ServiceIDs) > 0:
		for _, serviceID := range filter.ServiceIDs {
			page, err := queryIndex[quoteItem](ctx, r.ddb, r.tableName, quotesServiceIDIndex, "service_id", serviceID)
			if err != nil {
				return nil, err
			}
			items = append(items, page...)
		}
	case filter.TechnicianID != "":
		page, err := queryIndex[quoteItem](ctx, r.ddb, r.tableName, quotesTechnicianIDIndex, "technician_id", filter.TechnicianID)
		if err != nil {
			return nil, err
		}
		items = page
	default:
		all, err := scanTable[quoteItem](ctx, r.ddb, r.tableName)
		if err != nil {
			return nil, err
		}
		items = all
	}

	out := make([]entities.Quote, 0, len(items))
	for _, it := range items {
		if q := fromQuoteItem(it); filter.Match(q) {
			out = append(out, q)
		}
	}
	newestFirst(out, func(q entities.Quote) time.Time { return q.CreatedAt })
	return out, nil
}

func (r *QuoteDynamoRepository) TransitionStatus(ctx context.Context, id string, from, to entities.QuoteStatus, at time.Time) (entities.Quote, error) {
	update := quoteStatusUpdate(r.tableName, id, from, to, at)
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 update.TableName,
		Key:                       update.Key,
		ConditionExpression:       update.ConditionExpression,
		UpdateExpression:          update.UpdateExpression,
		ExpressionAttributeNames:  update.ExpressionAttributeNames,
		ExpressionAttributeValues: update.ExpressionAttributeValues,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return entities.Quote{}, mapWriteError(err)
	}
	var it quoteItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Quote{}, err
	}
	return fromQuoteItem(it), nil
}

// quoteStatusUpdate builds the guarded pending->X write shared by single updates
// and the accept transaction.
func quoteStatusUpdate(table, id string, from, to entities.QuoteStatus, at time.Time) *types.Update {
	expr := "SET #status = :to, #updated_at = :at"
	names := map[string]string{
		"#id":         "id",
		"#status":     "status",
		"#updated_at": "updated_at",
	}
	switch to {
	case entities.QuoteStatusAccepted:
		expr += ", #accepted_at = :at"
		names["#accepted_at"] = "accepted_at"
	case entities.QuoteStatusRejected:
		expr += ", #rejected_at = :at"
		names["#rejected_at"] = "rejected_at"
	}
	return &types.Update{
		TableName:                aws.String(table),
		Key:                      stringKey(id),
		ConditionExpression:      aws.String("attribute_exists(#id) AND #status = :from"),
		UpdateExpression:         aws.String(expr),
		ExpressionAttributeNames: names,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": str(string(from)),
			":to":   str(string(to)),
			":at":   str(formatTime(at)),
		},
	}
}

func toQuoteItem(q entities.Quote) quoteItem {
	return quoteItem{
		ID:              q.ID,
		ServiceID:       q.ServiceID,
		TechnicianID:    q.TechnicianID,
		Amount:          q.Amount.String(),
		Description:     q.Description,
		LaborCost:       q.LaborCost.String(),
		MaterialsCost:   q.MaterialsCost.String(),
		EstimatedHours:  q.EstimatedHours,
		Status:          string(q.Status),
		ExpiresAt:       formatTime(q.ExpiresAt),
		AcceptedAt:      formatTimePtr(q.AcceptedAt),
		RejectedAt:      formatTimePtr(q.RejectedAt),
		ActivePaymentID: q.ActivePaymentID,
		CreatedAt:       formatTime(q.CreatedAt),
		UpdatedAt:       formatTime(q.UpdatedAt),
	}
}

func fromQuoteItem(it quoteItem) entities.Quote {
	return entities.Quote{
		ID:              it.ID,
		ServiceID:       it.ServiceID,
		TechnicianID:    it.TechnicianID,
		Amount:          parseDecimal(it.Amount),
		Description:     it.Description,
		LaborCost:       parseDecimal(it.LaborCost),
		MaterialsCost:   parseDecimal(it.MaterialsCost),
		EstimatedHours:  it.EstimatedHours,
		Status:          entities.QuoteStatus(it.Status),
		ExpiresAt:       parseTime(it.ExpiresAt),
		AcceptedAt:      parseTimePtr(it.AcceptedAt),
		RejectedAt:      parseTimePtr(it.RejectedAt),
		ActivePaymentID: it.ActivePaymentID,
		CreatedAt:       parseTime(it.CreatedAt),
		UpdatedAt:       parseTime(it.UpdatedAt),
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
