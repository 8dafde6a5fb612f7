package repository

import (
	"context"
	"errors"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// WorkflowDynamoStore runs the multi-entity writes as DynamoDB transactions.
// Each item carries its own condition; any failed condition (or a conflicting
// concurrent transaction) cancels the whole write and surfaces as
// interfaces.ErrConditionFailed.
//
// A transaction holds at most 100 items, which caps AcceptQuote at 98 sibling quotes.
type WorkflowDynamoStore struct {
	ddb           DynamoDBAPI
	servicesTable string
	quotesTable   string
	paymentsTable string
}

var _ interfaces.IWorkflowStore = (*WorkflowDynamoStore)(nil)

func NewWorkflowDynamoStore(ddb DynamoDBAPI, tables Tables) *WorkflowDynamoStore {
	return &WorkflowDynamoStore{
		ddb:           ddb,
		servicesTable: orDefault(tables.Services, defaultServicesTableName),
		quotesTable:   orDefault(tables.Quotes, defaultQuotesTableName),
		paymentsTable: orDefault(tables.Payments, defaultPaymentsTableName),
	}
}

// NewDynamoStore wires every DynamoDB repository behind the persistence ports.
func NewDynamoStore(ddb DynamoDBAPI, tables Tables) interfaces.Store {
	return interfaces.Store{
		Users:    NewUserDynamoRepository(ddb, tables.Users),
		Services: NewServiceDynamoRepository(ddb, tables.Services),
		Quotes:   NewQuoteDynamoRepository(ddb, tables.Quotes),
		Payments: NewPaymentDynamoRepository(ddb, tables.Payments),
		Workflow: NewWorkflowDynamoStore(ddb, tables),
	}
}

// CreateQuote also records the new quote under the technician's claim attribute
// on the service item. The claim may only move away from a quote that is no
// longer active, which keeps one active quote per technician and service.
func (s *WorkflowDynamoStore) CreateQuote(ctx context.Context, q entities.Quote) error {
	av, err := attributevalue.MarshalMap(toQuoteItem(q))
	if err != nil {
		return err
	}
	prev, err := s.activeClaim(ctx, q.ServiceID, q.TechnicianID)
	if err != nil {
		return err
	}

	cond, condValues := statusIn("from", entities.QuotableServiceStatuses)
	claimCond := "attribute_not_exists(#claim)"
	values := map[string]types.AttributeValue{
		":to":    str(string(entities.ServiceStatusQuoted)),
		":at":    str(formatTime(q.CreatedAt)),
		":claim": str(q.ID),
	}
	if prev != "" {
		claimCond = "#claim = :prev"
		values[":prev"] = str(prev)
	}
	err = s.transact(ctx,
		types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(s.quotesTable),
			Item:                     av,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		}},
		types.TransactWriteItem{Update: &types.Update{
			TableName:           aws.String(s.servicesTable),
			Key:                 stringKey(q.ServiceID),
			ConditionExpression: aws.String("attribute_exists(#id) AND " + cond + " AND " + claimCond),
			UpdateExpression:    aws.String("SET #status = :to, #updated_at = :at, #claim = :claim"),
			ExpressionAttributeNames: map[string]string{
				"#id":         "id",
				"#status":     "status",
				"#updated_at": "updated_at",
				"#claim":      quoteClaimAttr(q.TechnicianID),
			},
			ExpressionAttributeValues: mergeValues(condValues, values),
		}},
	)
	if errors.Is(err, interfaces.ErrConditionFailed) {
		// Tell a lost claim race apart from a service that stopped being quotable.
		if current, claimErr := s.activeClaim(ctx, q.ServiceID, q.TechnicianID); errors.Is(claimErr, interfaces.ErrDuplicateKey) || (claimErr == nil && current != prev) {
			return interfaces.ErrDuplicateKey
		}
	}
	return err
}

// activeClaim returns the quote id held in the technician's claim, or
// ErrDuplicateKey when that quote is still pending or accepted.
func (s *WorkflowDynamoStore) activeClaim(ctx context.Context, serviceID, technicianID string) (string, error) {
	svc, found, err := getItem[map[string]any](ctx, s.ddb, s.servicesTable, serviceID)
	if err != nil || !found {
		return "", err
	}
	quoteID, _ := svc[quoteClaimAttr(technicianID)].(string)
	if quoteID == "" {
		return "", nil
	}
	it, found, err := getItem[quoteItem](ctx, s.ddb, s.quotesTable, quoteID)
	if err != nil {
		return "", err
	}
	if found && fromQuoteItem(it).IsActive() {
		return quoteID, interfaces.ErrDuplicateKey
	}
	return quoteID, nil
}

func quoteClaimAttr(technicianID string) string {
	return "quote_claim:" + technicianID
}

func (s *WorkflowDynamoStore) AcceptQuote(ctx context.Context, cmd interfaces.AcceptQuoteCommand) error {
	accept := quoteStatusUpdate(s.quotesTable, cmd.QuoteID, entities.QuoteStatusPending, entities.QuoteStatusAccepted, cmd.At)
	accept.ConditionExpression = aws.String(*accept.ConditionExpression + " AND #service_id = :service_id")
	accept.ExpressionAttributeNames["#service_id"] = "service_id"
	accept.ExpressionAttributeValues[":service_id"] = str(cmd.ServiceID)

	items := make([]types.TransactWriteItem, 0, len(cmd.SiblingIDs)+2)
	items = append(items, types.TransactWriteItem{Update: accept})
	for _, id := range cmd.SiblingIDs {
		items = append(items, types.TransactWriteItem{
			Update: quoteStatusUpdate(s.quotesTable, id, entities.QuoteStatusPending, entities.QuoteStatusRejected, cmd.At),
		})
	}

	cond, condValues := statusIn("from", entities.QuotableServiceStatuses)
	items = append(items, types.TransactWriteItem{Update: &types.Update{
		TableName:           aws.String(s.servicesTable),
		Key:                 stringKey(cmd.ServiceID),
		ConditionExpression: aws.String("attribute_exists(#id) AND " + cond),
		UpdateExpression:    aws.String("SET #status = :to, #accepted_quote_id = :quote_id, #assigned_technician_id = :technician_id, #updated_at = :at"),
		ExpressionAttributeNames: map[string]string{
			"#id":                     "id",
			"#status":                 "status",
			"#accepted_quote_id":      "accepted_quote_id",
			"#assigned_technician_id": "assigned_technician_id",
			"#updated_at":             "updated_at",
		},
		ExpressionAttributeValues: mergeValues(condValues, map[string]types.AttributeValue{
			":to":            str(string(entities.ServiceStatusAccepted)),
			":quote_id":      str(cmd.QuoteID),
			":technician_id": str(cmd.TechnicianID),
			":at":            str(formatTime(cmd.At)),
		}),
	}})
	return s.transact(ctx, items...)
}

func (s *WorkflowDynamoStore) CreatePayment(ctx context.Context, p entities.Payment) error {
	av, err := attributevalue.MarshalMap(toPaymentItem(p))
	if err != nil {
		return err
	}
	return s.transact(ctx,
		types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(s.paymentsTable),
			Item:                     av,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		}},
		types.TransactWriteItem{Update: &types.Update{
			TableName:           aws.String(s.quotesTable),
			Key:                 stringKey(p.QuoteID),
			ConditionExpression: aws.String("attribute_exists(#id) AND #status = :accepted AND attribute_not_exists(#active_payment_id)"),
			UpdateExpression:    aws.String("SET #active_payment_id = :payment_id, #updated_at = :at"),
			ExpressionAttributeNames: map[string]string{
				"#id":                "id",
				"#status":            "status",
				"#active_payment_id": "active_payment_id",
				"#updated_at":        "updated_at",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":accepted":   str(string(entities.QuoteStatusAccepted)),
				":payment_id": str(p.ID),
				":at":         str(formatTime(p.CreatedAt)),
			},
		}},
	)
}

func (s *WorkflowDynamoStore) CompletePayment(ctx context.Context, paymentID, serviceID, chargeID string, at time.Time) error {
	payCond, payValues := statusIn("open", []entities.PaymentStatus{entities.PaymentStatusPending, entities.PaymentStatusProcessing})
	payExpr := "SET #status = :to, #paid_at = :at, #updated_at = :at"
	payNames := map[string]string{
		"#id":         "id",
		"#status":     "status",
		"#paid_at":    "paid_at",
		"#updated_at": "updated_at",
	}
	payVals := mergeValues(payValues, map[string]types.AttributeValue{
		":to": str(string(entities.PaymentStatusCompleted)),
		":at": str(formatTime(at)),
	})
	if chargeID != "" {
		payExpr += ", #charge_id = :charge_id"
		payNames["#charge_id"] = "external_charge_id"
		payVals[":charge_id"] = str(chargeID)
	}

	svcCond, svcValues := statusIn("payable", []entities.ServiceStatus{entities.ServiceStatusAccepted, entities.ServiceStatusInProgress})
	return s.transact(ctx,
		types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(s.paymentsTable),
			Key:                       stringKey(paymentID),
			ConditionExpression:       aws.String("attribute_exists(#id) AND " + payCond),
			UpdateExpression:          aws.String(payExpr),
			ExpressionAttributeNames:  payNames,
			ExpressionAttributeValues: payVals,
		}},
		types.TransactWriteItem{Update: &types.Update{
			TableName:           aws.String(s.servicesTable),
			Key:                 stringKey(serviceID),
			ConditionExpression: aws.String("attribute_exists(#id) AND " + svcCond),
			UpdateExpression:    aws.String("SET #status = :to, #updated_at = :at"),
			ExpressionAttributeNames: map[string]string{
				"#id":         "id",
				"#status":     "status",
				"#updated_at": "updated_at",
			},
			ExpressionAttributeValues: mergeValues(svcValues, map[string]types.AttributeValue{
				":to": str(string(entities.ServiceStatusInProgress)),
				":at": str(formatTime(at)),
			}),
		}},
	)
}

func (s *WorkflowDynamoStore) FailPayment(ctx context.Context, paymentID, quoteID string, at time.Time) error {
	payCond, payValues := statusIn("open", []entities.PaymentStatus{entities.PaymentStatusPending, entities.PaymentStatusProcessing})
	return s.transact(ctx,
		types.TransactWriteItem{Update: &types.Update{
			TableName:           aws.String(s.paymentsTable),
			Key:                 stringKey(paymentID),
			ConditionExpression: aws.String("attribute_exists(#id) AND " + payCond),
			UpdateExpression:    aws.String("SET #status = :to, #updated_at = :at"),
			ExpressionAttributeNames: map[string]string{
				"#id":         "id",
				"#status":     "status",
				"#updated_at": "updated_at",
			},
			ExpressionAttributeValues: mergeValues(payValues, map[string]types.AttributeValue{
				":to": str(string(entities.PaymentStatusFailed)),
				":at": str(formatTime(at)),
			}),
		}},
		types.TransactWriteItem{Update: &types.Update{
			TableName:           aws.String(s.quotesTable),
			Key:                 stringKey(quoteID),
			ConditionExpression: aws.String("attribute_exists(#id) AND (attribute_not_exists(#active_payment_id) OR #active_payment_id = :payment_id)"),
			UpdateExpression:    aws.String("SET #updated_at = :at REMOVE #active_payment_id"),
			ExpressionAttributeNames: map[string]string{
				"#id":                "id",
				"#active_payment_id": "active_payment_id",
				"#updated_at":        "updated_at",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":payment_id": str(paymentID),
				":at":         str(formatTime(at)),
			},
		}},
	)
}

func (s *WorkflowDynamoStore) transact(ctx context.Context, items ...types.TransactWriteItem) error {
	_, err := s.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return mapWriteError(err)
}
