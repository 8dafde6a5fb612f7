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
)

const (
	defaultServicesTableName        = "services"
	servicesUserIDIndex             = "user_id-index"
	servicesAssignedTechnicianIndex = "assigned_technician_id-index"
)

type serviceItem struct {
	ID                   string      `dynamodbav:"id"`
	UserID               string      `dynamodbav:"user_id"`
	Category             string      `dynamodbav:"category"`
	Title                string      `dynamodbav:"title"`
	Description          string      `dynamodbav:"description"`
	Urgency              string      `dynamodbav:"urgency"`
	Address              addressItem `dynamodbav:"address"`
	PreferredDate        string      `dynamodbav:"preferred_date,omitempty"`
	Status               string      `dynamodbav:"status"`
	AcceptedQuoteID      string      `dynamodbav:"accepted_quote_id,omitempty"`
	AssignedTechnicianID string      `dynamodbav:"assigned_technician_id,omitempty"`
	CompletedAt          string      `dynamodbav:"completed_at,omitempty"`
	Rating               int         `dynamodbav:"rating,omitempty"`
	Review               string      `dynamodbav:"review,omitempty"`
	CreatedAt            string      `dynamodbav:"created_at"`
	UpdatedAt            string      `dynamodbav:"updated_at"`
}

// ServiceDynamoRepository persists Service entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: user_id-index (PK: user_id)
//   - GSI: assigned_technician_id-index (PK: assigned_technician_id, sparse)
type ServiceDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IServiceRepository = (*ServiceDynamoRepository)(nil)

func NewServiceDynamoRepository(ddb DynamoDBAPI, table string) *ServiceDynamoRepository {
	return &ServiceDynamoRepository{
		ddb:       ddb,
		tableName: orDefault(table, defaultServicesTableName),
	}
}

func (r *ServiceDynamoRepository) Create(ctx context.Context, s entities.Service) (entities.Service, error) {
	av, err := attributevalue.MarshalMap(toServiceItem(s))
	if err != nil {
		return entities.Service{}, err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Service{}, mapWriteError(err)
	}
	return s, nil
}

func (r *ServiceDynamoRepository) GetByID(ctx context.Context, id string) (entities.Service, error) {
	it, ok, err := getItem[serviceItem](ctx, r.ddb, r.tableName, id)
	if err != nil || !ok {
		return entities.Service{}, err
	}
	return fromServiceItem(it), nil
}

func (r *ServiceDynamoRepository) List(ctx context.Context, filter entities.ServiceFilter) ([]entities.Service, error) {
	var (
		items []serviceItem
		err   error
	)
	switch {
	case filter.UserID != "":
		items, err = queryIndex[serviceItem](ctx, r.ddb, r.tableName, servicesUserIDIndex, "user_id", filter.UserID)
	case filter.AssignedTechnicianID != "":
		items, err = queryIndex[serviceItem](ctx, r.ddb, r.tableName, servicesAssignedTechnicianIndex, "assigned_technician_id", filter.AssignedTechnicianID)
	default:
		items, err = scanTable[serviceItem](ctx, r.ddb, r.tableName)
	}
	if err != nil {
		return nil, err
	}
	out := make([]entities.Service, 0, len(items))
	for _, it := range items {
		if s := fromServiceItem(it); filter.Match(s) {
			out = append(out, s)
		}
	}
	newestFirst(out, func(s entities.Service) time.Time { return s.CreatedAt })
	return out, nil
}

func (r *ServiceDynamoRepository) TransitionStatus(ctx context.Context, id string, from []entities.ServiceStatus, to entities.ServiceStatus, at time.Time) (entities.Service, error) {
	cond, condValues := statusIn("from", from)
	expr := "SET #status = :to, #updated_at = :updated_at"
	values := mergeValues(condValues, map[string]types.AttributeValue{
		":to":         str(string(to)),
		":updated_at": str(formatTime(at)),
	})
	names := map[string]string{
		"#id":         "id",
		"#status":     "status",
		"#updated_at": "updated_at",
	}
	if to == entities.ServiceStatusCompleted {
		expr += ", #completed_at = :updated_at"
		names["#completed_at"] = "completed_at"
	}
	return r.update(ctx, id, "attribute_exists(#id) AND "+cond, expr, names, values)
}

func (r *ServiceDynamoRepository) SetRating(ctx context.Context, id string, rating int, review string, at time.Time) (entities.Service, error) {
	expr := "SET #rating = :rating, #updated_at = :updated_at"
	values := map[string]types.AttributeValue{
		":rating":     &types.AttributeValueMemberN{Value: itoa(rating)},
		":completed":  str(string(entities.ServiceStatusCompleted)),
		":updated_at": str(formatTime(at)),
	}
	names := map[string]string{
		"#id":         "id",
		"#status":     "status",
		"#rating":     "rating",
		"#updated_at": "updated_at",
	}
	if review != "" {
		expr += ", #review = :review"
		values[":review"] = str(review)
		names["#review"] = "review"
	}
	cond := "attribute_exists(#id) AND #status = :completed AND attribute_not_exists(#rating)"
	return r.update(ctx, id, cond, expr, names, values)
}

func (r *ServiceDynamoRepository) ClearRating(ctx context.Context, id string, rating int, at time.Time) error {
	_, err := r.update(ctx, id,
		"attribute_exists(#id) AND #rating = :rating",
		"REMOVE #rating, #review SET #updated_at = :updated_at",
		map[string]string{
			"#id":         "id",
			"#rating":     "rating",
			"#review":     "review",
			"#updated_at": "updated_at",
		},
		map[string]types.AttributeValue{
			":rating":     &types.AttributeValueMemberN{Value: itoa(rating)},
			":updated_at": str(formatTime(at)),
		})
	return err
}

func (r *ServiceDynamoRepository) update(ctx context.Context, id, cond, expr string, names map[string]string, values map[string]types.AttributeValue) (entities.Service, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       stringKey(id),
		ConditionExpression:       aws.String(cond),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return entities.Service{}, mapWriteError(err)
	}
	var it serviceItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Service{}, err
	}
	return fromServiceItem(it), nil
}

func toServiceItem(s entities.Service) serviceItem {
	return serviceItem{
		ID:                   s.ID,
		UserID:               s.UserID,
		Category:             string(s.Category),
		Title:                s.Title,
		Description:          s.Description,
		Urgency:              string(s.Urgency),
		Address:              addressItem(s.Address),
		PreferredDate:        formatTimePtr(s.PreferredDate),
		Status:               string(s.Status),
		AcceptedQuoteID:      s.AcceptedQuoteID,
		AssignedTechnicianID: s.AssignedTechnicianID,
		CompletedAt:          formatTimePtr(s.CompletedAt),
		Rating:               s.Rating,
		Review:               s.Review,
		CreatedAt:            formatTime(s.CreatedAt),
		UpdatedAt:            formatTime(s.UpdatedAt),
	}
}

func fromServiceItem(it serviceItem) entities.Service {
	return entities.Service{
		ID:                   it.ID,
		UserID:               it.UserID,
		Category:             entities.Category(it.Category),
		Title:                it.Title,
		Description:          it.Description,
		Urgency:              entities.Urgency(it.Urgency),
		Address:              entities.Address(it.Address),
		PreferredDate:        parseTimePtr(it.PreferredDate),
		Status:               entities.ServiceStatus(it.Status),
		AcceptedQuoteID:      it.AcceptedQuoteID,
		AssignedTechnicianID: it.AssignedTechnicianID,
		CompletedAt:          parseTimePtr(it.CompletedAt),
		Rating:               it.Rating,
		Review:               it.Review,
		CreatedAt:            parseTime(it.CreatedAt),
		UpdatedAt:            parseTime(it.UpdatedAt),
	}
}
