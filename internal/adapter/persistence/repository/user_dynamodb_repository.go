package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultUsersTableName = "users"
	usersEmailIndex       = "email-index"
)

type addressItem struct {
	Street  string `dynamodbav:"street,omitempty"`
	City    string `dynamodbav:"city,omitempty"`
	State   string `dynamodbav:"state,omitempty"`
	ZipCode string `dynamodbav:"zip_code,omitempty"`
}

type userItem struct {
	ID              string      `dynamodbav:"id"`
	Name            string      `dynamodbav:"name"`
	Email           string      `dynamodbav:"email"`
	Phone           string      `dynamodbav:"phone,omitempty"`
	Role            string      `dynamodbav:"role"`
	Active          bool        `dynamodbav:"active"`
	Address         addressItem `dynamodbav:"address"`
	Specialties     []string    `dynamodbav:"specialties,omitempty,stringset"`
	ExperienceYears int         `dynamodbav:"experience_years"`
	Rating          float64     `dynamodbav:"rating"`
	TotalReviews    int         `dynamodbav:"total_reviews"`
	CreatedAt       string      `dynamodbav:"created_at"`
	UpdatedAt       string      `dynamodbav:"updated_at"`
}

// UserDynamoRepository persists User entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: email-index (PK: email)
//
// Email uniqueness is checked through the index before the insert; the index is
// eventually consistent, so two simultaneous registrations may both pass.
type UserDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IUserRepository = (*UserDynamoRepository)(nil)

func NewUserDynamoRepository(ddb DynamoDBAPI, table string) *UserDynamoRepository {
	return &UserDynamoRepository{
		ddb:       ddb,
		tableName: orDefault(table, defaultUsersTableName),
	}
}

func (r *UserDynamoRepository) Create(ctx context.Context, u entities.User) (entities.User, error) {
	existing, err := r.GetByEmail(ctx, u.Email)
	if err != nil {
		return entities.User{}, err
	}
	if existing.ID != "" {
		return entities.User{}, interfaces.ErrDuplicateKey
	}

	av, err := attributevalue.MarshalMap(toUserItem(u))
	if err != nil {
		return entities.User{}, err
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
		return entities.User{}, mapWriteError(err)
	}
	return u, nil
}

func (r *UserDynamoRepository) GetByID(ctx context.Context, id string) (entities.User, error) {
	it, ok, err := getItem[userItem](ctx, r.ddb, r.tableName, id)
	if err != nil || !ok {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func (r *UserDynamoRepository) GetByEmail(ctx context.Context, email string) (entities.User, error) {
	items, err := queryIndex[userItem](ctx, r.ddb, r.tableName, usersEmailIndex, "email", strings.ToLower(email))
	if err != nil {
		return entities.User{}, err
	}
	if len(items) == 0 {
		return entities.User{}, nil
	}
	return fromUserItem(items[0]), nil
}

func (r *UserDynamoRepository) List(ctx context.Context, filter entities.UserFilter) ([]entities.User, error) {
	items, err := scanTable[userItem](ctx, r.ddb, r.tableName)
	if err != nil {
		return nil, err
	}
	out := make([]entities.User, 0, len(items))
	for _, it := range items {
		if u := fromUserItem(it); filter.Match(u) {
			out = append(out, u)
		}
	}
	newestFirst(out, func(u entities.User) time.Time { return u.CreatedAt })
	return out, nil
}

func (r *UserDynamoRepository) UpdateProfile(ctx context.Context, u entities.User) (entities.User, error) {
	addr, err := attributevalue.Marshal(addressItem(u.Address))
	if err != nil {
		return entities.User{}, err
	}
	values := map[string]types.AttributeValue{
		":name":       str(u.Name),
		":phone":      str(u.Phone),
		":address":    addr,
		":experience": &types.AttributeValueMemberN{Value: itoa(u.TechnicianProfile.ExperienceYears)},
		":updated_at": str(formatTime(u.UpdatedAt)),
	}
	expr := "SET #name = :name, #phone = :phone, #address = :address, #experience = :experience, #updated_at = :updated_at"
	names := map[string]string{
		"#name":       "name",
		"#phone":      "phone",
		"#address":    "address",
		"#experience": "experience_years",
		"#updated_at": "updated_at",
		"#id":         "id",
	}
	if specialties := categoriesToStrings(u.TechnicianProfile.Specialties); len(specialties) > 0 {
		expr += ", #specialties = :specialties"
		values[":specialties"] = &types.AttributeValueMemberSS{Value: specialties}
	} else {
		expr += " REMOVE #specialties"
	}
	names["#specialties"] = "specialties"

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       stringKey(u.ID),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.User{}, nil
		}
		return entities.User{}, err
	}
	var it userItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func (r *UserDynamoRepository) UpdateRating(ctx context.Context, id string, expectedTotal int, profile entities.TechnicianProfile, at time.Time) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 stringKey(id),
		ConditionExpression: aws.String("attribute_exists(#id) AND #total = :expected"),
		UpdateExpression:    aws.String("SET #rating = :rating, #total = :total, #updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#id":         "id",
			"#rating":     "rating",
			"#total":      "total_reviews",
			"#updated_at": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected":   &types.AttributeValueMemberN{Value: itoa(expectedTotal)},
			":rating":     &types.AttributeValueMemberN{Value: ftoa(profile.Rating)},
			":total":      &types.AttributeValueMemberN{Value: itoa(profile.TotalReviews)},
			":updated_at": str(formatTime(at)),
		},
	})
	return mapWriteError(err)
}

func toUserItem(u entities.User) userItem {
	return userItem{
		ID:              u.ID,
		Name:            u.Name,
		Email:           strings.ToLower(u.Email),
		Phone:           u.Phone,
		Role:            string(u.Role),
		Active:          u.Active,
		Address:         addressItem(u.Address),
		Specialties:     categoriesToStrings(u.TechnicianProfile.Specialties),
		ExperienceYears: u.TechnicianProfile.ExperienceYears,
		Rating:          u.TechnicianProfile.Rating,
		TotalReviews:    u.TechnicianProfile.TotalReviews,
		CreatedAt:       formatTime(u.CreatedAt),
		UpdatedAt:       formatTime(u.UpdatedAt),
	}
}

func fromUserItem(it userItem) entities.User {
	specialties := make([]entities.Category, 0, len(it.Specialties))
	for _, s := range it.Specialties {
		specialties = append(specialties, entities.Category(s))
	}
	return entities.User{
		ID:      it.ID,
		Name:    it.Name,
		Email:   it.Email,
		Phone:   it.Phone,
		Role:    entities.Role(it.Role),
		Active:  it.Active,
		Address: entities.Address(it.Address),
		TechnicianProfile: entities.TechnicianProfile{
			Specialties:     specialties,
			ExperienceYears: it.ExperienceYears,
			Rating:          it.Rating,
			TotalReviews:    it.TotalReviews,
		},
		CreatedAt: parseTime(it.CreatedAt),
		UpdatedAt: parseTime(it.UpdatedAt),
	}
}

func categoriesToStrings(cs []entities.Category) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return out
}
