package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/sirupsen/logrus"
)

type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewUserRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// GetByPhone returns nil without error when the user does not exist.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user := &models.User{Phone: phone}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get user from DynamoDB")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var dbUser models.User
	if err := attributevalue.UnmarshalMap(result.Item, &dbUser); err != nil {
		r.logger.WithError(err).Error("Failed to unmarshal user from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &dbUser, nil
}

// GetByID resolves the id pointer item to a phone number, then loads the
// user row.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.UserIDPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get user id pointer from DynamoDB")
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	phoneAttr, ok := result.Item["phone"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("user id pointer %d has no phone attribute", id)
	}

	return r.GetByPhone(ctx, phoneAttr.Value)
}

// Create assigns a fresh numeric id, writes the user row guarded by a
// conditional put, and writes the id pointer item.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	id, err := nextID(ctx, r.client, r.tableName, "user")
	if err != nil {
		return err
	}

	now := time.Now()
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal user for DynamoDB")
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: user.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: user.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return errs.AlreadyExist("This phone number is already registered.")
		}
		r.logger.WithError(err).Error("Failed to create user in DynamoDB")
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"PK":    &types.AttributeValueMemberS{Value: models.UserIDPK(user.ID)},
			"SK":    &types.AttributeValueMemberS{Value: "METADATA"},
			"phone": &types.AttributeValueMemberS{Value: user.Phone},
			"id":    &types.AttributeValueMemberN{Value: strconv.FormatInt(user.ID, 10)},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to create user id pointer in DynamoDB")
		return fmt.Errorf("failed to create user id pointer: %w", err)
	}

	return nil
}

// UpdateRandToken swaps the stored refresh token in a single write. This is
// the session invalidation point: whatever token was valid before this call
// is not afterwards.
func (r *UserRepository) UpdateRandToken(ctx context.Context, phone, token string) error {
	return r.update(ctx, phone,
		"SET rand_token = :token, updated_at = :now",
		map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: token},
			":now":   &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, phone, passwordHash string) error {
	return r.update(ctx, phone,
		"SET password = :password, error_login_count = :zero, updated_at = :now",
		map[string]types.AttributeValue{
			":password": &types.AttributeValueMemberS{Value: passwordHash},
			":zero":     &types.AttributeValueMemberN{Value: "0"},
			":now":      &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		})
}

// RecordLoginFailure persists the new counter value and, when freeze is set,
// flips the account status in the same write.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, phone string, count int, freeze bool, failedAt time.Time) error {
	expression := "SET error_login_count = :count, last_failed_login = :at, updated_at = :now"
	values := map[string]types.AttributeValue{
		":count": &types.AttributeValueMemberN{Value: strconv.Itoa(count)},
		":at":    &types.AttributeValueMemberS{Value: failedAt.Format(time.RFC3339Nano)},
		":now":   &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
	}
	if freeze {
		expression = "SET error_login_count = :count, last_failed_login = :at, #status = :status, updated_at = :now"
		values[":status"] = &types.AttributeValueMemberS{Value: string(models.StatusFreeze)}
		return r.updateNamed(ctx, phone, expression, map[string]string{"#status": "status"}, values)
	}
	return r.update(ctx, phone, expression, values)
}

func (r *UserRepository) ResetLoginFailures(ctx context.Context, phone string) error {
	return r.update(ctx, phone,
		"SET error_login_count = :zero, updated_at = :now",
		map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":now":  &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		})
}

func (r *UserRepository) UpdateImage(ctx context.Context, phone, image string) error {
	return r.update(ctx, phone,
		"SET image = :image, updated_at = :now",
		map[string]types.AttributeValue{
			":image": &types.AttributeValueMemberS{Value: image},
			":now":   &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		})
}

func (r *UserRepository) AddFavorite(ctx context.Context, phone string, productID int64) error {
	return r.update(ctx, phone,
		"ADD favorites :product SET updated_at = :now",
		map[string]types.AttributeValue{
			":product": &types.AttributeValueMemberNS{Value: []string{strconv.FormatInt(productID, 10)}},
			":now":     &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		})
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, phone string, productID int64) error {
	return r.update(ctx, phone,
		"DELETE favorites :product SET updated_at = :now",
		map[string]types.AttributeValue{
			":product": &types.AttributeValueMemberNS{Value: []string{strconv.FormatInt(productID, 10)}},
			":now":     &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		})
}

func (r *UserRepository) update(ctx context.Context, phone, expression string, values map[string]types.AttributeValue) error {
	return r.updateNamed(ctx, phone, expression, nil, values)
}

func (r *UserRepository) updateNamed(ctx context.Context, phone, expression string, names map[string]string, values map[string]types.AttributeValue) error {
	user := &models.User{Phone: phone}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
		},
		UpdateExpression:          aws.String(expression),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return errs.NotFound("This account has not registered.")
		}
		r.logger.WithError(err).Error("Failed to update user in DynamoDB")
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}
