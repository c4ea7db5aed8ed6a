package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/sirupsen/logrus"
)

type OTPRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewOTPRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *OTPRepository {
	return &OTPRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// OtpUpdate describes a partial mutation of the per-phone OTP row. Counter
// fields can either be set to an absolute value or incremented atomically;
// increments use a DynamoDB ADD clause so concurrent requests for the same
// phone cannot lose updates.
type OtpUpdate struct {
	OtpHash        *string
	RememberToken  *string
	VerifiedToken  *string
	Count          *int
	IncrementCount bool
	ErrorCount     *int
	IncrementError bool
	UpdatedAt      time.Time
}

// GetByPhone returns nil without error when no OTP row exists for the phone.
func (r *OTPRepository) GetByPhone(ctx context.Context, phone string) (*models.OtpRequest, error) {
	row := &models.OtpRequest{Phone: phone}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: row.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: row.GetSK()},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get OTP row from DynamoDB")
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var otp models.OtpRequest
	if err := attributevalue.UnmarshalMap(result.Item, &otp); err != nil {
		r.logger.WithError(err).Error("Failed to unmarshal OTP row from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal otp: %w", err)
	}

	return &otp, nil
}

// Create writes the first OTP row for a phone. The conditional put keeps two
// concurrent first requests from both succeeding; the loser falls back to an
// update.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OtpRequest) error {
	otp.UpdatedAt = time.Now()

	item, err := attributevalue.MarshalMap(otp)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal OTP row for DynamoDB")
		return fmt.Errorf("failed to marshal otp: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: otp.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: otp.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return r.Update(ctx, otp.Phone, OtpUpdate{
				OtpHash:        &otp.OtpHash,
				RememberToken:  &otp.RememberToken,
				IncrementCount: true,
				UpdatedAt:      otp.UpdatedAt,
			})
		}
		r.logger.WithError(err).Error("Failed to create OTP row in DynamoDB")
		return fmt.Errorf("failed to create otp: %w", err)
	}

	return nil
}

// Update applies the partial mutation as a single UpdateItem call.
func (r *OTPRepository) Update(ctx context.Context, phone string, upd OtpUpdate) error {
	row := &models.OtpRequest{Phone: phone}

	setParts := []string{"updated_at = :updated_at"}
	addParts := []string{}
	names := map[string]string{}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: upd.UpdatedAt.Format(time.RFC3339Nano)},
	}

	if upd.OtpHash != nil {
		setParts = append(setParts, "otp_hash = :otp_hash")
		values[":otp_hash"] = &types.AttributeValueMemberS{Value: *upd.OtpHash}
	}
	if upd.RememberToken != nil {
		setParts = append(setParts, "remember_token = :remember_token")
		values[":remember_token"] = &types.AttributeValueMemberS{Value: *upd.RememberToken}
	}
	if upd.VerifiedToken != nil {
		setParts = append(setParts, "verified_token = :verified_token")
		values[":verified_token"] = &types.AttributeValueMemberS{Value: *upd.VerifiedToken}
	}

	switch {
	case upd.IncrementCount:
		addParts = append(addParts, "#count :one")
		names["#count"] = "count"
		values[":one"] = &types.AttributeValueMemberN{Value: "1"}
	case upd.Count != nil:
		setParts = append(setParts, "#count = :count")
		names["#count"] = "count"
		values[":count"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*upd.Count)}
	}

	switch {
	case upd.IncrementError:
		addParts = append(addParts, "error_count :err_one")
		values[":err_one"] = &types.AttributeValueMemberN{Value: "1"}
	case upd.ErrorCount != nil:
		setParts = append(setParts, "error_count = :error_count")
		values[":error_count"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*upd.ErrorCount)}
	}

	expression := "SET " + strings.Join(setParts, ", ")
	if len(addParts) > 0 {
		expression += " ADD " + strings.Join(addParts, ", ")
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: row.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: row.GetSK()},
		},
		UpdateExpression:          aws.String(expression),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		r.logger.WithError(err).Error("Failed to update OTP row in DynamoDB")
		return fmt.Errorf("failed to update otp: %w", err)
	}

	return nil
}
