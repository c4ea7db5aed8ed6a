package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/sirupsen/logrus"
)

type PostRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewPostRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *PostRepository {
	return &PostRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	id, err := nextID(ctx, r.client, r.tableName, "post")
	if err != nil {
		return err
	}

	now := time.Now()
	post.ID = id
	post.CreatedAt = now
	post.UpdatedAt = now

	item, err := attributevalue.MarshalMap(post)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal post for DynamoDB")
		return fmt.Errorf("failed to marshal post: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: post.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: post.GetSK()}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		r.logger.WithError(err).Error("Failed to create post in DynamoDB")
		return fmt.Errorf("failed to create post: %w", err)
	}

	return putTaxonomy(ctx, r.client, r.tableName, post.Category, post.Type)
}

// GetByID returns nil without error when the post does not exist.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "POSTS"},
			"SK": &types.AttributeValueMemberS{Value: models.PostSK(id)},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get post from DynamoDB")
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var post models.Post
	if err := attributevalue.UnmarshalMap(result.Item, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post: %w", err)
	}

	return &post, nil
}

// List returns up to limit posts in descending id order, starting strictly
// after cursor when cursor > 0.
func (r *PostRepository) List(ctx context.Context, limit int32, cursor int64) ([]models.Post, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "POSTS"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	}
	if cursor > 0 {
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "POSTS"},
			"SK": &types.AttributeValueMemberS{Value: models.PostSK(cursor)},
		}
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		r.logger.WithError(err).Error("Failed to query posts from DynamoDB")
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	posts := make([]models.Post, 0, len(result.Items))
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &posts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posts: %w", err)
	}

	return posts, nil
}

// ListOffset skips the first skip posts and returns up to take of the rest.
// DynamoDB has no native offset, so the skipped rows are fetched and dropped
// client side; acceptable for the small page numbers the API allows.
func (r *PostRepository) ListOffset(ctx context.Context, skip, take int32) ([]models.Post, error) {
	posts, err := r.List(ctx, skip+take, 0)
	if err != nil {
		return nil, err
	}

	if int32(len(posts)) <= skip {
		return []models.Post{}, nil
	}

	return posts[skip:], nil
}

func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()

	item, err := attributevalue.MarshalMap(post)
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: post.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: post.GetSK()}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}); err != nil {
		r.logger.WithError(err).Error("Failed to update post in DynamoDB")
		return fmt.Errorf("failed to update post: %w", err)
	}

	return putTaxonomy(ctx, r.client, r.tableName, post.Category, post.Type)
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "POSTS"},
			"SK": &types.AttributeValueMemberS{Value: models.PostSK(id)},
		},
	}); err != nil {
		r.logger.WithError(err).Error("Failed to delete post from DynamoDB")
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}
