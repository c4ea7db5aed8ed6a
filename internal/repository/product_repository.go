package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/sirupsen/logrus"
)

type ProductRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewProductRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// ProductFilter narrows List results to the given category and type names.
// Empty slices mean no filtering on that axis.
type ProductFilter struct {
	Categories []string
	Types      []string
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	id, err := nextID(ctx, r.client, r.tableName, "product")
	if err != nil {
		return err
	}

	now := time.Now()
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.Status == "" {
		product.Status = "ACTIVE"
	}

	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal product for DynamoDB")
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: product.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: product.GetSK()}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		r.logger.WithError(err).Error("Failed to create product in DynamoDB")
		return fmt.Errorf("failed to create product: %w", err)
	}

	return putTaxonomy(ctx, r.client, r.tableName, product.Category, product.Type)
}

// GetByID returns nil without error when the product does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "PRODUCTS"},
			"SK": &types.AttributeValueMemberS{Value: models.ProductSK(id)},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get product from DynamoDB")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var product models.Product
	if err := attributevalue.UnmarshalMap(result.Item, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &product, nil
}

// List returns up to limit products in descending id order, starting
// strictly after cursor when cursor > 0. Category/type filters are applied
// as a filter expression; the query keeps paging until it has limit matches
// or the partition is exhausted.
func (r *ProductRepository) List(ctx context.Context, limit int32, cursor int64, filter ProductFilter) ([]models.Product, error) {
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: "PRODUCTS"},
	}
	names := map[string]string{}

	var filterParts []string
	if len(filter.Categories) > 0 {
		placeholders := make([]string, 0, len(filter.Categories))
		for i, c := range filter.Categories {
			p := fmt.Sprintf(":cat%d", i)
			placeholders = append(placeholders, p)
			values[p] = &types.AttributeValueMemberS{Value: c}
		}
		filterParts = append(filterParts, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ", ")))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for i, t := range filter.Types {
			p := fmt.Sprintf(":type%d", i)
			placeholders = append(placeholders, p)
			values[p] = &types.AttributeValueMemberS{Value: t}
		}
		names["#type"] = "type"
		filterParts = append(filterParts, fmt.Sprintf("#type IN (%s)", strings.Join(placeholders, ", ")))
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("PK = :pk"),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	}
	if len(filterParts) > 0 {
		input.FilterExpression = aws.String(strings.Join(filterParts, " AND "))
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	if cursor > 0 {
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "PRODUCTS"},
			"SK": &types.AttributeValueMemberS{Value: models.ProductSK(cursor)},
		}
	}

	var products []models.Product
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			r.logger.WithError(err).Error("Failed to query products from DynamoDB")
			return nil, fmt.Errorf("failed to query products: %w", err)
		}

		var page []models.Product
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal products: %w", err)
		}
		products = append(products, page...)

		if int32(len(products)) >= limit || result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	if int32(len(products)) > limit {
		products = products[:limit]
	}

	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()

	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: product.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: product.GetSK()}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}); err != nil {
		r.logger.WithError(err).Error("Failed to update product in DynamoDB")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return putTaxonomy(ctx, r.client, r.tableName, product.Category, product.Type)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "PRODUCTS"},
			"SK": &types.AttributeValueMemberS{Value: models.ProductSK(id)},
		},
	}); err != nil {
		r.logger.WithError(err).Error("Failed to delete product from DynamoDB")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}
