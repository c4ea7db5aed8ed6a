package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// Category and type names are kept as their own items so the filter endpoint
// can list them without scanning the catalog. Puts are idempotent.
func putTaxonomy(ctx context.Context, client *dynamodb.Client, tableName, category, typeName string) error {
	items := []map[string]types.AttributeValue{
		{
			"PK":   &types.AttributeValueMemberS{Value: "CATEGORIES"},
			"SK":   &types.AttributeValueMemberS{Value: "CAT#" + category},
			"name": &types.AttributeValueMemberS{Value: category},
		},
		{
			"PK":   &types.AttributeValueMemberS{Value: "TYPES"},
			"SK":   &types.AttributeValueMemberS{Value: "TYPE#" + typeName},
			"name": &types.AttributeValueMemberS{Value: typeName},
		},
	}

	for _, item := range items {
		if _, err := client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(tableName),
			Item:      item,
		}); err != nil {
			return fmt.Errorf("failed to put taxonomy item: %w", err)
		}
	}

	return nil
}

type TaxonomyRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewTaxonomyRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *TaxonomyRepository {
	return &TaxonomyRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *TaxonomyRepository) ListCategories(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, "CATEGORIES")
}

func (r *TaxonomyRepository) ListTypes(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, "TYPES")
}

func (r *TaxonomyRepository) listNames(ctx context.Context, partition string) ([]string, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partition},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to query taxonomy from DynamoDB")
		return nil, fmt.Errorf("failed to query %s: %w", partition, err)
	}

	names := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if attr, ok := item["name"].(*types.AttributeValueMemberS); ok {
			names = append(names, attr.Value)
		}
	}

	return names, nil
}
