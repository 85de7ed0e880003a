package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// CreateTablesIfNotExist creates DynamoDB tables for local development.
// Both tables key on the entity id alone; distributions are stored as a
// single document per upload.
func CreateTablesIfNotExist(ctx context.Context, client *dynamodb.Client, config StorageConfig, logger zerolog.Logger) error {
	tables := []string{config.AgentsTable, config.DistributionsTable}

	for _, name := range tables {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(name),
		})
		if err == nil {
			logger.Info().Str("table", name).Msg("table already exists")
			continue
		}

		_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(name),
			KeySchema: []dbtypes.KeySchemaElement{
				{AttributeName: aws.String("ID"), KeyType: dbtypes.KeyTypeHash},
			},
			AttributeDefinitions: []dbtypes.AttributeDefinition{
				{AttributeName: aws.String("ID"), AttributeType: dbtypes.ScalarAttributeTypeS},
			},
			BillingMode: dbtypes.BillingModePayPerRequest,
		})
		if err != nil {
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}
		logger.Info().Str("table", name).Msg("table created")
	}

	return nil
}
