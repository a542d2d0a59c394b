package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/normalize"
)

const (
	POSTS_TABLE_NAME    = "BlogPosts"
	ANALYSIS_TABLE_NAME = "BlogAnalyses"
	maxBatchSize        = 25
	tableWaitTimeout    = 2 * time.Minute
)

// DynamoAPI is the subset of *dynamodb.Client the store calls.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type DynamoTables struct {
	Posts    string
	Analyses string
}

// DynamoStore keeps every query key as a single item per table. A PutItem
// replaces the whole item, so replace-on-write is atomic without a
// transaction.
type DynamoStore struct {
	client DynamoAPI
	tables DynamoTables
}

type postsRecord struct {
	QueryKey string                    `dynamodbav:"query_key"`
	Items    []models.SearchResultItem `dynamodbav:"items"`
	StoredAt int64                     `dynamodbav:"stored_at"`
}

type analysisRecord struct {
	QueryKey      string    `dynamodbav:"query_key"`
	Positive      string    `dynamodbav:"positive"`
	Negative      string    `dynamodbav:"negative"`
	Summary       string    `dynamodbav:"summary"`
	AnalyzedCount int       `dynamodbav:"analyzed_count"`
	AnalyzedAt    time.Time `dynamodbav:"analyzed_at"`
}

func NewDynamoStore(client DynamoAPI, tables DynamoTables) *DynamoStore {
	if tables.Posts == "" {
		tables.Posts = POSTS_TABLE_NAME
	}
	if tables.Analyses == "" {
		tables.Analyses = ANALYSIS_TABLE_NAME
	}
	return &DynamoStore{client: client, tables: tables}
}

// EnsureTables creates either table if it does not exist yet.
func (d *DynamoStore) EnsureTables(ctx context.Context) error {
	for _, name := range []string{d.tables.Posts, d.tables.Analyses} {
		_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
		if err == nil {
			continue
		}
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return fmt.Errorf("[DynamoDB] describe %s: %w", name, err)
		}

		slog.Info("[DynamoDB] Creating table", slog.String("table", name))
		_, err = d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(name),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("query_key"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("query_key"), KeyType: types.KeyTypeHash},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] create %s: %w", name, err)
		}

		waiter := dynamodb.NewTableExistsWaiter(d.client)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, tableWaitTimeout); err != nil {
			return fmt.Errorf("[DynamoDB] wait for %s: %w", name, err)
		}
	}
	return nil
}

func keyOf(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"query_key": &types.AttributeValueMemberS{Value: key},
	}
}

func (d *DynamoStore) UpsertSearchResults(ctx context.Context, key string, items []models.SearchResultItem) (int, error) {
	record := postsRecord{
		QueryKey: key,
		Items:    make([]models.SearchResultItem, 0, len(items)),
		StoredAt: time.Now().Unix(),
	}
	for _, item := range items {
		record.Items = append(record.Items, normalize.Result(item))
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return 0, fmt.Errorf("[DynamoDB] marshal posts: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tables.Posts),
		Item:      av,
	}); err != nil {
		return 0, fmt.Errorf("[DynamoDB] put posts: %w", err)
	}

	slog.Info("[DynamoDB] Stored blog posts",
		slog.String("query_key", key),
		slog.Int("count", len(record.Items)))
	return len(record.Items), nil
}

func (d *DynamoStore) ReadSearchResults(ctx context.Context, key string, limit int) ([]models.SearchResultItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tables.Posts),
		Key:            keyOf(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] get posts: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var record postsRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("[DynamoDB] unmarshal posts: %w", err)
	}
	if len(record.Items) > limit {
		record.Items = record.Items[:limit]
	}
	return record.Items, nil
}

func (d *DynamoStore) UpsertAnalysis(ctx context.Context, key string, result models.AnalysisResult) error {
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = time.Now()
	}
	av, err := attributevalue.MarshalMap(analysisRecord{
		QueryKey:      key,
		Positive:      result.Positive,
		Negative:      result.Negative,
		Summary:       result.Summary,
		AnalyzedCount: result.AnalyzedCount,
		AnalyzedAt:    result.AnalyzedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] marshal analysis: %w", err)
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tables.Analyses),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("[DynamoDB] put analysis: %w", err)
	}

	slog.Info("[DynamoDB] Stored analysis", slog.String("query_key", key))
	return nil
}

func (d *DynamoStore) ReadAnalysis(ctx context.Context, key string) (*models.AnalysisResult, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tables.Analyses),
		Key:            keyOf(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] get analysis: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var record analysisRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("[DynamoDB] unmarshal analysis: %w", err)
	}
	return &models.AnalysisResult{
		Positive:      record.Positive,
		Negative:      record.Negative,
		Summary:       record.Summary,
		AnalyzedCount: record.AnalyzedCount,
		AnalyzedAt:    record.AnalyzedAt,
	}, nil
}

// Reset deletes every item from both tables in batches of 25.
func (d *DynamoStore) Reset(ctx context.Context) error {
	for _, table := range []string{d.tables.Posts, d.tables.Analyses} {
		keys, err := d.scanKeys(ctx, table)
		if err != nil {
			return err
		}

		for i := 0; i < len(keys); i += maxBatchSize {
			end := i + maxBatchSize
			if end > len(keys) {
				end = len(keys)
			}

			writeRequests := make([]types.WriteRequest, 0, end-i)
			for _, k := range keys[i:end] {
				writeRequests = append(writeRequests, types.WriteRequest{
					DeleteRequest: &types.DeleteRequest{Key: keyOf(k)},
				})
			}

			out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{table: writeRequests},
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to batch delete from %s: %w", table, err)
			}
			if n := len(out.UnprocessedItems[table]); n > 0 {
				return fmt.Errorf("[DynamoDB] %d deletes from %s were not processed", n, table)
			}
		}
		slog.Warn("[DynamoDB] Cleared table", slog.String("table", table), slog.Int("items", len(keys)))
	}
	return nil
}

func (d *DynamoStore) scanKeys(ctx context.Context, table string) ([]string, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName:            aws.String(table),
		ProjectionExpression: aws.String("query_key"),
	})

	var keys []string
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for %s failed: %w", table, err)
		}
		for _, item := range out.Items {
			if s, ok := item["query_key"].(*types.AttributeValueMemberS); ok {
				keys = append(keys, s.Value)
			}
		}
	}
	return keys, nil
}

func (d *DynamoStore) Close() error {
	return nil
}
