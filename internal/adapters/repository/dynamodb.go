package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/okian/acolyte/internal/domain/model"
)

// DynamoAPI is the slice of the DynamoDB client the table uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ DynamoAPI = (*dynamodb.Client)(nil)

// DynamoTable stores items in a DynamoDB table whose partition key is the
// numeric attribute "id".
type DynamoTable struct {
	client     DynamoAPI
	table      string
	consistent bool
}

var _ Store = (*DynamoTable)(nil)

// NewDynamoTable creates a table adapter.
func NewDynamoTable(client DynamoAPI, table string, opts ...DynamoOption) *DynamoTable {
	t := &DynamoTable{client: client, table: table}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Upsert implements Store.Upsert with an unconditional PutItem.
func (t *DynamoTable) Upsert(ctx context.Context, item model.Item) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put item %d: %w", item.ID, err)
	}
	return nil
}

// Get implements Store.Get.
func (t *DynamoTable) Get(ctx context.Context, id int64) (model.Item, error) {
	key, err := attributevalue.Marshal(id)
	if err != nil {
		return model.Item{}, err
	}
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.table),
		Key:            map[string]types.AttributeValue{"id": key},
		ConsistentRead: aws.Bool(t.consistent),
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	if len(out.Item) == 0 {
		return model.Item{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	var item model.Item
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	return item, nil
}

// List implements Store.List by scanning every page of the table.
func (t *DynamoTable) List(ctx context.Context) ([]model.Item, error) {
	p := dynamodb.NewScanPaginator(t.client, &dynamodb.ScanInput{
		TableName:      aws.String(t.table),
		ConsistentRead: aws.Bool(t.consistent),
	})

	var out []model.Item
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.table, err)
		}
		var batch []model.Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidItem, err)
		}
		out = append(out, batch...)
	}
	sortItems(out)
	return out, nil
}
