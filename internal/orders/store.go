package orders

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/anishgrg/furnimart-orderflow/internal/aws"
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a brand new order. Fails if the order id already exists.
func (s *Store) Create(ctx context.Context, order *Order) error {
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	}

	_, err = s.client.PutItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return fmt.Errorf("order %s already exists: %w", order.OrderID, ErrDuplicateRequest)
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// CreateWithIdempotency atomically creates the idempotency record (guarded by
// attribute_not_exists(idempotency_key)) and the order in one transaction.
// Returns ErrDuplicateRequest when the idempotency key was already used.
func (s *Store) CreateWithIdempotency(ctx context.Context, idempotencyTable string, idempotencyItem interface{}, order *Order) error {
	idempMap, err := attributevalue.MarshalMap(idempotencyItem)
	if err != nil {
		return fmt.Errorf("marshal idempotency item: %w", err)
	}

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &idempotencyTable,
					Item:                idempMap,
					ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                orderMap,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
		},
	}

	_, err = s.client.TransactWriteItems(ctx, input)
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("idempotency key already used: %w", ErrDuplicateRequest)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// Save writes back a mutated order, guarded on the version the caller read.
// The whole document is replaced in one conditional put so status,
// amount_paid and payment_status can never be persisted piecemeal. Returns
// ErrVersionConflict when a concurrent update won the race; callers re-read
// and reapply.
func (s *Store) Save(ctx context.Context, order *Order) error {
	expected := order.Version
	order.Version = expected + 1
	order.UpdatedAt = s.nowFunc()

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		order.Version = expected
		return fmt.Errorf("marshal order: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)},
		},
	}

	_, err = s.client.PutItem(ctx, input)
	if err != nil {
		order.Version = expected
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrVersionConflict
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

const scanDueFilter = "#s = :status AND payment_status = :ps AND approved_at <= :cutoff"

// ScanDue returns every order in the given status/payment-status combination
// whose approval timestamp is at or before cutoff. Used by the sweeper to
// select orders due a payment reminder or auto-cancellation. Follows
// LastEvaluatedKey so the full matching set is returned.
func (s *Store) ScanDue(ctx context.Context, status Status, ps PaymentStatus, cutoff time.Time) ([]Order, error) {
	var (
		due      []Order
		startKey map[string]types.AttributeValue
	)

	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:                &s.tableName,
			FilterExpression:         awsString(scanDueFilter),
			ExpressionAttributeNames: map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(status)},
				":ps":     &types.AttributeValueMemberS{Value: string(ps)},
				":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.Unix(), 10)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan due orders: %w", err)
		}

		var page []Order
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal due orders: %w", err)
		}
		due = append(due, page...)

		if len(out.LastEvaluatedKey) == 0 {
			return due, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// List returns one page of orders matching the filter. cursor is the opaque
// token from a previous page; empty starts from the beginning.
func (s *Store) List(ctx context.Context, filter ListFilter, limit int32, cursor string) (Page, error) {
	input := &dyn.ScanInput{
		TableName: &s.tableName,
	}
	if limit > 0 {
		input.Limit = &limit
	}

	expr := ""
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	if filter.Status != nil {
		expr = "#s = :status"
		names["#s"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(*filter.Status)}
	}
	if filter.PaymentStatus != nil {
		if expr != "" {
			expr += " AND "
		}
		expr += "payment_status = :ps"
		values[":ps"] = &types.AttributeValueMemberS{Value: string(*filter.PaymentStatus)}
	}
	if expr != "" {
		input.FilterExpression = &expr
		input.ExpressionAttributeValues = values
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}
	}

	if cursor != "" {
		startID, err := decodeCursor(cursor)
		if err != nil {
			return Page{}, err
		}
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: startID},
		}
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return Page{}, fmt.Errorf("scan orders: %w", err)
	}

	var items []Order
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return Page{}, fmt.Errorf("unmarshal orders: %w", err)
	}

	page := Page{Orders: items}
	if last, ok := out.LastEvaluatedKey["order_id"]; ok {
		if id, ok := last.(*types.AttributeValueMemberS); ok {
			page.NextCursor = encodeCursor(id.Value)
		}
	}
	return page, nil
}

func encodeCursor(orderID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(orderID))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}
	return string(b), nil
}

func awsString(s string) *string { return &s }
