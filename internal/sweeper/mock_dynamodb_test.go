package sweeper

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is the in-memory DynamoDB stand-in for sweeper tests. It only
// understands the expressions the order store issues.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

// itemPK extracts the partition key. Idempotency records also carry an
// order_id attribute, so idempotency_key is checked first.
func itemPK(item map[string]types.AttributeValue) (string, error) {
	if v, ok := item["idempotency_key"]; ok {
		return v.(*types.AttributeValueMemberS).Value, nil
	}
	if v, ok := item["order_id"]; ok {
		return v.(*types.AttributeValueMemberS).Value, nil
	}
	return "", errors.New("no primary key in item")
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	pk, err := itemPK(params.Item)
	if err != nil {
		return nil, err
	}

	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "attribute_not_exists(order_id)", "attribute_not_exists(idempotency_key)":
			if _, exists := m.tables[table][pk]; exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "version = :expected":
			existing, exists := m.tables[table][pk]
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
			current, ok := existing["version"].(*types.AttributeValueMemberN)
			if !ok || current.Value != expected {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}

	m.tables[table][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	pk, err := itemPK(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)

	keys := make([]string, 0, len(m.tables[table]))
	for k := range m.tables[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &dyn.ScanOutput{}
	for _, k := range keys {
		item := m.tables[table][k]
		if params.FilterExpression != nil && !matchesFilter(item, *params.FilterExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func matchesFilter(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) bool {
	for _, clause := range strings.Split(expr, " AND ") {
		parts := strings.Fields(clause)
		if len(parts) != 3 {
			return false
		}
		attr, op, ref := parts[0], parts[1], parts[2]
		if resolved, ok := names[attr]; ok {
			attr = resolved
		}
		want := values[ref]
		have, ok := item[attr]
		if !ok {
			return false
		}
		switch op {
		case "=":
			ws, wok := want.(*types.AttributeValueMemberS)
			hs, hok := have.(*types.AttributeValueMemberS)
			if !wok || !hok || ws.Value != hs.Value {
				return false
			}
		case "<=":
			wn, wok := want.(*types.AttributeValueMemberN)
			hn, hok := have.(*types.AttributeValueMemberN)
			if !wok || !hok {
				return false
			}
			w, err1 := strconv.ParseInt(wn.Value, 10, 64)
			h, err2 := strconv.ParseInt(hn.Value, 10, 64)
			if err1 != nil || err2 != nil || h > w {
				return false
			}
		default:
			return false
		}
	}
	return true
}
