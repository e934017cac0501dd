package dynamo

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is an in-memory stand-in for the handful of DynamoDB calls the repos make.
// It understands single-attribute string keys, the attribute_exists /
// attribute_not_exists conditions and "SET #fN = :vN" update expressions.
type fakeAPI struct {
	mu     sync.Mutex
	pk     map[string]string // table -> partition key attribute
	tables map[string]map[string]map[string]types.AttributeValue
	err    error
}

func newFakeAPI(pkByTable map[string]string) *fakeAPI {
	f := &fakeAPI{pk: pkByTable, tables: map[string]map[string]map[string]types.AttributeValue{}}
	for t := range pkByTable {
		f.tables[t] = map[string]map[string]types.AttributeValue{}
	}
	return f
}

func keyValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	table := *in.TableName
	item := f.tables[table][keyValue(in.Key[f.pk[table]])]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	table := *in.TableName
	k := keyValue(in.Item[f.pk[table]])
	if in.ConditionExpression != nil && strings.HasPrefix(*in.ConditionExpression, "attribute_not_exists") {
		if _, ok := f.tables[table][k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.tables[table][k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	table := *in.TableName
	delete(f.tables[table], keyValue(in.Key[f.pk[table]]))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	table := *in.TableName
	k := keyValue(in.Key[f.pk[table]])
	item, ok := f.tables[table][k]
	if !ok {
		if in.ConditionExpression != nil && strings.HasPrefix(*in.ConditionExpression, "attribute_exists") {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item = map[string]types.AttributeValue{f.pk[table]: in.Key[f.pk[table]]}
		f.tables[table][k] = item
	}
	for placeholder, attr := range in.ExpressionAttributeNames {
		if !strings.HasPrefix(placeholder, "#f") {
			continue
		}
		v, ok := in.ExpressionAttributeValues[":v"+strings.TrimPrefix(placeholder, "#f")]
		if !ok {
			return nil, errors.New("missing value for " + placeholder)
		}
		item[attr] = v
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	attr := in.ExpressionAttributeNames["#a"]
	want := keyValue(in.ExpressionAttributeValues[":v"])
	var items []map[string]types.AttributeValue
	for _, item := range f.tables[*in.TableName] {
		if keyValue(item[attr]) == want {
			items = append(items, item)
		}
	}
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}
