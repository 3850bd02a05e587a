package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func item(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func TestScanAllPagesFollowsLastEvaluatedKey(t *testing.T) {
	pages := []*dynamodb.ScanOutput{
		{
			Items:            []map[string]types.AttributeValue{item("t-1"), item("t-2")},
			LastEvaluatedKey: item("t-2"),
		},
		{
			// A page can match nothing yet still point further on; the
			// filter applies after the page is read.
			Items:            nil,
			LastEvaluatedKey: item("t-4"),
		},
		{
			Items: []map[string]types.AttributeValue{item("t-5")},
		},
	}

	var calls int
	var startKeys []map[string]types.AttributeValue
	scan := func(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
		startKeys = append(startKeys, in.ExclusiveStartKey)
		out := pages[calls]
		calls++
		return out, nil
	}

	got, err := scanAllPages(context.Background(), &dynamodb.ScanInput{TableName: aws.String(TableTransactions)}, scan)
	if err != nil {
		t.Fatalf("scanAllPages: %v", err)
	}

	if calls != 3 {
		t.Fatalf("scan calls = %d, want 3", calls)
	}
	if len(got) != 3 {
		t.Fatalf("items = %d, want 3", len(got))
	}
	if startKeys[0] != nil {
		t.Fatalf("first call should start from the beginning, got %v", startKeys[0])
	}
	for i, wantID := range []string{"t-2", "t-4"} {
		key, ok := startKeys[i+1]["id"].(*types.AttributeValueMemberS)
		if !ok || key.Value != wantID {
			t.Fatalf("call %d start key = %v, want id %s", i+1, startKeys[i+1], wantID)
		}
	}
}

func TestScanAllPagesPropagatesError(t *testing.T) {
	boom := errors.New("throttled")
	scan := func(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
		return nil, boom
	}

	if _, err := scanAllPages(context.Background(), &dynamodb.ScanInput{}, scan); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
