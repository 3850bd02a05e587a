package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type scanFunc func(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)

// scanAllPages runs a Scan and follows LastEvaluatedKey until the table is
// exhausted. Filter expressions apply after each 1MB page is read, so
// matching rows can sit on any page and a single call would silently drop
// the rest.
func scanAllPages(ctx context.Context, in *dynamodb.ScanInput, scan scanFunc) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := scan(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)

		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
