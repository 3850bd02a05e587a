package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

// transactWriteBatch is the DynamoDB TransactWriteItems size limit.
const transactWriteBatch = 100

type TransactionItem struct {
	ID                   string `dynamodbav:"id"`
	ContractID           string `dynamodbav:"contract_id"`
	Amount               string `dynamodbav:"amount"`
	Status               string `dynamodbav:"status"`
	RetryCount           int    `dynamodbav:"retry_count"`
	NextPaymentDate      string `dynamodbav:"next_payment_date"`
	NextRetryPaymentDate string `dynamodbav:"next_retry_payment_date,omitempty"`
	Version              int64  `dynamodbav:"version"`
	CreatedAt            string `dynamodbav:"created_at"`
	UpdatedAt            string `dynamodbav:"updated_at"`
}

func (i TransactionItem) ToCore() core.Transaction {
	nextPaymentDate, _ := time.Parse(time.RFC3339, i.NextPaymentDate)
	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)

	t := core.Transaction{
		ID:              i.ID,
		ContractID:      i.ContractID,
		Amount:          moneyIn(i.Amount),
		Status:          core.TransactionStatus(i.Status),
		RetryCount:      i.RetryCount,
		NextPaymentDate: nextPaymentDate,
		Version:         i.Version,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if i.NextRetryPaymentDate != "" {
		retryDate, _ := time.Parse(time.RFC3339, i.NextRetryPaymentDate)
		t.NextRetryPaymentDate = &retryDate
	}
	return t
}

func transactionItemFromCore(t core.Transaction) TransactionItem {
	item := TransactionItem{
		ID:              t.ID,
		ContractID:      t.ContractID,
		Amount:          moneyOut(t.Amount),
		Status:          string(t.Status),
		RetryCount:      t.RetryCount,
		NextPaymentDate: t.NextPaymentDate.Format(time.RFC3339),
		Version:         t.Version,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
	}
	if t.NextRetryPaymentDate != nil {
		item.NextRetryPaymentDate = t.NextRetryPaymentDate.Format(time.RFC3339)
	}
	return item
}

type TransactionRepo struct {
	client *dynamodb.Client
}

func NewTransactionRepo(client *dynamodb.Client) *TransactionRepo {
	return &TransactionRepo{client: client}
}

func (r *TransactionRepo) BulkCreate(ctx context.Context, txns []core.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	// TransactWriteItems gives all-or-nothing semantics per batch. Schedules
	// longer than one batch fall back to compensation: on a later batch
	// failure, every id of the schedule is deleted again.
	for start := 0; start < len(txns); start += transactWriteBatch {
		end := start + transactWriteBatch
		if end > len(txns) {
			end = len(txns)
		}

		writes := make([]types.TransactWriteItem, 0, end-start)
		for _, t := range txns[start:end] {
			av, err := attributevalue.MarshalMap(transactionItemFromCore(t))
			if err != nil {
				return fmt.Errorf("transactions.marshal: %w", err)
			}
			writes = append(writes, types.TransactWriteItem{
				Put: &types.Put{
					TableName:           aws.String(TableTransactions),
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			})
		}

		_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: writes,
		})
		if err != nil {
			if start > 0 {
				if delErr := r.deleteByIDs(ctx, txns[:start]); delErr != nil {
					return fmt.Errorf("transactions.transactWrite: %w (cleanup failed: %v)", err, delErr)
				}
			}
			return fmt.Errorf("transactions.transactWrite: %w", err)
		}
	}
	return nil
}

func (r *TransactionRepo) deleteByIDs(ctx context.Context, txns []core.Transaction) error {
	for _, t := range txns {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(TableTransactions),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: t.ID},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (core.Transaction, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableTransactions),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transactions.getItem: %w", err)
	}

	if out.Item == nil {
		return core.Transaction{}, core.ErrTransactionNotFound
	}

	var item TransactionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Transaction{}, fmt.Errorf("transactions.unmarshal: %w", err)
	}

	return item.ToCore(), nil
}

func (r *TransactionRepo) Update(ctx context.Context, txn core.Transaction) error {
	item := transactionItemFromCore(txn)
	item.Version = txn.Version + 1

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("transactions.marshal: %w", err)
	}

	// The put only lands if the stored version is still the one the caller
	// read; a concurrent writer trips the condition.
	cond := expression.Name("version").Equal(expression.Value(txn.Version))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("transactions.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableTransactions),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if _, getErr := r.Get(ctx, txn.ID); errors.Is(getErr, core.ErrTransactionNotFound) {
				return core.ErrTransactionNotFound
			}
			return core.ErrTransactionConflict
		}
		return fmt.Errorf("transactions.putItem: %w", err)
	}

	return nil
}

func (r *TransactionRepo) ListByContract(ctx context.Context, contractID string) ([]core.Transaction, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableTransactions),
		IndexName:              aws.String(GSITransactionsContract),
		KeyConditionExpression: aws.String("contract_id = :contract_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":contract_id": &types.AttributeValueMemberS{Value: contractID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transactions.query: %w", err)
	}

	var items []TransactionItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("transactions.unmarshal: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].NextPaymentDate < items[j].NextPaymentDate })

	txns := make([]core.Transaction, len(items))
	for i, item := range items {
		txns[i] = item.ToCore()
	}
	return txns, nil
}

func (r *TransactionRepo) DeleteByContract(ctx context.Context, contractID string) (int64, error) {
	txns, err := r.ListByContract(ctx, contractID)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, t := range txns {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(TableTransactions),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: t.ID},
			},
		})
		if err != nil {
			return deleted, fmt.Errorf("transactions.deleteItem %s: %w", t.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

func (r *TransactionRepo) FindDue(ctx context.Context, asOf time.Time, maxRetry int, limit int) ([]core.Transaction, error) {
	asOfStr := asOf.UTC().Format(time.RFC3339)

	// Pending installments are always eligible; failed/in_retry ones only
	// while retries remain and their retry date, when set, has arrived.
	pending := expression.Name("status").Equal(expression.Value(string(core.TransactionStatusPending)))
	retryable := expression.Name("status").In(
		expression.Value(string(core.TransactionStatusFailed)),
		expression.Value(string(core.TransactionStatusInRetry)),
	).And(
		expression.Name("retry_count").LessThan(expression.Value(maxRetry)),
	).And(
		expression.AttributeNotExists(expression.Name("next_retry_payment_date")).
			Or(expression.Name("next_retry_payment_date").LessThanEqual(expression.Value(asOfStr))),
	)

	expr, err := expression.NewBuilder().WithFilter(pending.Or(retryable)).Build()
	if err != nil {
		return nil, fmt.Errorf("transactions.buildExpr: %w", err)
	}

	raw, err := scanAllPages(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(TableTransactions),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, r.client.Scan)
	if err != nil {
		return nil, fmt.Errorf("transactions.findDue.scan: %w", err)
	}

	var items []TransactionItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("transactions.findDue.unmarshal: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].NextPaymentDate < items[j].NextPaymentDate })

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	txns := make([]core.Transaction, len(items))
	for i, item := range items {
		txns[i] = item.ToCore()
	}
	return txns, nil
}
