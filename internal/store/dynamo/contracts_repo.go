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

type BeneficiaryItem struct {
	FirstName  string `dynamodbav:"first_name"`
	LastName   string `dynamodbav:"last_name"`
	Relation   string `dynamodbav:"relation,omitempty"`
	Percentage string `dynamodbav:"percentage"`
}

type AttachmentItem struct {
	ID        string `dynamodbav:"id"`
	Kind      string `dynamodbav:"kind"`
	Reference string `dynamodbav:"reference"`
	CreatedAt string `dynamodbav:"created_at"`
}

type ContractItem struct {
	ID                string            `dynamodbav:"id"`
	Number            string            `dynamodbav:"number"`
	ClientID          string            `dynamodbav:"client_id"`
	InsuranceID       string            `dynamodbav:"insurance_id"`
	Status            string            `dynamodbav:"status"`
	Frequency         string            `dynamodbav:"frequency"`
	StartDate         string            `dynamodbav:"start_date"`
	EndDate           string            `dynamodbav:"end_date"`
	TotalAmount       string            `dynamodbav:"total_amount"`
	InstallmentAmount string            `dynamodbav:"installment_amount"`
	SignatureRef      string            `dynamodbav:"signature_ref,omitempty"`
	PaymentMethodID   string            `dynamodbav:"payment_method_id,omitempty"`
	Beneficiaries     []BeneficiaryItem `dynamodbav:"beneficiaries,omitempty"`
	Attachments       []AttachmentItem  `dynamodbav:"attachments,omitempty"`
	CreatedAt         string            `dynamodbav:"created_at"`
	UpdatedAt         string            `dynamodbav:"updated_at"`
	DeletedAt         string            `dynamodbav:"deleted_at,omitempty"`
}

func (i ContractItem) ToCore() core.Contract {
	startDate, _ := time.Parse(time.RFC3339, i.StartDate)
	endDate, _ := time.Parse(time.RFC3339, i.EndDate)
	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)

	c := core.Contract{
		ID:                i.ID,
		Number:            i.Number,
		ClientID:          i.ClientID,
		InsuranceID:       i.InsuranceID,
		Status:            core.ContractStatus(i.Status),
		Frequency:         core.Frequency(i.Frequency),
		StartDate:         startDate,
		EndDate:           endDate,
		TotalAmount:       moneyIn(i.TotalAmount),
		InstallmentAmount: moneyIn(i.InstallmentAmount),
		SignatureRef:      i.SignatureRef,
		PaymentMethodID:   i.PaymentMethodID,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
	if i.DeletedAt != "" {
		deletedAt, _ := time.Parse(time.RFC3339, i.DeletedAt)
		c.DeletedAt = &deletedAt
	}
	for _, b := range i.Beneficiaries {
		c.Beneficiaries = append(c.Beneficiaries, core.Beneficiary{
			FirstName:  b.FirstName,
			LastName:   b.LastName,
			Relation:   b.Relation,
			Percentage: moneyIn(b.Percentage),
		})
	}
	for _, a := range i.Attachments {
		createdAt, _ := time.Parse(time.RFC3339, a.CreatedAt)
		c.Attachments = append(c.Attachments, core.Attachment{
			ID:        a.ID,
			Kind:      a.Kind,
			Reference: a.Reference,
			CreatedAt: createdAt,
		})
	}
	return c
}

func contractItemFromCore(c core.Contract) ContractItem {
	item := ContractItem{
		ID:                c.ID,
		Number:            c.Number,
		ClientID:          c.ClientID,
		InsuranceID:       c.InsuranceID,
		Status:            string(c.Status),
		Frequency:         string(c.Frequency),
		StartDate:         c.StartDate.Format(time.RFC3339),
		EndDate:           c.EndDate.Format(time.RFC3339),
		TotalAmount:       moneyOut(c.TotalAmount),
		InstallmentAmount: moneyOut(c.InstallmentAmount),
		SignatureRef:      c.SignatureRef,
		PaymentMethodID:   c.PaymentMethodID,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         c.UpdatedAt.Format(time.RFC3339),
	}
	if c.DeletedAt != nil {
		item.DeletedAt = c.DeletedAt.Format(time.RFC3339)
	}
	for _, b := range c.Beneficiaries {
		item.Beneficiaries = append(item.Beneficiaries, BeneficiaryItem{
			FirstName:  b.FirstName,
			LastName:   b.LastName,
			Relation:   b.Relation,
			Percentage: b.Percentage.String(),
		})
	}
	for _, a := range c.Attachments {
		item.Attachments = append(item.Attachments, AttachmentItem{
			ID:        a.ID,
			Kind:      a.Kind,
			Reference: a.Reference,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return item
}

type ContractRepo struct {
	client *dynamodb.Client
	txns   *TransactionRepo
}

func NewContractRepo(client *dynamodb.Client, txns *TransactionRepo) *ContractRepo {
	return &ContractRepo{client: client, txns: txns}
}

func (r *ContractRepo) Create(ctx context.Context, c core.Contract) error {
	item := contractItemFromCore(c)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("contracts.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("contracts.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableContracts),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrContractExists
		}
		return fmt.Errorf("contracts.putItem: %w", err)
	}

	return nil
}

func (r *ContractRepo) Get(ctx context.Context, id string) (core.Contract, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableContracts),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return core.Contract{}, fmt.Errorf("contracts.getItem: %w", err)
	}

	if out.Item == nil {
		return core.Contract{}, core.ErrContractNotFound
	}

	var item ContractItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Contract{}, fmt.Errorf("contracts.unmarshal: %w", err)
	}
	if item.DeletedAt != "" {
		return core.Contract{}, core.ErrContractNotFound
	}

	return item.ToCore(), nil
}

func (r *ContractRepo) GetWithTransactions(ctx context.Context, id string) (core.ContractWithTransactions, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return core.ContractWithTransactions{}, err
	}

	txns, err := r.txns.ListByContract(ctx, id)
	if err != nil {
		return core.ContractWithTransactions{}, err
	}

	return core.ContractWithTransactions{Contract: c, Transactions: txns}, nil
}

func (r *ContractRepo) Update(ctx context.Context, c core.Contract) error {
	item := contractItemFromCore(c)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("contracts.marshal: %w", err)
	}

	cond := expression.AttributeExists(expression.Name("id")).
		And(expression.AttributeNotExists(expression.Name("deleted_at")))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("contracts.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableContracts),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrContractNotFound
		}
		return fmt.Errorf("contracts.putItem: %w", err)
	}

	return nil
}

func (r *ContractRepo) UpdateStatus(ctx context.Context, id string, status core.ContractStatus, updatedAt time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableContracts),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #status = :status, updated_at = :updated_at"),
		ConditionExpression: aws.String("attribute_exists(id) AND attribute_not_exists(deleted_at)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(status)},
			":updated_at": &types.AttributeValueMemberS{Value: updatedAt.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrContractNotFound
		}
		return fmt.Errorf("contracts.updateStatus: %w", err)
	}
	return nil
}

func (r *ContractRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableContracts),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET deleted_at = :deleted_at, updated_at = :deleted_at"),
		ConditionExpression: aws.String("attribute_exists(id) AND attribute_not_exists(deleted_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":deleted_at": &types.AttributeValueMemberS{Value: deletedAt.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrContractNotFound
		}
		return fmt.Errorf("contracts.softDelete: %w", err)
	}
	return nil
}

func (r *ContractRepo) List(ctx context.Context, filter core.ContractFilter, limit, offset int) ([]core.Contract, int64, error) {
	// Scan with filters; the GSIs cover the hot lookups, listing stays simple.
	filterExpr := expression.AttributeNotExists(expression.Name("deleted_at"))
	if filter.ClientID != "" {
		filterExpr = filterExpr.And(expression.Name("client_id").Equal(expression.Value(filter.ClientID)))
	}
	if filter.Status != "" {
		filterExpr = filterExpr.And(expression.Name("status").Equal(expression.Value(string(filter.Status))))
	}

	expr, err := expression.NewBuilder().WithFilter(filterExpr).Build()
	if err != nil {
		return nil, 0, fmt.Errorf("contracts.buildExpr: %w", err)
	}

	raw, err := scanAllPages(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(TableContracts),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, r.client.Scan)
	if err != nil {
		return nil, 0, fmt.Errorf("contracts.scan: %w", err)
	}

	var items []ContractItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, 0, fmt.Errorf("contracts.unmarshal: %w", err)
	}

	// Newest first, matching the document store ordering.
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })

	total := int64(len(items))

	if offset >= len(items) {
		return []core.Contract{}, total, nil
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	items = items[offset:end]

	contracts := make([]core.Contract, len(items))
	for i, item := range items {
		contracts[i] = item.ToCore()
	}

	return contracts, total, nil
}

func (r *ContractRepo) ExpireContracts(ctx context.Context, before time.Time) (int64, error) {
	filterExpr := expression.Name("status").Equal(expression.Value(string(core.ContractStatusActive))).
		And(expression.Name("end_date").LessThan(expression.Value(before.Format(time.RFC3339)))).
		And(expression.AttributeNotExists(expression.Name("deleted_at")))

	expr, err := expression.NewBuilder().WithFilter(filterExpr).Build()
	if err != nil {
		return 0, fmt.Errorf("contracts.buildExpr: %w", err)
	}

	raw, err := scanAllPages(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(TableContracts),
		IndexName:                 aws.String(GSIContractsStatus),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, r.client.Scan)
	if err != nil {
		return 0, fmt.Errorf("contracts.expire.scan: %w", err)
	}

	var items []ContractItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return 0, fmt.Errorf("contracts.expire.unmarshal: %w", err)
	}

	var expired int64
	for _, item := range items {
		if err := r.UpdateStatus(ctx, item.ID, core.ContractStatusExpired, before); err != nil {
			return expired, fmt.Errorf("contracts.expire.update %s: %w", item.ID, err)
		}
		expired++
	}
	return expired, nil
}

func (r *ContractRepo) NextContractNumber(ctx context.Context) (string, error) {
	// Use atomic counter for contract numbers
	year := time.Now().Year()
	counterName := fmt.Sprintf("contract_%d", year)

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(TableCounters),
		Key: map[string]types.AttributeValue{
			"counter_name": &types.AttributeValueMemberS{Value: counterName},
		},
		UpdateExpression: aws.String("SET counter_value = if_not_exists(counter_value, :zero) + :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return "", fmt.Errorf("counters.updateItem: %w", err)
	}

	counterValue := out.Attributes["counter_value"].(*types.AttributeValueMemberN).Value
	var num int
	fmt.Sscanf(counterValue, "%d", &num)
	return fmt.Sprintf("CT-%d-%06d", year, num), nil
}
