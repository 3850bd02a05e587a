package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

type PaymentMethodItem struct {
	ID        string `dynamodbav:"id"`
	ClientID  string `dynamodbav:"client_id"`
	Holder    string `dynamodbav:"holder"`
	MaskedPAN string `dynamodbav:"masked_pan,omitempty"`
	Token     string `dynamodbav:"token"`
	Valid     bool   `dynamodbav:"valid"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func (i PaymentMethodItem) ToCore() core.PaymentMethod {
	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)
	return core.PaymentMethod{
		ID:        i.ID,
		ClientID:  i.ClientID,
		Holder:    i.Holder,
		MaskedPAN: i.MaskedPAN,
		Token:     i.Token,
		Valid:     i.Valid,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

func paymentMethodItemFromCore(pm core.PaymentMethod) PaymentMethodItem {
	return PaymentMethodItem{
		ID:        pm.ID,
		ClientID:  pm.ClientID,
		Holder:    pm.Holder,
		MaskedPAN: pm.MaskedPAN,
		Token:     pm.Token,
		Valid:     pm.Valid,
		CreatedAt: pm.CreatedAt.Format(time.RFC3339),
		UpdatedAt: pm.UpdatedAt.Format(time.RFC3339),
	}
}

type PaymentMethodRepo struct {
	client *dynamodb.Client
}

func NewPaymentMethodRepo(client *dynamodb.Client) *PaymentMethodRepo {
	return &PaymentMethodRepo{client: client}
}

func (r *PaymentMethodRepo) Create(ctx context.Context, pm core.PaymentMethod) error {
	item := paymentMethodItemFromCore(pm)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("payment_methods.marshal: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TablePaymentMethods),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("payment_methods.putItem: %w", err)
	}
	return nil
}

func (r *PaymentMethodRepo) Get(ctx context.Context, id string) (core.PaymentMethod, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TablePaymentMethods),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("payment_methods.getItem: %w", err)
	}

	if out.Item == nil {
		return core.PaymentMethod{}, core.ErrPaymentMethodNotFound
	}

	var item PaymentMethodItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.PaymentMethod{}, fmt.Errorf("payment_methods.unmarshal: %w", err)
	}

	return item.ToCore(), nil
}

func (r *PaymentMethodRepo) Update(ctx context.Context, pm core.PaymentMethod) error {
	item := paymentMethodItemFromCore(pm)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("payment_methods.marshal: %w", err)
	}

	cond := expression.AttributeExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("payment_methods.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TablePaymentMethods),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrPaymentMethodNotFound
		}
		return fmt.Errorf("payment_methods.putItem: %w", err)
	}
	return nil
}
