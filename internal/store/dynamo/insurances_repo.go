package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

type InsurancePriceItem struct {
	Frequency string `dynamodbav:"frequency"`
	Price     string `dynamodbav:"price"`
}

type CoverageRelationItem struct {
	CoverageID     string `dynamodbav:"coverage_id"`
	Name           string `dynamodbav:"name"`
	AdditionalCost string `dynamodbav:"additional_cost"`
}

type BenefitRelationItem struct {
	BenefitID      string `dynamodbav:"benefit_id"`
	Name           string `dynamodbav:"name"`
	AdditionalCost string `dynamodbav:"additional_cost"`
}

type InsuranceItem struct {
	ID          string                 `dynamodbav:"id"`
	Slug        string                 `dynamodbav:"slug"`
	Name        string                 `dynamodbav:"name"`
	Description string                 `dynamodbav:"description,omitempty"`
	Prices      []InsurancePriceItem   `dynamodbav:"prices"`
	Coverages   []CoverageRelationItem `dynamodbav:"coverages"`
	Benefits    []BenefitRelationItem  `dynamodbav:"benefits"`
}

func (i InsuranceItem) ToCore() core.Insurance {
	ins := core.Insurance{
		ID:          i.ID,
		Slug:        i.Slug,
		Name:        i.Name,
		Description: i.Description,
	}
	for _, p := range i.Prices {
		ins.Prices = append(ins.Prices, core.InsurancePrice{
			Frequency: core.Frequency(p.Frequency),
			Price:     moneyIn(p.Price),
		})
	}
	for _, c := range i.Coverages {
		ins.Coverages = append(ins.Coverages, core.CoverageRelation{
			CoverageID:     c.CoverageID,
			Name:           c.Name,
			AdditionalCost: moneyIn(c.AdditionalCost),
		})
	}
	for _, b := range i.Benefits {
		ins.Benefits = append(ins.Benefits, core.BenefitRelation{
			BenefitID:      b.BenefitID,
			Name:           b.Name,
			AdditionalCost: moneyIn(b.AdditionalCost),
		})
	}
	return ins
}

func insuranceItemFromCore(ins core.Insurance) InsuranceItem {
	item := InsuranceItem{
		ID:          ins.ID,
		Slug:        ins.Slug,
		Name:        ins.Name,
		Description: ins.Description,
	}
	for _, p := range ins.Prices {
		item.Prices = append(item.Prices, InsurancePriceItem{
			Frequency: string(p.Frequency),
			Price:     moneyOut(p.Price),
		})
	}
	for _, c := range ins.Coverages {
		item.Coverages = append(item.Coverages, CoverageRelationItem{
			CoverageID:     c.CoverageID,
			Name:           c.Name,
			AdditionalCost: moneyOut(c.AdditionalCost),
		})
	}
	for _, b := range ins.Benefits {
		item.Benefits = append(item.Benefits, BenefitRelationItem{
			BenefitID:      b.BenefitID,
			Name:           b.Name,
			AdditionalCost: moneyOut(b.AdditionalCost),
		})
	}
	return item
}

type InsuranceRepo struct {
	client *dynamodb.Client
}

func NewInsuranceRepo(client *dynamodb.Client) *InsuranceRepo {
	return &InsuranceRepo{client: client}
}

func (r *InsuranceRepo) List(ctx context.Context) ([]core.Insurance, error) {
	raw, err := scanAllPages(ctx, &dynamodb.ScanInput{
		TableName: aws.String(TableInsurances),
	}, r.client.Scan)
	if err != nil {
		return nil, fmt.Errorf("insurances.scan: %w", err)
	}

	var items []InsuranceItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("insurances.unmarshal: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	list := make([]core.Insurance, len(items))
	for i, item := range items {
		list[i] = item.ToCore()
	}
	return list, nil
}

func (r *InsuranceRepo) GetByID(ctx context.Context, id string) (core.Insurance, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableInsurances),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return core.Insurance{}, fmt.Errorf("insurances.getItem: %w", err)
	}

	if out.Item == nil {
		return core.Insurance{}, core.ErrInsuranceNotFound
	}

	var item InsuranceItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Insurance{}, fmt.Errorf("insurances.unmarshal: %w", err)
	}

	return item.ToCore(), nil
}

func (r *InsuranceRepo) GetBySlug(ctx context.Context, slug string) (core.Insurance, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableInsurances),
		IndexName:              aws.String(GSIInsurancesSlug),
		KeyConditionExpression: aws.String("slug = :slug"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":slug": &types.AttributeValueMemberS{Value: slug},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return core.Insurance{}, fmt.Errorf("insurances.query: %w", err)
	}

	if len(out.Items) == 0 {
		return core.Insurance{}, core.ErrInsuranceNotFound
	}

	var item InsuranceItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return core.Insurance{}, fmt.Errorf("insurances.unmarshal: %w", err)
	}

	return item.ToCore(), nil
}

func (r *InsuranceRepo) UpsertBySlug(ctx context.Context, ins core.Insurance) error {
	// Keep the id stable across reseeds of the same slug.
	existing, err := r.GetBySlug(ctx, ins.Slug)
	if err == nil {
		ins.ID = existing.ID
	} else if !errors.Is(err, core.ErrInsuranceNotFound) {
		return err
	}

	item := insuranceItemFromCore(ins)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("insurances.marshal: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TableInsurances),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("insurances.putItem: %w", err)
	}
	return nil
}
