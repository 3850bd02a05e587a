package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// InsurancePrice is the base recurring price of a product for one billing
// frequency, before coverage/benefit add-ons.
type InsurancePrice struct {
	Frequency Frequency       `json:"frequency"`
	Price     decimal.Decimal `json:"price"`
}

// CoverageRelation attaches a coverage to an insurance product. AdditionalCost
// is quoted as a monthly rate.
type CoverageRelation struct {
	CoverageID     string          `json:"coverage_id"`
	Name           string          `json:"name"`
	AdditionalCost decimal.Decimal `json:"additional_cost"`
}

// BenefitRelation attaches a benefit to an insurance product. AdditionalCost
// is quoted as a monthly rate.
type BenefitRelation struct {
	BenefitID      string          `json:"benefit_id"`
	Name           string          `json:"name"`
	AdditionalCost decimal.Decimal `json:"additional_cost"`
}

// Insurance is a catalog product, loaded as a full aggregate (prices plus
// coverage and benefit relations) so pricing never depends on lazy lookups.
type Insurance struct {
	ID          string             `json:"id"`
	Slug        string             `json:"slug"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Prices      []InsurancePrice   `json:"prices"`
	Coverages   []CoverageRelation `json:"coverages"`
	Benefits    []BenefitRelation  `json:"benefits"`
}

// PriceFor returns the base price for the given frequency.
func (ins Insurance) PriceFor(f Frequency) (decimal.Decimal, error) {
	for _, p := range ins.Prices {
		if p.Frequency == f {
			return p.Price, nil
		}
	}
	return decimal.Decimal{}, fmt.Errorf("%w: insurance %s has no price for frequency %s",
		ErrInsurancePriceNotFound, ins.ID, f)
}

type InsuranceRepo interface {
	List(ctx context.Context) ([]Insurance, error)
	GetByID(ctx context.Context, id string) (Insurance, error)
	GetBySlug(ctx context.Context, slug string) (Insurance, error)
	UpsertBySlug(ctx context.Context, ins Insurance) error
}

func (ins Insurance) Validate() error {
	if ins.Name == "" {
		return fmt.Errorf("%w: missing name", ErrValidation)
	}
	if ins.Slug == "" {
		return fmt.Errorf("%w: missing slug", ErrValidation)
	}
	for _, p := range ins.Prices {
		if _, err := ParseFrequency(string(p.Frequency)); err != nil {
			return err
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("%w: negative price for frequency %s", ErrValidation, p.Frequency)
		}
	}
	return nil
}

var (
	ErrInsuranceNotFound      = fmt.Errorf("%w: insurance not found", ErrNotFound)
	ErrInsurancePriceNotFound = fmt.Errorf("%w: insurance price not found", ErrNotFound)
	ErrInsuranceConflict      = fmt.Errorf("%w: insurance already exists", ErrConflict)
)
