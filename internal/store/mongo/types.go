package mongo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

const (
	ColInsurances     = "insurances"
	ColContracts      = "contracts"
	ColTransactions   = "transactions"
	ColPaymentMethods = "payment_methods"
)

// Money is stored as a fixed two-decimal string to keep documents exact and
// portable across drivers.
func moneyOut(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyIn(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Insurance

type InsurancePriceDoc struct {
	Frequency string `bson:"frequency"`
	Price     string `bson:"price"`
}

type CoverageRelationDoc struct {
	CoverageID     string `bson:"coverage_id"`
	Name           string `bson:"name"`
	AdditionalCost string `bson:"additional_cost"`
}

type BenefitRelationDoc struct {
	BenefitID      string `bson:"benefit_id"`
	Name           string `bson:"name"`
	AdditionalCost string `bson:"additional_cost"`
}

type InsuranceDoc struct {
	ID          string                `bson:"_id"`
	Slug        string                `bson:"slug"` // unique index
	Name        string                `bson:"name"`
	Description string                `bson:"description,omitempty"`
	Prices      []InsurancePriceDoc   `bson:"prices"`
	Coverages   []CoverageRelationDoc `bson:"coverages"`
	Benefits    []BenefitRelationDoc  `bson:"benefits"`
}

func toInsuranceDoc(ins core.Insurance) InsuranceDoc {
	doc := InsuranceDoc{
		ID:          ins.ID,
		Slug:        ins.Slug,
		Name:        ins.Name,
		Description: ins.Description,
	}
	for _, p := range ins.Prices {
		doc.Prices = append(doc.Prices, InsurancePriceDoc{
			Frequency: string(p.Frequency),
			Price:     moneyOut(p.Price),
		})
	}
	for _, c := range ins.Coverages {
		doc.Coverages = append(doc.Coverages, CoverageRelationDoc{
			CoverageID:     c.CoverageID,
			Name:           c.Name,
			AdditionalCost: moneyOut(c.AdditionalCost),
		})
	}
	for _, b := range ins.Benefits {
		doc.Benefits = append(doc.Benefits, BenefitRelationDoc{
			BenefitID:      b.BenefitID,
			Name:           b.Name,
			AdditionalCost: moneyOut(b.AdditionalCost),
		})
	}
	return doc
}

func fromInsuranceDoc(doc InsuranceDoc) core.Insurance {
	ins := core.Insurance{
		ID:          doc.ID,
		Slug:        doc.Slug,
		Name:        doc.Name,
		Description: doc.Description,
	}
	for _, p := range doc.Prices {
		ins.Prices = append(ins.Prices, core.InsurancePrice{
			Frequency: core.Frequency(p.Frequency),
			Price:     moneyIn(p.Price),
		})
	}
	for _, c := range doc.Coverages {
		ins.Coverages = append(ins.Coverages, core.CoverageRelation{
			CoverageID:     c.CoverageID,
			Name:           c.Name,
			AdditionalCost: moneyIn(c.AdditionalCost),
		})
	}
	for _, b := range doc.Benefits {
		ins.Benefits = append(ins.Benefits, core.BenefitRelation{
			BenefitID:      b.BenefitID,
			Name:           b.Name,
			AdditionalCost: moneyIn(b.AdditionalCost),
		})
	}
	return ins
}

// Contract

type BeneficiaryDoc struct {
	FirstName  string `bson:"first_name"`
	LastName   string `bson:"last_name"`
	Relation   string `bson:"relation,omitempty"`
	Percentage string `bson:"percentage"`
}

type AttachmentDoc struct {
	ID        string    `bson:"id"`
	Kind      string    `bson:"kind"`
	Reference string    `bson:"reference"`
	CreatedAt time.Time `bson:"created_at"`
}

type ContractDoc struct {
	ID                string           `bson:"_id"`
	Number            string           `bson:"number"` // unique index
	ClientID          string           `bson:"client_id"`
	InsuranceID       string           `bson:"insurance_id"`
	Status            string           `bson:"status"`
	Frequency         string           `bson:"frequency"`
	StartDate         time.Time        `bson:"start_date"`
	EndDate           time.Time        `bson:"end_date"`
	TotalAmount       string           `bson:"total_amount"`
	InstallmentAmount string           `bson:"installment_amount"`
	SignatureRef      string           `bson:"signature_ref,omitempty"`
	PaymentMethodID   string           `bson:"payment_method_id,omitempty"`
	Beneficiaries     []BeneficiaryDoc `bson:"beneficiaries,omitempty"`
	Attachments       []AttachmentDoc  `bson:"attachments,omitempty"`
	CreatedAt         time.Time        `bson:"created_at"`
	UpdatedAt         time.Time        `bson:"updated_at"`
	DeletedAt         *time.Time       `bson:"deleted_at,omitempty"`
}

func toContractDoc(c core.Contract) ContractDoc {
	doc := ContractDoc{
		ID:                c.ID,
		Number:            c.Number,
		ClientID:          c.ClientID,
		InsuranceID:       c.InsuranceID,
		Status:            string(c.Status),
		Frequency:         string(c.Frequency),
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		TotalAmount:       moneyOut(c.TotalAmount),
		InstallmentAmount: moneyOut(c.InstallmentAmount),
		SignatureRef:      c.SignatureRef,
		PaymentMethodID:   c.PaymentMethodID,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		DeletedAt:         c.DeletedAt,
	}
	for _, b := range c.Beneficiaries {
		doc.Beneficiaries = append(doc.Beneficiaries, BeneficiaryDoc{
			FirstName:  b.FirstName,
			LastName:   b.LastName,
			Relation:   b.Relation,
			Percentage: b.Percentage.String(),
		})
	}
	for _, a := range c.Attachments {
		doc.Attachments = append(doc.Attachments, AttachmentDoc{
			ID:        a.ID,
			Kind:      a.Kind,
			Reference: a.Reference,
			CreatedAt: a.CreatedAt,
		})
	}
	return doc
}

func fromContractDoc(doc ContractDoc) core.Contract {
	c := core.Contract{
		ID:                doc.ID,
		Number:            doc.Number,
		ClientID:          doc.ClientID,
		InsuranceID:       doc.InsuranceID,
		Status:            core.ContractStatus(doc.Status),
		Frequency:         core.Frequency(doc.Frequency),
		StartDate:         doc.StartDate,
		EndDate:           doc.EndDate,
		TotalAmount:       moneyIn(doc.TotalAmount),
		InstallmentAmount: moneyIn(doc.InstallmentAmount),
		SignatureRef:      doc.SignatureRef,
		PaymentMethodID:   doc.PaymentMethodID,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
		DeletedAt:         doc.DeletedAt,
	}
	for _, b := range doc.Beneficiaries {
		c.Beneficiaries = append(c.Beneficiaries, core.Beneficiary{
			FirstName:  b.FirstName,
			LastName:   b.LastName,
			Relation:   b.Relation,
			Percentage: moneyIn(b.Percentage),
		})
	}
	for _, a := range doc.Attachments {
		c.Attachments = append(c.Attachments, core.Attachment{
			ID:        a.ID,
			Kind:      a.Kind,
			Reference: a.Reference,
			CreatedAt: a.CreatedAt,
		})
	}
	return c
}

// Transaction

type TransactionDoc struct {
	ID                   string     `bson:"_id"`
	ContractID           string     `bson:"contract_id"`
	Amount               string     `bson:"amount"`
	Status               string     `bson:"status"`
	RetryCount           int        `bson:"retry_count"`
	NextPaymentDate      time.Time  `bson:"next_payment_date"`
	NextRetryPaymentDate *time.Time `bson:"next_retry_payment_date,omitempty"`
	Version              int64      `bson:"version"`
	CreatedAt            time.Time  `bson:"created_at"`
	UpdatedAt            time.Time  `bson:"updated_at"`
}

func toTransactionDoc(t core.Transaction) TransactionDoc {
	return TransactionDoc{
		ID:                   t.ID,
		ContractID:           t.ContractID,
		Amount:               moneyOut(t.Amount),
		Status:               string(t.Status),
		RetryCount:           t.RetryCount,
		NextPaymentDate:      t.NextPaymentDate,
		NextRetryPaymentDate: t.NextRetryPaymentDate,
		Version:              t.Version,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func fromTransactionDoc(doc TransactionDoc) core.Transaction {
	return core.Transaction{
		ID:                   doc.ID,
		ContractID:           doc.ContractID,
		Amount:               moneyIn(doc.Amount),
		Status:               core.TransactionStatus(doc.Status),
		RetryCount:           doc.RetryCount,
		NextPaymentDate:      doc.NextPaymentDate,
		NextRetryPaymentDate: doc.NextRetryPaymentDate,
		Version:              doc.Version,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
}

// PaymentMethod

type PaymentMethodDoc struct {
	ID        string    `bson:"_id"`
	ClientID  string    `bson:"client_id"`
	Holder    string    `bson:"holder"`
	MaskedPAN string    `bson:"masked_pan,omitempty"`
	Token     string    `bson:"token"`
	Valid     bool      `bson:"valid"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toPaymentMethodDoc(pm core.PaymentMethod) PaymentMethodDoc {
	return PaymentMethodDoc{
		ID:        pm.ID,
		ClientID:  pm.ClientID,
		Holder:    pm.Holder,
		MaskedPAN: pm.MaskedPAN,
		Token:     pm.Token,
		Valid:     pm.Valid,
		CreatedAt: pm.CreatedAt,
		UpdatedAt: pm.UpdatedAt,
	}
}

func fromPaymentMethodDoc(doc PaymentMethodDoc) core.PaymentMethod {
	return core.PaymentMethod{
		ID:        doc.ID,
		ClientID:  doc.ClientID,
		Holder:    doc.Holder,
		MaskedPAN: doc.MaskedPAN,
		Token:     doc.Token,
		Valid:     doc.Valid,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
