package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusDraft                ContractStatus = "draft"
	ContractStatusPendingBasicDocs     ContractStatus = "pending_basic_documents"
	ContractStatusAwaitingConfirmation ContractStatus = "awaiting_client_confirmation"
	ContractStatusActive               ContractStatus = "active"
	ContractStatusExpired              ContractStatus = "expired"
	ContractStatusCancelled            ContractStatus = "cancelled"
	ContractStatusInactive             ContractStatus = "inactive"
)

// IsTerminal reports whether no further transitions are allowed.
func (s ContractStatus) IsTerminal() bool {
	switch s {
	case ContractStatusExpired, ContractStatusCancelled, ContractStatusInactive:
		return true
	}
	return false
}

// CanTransitionTo checks if a status transition is valid.
func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	transitions := map[ContractStatus][]ContractStatus{
		ContractStatusDraft:                {ContractStatusPendingBasicDocs, ContractStatusAwaitingConfirmation, ContractStatusCancelled},
		ContractStatusPendingBasicDocs:     {ContractStatusAwaitingConfirmation, ContractStatusCancelled},
		ContractStatusAwaitingConfirmation: {ContractStatusActive, ContractStatusCancelled},
		ContractStatusActive:               {ContractStatusExpired, ContractStatusCancelled, ContractStatusInactive},
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Beneficiary is a payout recipient declared on a contract. Allocation
// percentages are not required to sum to 100 at this layer.
type Beneficiary struct {
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Relation   string          `json:"relation,omitempty"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Attachment is a document stored against a contract (e.g. the signed
// agreement). Content lives in the external file store; only the reference is
// kept here.
type Attachment struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

const AttachmentKindSignedAgreement = "signed_agreement"

// Contract is a client's purchase of one insurance product. TotalAmount and
// InstallmentAmount are zero until activation pricing has run.
type Contract struct {
	ID                string          `json:"id"`
	Number            string          `json:"number"` // Human-readable (e.g. CT-2026-000001)
	ClientID          string          `json:"client_id"`
	InsuranceID       string          `json:"insurance_id"`
	Status            ContractStatus  `json:"status"`
	Frequency         Frequency       `json:"frequency"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	SignatureRef      string          `json:"signature_ref,omitempty"`
	PaymentMethodID   string          `json:"payment_method_id,omitempty"`
	Beneficiaries     []Beneficiary   `json:"beneficiaries,omitempty"`
	Attachments       []Attachment    `json:"attachments,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
}

// ContractWithTransactions is the fully-populated aggregate shape required by
// schedule regeneration and reporting. No lazy loading.
type ContractWithTransactions struct {
	Contract
	Transactions []Transaction `json:"transactions"`
}

type ContractFilter struct {
	ClientID string
	Status   ContractStatus
}

type ContractRepo interface {
	Create(ctx context.Context, c Contract) error
	Get(ctx context.Context, id string) (Contract, error)
	GetWithTransactions(ctx context.Context, id string) (ContractWithTransactions, error)
	Update(ctx context.Context, c Contract) error
	UpdateStatus(ctx context.Context, id string, status ContractStatus, updatedAt time.Time) error
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
	List(ctx context.Context, filter ContractFilter, limit, offset int) ([]Contract, int64, error)
	// ExpireContracts marks active contracts whose end date is before the
	// given instant as expired, returning how many were updated.
	ExpireContracts(ctx context.Context, before time.Time) (int64, error)
	NextContractNumber(ctx context.Context) (string, error)
}

var (
	ErrContractNotFound      = fmt.Errorf("%w: contract not found", ErrNotFound)
	ErrContractExists        = fmt.Errorf("%w: contract already exists", ErrConflict)
	ErrContractActive        = fmt.Errorf("%w: active contracts cannot be edited", ErrInvalidState)
	ErrContractNotDraft      = fmt.Errorf("%w: contract is not in draft status", ErrInvalidState)
	ErrContractNotConfirming = fmt.Errorf("%w: contract is not awaiting client confirmation", ErrInvalidState)
	ErrContractTerminal      = fmt.Errorf("%w: contract is in a terminal status", ErrInvalidState)
)
