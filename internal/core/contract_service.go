package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/ids"
)

// ContractInput creates a contract in draft.
type ContractInput struct {
	ClientID      string        `json:"client_id"`
	InsuranceID   string        `json:"insurance_id"`
	Frequency     string        `json:"frequency"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `json:"end_date"`
	Beneficiaries []Beneficiary `json:"beneficiaries,omitempty"`
}

// ContractPatch edits a contract that is not yet active. Nil fields are left
// untouched.
type ContractPatch struct {
	Frequency     *string        `json:"frequency,omitempty"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	Beneficiaries *[]Beneficiary `json:"beneficiaries,omitempty"`
}

// ConfirmationInput carries the signed agreement and the charge instrument
// captured when the client confirms activation.
type ConfirmationInput struct {
	// SignedDocument is the base64-encoded signed agreement.
	SignedDocument string             `json:"signed_document"`
	PaymentMethod  PaymentMethodInput `json:"payment_method"`
}

func (in ContractInput) Validate() error {
	if in.ClientID == "" {
		return fmt.Errorf("%w: client_id is required", ErrValidation)
	}
	if in.InsuranceID == "" {
		return fmt.Errorf("%w: insurance_id is required", ErrValidation)
	}
	if _, err := ParseFrequency(in.Frequency); err != nil {
		return err
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if !in.EndDate.After(in.StartDate) {
		return fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}
	return nil
}

func (in ConfirmationInput) Validate() error {
	if in.SignedDocument == "" {
		return fmt.Errorf("%w: signed_document is required", ErrValidation)
	}
	if _, err := base64.StdEncoding.DecodeString(in.SignedDocument); err != nil {
		return fmt.Errorf("%w: signed_document must be base64", ErrValidation)
	}
	return in.PaymentMethod.Validate()
}

// ContractService orchestrates the contract lifecycle, invoking pricing and
// schedule generation at the right transitions.
type ContractService interface {
	Create(ctx context.Context, in ContractInput) (Contract, error)
	Get(ctx context.Context, id string) (Contract, error)
	GetWithTransactions(ctx context.Context, id string) (ContractWithTransactions, error)
	List(ctx context.Context, filter ContractFilter, limit, offset int) ([]Contract, int64, error)

	// Activate prices the contract for its frequency, generates the payment
	// schedule and moves it to awaiting_client_confirmation.
	Activate(ctx context.Context, id string) (Contract, error)

	// ConfirmActivation stores the payment method and signed agreement and
	// moves the contract to active.
	ConfirmActivation(ctx context.Context, id string, in ConfirmationInput) (Contract, error)

	// ChangeStatus applies an explicit status transition. Moving to active is
	// only permitted from awaiting_client_confirmation.
	ChangeStatus(ctx context.Context, id string, target ContractStatus) (Contract, error)

	// Update edits a non-active contract; frequency or date changes re-price
	// and regenerate the schedule.
	Update(ctx context.Context, id string, patch ContractPatch) (Contract, error)

	// Remove soft-deletes a draft contract along with its schedule.
	Remove(ctx context.Context, id string) error
}

type contractService struct {
	contracts  ContractRepo
	insurances InsuranceRepo
	methods    PaymentMethodRepo
	schedule   ScheduleGenerator
	signer     Signer
	clients    ClientDirectory // optional, best-effort
	log        *slog.Logger
	clock      func() time.Time
}

func NewContractService(
	contracts ContractRepo,
	insurances InsuranceRepo,
	methods PaymentMethodRepo,
	schedule ScheduleGenerator,
	signer Signer,
	clients ClientDirectory,
	log *slog.Logger,
) ContractService {
	return &contractService{
		contracts:  contracts,
		insurances: insurances,
		methods:    methods,
		schedule:   schedule,
		signer:     signer,
		clients:    clients,
		log:        log,
		clock:      time.Now,
	}
}

func (s *contractService) Create(ctx context.Context, in ContractInput) (Contract, error) {
	if err := in.Validate(); err != nil {
		return Contract{}, err
	}

	// The referenced insurance must exist; pricing happens at activation.
	if _, err := s.insurances.GetByID(ctx, in.InsuranceID); err != nil {
		return Contract{}, err
	}

	number, err := s.contracts.NextContractNumber(ctx)
	if err != nil {
		return Contract{}, fmt.Errorf("generate contract number: %w", err)
	}

	now := s.clock()
	freq, _ := ParseFrequency(in.Frequency)
	c := Contract{
		ID:            ids.New(),
		Number:        number,
		ClientID:      in.ClientID,
		InsuranceID:   in.InsuranceID,
		Status:        ContractStatusDraft,
		Frequency:     freq,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		TotalAmount:   decimal.Zero,
		Beneficiaries: in.Beneficiaries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.contracts.Create(ctx, c); err != nil {
		return Contract{}, err
	}

	// Client auto-provisioning is an ancillary side effect; its failure never
	// aborts contract creation.
	if s.clients != nil {
		runBestEffort(ctx, s.log, "client_provisioning", func(ctx context.Context) error {
			return s.clients.EnsureClient(ctx, c.ClientID)
		})
	}

	s.log.Info("contract created", "contract_id", c.ID, "number", c.Number)
	return c, nil
}

func (s *contractService) Get(ctx context.Context, id string) (Contract, error) {
	if id == "" {
		return Contract{}, fmt.Errorf("%w: missing contract ID", ErrValidation)
	}
	return s.contracts.Get(ctx, id)
}

func (s *contractService) GetWithTransactions(ctx context.Context, id string) (ContractWithTransactions, error) {
	if id == "" {
		return ContractWithTransactions{}, fmt.Errorf("%w: missing contract ID", ErrValidation)
	}
	return s.contracts.GetWithTransactions(ctx, id)
}

func (s *contractService) List(ctx context.Context, filter ContractFilter, limit, offset int) ([]Contract, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.contracts.List(ctx, filter, limit, offset)
}

func (s *contractService) Activate(ctx context.Context, id string) (Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contract{}, err
	}

	if c.Status == ContractStatusActive {
		return Contract{}, fmt.Errorf("%w: contract %s is already active", ErrInvalidState, c.ID)
	}
	if !c.Status.CanTransitionTo(ContractStatusAwaitingConfirmation) {
		return Contract{}, fmt.Errorf("%w: cannot activate contract in status %s", ErrInvalidState, c.Status)
	}

	priced, err := s.price(ctx, c)
	if err != nil {
		return Contract{}, err
	}

	priced.Status = ContractStatusAwaitingConfirmation
	priced.UpdatedAt = s.clock()
	if err := s.contracts.Update(ctx, priced); err != nil {
		return Contract{}, err
	}

	// Regenerate rather than generate: a prior activation attempt may have
	// left a schedule behind.
	if _, err := s.schedule.Regenerate(ctx, priced); err != nil {
		return Contract{}, err
	}

	s.log.Info("contract activated, awaiting client confirmation",
		"contract_id", priced.ID,
		"total", priced.TotalAmount.StringFixed(2),
		"installment", priced.InstallmentAmount.StringFixed(2),
	)
	return priced, nil
}

// price computes and sets the contract total for its frequency and dates.
func (s *contractService) price(ctx context.Context, c Contract) (Contract, error) {
	ins, err := s.insurances.GetByID(ctx, c.InsuranceID)
	if err != nil {
		return Contract{}, err
	}

	base, err := ins.PriceFor(c.Frequency)
	if err != nil {
		return Contract{}, err
	}

	c.TotalAmount = ComputeTotalPrice(base, ins.Coverages, ins.Benefits, c.Frequency, c.StartDate, c.EndDate)
	c.InstallmentAmount = InstallmentAmount(c)
	return c, nil
}

func (s *contractService) ConfirmActivation(ctx context.Context, id string, in ConfirmationInput) (Contract, error) {
	if err := in.Validate(); err != nil {
		return Contract{}, err
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	if c.Status != ContractStatusAwaitingConfirmation {
		return Contract{}, ErrContractNotConfirming
	}

	now := s.clock()

	pm := PaymentMethod{
		ID:        ids.New(),
		ClientID:  c.ClientID,
		Holder:    in.PaymentMethod.Holder,
		MaskedPAN: in.PaymentMethod.MaskedPAN,
		Token:     in.PaymentMethod.Token,
		Valid:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.methods.Create(ctx, pm); err != nil {
		return Contract{}, fmt.Errorf("persist payment method: %w", err)
	}

	doc, _ := base64.StdEncoding.DecodeString(in.SignedDocument)
	sigRef, err := s.signer.Sign(ctx, doc)
	if err != nil {
		return Contract{}, fmt.Errorf("%w: sign agreement: %v", ErrExternal, err)
	}

	c.PaymentMethodID = pm.ID
	c.SignatureRef = sigRef
	c.Attachments = append(c.Attachments, Attachment{
		ID:        ids.New(),
		Kind:      AttachmentKindSignedAgreement,
		Reference: sigRef,
		CreatedAt: now,
	})
	c.Status = ContractStatusActive
	c.UpdatedAt = now

	if err := s.contracts.Update(ctx, c); err != nil {
		return Contract{}, err
	}

	s.log.Info("contract confirmed and active",
		"contract_id", c.ID,
		"payment_method_id", pm.ID,
	)
	return c, nil
}

func (s *contractService) ChangeStatus(ctx context.Context, id string, target ContractStatus) (Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contract{}, err
	}

	if target == ContractStatusActive && c.Status != ContractStatusAwaitingConfirmation {
		return Contract{}, ErrContractNotConfirming
	}
	if !c.Status.CanTransitionTo(target) {
		return Contract{}, fmt.Errorf("%w: %s -> %s", ErrInvalidState, c.Status, target)
	}

	if err := s.contracts.UpdateStatus(ctx, c.ID, target, s.clock()); err != nil {
		return Contract{}, err
	}
	c.Status = target
	return c, nil
}

func (s *contractService) Update(ctx context.Context, id string, patch ContractPatch) (Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contract{}, err
	}

	// Active contracts are immutable to generic edits; terminal ones too.
	if c.Status == ContractStatusActive {
		return Contract{}, ErrContractActive
	}
	if c.Status.IsTerminal() {
		return Contract{}, ErrContractTerminal
	}

	billingChanged := false
	if patch.Frequency != nil {
		freq, err := ParseFrequency(*patch.Frequency)
		if err != nil {
			return Contract{}, err
		}
		if freq != c.Frequency {
			c.Frequency = freq
			billingChanged = true
		}
	}
	if patch.StartDate != nil && !patch.StartDate.Equal(c.StartDate) {
		c.StartDate = *patch.StartDate
		billingChanged = true
	}
	if patch.EndDate != nil && !patch.EndDate.Equal(c.EndDate) {
		c.EndDate = *patch.EndDate
		billingChanged = true
	}
	if patch.Beneficiaries != nil {
		c.Beneficiaries = *patch.Beneficiaries
	}

	if !c.EndDate.After(c.StartDate) {
		return Contract{}, fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}

	if billingChanged && !c.TotalAmount.IsZero() {
		// Already priced: the total and the schedule are both stale.
		if c, err = s.price(ctx, c); err != nil {
			return Contract{}, err
		}
	}

	c.UpdatedAt = s.clock()
	if err := s.contracts.Update(ctx, c); err != nil {
		return Contract{}, err
	}

	if billingChanged && !c.TotalAmount.IsZero() {
		if _, err := s.schedule.Regenerate(ctx, c); err != nil {
			return Contract{}, err
		}
	}

	return c, nil
}

func (s *contractService) Remove(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != ContractStatusDraft {
		return ErrContractNotDraft
	}

	// Transactions cascade with the contract; nothing should reference a
	// removed draft's schedule.
	if _, err := s.schedule.Discard(ctx, c.ID); err != nil {
		return err
	}

	return s.contracts.SoftDelete(ctx, id, s.clock())
}
