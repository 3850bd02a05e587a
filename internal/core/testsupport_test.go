package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDec(t interface{ Fatalf(string, ...any) }, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---- in-memory repositories ----

type memContractRepo struct {
	mu        sync.Mutex
	contracts map[string]Contract
	txns      *memTransactionRepo
	seq       int
	statusErr error
}

func newMemContractRepo(txns *memTransactionRepo) *memContractRepo {
	return &memContractRepo{contracts: map[string]Contract{}, txns: txns}
}

func (r *memContractRepo) Create(_ context.Context, c Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[c.ID]; ok {
		return ErrContractExists
	}
	r.contracts[c.ID] = c
	return nil
}

func (r *memContractRepo) Get(_ context.Context, id string) (Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok || c.DeletedAt != nil {
		return Contract{}, ErrContractNotFound
	}
	return c, nil
}

func (r *memContractRepo) GetWithTransactions(ctx context.Context, id string) (ContractWithTransactions, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return ContractWithTransactions{}, err
	}
	txns, err := r.txns.ListByContract(ctx, id)
	if err != nil {
		return ContractWithTransactions{}, err
	}
	return ContractWithTransactions{Contract: c, Transactions: txns}, nil
}

func (r *memContractRepo) Update(_ context.Context, c Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[c.ID]; !ok {
		return ErrContractNotFound
	}
	r.contracts[c.ID] = c
	return nil
}

func (r *memContractRepo) UpdateStatus(_ context.Context, id string, status ContractStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusErr != nil {
		return r.statusErr
	}
	c, ok := r.contracts[id]
	if !ok {
		return ErrContractNotFound
	}
	c.Status = status
	c.UpdatedAt = updatedAt
	r.contracts[id] = c
	return nil
}

func (r *memContractRepo) SoftDelete(_ context.Context, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok {
		return ErrContractNotFound
	}
	c.DeletedAt = &deletedAt
	r.contracts[id] = c
	return nil
}

func (r *memContractRepo) List(_ context.Context, filter ContractFilter, limit, offset int) ([]Contract, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Contract
	for _, c := range r.contracts {
		if c.DeletedAt != nil {
			continue
		}
		if filter.ClientID != "" && c.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *memContractRepo) ExpireContracts(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.contracts {
		if c.Status == ContractStatusActive && c.EndDate.Before(before) {
			c.Status = ContractStatusExpired
			r.contracts[id] = c
			n++
		}
	}
	return n, nil
}

func (r *memContractRepo) NextContractNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("CT-2026-%06d", r.seq), nil
}

type memTransactionRepo struct {
	mu        sync.Mutex
	txns      map[string]Transaction
	bulkErr   error
	updateErr map[string]error // forced per-transaction update failures
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{txns: map[string]Transaction{}, updateErr: map[string]error{}}
}

func (r *memTransactionRepo) BulkCreate(_ context.Context, txns []Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bulkErr != nil {
		return r.bulkErr
	}
	for _, txn := range txns {
		r.txns[txn.ID] = txn
	}
	return nil
}

func (r *memTransactionRepo) Get(_ context.Context, id string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return txn, nil
}

func (r *memTransactionRepo) Update(_ context.Context, txn Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateErr[txn.ID]; err != nil {
		return err
	}
	stored, ok := r.txns[txn.ID]
	if !ok {
		return ErrTransactionNotFound
	}
	if stored.Version != txn.Version {
		return ErrTransactionConflict
	}
	txn.Version++
	r.txns[txn.ID] = txn
	return nil
}

func (r *memTransactionRepo) ListByContract(_ context.Context, contractID string) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Transaction
	for _, txn := range r.txns {
		if txn.ContractID == contractID {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextPaymentDate.Before(out[j].NextPaymentDate) })
	return out, nil
}

func (r *memTransactionRepo) DeleteByContract(_ context.Context, contractID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, txn := range r.txns {
		if txn.ContractID == contractID {
			delete(r.txns, id)
			n++
		}
	}
	return n, nil
}

func (r *memTransactionRepo) FindDue(_ context.Context, asOf time.Time, maxRetry int, limit int) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Transaction
	for _, txn := range r.txns {
		switch txn.Status {
		case TransactionStatusPending:
		case TransactionStatusFailed, TransactionStatusInRetry:
			if txn.RetryCount >= maxRetry {
				continue
			}
			if txn.NextRetryPaymentDate != nil && txn.NextRetryPaymentDate.After(asOf) {
				continue
			}
		default:
			continue
		}
		out = append(out, txn)
		if len(out) == limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memInsuranceRepo struct {
	mu    sync.Mutex
	byID  map[string]Insurance
	slugs map[string]string
}

func newMemInsuranceRepo(list ...Insurance) *memInsuranceRepo {
	r := &memInsuranceRepo{byID: map[string]Insurance{}, slugs: map[string]string{}}
	for _, ins := range list {
		r.byID[ins.ID] = ins
		r.slugs[ins.Slug] = ins.ID
	}
	return r
}

func (r *memInsuranceRepo) List(_ context.Context) ([]Insurance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Insurance
	for _, ins := range r.byID {
		out = append(out, ins)
	}
	return out, nil
}

func (r *memInsuranceRepo) GetByID(_ context.Context, id string) (Insurance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ins, ok := r.byID[id]
	if !ok {
		return Insurance{}, ErrInsuranceNotFound
	}
	return ins, nil
}

func (r *memInsuranceRepo) GetBySlug(_ context.Context, slug string) (Insurance, error) {
	r.mu.Lock()
	id, ok := r.slugs[slug]
	r.mu.Unlock()
	if !ok {
		return Insurance{}, ErrInsuranceNotFound
	}
	return r.GetByID(context.Background(), id)
}

func (r *memInsuranceRepo) UpsertBySlug(_ context.Context, ins Insurance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ins.ID] = ins
	r.slugs[ins.Slug] = ins.ID
	return nil
}

type memPaymentMethodRepo struct {
	mu      sync.Mutex
	methods map[string]PaymentMethod
}

func newMemPaymentMethodRepo(list ...PaymentMethod) *memPaymentMethodRepo {
	r := &memPaymentMethodRepo{methods: map[string]PaymentMethod{}}
	for _, pm := range list {
		r.methods[pm.ID] = pm
	}
	return r
}

func (r *memPaymentMethodRepo) Create(_ context.Context, pm PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[pm.ID] = pm
	return nil
}

func (r *memPaymentMethodRepo) Get(_ context.Context, id string) (PaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pm, ok := r.methods[id]
	if !ok {
		return PaymentMethod{}, ErrPaymentMethodNotFound
	}
	return pm, nil
}

func (r *memPaymentMethodRepo) Update(_ context.Context, pm PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[pm.ID]; !ok {
		return ErrPaymentMethodNotFound
	}
	r.methods[pm.ID] = pm
	return nil
}

// scriptedProcessor returns charge outcomes in order, then repeats the last.
type scriptedProcessor struct {
	mu       sync.Mutex
	outcomes []error
	calls    int
}

func (p *scriptedProcessor) Charge(_ context.Context, _ PaymentMethod, _ decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.outcomes) == 0 {
		return nil
	}
	out := p.outcomes[0]
	if len(p.outcomes) > 1 {
		p.outcomes = p.outcomes[1:]
	}
	return out
}

type staticSigner struct{ ref string }

func (s staticSigner) Sign(_ context.Context, _ []byte) (string, error) {
	return s.ref, nil
}
