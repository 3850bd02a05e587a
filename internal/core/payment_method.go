package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is a stored charge instrument. Valid=false short-circuits
// dunning charges without calling the processor.
type PaymentMethod struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Holder    string    `json:"holder"`
	MaskedPAN string    `json:"masked_pan,omitempty"`
	Token     string    `json:"-"` // processor token, never serialized out
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaymentMethodRepo interface {
	Create(ctx context.Context, pm PaymentMethod) error
	Get(ctx context.Context, id string) (PaymentMethod, error)
	Update(ctx context.Context, pm PaymentMethod) error
}

// PaymentMethodInput carries instrument details captured at contract
// confirmation.
type PaymentMethodInput struct {
	Holder    string `json:"holder"`
	MaskedPAN string `json:"masked_pan,omitempty"`
	Token     string `json:"token"`
}

func (in PaymentMethodInput) Validate() error {
	if in.Holder == "" {
		return fmt.Errorf("%w: payment method holder is required", ErrValidation)
	}
	if in.Token == "" {
		return fmt.Errorf("%w: payment method token is required", ErrValidation)
	}
	return nil
}

// PaymentProcessor settles a single installment against an external gateway.
// Any error, including timeouts, is treated by callers as a declined charge.
type PaymentProcessor interface {
	Charge(ctx context.Context, method PaymentMethod, amount decimal.Decimal) error
}

// Signer is the external e-signature capability used at contract
// confirmation. It returns an opaque signature reference.
type Signer interface {
	Sign(ctx context.Context, data []byte) (string, error)
}

var (
	ErrPaymentMethodNotFound = fmt.Errorf("%w: payment method not found", ErrNotFound)
	ErrPaymentDeclined       = fmt.Errorf("%w: payment declined", ErrExternal)
)
