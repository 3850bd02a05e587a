package payment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

// Simulated approves every charge except tokens carrying a "decline" marker.
// Used in development when no gateway endpoint is configured.
type Simulated struct {
	log *slog.Logger
}

func NewSimulated(log *slog.Logger) *Simulated {
	return &Simulated{log: log}
}

func (s *Simulated) Charge(_ context.Context, method core.PaymentMethod, amount decimal.Decimal) error {
	if strings.Contains(method.Token, "decline") {
		s.log.Info("simulated charge declined",
			"payment_method_id", method.ID,
			"amount", amount.StringFixed(2),
		)
		return core.ErrPaymentDeclined
	}

	s.log.Info("simulated charge approved",
		"payment_method_id", method.ID,
		"amount", amount.StringFixed(2),
	)
	return nil
}
