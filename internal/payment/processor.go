// Package payment integrates the external payment gateway used to settle
// contract installments.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

// Processor charges stored payment methods through an HTTP gateway. It
// implements core.PaymentProcessor.
type Processor struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

func NewProcessor(endpoint string, timeout time.Duration, log *slog.Logger) *Processor {
	return &Processor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

type chargeRequest struct {
	Token    string `json:"token"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type chargeResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (p *Processor) Charge(ctx context.Context, method core.PaymentMethod, amount decimal.Decimal) error {
	body, err := json.Marshal(chargeRequest{
		Token:    method.Token,
		Amount:   amount.StringFixed(2),
		Currency: "USD",
	})
	if err != nil {
		return fmt.Errorf("encode charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/charges", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: gateway unreachable: %v", core.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: gateway returned %d", core.ErrExternal, resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return fmt.Errorf("%w: decode gateway response: %v", core.ErrExternal, err)
	}

	if resp.StatusCode != http.StatusOK || out.Status != "approved" {
		p.log.Info("charge declined",
			"payment_method_id", method.ID,
			"amount", amount.StringFixed(2),
			"reason", out.Reason,
		)
		return core.ErrPaymentDeclined
	}

	return nil
}
