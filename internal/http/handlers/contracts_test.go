package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

// stubContractService returns canned results so the tests can focus on
// routing, decoding and error mapping.
type stubContractService struct {
	contract core.Contract
	err      error
}

func (s *stubContractService) Create(_ context.Context, in core.ContractInput) (core.Contract, error) {
	if s.err != nil {
		return core.Contract{}, s.err
	}
	c := s.contract
	c.ClientID = in.ClientID
	c.InsuranceID = in.InsuranceID
	return c, nil
}

func (s *stubContractService) Get(context.Context, string) (core.Contract, error) {
	return s.contract, s.err
}

func (s *stubContractService) GetWithTransactions(context.Context, string) (core.ContractWithTransactions, error) {
	if s.err != nil {
		return core.ContractWithTransactions{}, s.err
	}
	return core.ContractWithTransactions{Contract: s.contract}, nil
}

func (s *stubContractService) List(context.Context, core.ContractFilter, int, int) ([]core.Contract, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return nil, 0, nil
}

func (s *stubContractService) Activate(context.Context, string) (core.Contract, error) {
	return s.contract, s.err
}

func (s *stubContractService) ConfirmActivation(context.Context, string, core.ConfirmationInput) (core.Contract, error) {
	return s.contract, s.err
}

func (s *stubContractService) ChangeStatus(context.Context, string, core.ContractStatus) (core.Contract, error) {
	return s.contract, s.err
}

func (s *stubContractService) Update(context.Context, string, core.ContractPatch) (core.Contract, error) {
	return s.contract, s.err
}

func (s *stubContractService) Remove(context.Context, string) error {
	return s.err
}

func newTestRouter(svc core.ContractService) http.Handler {
	r := chi.NewRouter()
	NewContractHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Mount(r)
	return r
}

func TestCreateContractReturnsCreated(t *testing.T) {
	svc := &stubContractService{contract: core.Contract{ID: "c-1", Number: "CT-2026-000001", Status: core.ContractStatusDraft}}
	body := `{"client_id":"cl-1","insurance_id":"ins-1","frequency":"monthly","start_date":"2026-01-01T00:00:00Z","end_date":"2027-01-01T00:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var got core.Contract
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Number != "CT-2026-000001" || got.ClientID != "cl-1" {
		t.Fatalf("unexpected contract: %+v", got)
	}
}

func TestCreateContractRejectsBadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	newTestRouter(&stubContractService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetContractIncludesEmptyTransactions(t *testing.T) {
	svc := &stubContractService{contract: core.Contract{ID: "c-1", Status: core.ContractStatusActive}}

	req := httptest.NewRequest(http.MethodGet, "/contracts/c-1", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	// The schedule must serialize as [] rather than null.
	if !strings.Contains(rec.Body.String(), `"transactions":[]`) {
		t.Fatalf("expected empty transactions array, body: %s", rec.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", core.ErrContractNotFound, http.StatusNotFound, CodeNotFound},
		{"validation", fmt.Errorf("%w: end date before start date", core.ErrValidation), http.StatusBadRequest, CodeValidation},
		{"invalid state", fmt.Errorf("%w: contract is active", core.ErrInvalidState), http.StatusConflict, CodeInvalidState},
		{"version conflict", core.ErrTransactionConflict, http.StatusConflict, CodeConflict},
		{"gateway down", fmt.Errorf("%w: charge: connection refused", core.ErrExternal), http.StatusBadGateway, CodeExternalFailure},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubContractService{err: tc.err}
			req := httptest.NewRequest(http.MethodGet, "/contracts/c-1", nil)
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var p struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
				t.Fatalf("decode problem: %v", err)
			}
			if p.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", p.Code, tc.wantCode)
			}
		})
	}
}

func TestActivateRoute(t *testing.T) {
	svc := &stubContractService{contract: core.Contract{ID: "c-1", Status: core.ContractStatusAwaitingConfirmation}}

	req := httptest.NewRequest(http.MethodPost, "/contracts/c-1:activate", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got core.Contract
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != core.ContractStatusAwaitingConfirmation {
		t.Fatalf("status = %q, want %q", got.Status, core.ContractStatusAwaitingConfirmation)
	}
}

func TestChangeStatusRequiresStatusField(t *testing.T) {
	svc := &stubContractService{contract: core.Contract{ID: "c-1"}}

	req := httptest.NewRequest(http.MethodPost, "/contracts/c-1:status", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestDeleteContract(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/contracts/c-1", nil)
	rec := httptest.NewRecorder()
	newTestRouter(&stubContractService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}
