package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
	"github.com/christopherpaucar/life-insurance-back-sub000/pkg/problem"
)

type ContractHandler struct {
	Svc core.ContractService
	Log *slog.Logger
}

func NewContractHandler(svc core.ContractService, log *slog.Logger) *ContractHandler {
	return &ContractHandler{Svc: svc, Log: log}
}

func (h *ContractHandler) Mount(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{contract_id}", h.Get)
		r.Patch("/{contract_id}", h.Patch)
		r.Delete("/{contract_id}", h.Delete)
		r.Post("/{contract_id}:activate", h.Activate)
		r.Post("/{contract_id}:confirm", h.Confirm)
		r.Post("/{contract_id}:status", h.ChangeStatus)
	})
}

// Create registers a new draft contract.
// 201: JSON; 400: bad JSON/validation; 404: insurance not found; 500: internal error.
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in core.ContractInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Invalid JSON", "Body could not be decoded.")
		return
	}

	c, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode contract", "err", err)
	}
}

// Get retrieves a contract with its payment schedule.
// 200: JSON; 400: missing ID; 404: not found; 500: internal error.
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contract_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Contract ID", "Path parameter contract_id is required.")
		return
	}

	c, err := h.Svc.GetWithTransactions(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get contract")
		return
	}

	if c.Transactions == nil {
		c.Transactions = []core.Transaction{}
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode contract", "contract_id", id, "err", err)
	}
}

// List returns contracts with optional filtering and pagination.
// 200: JSON; 500: internal error.
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := core.ContractFilter{
		ClientID: r.URL.Query().Get("client_id"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = core.ContractStatus(status)
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	contracts, total, err := h.Svc.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list contracts")
		return
	}

	// Return empty array instead of null
	if contracts == nil {
		contracts = []core.Contract{}
	}

	response := map[string]interface{}{
		"items":  contracts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Log.Error("failed to encode contracts", "err", err)
	}
}

// Patch edits a contract that has not been activated yet.
// 200: JSON; 400: bad JSON/validation; 404: not found; 409: active or terminal; 500: internal error.
func (h *ContractHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contract_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Contract ID", "Path parameter contract_id is required.")
		return
	}

	var patch core.ContractPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Invalid JSON", "Body could not be decoded.")
		return
	}

	c, err := h.Svc.Update(r.Context(), id, patch)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode contract", "contract_id", id, "err", err)
	}
}

// Delete soft-deletes a draft contract and its schedule.
// 204: removed; 400: missing ID; 404: not found; 409: not a draft; 500: internal error.
func (h *ContractHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contract_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Contract ID", "Path parameter contract_id is required.")
		return
	}

	if err := h.Svc.Remove(r.Context(), id); err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Activate prices the contract and generates its payment schedule.
// 200: JSON; 400: missing ID; 404: not found or unpriced frequency; 409: wrong status; 500: internal error.
func (h *ContractHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contract_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Contract ID", "Path parameter contract_id is required.")
		return
	}

	c, err := h.Svc.Activate(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode contract", "contract_id", id, "err", err)
	}
}

// Confirm records the signed agreement plus payment method and activates the contract.
// 200: JSON; 400: bad JSON/validation; 404: not found; 409: not awaiting confirmation; 502: signature provider failure; 500: internal error.
func (h *ContractHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contract_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Contract ID", "Path parameter contract_id is required.")
		return
	}

	var in core.ConfirmationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Invalid JSON", "Body could not be decoded.")
		return
	}

	c, err := h.Svc.ConfirmActivation(r.Context(), id, in)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode contract", "contract_id", id, "err", err)
	}
}

type statusChangeRequest struct {
	Status string `json:"status"`
}

// ChangeStatus applies an explicit lifecycle transition.
// 200: JSON; 400: bad JSON/missing status; 404: not found; 409: transition not allowed; 500: internal error.
func (h *ContractHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contract_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Contract ID", "Path parameter contract_id is required.")
		return
	}

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Invalid JSON", "Body could not be decoded.")
		return
	}
	if req.Status == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Status", "Field status is required.")
		return
	}

	c, err := h.Svc.ChangeStatus(r.Context(), id, core.ContractStatus(req.Status))
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode contract", "contract_id", id, "err", err)
	}
}
