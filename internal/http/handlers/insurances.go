package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
	"github.com/christopherpaucar/life-insurance-back-sub000/pkg/problem"
)

type InsuranceHandler struct {
	Repo core.InsuranceRepo
	Log  *slog.Logger
}

func NewInsuranceHandler(repo core.InsuranceRepo, log *slog.Logger) *InsuranceHandler {
	return &InsuranceHandler{Repo: repo, Log: log}
}

func (h *InsuranceHandler) Mount(r chi.Router) {
	r.Route("/insurances", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{slug}", h.GetBySlug)
	})
}

// List returns the product catalog.
// 200: JSON; 500: internal error.
func (h *InsuranceHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list insurances")
		return
	}

	// Return empty array instead of null
	if list == nil {
		list = []core.Insurance{}
	}

	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.Log.Error("failed to encode insurances", "err", err)
	}
}

// GetBySlug retrieves one catalog product with its prices, coverages and benefits.
// 200: JSON; 400: missing slug; 404: not found; 500: internal error.
func (h *InsuranceHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		problem.Write(w, http.StatusBadRequest, CodeValidation, "Missing Slug", "Path parameter slug is required.")
		return
	}

	ins, err := h.Repo.GetBySlug(r.Context(), slug)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get insurance")
		return
	}

	if err := json.NewEncoder(w).Encode(ins); err != nil {
		h.Log.Error("failed to encode insurance", "slug", slug, "err", err)
	}
}
