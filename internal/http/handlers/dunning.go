package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
	"github.com/christopherpaucar/life-insurance-back-sub000/pkg/problem"
)

// DunningHandler exposes a manual trigger for a dunning pass, mainly for
// operations and testing; the background worker covers the steady state.
type DunningHandler struct {
	Engine core.DunningEngine
	Log    *slog.Logger
}

func NewDunningHandler(engine core.DunningEngine, log *slog.Logger) *DunningHandler {
	return &DunningHandler{Engine: engine, Log: log}
}

func (h *DunningHandler) Mount(r chi.Router) {
	r.Post("/dunning:run", h.Run)
}

// Run executes one dunning pass immediately.
// 200: JSON report; 400: bad as_of; 409: a pass is already running; 500: internal error.
func (h *DunningHandler) Run(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			problem.Write(w, http.StatusBadRequest, CodeValidation, "Invalid as_of", "Query parameter as_of must be RFC 3339.")
			return
		}
		asOf = parsed.UTC()
	}

	report, err := h.Engine.Process(r.Context(), asOf)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.Log.Error("failed to encode dunning report", "err", err)
	}
}
