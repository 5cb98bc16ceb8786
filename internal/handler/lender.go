package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"loanquote/internal/models"
	"loanquote/internal/repository"
)

// Reloader is implemented by repositories that cache their documents.
type Reloader interface {
	Reload(ctx context.Context) ([]models.LenderConfig, error)
}

// LenderHandler handles lender endpoints.
type LenderHandler struct {
	repo repository.LenderRepository
}

// NewLenderHandler creates a new lender handler.
func NewLenderHandler(repo repository.LenderRepository) *LenderHandler {
	return &LenderHandler{repo: repo}
}

// LenderSummary is the list view of one lender.
type LenderSummary struct {
	BankName      string   `json:"bank_name"`
	TargetRegions []string `json:"target_regions"`
	LTVSteps      []int    `json:"ltv_steps"`
	Conditions    []string `json:"conditions"`
}

func summarize(configs []models.LenderConfig) []LenderSummary {
	out := make([]LenderSummary, len(configs))
	for i, cfg := range configs {
		out[i] = LenderSummary{
			BankName:      cfg.BankName,
			TargetRegions: cfg.TargetRegions,
			LTVSteps:      cfg.Steps(),
			Conditions:    cfg.Conditions,
		}
	}
	return out
}

// List returns the loaded lenders.
// GET /api/v1/lenders
func (h *LenderHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.repo.ListConfigs(r.Context())
	if errors.Is(err, repository.ErrNoConfigs) {
		JSON(w, http.StatusOK, []LenderSummary{})
		return
	}
	if err != nil {
		InternalError(w, "failed to list lenders")
		return
	}

	JSON(w, http.StatusOK, summarize(configs))
}

// Get returns one lender's full rule document.
// GET /api/v1/lenders/{bank}
func (h *LenderHandler) Get(w http.ResponseWriter, r *http.Request) {
	bank, err := url.PathUnescape(chi.URLParam(r, "bank"))
	if err != nil {
		BadRequest(w, "invalid bank name")
		return
	}

	cfg, err := repository.FindConfig(r.Context(), h.repo, bank)
	if err != nil {
		InternalError(w, "failed to get lender")
		return
	}
	if cfg == nil {
		NotFound(w, "lender not found")
		return
	}

	JSON(w, http.StatusOK, cfg)
}

// Reload rescans the lender source.
// POST /api/v1/lenders/reload
func (h *LenderHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reloader, ok := h.repo.(Reloader)
	if !ok {
		NotImplemented(w, "lender source does not cache documents")
		return
	}

	configs, err := reloader.Reload(r.Context())
	if errors.Is(err, repository.ErrNoConfigs) {
		NotFound(w, "lender source not found")
		return
	}
	if err != nil {
		InternalError(w, "failed to reload lenders")
		return
	}

	JSON(w, http.StatusOK, summarize(configs))
}
