package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanquote/internal/cache"
	"loanquote/internal/engine"
	"loanquote/internal/format"
	"loanquote/internal/models"
	"loanquote/internal/parser"
	"loanquote/internal/repository"
)

const maxMessageBytes = 64 << 10

// QuoteCache stores rendered quote responses.
type QuoteCache interface {
	GetQuote(ctx context.Context, key string) ([]byte, error)
	SetQuote(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// QuoteRecorder counts served quotes.
type QuoteRecorder interface {
	QuoteServed(cached bool)
}

// QuoteHandler handles quote endpoints.
type QuoteHandler struct {
	parser   *parser.Parser
	engine   *engine.Engine
	repo     repository.LenderRepository
	cache    QuoteCache
	cacheTTL time.Duration
	recorder QuoteRecorder
	logger   *zap.Logger
}

// QuoteHandlerConfig holds the quote handler dependencies. Cache and
// Recorder are optional.
type QuoteHandlerConfig struct {
	Parser   *parser.Parser
	Engine   *engine.Engine
	Repo     repository.LenderRepository
	Cache    QuoteCache
	CacheTTL time.Duration
	Recorder QuoteRecorder
	Logger   *zap.Logger
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(cfg QuoteHandlerConfig) *QuoteHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteHandler{
		parser:   cfg.Parser,
		engine:   cfg.Engine,
		repo:     cfg.Repo,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		recorder: cfg.Recorder,
		logger:   logger,
	}
}

// CreateQuoteRequest represents a quote request.
type CreateQuoteRequest struct {
	Message             string           `json:"message"`
	RequiredAmount      *decimal.Decimal `json:"required_amount,omitempty"`
	RefinancePriorities []int            `json:"refinance_priorities,omitempty"`
}

// QuoteResponse represents a priced quote.
type QuoteResponse struct {
	QuoteID   uuid.UUID               `json:"quote_id"`
	Record    models.CollateralRecord `json:"record"`
	OfferSets []models.OfferSet       `json:"offer_sets"`
	Text      string                  `json:"text"`
	Cached    bool                    `json:"cached"`
}

func decodeQuoteRequest(w http.ResponseWriter, r *http.Request) (CreateQuoteRequest, bool) {
	var req CreateQuoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return req, false
	}

	if strings.TrimSpace(req.Message) == "" {
		BadRequest(w, "message is required")
		return req, false
	}

	if req.RequiredAmount != nil && !req.RequiredAmount.IsPositive() {
		BadRequest(w, "required_amount must be positive")
		return req, false
	}

	return req, true
}

// Create prices a collateral message against every lender.
// POST /api/v1/quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuoteRequest(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	key := quoteCacheKey(req)
	if cached := h.cached(r, key); cached != nil {
		h.served(true)
		JSON(w, http.StatusOK, cached)
		return
	}

	rec := h.record(req)
	sets, err := h.engine.EvaluateAll(ctx, h.repo, rec)
	if err != nil {
		h.logger.Error("evaluate quote", zap.Error(err))
		InternalError(w, "failed to evaluate lenders")
		return
	}

	resp := QuoteResponse{
		QuoteID:   uuid.New(),
		Record:    rec,
		OfferSets: sets,
		Text:      format.Results(sets),
	}
	h.store(r, key, resp)
	h.served(false)

	JSON(w, http.StatusOK, resp)
}

// Parse returns the structured record for a message without pricing it.
// POST /api/v1/parse
func (h *QuoteHandler) Parse(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuoteRequest(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, h.record(req))
}

func (h *QuoteHandler) record(req CreateQuoteRequest) models.CollateralRecord {
	rec := h.parser.Parse(req.Message)
	if len(req.RefinancePriorities) > 0 {
		rec = rec.WithRefinance(req.RefinancePriorities...)
	}
	if req.RequiredAmount != nil {
		rec = rec.WithRequiredAmount(*req.RequiredAmount)
	}
	return rec
}

func (h *QuoteHandler) cached(r *http.Request, key string) *QuoteResponse {
	if h.cache == nil {
		return nil
	}

	payload, err := h.cache.GetQuote(r.Context(), key)
	if err != nil {
		h.logger.Warn("read quote cache", zap.Error(err))
		return nil
	}
	if payload == nil {
		return nil
	}

	var resp QuoteResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		h.logger.Warn("decode cached quote", zap.Error(err))
		return nil
	}
	resp.Cached = true
	return &resp
}

func (h *QuoteHandler) store(r *http.Request, key string, resp QuoteResponse) {
	if h.cache == nil || h.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Warn("encode quote for cache", zap.Error(err))
		return
	}
	if err := h.cache.SetQuote(r.Context(), key, payload, h.cacheTTL); err != nil {
		h.logger.Warn("write quote cache", zap.Error(err))
	}
}

func (h *QuoteHandler) served(cached bool) {
	if h.recorder != nil {
		h.recorder.QuoteServed(cached)
	}
}

func quoteCacheKey(req CreateQuoteRequest) string {
	required := ""
	if req.RequiredAmount != nil {
		required = req.RequiredAmount.String()
	}

	priorities := slices.Clone(req.RefinancePriorities)
	slices.Sort(priorities)
	parts := make([]string, len(priorities))
	for i, p := range priorities {
		parts[i] = strconv.Itoa(p)
	}

	return cache.QuoteKey(req.Message, required, strings.Join(parts, ","))
}
