package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanquote/internal/engine"
	"loanquote/internal/models"
	"loanquote/internal/parser"
	"loanquote/internal/repository"
)

const message = "주소 : 서울특별시 강남구 삼성동 1-2\nKB시세 : 일반 50,000만원\n신용점수 : 750\n설정내역\n1순위 : 국민은행 (10,000)만원"

func gangnamLender() models.LenderConfig {
	tier := 1
	return models.LenderConfig{
		BankName:      "가나캐피탈",
		RegionGrades:  map[string]*int{"서울특별시강남구": &tier},
		MaxLTVByGrade: map[string]decimal.Decimal{"1": decimal.NewFromInt(80)},
		LTVSteps:      []int{80, 75},
		InterestRatesByLTV: map[string]models.GradeRates{
			"80": {"4": decimal.RequireFromString("6.5")},
		},
		CreditScoreToGrade: map[string]int{"700-799": 4},
		Conditions:         []string{"DSR 적용"},
	}
}

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func (m *memoryCache) GetQuote(_ context.Context, key string) ([]byte, error) {
	return m.entries[key], nil
}

func (m *memoryCache) SetQuote(_ context.Context, key string, payload []byte, _ time.Duration) error {
	m.entries[key] = payload
	m.sets++
	return nil
}

type servedCounter struct{ fresh, cached int }

func (s *servedCounter) QuoteServed(cached bool) {
	if cached {
		s.cached++
		return
	}
	s.fresh++
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, into any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func newQuoteHandler(c QuoteCache, rec QuoteRecorder) *QuoteHandler {
	return NewQuoteHandler(QuoteHandlerConfig{
		Parser:   parser.New(nil),
		Engine:   engine.New(nil),
		Repo:     repository.NewMemoryRepository(gangnamLender()),
		Cache:    c,
		CacheTTL: time.Minute,
		Recorder: rec,
	})
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h(rec, req)
	return rec
}

func quoteBody(t *testing.T, req CreateQuoteRequest) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(req))
	return buf.String()
}

func TestQuoteCreate(t *testing.T) {
	h := newQuoteHandler(nil, nil)

	rec := postJSON(h.Create, quoteBody(t, CreateQuoteRequest{Message: message}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	env := decodeEnvelope(t, rec, &resp)
	assert.True(t, env.Success)
	assert.NotEmpty(t, resp.QuoteID)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Record.Region)
	assert.Equal(t, "서울특별시강남구", *resp.Record.Region)

	require.Len(t, resp.OfferSets, 1)
	set := resp.OfferSets[0]
	assert.Equal(t, "가나캐피탈", set.BankName)
	require.Len(t, set.Offers, 2)
	// 40000 - 10000*1.2
	assert.Equal(t, "28000", set.Offers[0].Amount.String())

	assert.Equal(t, "* 가나캐피탈 (4등급기준)\n후순위 80% 28,000만 / 6.50%\n후순위 75% 25,500만 / 금리 정보 없음\n- DSR 적용", resp.Text)
}

func TestQuoteCreateWithOverrides(t *testing.T) {
	h := newQuoteHandler(nil, nil)
	required := decimal.NewFromInt(5000)

	rec := postJSON(h.Create, quoteBody(t, CreateQuoteRequest{
		Message:             message,
		RequiredAmount:      &required,
		RefinancePriorities: []int{1},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	decodeEnvelope(t, rec, &resp)
	require.Len(t, resp.OfferSets, 1)
	require.Len(t, resp.OfferSets[0].Offers, 1)
	o := resp.OfferSets[0].Offers[0]
	// (5000*1.2 + 10000) / 50000 * 100
	assert.Equal(t, "32", o.LTV.String())
	assert.Equal(t, models.OfferTypeRefinance, o.Type)
	assert.Equal(t, "15000", o.TotalAmount.String())
	assert.True(t, resp.Record.Mortgages[0].IsRefinance)
}

func TestQuoteCreateWithoutPrice(t *testing.T) {
	h := newQuoteHandler(nil, nil)

	rec := postJSON(h.Create, quoteBody(t, CreateQuoteRequest{Message: "주소 : 서울특별시 강남구\nKB시세 : 시세없음"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	decodeEnvelope(t, rec, &resp)
	assert.Empty(t, resp.OfferSets)
	assert.Contains(t, resp.Text, "KB시세가 없으면")
}

func TestQuoteCreateBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"message":`},
		{"empty message", `{"message": "   "}`},
		{"zero required amount", `{"message": "x", "required_amount": 0}`},
		{"negative required amount", `{"message": "x", "required_amount": -100}`},
	}

	h := newQuoteHandler(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(h.Create, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec, nil)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "BAD_REQUEST", env.Error.Code)
		})
	}
}

func TestQuoteCreateUsesCache(t *testing.T) {
	c := &memoryCache{entries: map[string][]byte{}}
	served := &servedCounter{}
	h := newQuoteHandler(c, served)
	body := quoteBody(t, CreateQuoteRequest{Message: message, RefinancePriorities: []int{2, 1}})

	var first, second QuoteResponse
	decodeEnvelope(t, postJSON(h.Create, body), &first)
	decodeEnvelope(t, postJSON(h.Create, body), &second)

	assert.Equal(t, 1, c.sets)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.QuoteID, second.QuoteID)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, served.fresh)
	assert.Equal(t, 1, served.cached)

	// priority order does not change the key
	reordered := quoteBody(t, CreateQuoteRequest{Message: message, RefinancePriorities: []int{1, 2}})
	var third QuoteResponse
	decodeEnvelope(t, postJSON(h.Create, reordered), &third)
	assert.True(t, third.Cached)
}

func TestQuoteParse(t *testing.T) {
	h := newQuoteHandler(nil, nil)

	rec := postJSON(h.Parse, quoteBody(t, CreateQuoteRequest{Message: message}))
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.CollateralRecord
	decodeEnvelope(t, rec, &record)
	require.NotNil(t, record.KBPrice)
	assert.Equal(t, "50000", record.KBPrice.String())
	require.Len(t, record.Mortgages, 1)
	assert.Equal(t, "10000", record.Mortgages[0].Amount.String())
}

func lenderRouter(h *LenderHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/lenders", h.List)
	r.Get("/api/v1/lenders/{bank}", h.Get)
	r.Post("/api/v1/lenders/reload", h.Reload)
	return r
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestLenderList(t *testing.T) {
	router := lenderRouter(NewLenderHandler(repository.NewMemoryRepository(gangnamLender())))

	rec := serve(router, http.MethodGet, "/api/v1/lenders")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []LenderSummary
	decodeEnvelope(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "가나캐피탈", list[0].BankName)
	assert.Equal(t, []int{80, 75}, list[0].LTVSteps)
}

func TestLenderListMissingSource(t *testing.T) {
	repo := repository.NewDirRepository(filepath.Join(t.TempDir(), "missing"), nil)
	router := lenderRouter(NewLenderHandler(repo))

	rec := serve(router, http.MethodGet, "/api/v1/lenders")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []LenderSummary
	decodeEnvelope(t, rec, &list)
	assert.Empty(t, list)
}

func TestLenderGet(t *testing.T) {
	router := lenderRouter(NewLenderHandler(repository.NewMemoryRepository(gangnamLender())))

	rec := serve(router, http.MethodGet, "/api/v1/lenders/%EA%B0%80%EB%82%98%EC%BA%90%ED%94%BC%ED%83%88")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.LenderConfig
	decodeEnvelope(t, rec, &cfg)
	assert.Equal(t, "가나캐피탈", cfg.BankName)
	assert.True(t, cfg.InterestRatesByLTV["80"]["4"].Equal(decimal.RequireFromString("6.5")))

	rec = serve(router, http.MethodGet, "/api/v1/lenders/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLenderReload(t *testing.T) {
	t.Run("memory source", func(t *testing.T) {
		router := lenderRouter(NewLenderHandler(repository.NewMemoryRepository()))
		rec := serve(router, http.MethodPost, "/api/v1/lenders/reload")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("directory source", func(t *testing.T) {
		dir := t.TempDir()
		repo := repository.NewDirRepository(dir, nil)
		router := lenderRouter(NewLenderHandler(repo))

		var list []LenderSummary
		decodeEnvelope(t, serve(router, http.MethodGet, "/api/v1/lenders"), &list)
		assert.Empty(t, list)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"bank_name": "가"}`), 0o644))

		rec := serve(router, http.MethodPost, "/api/v1/lenders/reload")
		require.Equal(t, http.StatusOK, rec.Code)
		decodeEnvelope(t, rec, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "가", list[0].BankName)
	})
}
