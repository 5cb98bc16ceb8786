// Package engine prices a collateral record against lender rule documents.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loanquote/internal/amount"
	"loanquote/internal/models"
	"loanquote/internal/region"
	"loanquote/internal/repository"
)

// DefaultWorkers bounds concurrent lender evaluations in EvaluateAll.
const DefaultWorkers = 8

var hundred = decimal.NewFromInt(100)

// ConfigSource supplies the lender documents to evaluate against.
type ConfigSource interface {
	ListConfigs(ctx context.Context) ([]models.LenderConfig, error)
}

// Observer receives evaluation events. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveOutcome(kind Kind)
	ObserveEvaluateAll(elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(Kind) {}
func (nopObserver) ObserveEvaluateAll(time.Duration) {}

// Engine evaluates records against lender configs. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	logger   *zap.Logger
	workers  int
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the evaluation concurrency. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithObserver attaches an Observer, typically the metrics recorder.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates a new engine.
func New(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		workers:  DefaultWorkers,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateAll evaluates rec against every lender from src and returns the
// reportable offer sets in source order. A record without a price yields an
// empty list without consulting src.
func (e *Engine) EvaluateAll(ctx context.Context, src ConfigSource, rec models.CollateralRecord) ([]models.OfferSet, error) {
	start := time.Now()
	defer func() { e.observer.ObserveEvaluateAll(time.Since(start)) }()

	if rec.KBPrice == nil {
		return []models.OfferSet{}, nil
	}

	configs, err := src.ListConfigs(ctx)
	if errors.Is(err, repository.ErrNoConfigs) {
		e.logger.Warn("no lender configs available")
		return []models.OfferSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list lender configs: %w", err)
	}

	outcomes := make([]Outcome, len(configs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, cfg := range configs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = e.Evaluate(rec, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate lenders: %w", err)
	}

	sets := make([]models.OfferSet, 0, len(outcomes))
	for _, out := range outcomes {
		if set, ok := out.OfferSet(); ok {
			sets = append(sets, set)
		}
	}
	return sets, nil
}

// Evaluate prices rec against one lender.
func (e *Engine) Evaluate(rec models.CollateralRecord, cfg models.LenderConfig) Outcome {
	log := e.logger.With(zap.String("bank", cfg.BankName))

	out := evaluate(log, rec, cfg)
	out.BankName = cfg.BankName
	if out.Reportable() {
		out.Conditions = cfg.Conditions
	}

	e.observer.ObserveOutcome(out.Kind)
	log.Debug("lender evaluated",
		zap.Stringer("outcome", out.Kind),
		zap.Int("offers", len(out.Offers)),
	)
	return out
}

func notServiceable(log *zap.Logger, why string) Outcome {
	log.Debug("region not serviceable", zap.String("reason", why))
	return Outcome{Kind: NotServiceable, Reason: models.ErrNotServiceableRegion}
}

func evaluate(log *zap.Logger, rec models.CollateralRecord, cfg models.LenderConfig) Outcome {
	if rec.KBPrice == nil || !rec.KBPrice.IsPositive() {
		return Outcome{Kind: Unpriceable}
	}
	price := *rec.KBPrice

	district := rec.RegionName()
	if district == "" {
		return Outcome{Kind: Unpriceable}
	}
	if !region.IsDistrict(district) {
		return notServiceable(log, "unknown district")
	}
	if len(cfg.TargetRegions) > 0 && !slices.ContainsFunc(cfg.TargetRegions, func(target string) bool {
		return strings.Contains(district, target)
	}) {
		return notServiceable(log, "outside target regions")
	}

	tier, ok := region.ResolveGrade(cfg, district)
	if !ok {
		return notServiceable(log, "no tier")
	}
	if tier == region.ExcludedTier {
		return notServiceable(log, "excluded tier")
	}

	belowLTV, isBelow := region.ResolveBelowStandardLTV(cfg, district)
	maxLTV, ok := region.ResolveMaxLTV(cfg, tier, district)
	if !ok || maxLTV.IsZero() {
		log.Debug("no max ltv for tier", zap.Int("tier", tier))
		return Outcome{Kind: Unpriceable}
	}
	if isBelow {
		maxLTV = belowLTV
	}

	q := quote{
		cfg:         cfg,
		price:       price,
		maxLTV:      maxLTV,
		tier:        tier,
		belowLTV:    isBelow,
		creditGrade: ResolveCreditGrade(cfg, rec.CreditScore),
	}
	q.splitLiens(rec.Mortgages)

	taxiCap, capMatched := matchTaxiCap(cfg.TaxiLimit, rec.Notes())
	required := rec.RequiredAmount
	hasRequired := required != nil && !required.IsZero()

	log.Debug("evaluating",
		zap.Int("tier", tier),
		zap.Stringer("max_ltv", maxLTV),
		zap.Bool("below_standard", isBelow),
		zap.Stringer("refinance_principal", q.refinance),
		zap.Stringer("other_encumbrance", q.encumbrance),
		zap.Bool("taxi_cap", capMatched),
		zap.Bool("required_amount", hasRequired),
	)

	var offers []models.Offer
	switch {
	case capMatched && !hasRequired:
		offers = q.capped(taxiCap)
	case hasRequired:
		var limit *decimal.Decimal
		if capMatched {
			limit = &taxiCap
		}
		offers = q.required(*required, limit)
	default:
		offers = q.stepped()
	}

	if len(offers) > 0 {
		return Outcome{Kind: Priced, Offers: offers}
	}

	ceiling := price.Mul(maxLTV).Div(hundred)
	if q.encumbrance.GreaterThan(ceiling) {
		return Outcome{
			Kind: CeilingExceeded,
			Reason: fmt.Sprintf("기존 근저당권 채권최고액(%s만원)이 최대 한도(%s만원, LTV %s%%)를 초과하여 추가 대출 불가능",
				amount.Grouped(q.encumbrance), amount.Grouped(ceiling), maxLTV.String()),
		}
	}
	return Outcome{Kind: NoFit}
}

// matchTaxiCap returns the cap when the limit is enabled and a keyword occurs
// in the notes.
func matchTaxiCap(limit models.TaxiLimit, notes string) (decimal.Decimal, bool) {
	if !limit.Enabled || notes == "" {
		return decimal.Zero, false
	}
	for _, keyword := range limit.Keywords {
		if strings.Contains(notes, keyword) {
			return limit.Cap(), true
		}
	}
	return decimal.Zero, false
}
