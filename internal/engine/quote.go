package engine

import (
	"github.com/shopspring/decimal"

	"loanquote/internal/amount"
	"loanquote/internal/models"
)

// quote holds the resolved inputs shared by the three pricing branches.
type quote struct {
	cfg         models.LenderConfig
	price       decimal.Decimal
	maxLTV      decimal.Decimal
	tier        int
	belowLTV    bool
	creditGrade *int

	// refinance is the principal of liens being refinanced; encumbrance is
	// the claim total of every other lien.
	refinance   decimal.Decimal
	encumbrance decimal.Decimal
}

func (q *quote) splitLiens(liens []models.Lien) {
	q.refinance, q.encumbrance = decimal.Zero, decimal.Zero
	for _, l := range liens {
		if l.IsRefinance {
			q.refinance = q.refinance.Add(l.Amount)
			continue
		}
		q.encumbrance = q.encumbrance.Add(l.ClaimAmount())
	}
}

func (q *quote) isRefinance() bool {
	return q.refinance.IsPositive()
}

// solveLTV returns the LTV at which a new loan of principal p fits, counting
// the new loan at its estimated claim amount.
func (q *quote) solveLTV(p decimal.Decimal) decimal.Decimal {
	total := p.Mul(models.ClaimMultiplier).Add(q.encumbrance)
	if q.isRefinance() {
		total = total.Add(q.refinance)
	}
	return total.Mul(hundred).Div(q.price)
}

func (q *quote) offer(ltv, available, total decimal.Decimal, rate Rate) models.Offer {
	return models.Offer{
		LTV:               ltv,
		Amount:            available,
		InterestRate:      rate.Rate,
		InterestRateRange: rate.Range,
		Type:              models.OfferTypeFor(q.isRefinance()),
		AvailableAmount:   available,
		TotalAmount:       total,
		IsRefinance:       q.isRefinance(),
		CreditGrade:       rate.CreditGrade,
		BelowStandardLTV:  q.belowLTV,
	}
}

// capped produces the single offer for exactly the keyword cap.
func (q *quote) capped(limit decimal.Decimal) []models.Offer {
	ltv := q.solveLTV(limit)
	if ltv.GreaterThan(q.maxLTV) {
		return nil
	}

	rate := ResolveRate(q.cfg, q.creditGrade, nearestStep(q.cfg.Steps(), ltv), q.tier)
	rounded := amount.FloorToHundred(limit)
	o := q.offer(ltv.Round(2), rounded, rounded, rate)
	o.TaxiLimitApplied = true
	return []models.Offer{o}
}

// required produces the single offer for the requested amount. When limit is
// set the disbursed amount is clamped to it; the LTV still reflects the
// requested amount.
func (q *quote) required(requested decimal.Decimal, limit *decimal.Decimal) []models.Offer {
	ltv := q.solveLTV(requested)
	if ltv.GreaterThan(q.maxLTV) {
		return nil
	}

	rate := ResolveRate(q.cfg, q.creditGrade, nearestStep(q.cfg.Steps(), ltv), q.tier)

	final := requested
	clamped := false
	if limit != nil && final.GreaterThan(*limit) {
		final = *limit
		clamped = true
	}

	total := final
	if q.isRefinance() {
		total = final.Add(q.refinance)
	}

	o := q.offer(ltv.Round(2), amount.FloorToHundred(final), amount.FloorToHundred(total), rate)
	o.TaxiLimitApplied = clamped
	return []models.Offer{o}
}

// stepped produces one offer per LTV step at or below the ceiling, in step order.
func (q *quote) stepped() []models.Offer {
	var offers []models.Offer
	for _, step := range q.cfg.Steps() {
		ltv := decimal.NewFromInt(int64(step))
		if ltv.GreaterThan(q.maxLTV) {
			continue
		}

		principal := q.price.Mul(ltv).Div(hundred)
		available := decimal.Max(decimal.Zero, principal.Sub(q.refinance).Sub(q.encumbrance))
		total := available
		if q.isRefinance() {
			total = q.refinance.Add(available)
		}
		if !available.IsPositive() {
			continue
		}

		rate := ResolveRate(q.cfg, q.creditGrade, step, q.tier)
		offers = append(offers, q.offer(ltv, amount.FloorToHundred(available), amount.FloorToHundred(total), rate))
	}
	return offers
}
