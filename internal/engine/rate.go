package engine

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"loanquote/internal/models"
)

// rateKeyTier2At82 is the rate table key used for LTV 82 in tier-2 districts.
const rateKeyTier2At82 = "82_2"

// Rate is the rate lookup result for one LTV step.
type Rate struct {
	Rate        *decimal.Decimal
	Range       *models.RateRange
	CreditGrade *int
}

// ResolveRate looks up the interest rate for an LTV step. A resolved credit
// grade present in the table yields a single rate; otherwise the min/max over
// the step's rates is returned as a range.
func ResolveRate(cfg models.LenderConfig, creditGrade *int, ltv, tier int) Rate {
	key := strconv.Itoa(ltv)
	if ltv == 82 && tier == 2 {
		key = rateKeyTier2At82
	}

	rates, ok := cfg.InterestRatesByLTV[key]
	if !ok {
		return Rate{CreditGrade: creditGrade}
	}

	if creditGrade != nil {
		if rate, ok := rates[strconv.Itoa(*creditGrade)]; ok {
			return Rate{Rate: &rate, CreditGrade: creditGrade}
		}
	}

	lo, hi, ok := rates.Bounds()
	if !ok {
		return Rate{CreditGrade: creditGrade}
	}
	return Rate{Range: &models.RateRange{Min: lo, Max: hi}}
}

type scoreRange struct {
	min, max int
	grade    int
	key      string
}

// ResolveCreditGrade maps a credit score onto the lender's "min-max" range
// table. Bounds are inclusive. Ranges are tried in ascending order of their
// lower bound; keys that do not parse are skipped.
func ResolveCreditGrade(cfg models.LenderConfig, score *int) *int {
	if score == nil || len(cfg.CreditScoreToGrade) == 0 {
		return nil
	}

	ranges := make([]scoreRange, 0, len(cfg.CreditScoreToGrade))
	for key, grade := range cfg.CreditScoreToGrade {
		lo, hi, ok := strings.Cut(key, "-")
		if !ok {
			continue
		}
		minScore, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			continue
		}
		maxScore, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			continue
		}
		ranges = append(ranges, scoreRange{min: minScore, max: maxScore, grade: grade, key: key})
	}
	slices.SortFunc(ranges, func(a, b scoreRange) int {
		return cmp.Or(cmp.Compare(a.min, b.min), cmp.Compare(a.key, b.key))
	})

	for _, r := range ranges {
		if r.min <= *score && *score <= r.max {
			grade := r.grade
			return &grade
		}
	}
	return nil
}

// nearestStep returns the step closest to ltv. Ties go to the earliest step
// in list order. With no steps, ltv rounded to an integer is used.
func nearestStep(steps []int, ltv decimal.Decimal) int {
	if len(steps) == 0 {
		return int(ltv.Round(0).IntPart())
	}

	best := steps[0]
	bestDiff := decimal.NewFromInt(int64(best)).Sub(ltv).Abs()
	for _, step := range steps[1:] {
		diff := decimal.NewFromInt(int64(step)).Sub(ltv).Abs()
		if diff.LessThan(bestDiff) {
			best, bestDiff = step, diff
		}
	}
	return best
}
