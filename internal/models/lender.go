package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultLTVSteps is used when a lender document omits ltv_steps.
var DefaultLTVSteps = []int{90, 85, 80, 75, 70, 65}

// DefaultTaxiMaxAmount caps keyword-triggered offers when max_amount is absent (1억).
var DefaultTaxiMaxAmount = decimal.NewFromInt(10000)

// LenderConfig is one lender's rule document. It is read-only once loaded.
type LenderConfig struct {
	BankName                string                     `json:"bank_name"`
	TargetRegions           []string                   `json:"target_regions,omitempty"`
	RegionGrades            map[string]*int            `json:"region_grades,omitempty"`
	Grade1GroupA            []string                   `json:"grade_1_group_a,omitempty"`
	Grade1GroupB            []string                   `json:"grade_1_group_b,omitempty"`
	BelowStandardLTVRegions map[string]decimal.Decimal `json:"below_standard_ltv_regions,omitempty"`
	MaxLTVByGrade           map[string]decimal.Decimal `json:"max_ltv_by_grade,omitempty"`
	LTVSteps                []int                      `json:"ltv_steps,omitempty"`
	InterestRatesByLTV      map[string]GradeRates      `json:"interest_rates_by_ltv,omitempty"`
	CreditScoreToGrade      map[string]int             `json:"credit_score_to_grade,omitempty"`
	Conditions              []string                   `json:"conditions,omitempty"`
	TaxiLimit               TaxiLimit                  `json:"taxi_limit"`
}

// TaxiLimit is a keyword-triggered hard cap on the disbursed amount.
type TaxiLimit struct {
	Enabled   bool             `json:"enabled"`
	Keywords  []string         `json:"keywords,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
}

// Cap returns the configured cap or the default of 10,000 price units.
func (t TaxiLimit) Cap() decimal.Decimal {
	if t.MaxAmount != nil {
		return *t.MaxAmount
	}
	return DefaultTaxiMaxAmount
}

// Steps returns the LTV steps, falling back to DefaultLTVSteps when unset.
// An explicitly empty list stays empty.
func (c LenderConfig) Steps() []int {
	if c.LTVSteps == nil {
		return DefaultLTVSteps
	}
	return c.LTVSteps
}

// Validate reports documents that cannot be evaluated at all.
func (c LenderConfig) Validate() error {
	if c.BankName == "" {
		return fmt.Errorf("bank_name is required")
	}
	for _, step := range c.LTVSteps {
		if step <= 0 || step > 100 {
			return fmt.Errorf("ltv step %d out of range", step)
		}
	}
	return nil
}

// GradeRates maps a credit grade key to an interest rate. Non-numeric values
// in the source document are dropped on decode.
type GradeRates map[string]decimal.Decimal

// UnmarshalJSON keeps only JSON number values.
func (g *GradeRates) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(GradeRates, len(raw))
	for key, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 || value[0] == '"' || bytes.Equal(value, []byte("null")) {
			continue
		}
		var d decimal.Decimal
		if err := d.UnmarshalJSON(value); err != nil {
			continue
		}
		out[key] = d
	}
	*g = out
	return nil
}

// MarshalJSON writes rates as JSON numbers so documents round-trip.
func (g GradeRates) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.Number, len(g))
	for key, rate := range g {
		out[key] = json.Number(rate.String())
	}
	return json.Marshal(out)
}

// Bounds returns the lowest and highest rate. ok is false when empty.
func (g GradeRates) Bounds() (lo, hi decimal.Decimal, ok bool) {
	for _, rate := range g {
		if !ok {
			lo, hi, ok = rate, rate, true
			continue
		}
		lo = decimal.Min(lo, rate)
		hi = decimal.Max(hi, rate)
	}
	return lo, hi, ok
}
