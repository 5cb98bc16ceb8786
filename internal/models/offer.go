package models

import "github.com/shopspring/decimal"

// RateRange is the min/max interest rate shown when no credit grade resolves.
type RateRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Offer is one priced loan option.
type Offer struct {
	LTV               decimal.Decimal  `json:"ltv"`
	Amount            decimal.Decimal  `json:"amount"`
	InterestRate      *decimal.Decimal `json:"interest_rate,omitempty"`
	InterestRateRange *RateRange       `json:"interest_rate_range,omitempty"`
	Type              OfferType        `json:"type"`
	AvailableAmount   decimal.Decimal  `json:"available_amount"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	IsRefinance       bool             `json:"is_refinance"`
	CreditGrade       *int             `json:"credit_grade,omitempty"`
	BelowStandardLTV  bool             `json:"below_standard_ltv"`
	TaxiLimitApplied  bool             `json:"taxi_limit_applied"`
}

// OfferSet is one lender's result.
type OfferSet struct {
	BankName   string   `json:"bank_name"`
	Offers     []Offer  `json:"offers"`
	Conditions []string `json:"conditions"`
	Errors     []string `json:"errors"`
}

// HasErrors returns true if the lender reported a reason for not pricing.
func (s OfferSet) HasErrors() bool {
	return len(s.Errors) > 0
}
