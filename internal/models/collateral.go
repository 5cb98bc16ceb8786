package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// ClaimMultiplier estimates a lien's registered maximum claim from its principal.
var ClaimMultiplier = decimal.RequireFromString("1.2")

// CollateralRecord is the structured view of one collateral message.
// Amounts are in price units (10,000 KRW).
type CollateralRecord struct {
	Name           *string          `json:"name,omitempty"`
	Age            *int             `json:"age,omitempty"`
	Occupation     *string          `json:"occupation,omitempty"`
	CreditScore    *int             `json:"credit_score,omitempty"`
	Residence      *string          `json:"residence,omitempty"`
	Ownership      *string          `json:"ownership,omitempty"`
	Address        *string          `json:"address,omitempty"`
	Region         *string          `json:"region,omitempty"`
	Area           *float64         `json:"area,omitempty"`
	HouseholdCount *int             `json:"household_count,omitempty"`
	PropertyType   *string          `json:"property_type,omitempty"`
	KBPrice        *decimal.Decimal `json:"kb_price,omitempty"`
	Mortgages      []Lien           `json:"mortgages"`
	SpecialNotes   *string          `json:"special_notes,omitempty"`
	Requests       *string          `json:"requests,omitempty"`
	RequiredAmount *decimal.Decimal `json:"required_amount,omitempty"`
}

// Lien represents one registered encumbrance on the collateral.
type Lien struct {
	Priority       int              `json:"priority"`
	Amount         decimal.Decimal  `json:"amount"`
	MaxClaimAmount *decimal.Decimal `json:"max_claim_amount,omitempty"`
	Institution    *string          `json:"institution,omitempty"`
	IsRefinance    bool             `json:"is_refinance"`
}

// ClaimAmount returns the registered claim, estimating principal x 1.2 when absent.
func (l Lien) ClaimAmount() decimal.Decimal {
	if l.MaxClaimAmount != nil {
		return *l.MaxClaimAmount
	}
	return l.Amount.Mul(ClaimMultiplier)
}

// RegionName returns the canonical region or "" when unknown.
func (r CollateralRecord) RegionName() string {
	if r.Region == nil {
		return ""
	}
	return *r.Region
}

// Notes returns the special notes or "".
func (r CollateralRecord) Notes() string {
	if r.SpecialNotes == nil {
		return ""
	}
	return *r.SpecialNotes
}

// WithRefinance returns a copy whose liens at the given priorities are flagged
// for refinance. Priorities that match no lien are ignored.
func (r CollateralRecord) WithRefinance(priorities ...int) CollateralRecord {
	out := r
	out.Mortgages = make([]Lien, len(r.Mortgages))
	for i, l := range r.Mortgages {
		if slices.Contains(priorities, l.Priority) {
			l.IsRefinance = true
		}
		out.Mortgages[i] = l
	}
	return out
}

// WithRequiredAmount returns a copy with the target loan amount set.
func (r CollateralRecord) WithRequiredAmount(amount decimal.Decimal) CollateralRecord {
	out := r
	out.Mortgages = slices.Clone(r.Mortgages)
	out.RequiredAmount = &amount
	return out
}
