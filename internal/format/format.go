// Package format renders offer sets as the plain-text reply sent to brokers.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"loanquote/internal/amount"
	"loanquote/internal/models"
)

const (
	// NoLenders is returned when no lender produced a result.
	NoLenders = "산출 가능한 금융사가 없습니다.\n\n※ KB시세가 없으면 산출이 불가능합니다."

	notComputable   = "산출 불가"
	rateUnavailable = "금리 정보 없음"
	maxConditions   = 3
)

// Results renders every offer set, separated by blank lines.
func Results(sets []models.OfferSet) string {
	if len(sets) == 0 {
		return NoLenders
	}

	blocks := make([]string, len(sets))
	for i, set := range sets {
		blocks[i] = OfferSet(set)
	}
	return strings.Join(blocks, "\n\n")
}

// OfferSet renders one lender block.
func OfferSet(set models.OfferSet) string {
	if len(set.Offers) == 0 {
		return fmt.Sprintf("* %s\n%s", set.BankName, notComputable)
	}

	header := "* " + set.BankName
	if grade := set.Offers[0].CreditGrade; grade != nil && *grade > 0 {
		header = fmt.Sprintf("* %s (%d등급기준)", set.BankName, *grade)
	}

	lines := []string{header}
	for _, o := range set.Offers {
		lines = append(lines, Offer(o))
	}
	for i, condition := range set.Conditions {
		if i == maxConditions {
			break
		}
		lines = append(lines, "- "+condition)
	}
	return strings.Join(lines, "\n")
}

// Offer renders one offer line, e.g. "후순위 74% 43,900만 / 6.65%".
func Offer(o models.Offer) string {
	if o.IsRefinance {
		return fmt.Sprintf("%s %s%% %s / 가용 %s / %s",
			o.Type, o.LTV, Amount(o.TotalAmount), Amount(o.AvailableAmount), Rate(o))
	}
	return fmt.Sprintf("%s %s%% %s / %s", o.Type, o.LTV, Amount(o.Amount), Rate(o))
}

// Rate renders the offer's rate, its range, or the unavailable marker.
func Rate(o models.Offer) string {
	switch {
	case o.InterestRate != nil:
		return o.InterestRate.StringFixed(2) + "%"
	case o.InterestRateRange != nil:
		return fmt.Sprintf("%s%%~%s%%", o.InterestRateRange.Min.StringFixed(2), o.InterestRateRange.Max.StringFixed(2))
	default:
		return rateUnavailable
	}
}

// Amount renders price units with separators, e.g. "49,300만".
func Amount(d decimal.Decimal) string {
	return amount.Grouped(d.Truncate(0)) + "만"
}
