// Package amount normalizes noisy numeric and currency text into typed values.
// All monetary results are in price units (10,000 KRW).
package amount

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NoPriceSentinel marks a listing without an appraisal price.
const NoPriceSentinel = "시세없음"

var (
	numberRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	eokRegexp    = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*억`)

	priceQualifiers    = []string{"일반", "하한", "상한", "평균"}
	currencyQualifiers = []string{"만원", "만", "원"}
	unknownScores      = []string{"X", "없음", "모름", "미상"}

	hundred = decimal.NewFromInt(100)
	eokUnit = decimal.NewFromInt(10000)
)

// ParsePrice extracts the appraisal price from values like "일반 125,000만원 하한 110,000만원".
// Returns nil when there is no numeric token or the no-price sentinel is present.
func ParsePrice(text string) *decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(strings.ReplaceAll(text, " ", ""), NoPriceSentinel) {
		return nil
	}
	return firstNumber(stripWords(text, priceQualifiers, currencyQualifiers))
}

// ParseCreditScore returns nil for empty or unknown input and for scores outside [0,1000].
func ParseCreditScore(text string) *int {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, s := range unknownScores {
		if strings.EqualFold(text, s) {
			return nil
		}
	}
	token := numberRegexp.FindString(text)
	if token == "" || strings.ContainsAny(token, ".") {
		return nil
	}
	score, err := strconv.Atoi(strings.ReplaceAll(token, ",", ""))
	if err != nil || score < 0 || score > 1000 {
		return nil
	}
	return &score
}

// ParseLienAmount parses a lien amount like "27,000만원".
func ParseLienAmount(text string) *decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return firstNumber(stripWords(text, currencyQualifiers))
}

// ParseKoreanAmount understands 억 notation in addition to plain 만원 figures:
// "2억 5,000만원" is 25,000 and "1.5억" is 15,000.
func ParseKoreanAmount(text string) *decimal.Decimal {
	text = strings.TrimSpace(text)
	m := eokRegexp.FindStringSubmatchIndex(text)
	if m == nil {
		return ParseLienAmount(text)
	}
	eok, err := decimal.NewFromString(strings.ReplaceAll(text[m[2]:m[3]], ",", ""))
	if err != nil {
		return nil
	}
	total := eok.Mul(eokUnit)
	if rest := ParseLienAmount(text[m[1]:]); rest != nil {
		total = total.Add(*rest)
	}
	return &total
}

// FloorToHundred truncates toward zero to the nearest 100 price units (1,000,000 KRW).
func FloorToHundred(d decimal.Decimal) decimal.Decimal {
	return d.Div(hundred).Truncate(0).Mul(hundred)
}

func stripWords(text string, groups ...[]string) string {
	for _, words := range groups {
		for _, w := range words {
			text = strings.ReplaceAll(text, w, " ")
		}
	}
	return text
}

func firstNumber(text string) *decimal.Decimal {
	token := numberRegexp.FindString(text)
	if token == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(token, ",", ""))
	if err != nil {
		return nil
	}
	return &d
}
