// Package region canonicalizes free-text addresses into district keys and
// resolves district keys against a lender's tier tables.
package region

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"loanquote/internal/models"
)

// Grade-1 sub-group keys in max_ltv_by_grade.
const (
	grade1KeyA = "1"
	grade1KeyB = "1_b"
)

// ExcludedTier marks a district no lender serves.
const ExcludedTier = 6

var (
	// candidates holds Districts ordered longest first for address matching.
	candidates []district
	// compactDistricts is the space-free set used for validation.
	compactDistricts map[string]struct{}
	macroSet         map[string]struct{}
)

type district struct {
	key     string
	matchOn string
}

func init() {
	candidates = make([]district, 0, len(Districts))
	compactDistricts = make(map[string]struct{}, len(Districts))
	for _, d := range Districts {
		candidates = append(candidates, district{key: d, matchOn: stripAffixes(d)})
		compactDistricts[Compact(d)] = struct{}{}
	}
	slices.SortStableFunc(candidates, func(a, b district) int {
		return cmp.Compare(utf8.RuneCountInString(b.key), utf8.RuneCountInString(a.key))
	})

	macroSet = make(map[string]struct{}, len(MacroRegions))
	for _, m := range MacroRegions {
		macroSet[m] = struct{}{}
	}
}

// Compact removes all ASCII spaces.
func Compact(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// stripAffixes drops spaces and the 특별/광역 affixes so that
// "서울특별시 강남구" and "서울시강남구" compare equal.
func stripAffixes(s string) string {
	s = Compact(s)
	s = strings.ReplaceAll(s, "특별", "")
	return strings.ReplaceAll(s, "광역", "")
}

// Canonicalize maps an address to a district key. When no district matches it
// falls back to the first macro-region token in the address.
func Canonicalize(address string) (string, bool) {
	if strings.TrimSpace(address) == "" {
		return "", false
	}
	clean := stripAffixes(address)
	for _, c := range candidates {
		if strings.Contains(clean, c.matchOn) {
			return c.key, true
		}
	}
	for _, m := range MacroRegions {
		if strings.Contains(address, m) {
			return m, true
		}
	}
	return "", false
}

// IsDistrict reports whether region is one of the canonical districts, ignoring spaces.
func IsDistrict(region string) bool {
	_, ok := compactDistricts[Compact(region)]
	return ok
}

// IsMacroRegion reports whether key is a province-level key.
func IsMacroRegion(key string) bool {
	_, ok := macroSet[key]
	return ok
}

// Matcher proposes table keys for a region. keys are the table's keys in sorted order.
type Matcher func(region string, keys []string) []string

// Exact proposes the region as given.
func Exact(region string, _ []string) []string {
	return []string{region}
}

// Normalized proposes the region with spaces removed.
func Normalized(region string, _ []string) []string {
	return []string{Compact(region)}
}

// ReverseNormalized proposes every table key whose space-free form equals the
// space-free region.
func ReverseNormalized(region string, keys []string) []string {
	target := Compact(region)
	var out []string
	for _, k := range keys {
		if Compact(k) == target {
			out = append(out, k)
		}
	}
	return out
}

// DefaultMatchers is the strategy order used for every district table.
var DefaultMatchers = []Matcher{Exact, Normalized, ReverseNormalized}

// Lookup runs matchers in order and returns the first proposed key present in
// table whose entry is accepted. A nil accept allows every entry.
func Lookup[T any](table map[string]T, region string, accept func(key string, value T) bool, matchers ...Matcher) (T, string, bool) {
	var zero T
	if len(table) == 0 {
		return zero, "", false
	}
	if len(matchers) == 0 {
		matchers = DefaultMatchers
	}
	keys := slices.Sorted(maps.Keys(table))
	for _, match := range matchers {
		for _, key := range match(region, keys) {
			value, ok := table[key]
			if !ok {
				continue
			}
			if accept == nil || accept(key, value) {
				return value, key, true
			}
		}
	}
	return zero, "", false
}

// ResolveGrade returns the lender's tier for a district. Entries keyed by a
// macro region or holding null are ignored.
func ResolveGrade(cfg models.LenderConfig, region string) (int, bool) {
	grade, _, ok := Lookup(cfg.RegionGrades, region, func(key string, v *int) bool {
		return v != nil && !IsMacroRegion(key)
	})
	if !ok {
		return 0, false
	}
	return *grade, true
}

// ResolveBelowStandardLTV returns the override LTV for districts priced below standard.
func ResolveBelowStandardLTV(cfg models.LenderConfig, region string) (decimal.Decimal, bool) {
	ltv, _, ok := Lookup(cfg.BelowStandardLTVRegions, region, nil)
	return ltv, ok
}

// ResolveMaxLTV returns the LTV ceiling for a tier. Tier 1 is split into
// group A ("1") and group B ("1_b"); districts in neither group get group A.
func ResolveMaxLTV(cfg models.LenderConfig, tier int, region string) (decimal.Decimal, bool) {
	key := strconv.Itoa(tier)
	if tier == 1 {
		key = grade1KeyA
		switch {
		case containsCompact(cfg.Grade1GroupA, region):
		case containsCompact(cfg.Grade1GroupB, region):
			key = grade1KeyB
		}
	}
	ltv, ok := cfg.MaxLTVByGrade[key]
	return ltv, ok
}

func containsCompact(list []string, region string) bool {
	target := Compact(region)
	return slices.ContainsFunc(list, func(s string) bool {
		return Compact(s) == target
	})
}
