// Package parser extracts a CollateralRecord from the semi-structured
// collateral message template brokers paste into chat.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"loanquote/internal/amount"
	"loanquote/internal/models"
	"loanquote/internal/region"
)

// Section header markers.
const (
	markerMortgages    = "설정내역"
	markerSeparator    = "========="
	markerSpecialNotes = "특이사항"
	markerRequests     = "요청사항"
)

var (
	ageRegexp       = regexp.MustCompile(`\((\d+)\)`)
	areaRegexp      = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	countRegexp     = regexp.MustCompile(`(\d+)`)
	digitRegexp     = regexp.MustCompile(`\d`)
	priceLineRegexp = regexp.MustCompile(`(?i)kb\s*시세\s*:?\s*(.+)`)

	priceLookaheadWords = []string{"하한", "상한", "일반"}
	requiredAmountKeys  = []string{"필요자금", "필요금액"}
)

// Parser turns collateral messages into records. It holds no per-message
// state and is safe for concurrent use.
type Parser struct {
	logger *zap.Logger
}

// New creates a parser. A nil logger disables logging.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// draft collects raw string values before typed validation.
type draft struct {
	rec         models.CollateralRecord
	priceRaw    string
	creditRaw   string
	notes       []string
	requests    []string
	pendingLien *models.Lien
}

// Parse converts one message into a record. Unrecognized lines are ignored;
// fields that never match stay nil.
func (p *Parser) Parse(text string) models.CollateralRecord {
	lines := strings.Split(text, "\n")
	d := &draft{rec: models.CollateralRecord{Mortgages: []models.Lien{}}}

	section := models.SectionDefault
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.Contains(line, markerMortgages) || strings.Contains(line, markerSeparator):
			p.flushLien(d)
			section = models.SectionMortgages
			continue
		case strings.Contains(line, markerSpecialNotes):
			p.flushLien(d)
			section = models.SectionSpecialNotes
			continue
		case strings.Contains(line, markerRequests):
			p.flushLien(d)
			section = models.SectionRequests
			continue
		}

		switch section {
		case models.SectionDefault:
			p.parseDefaultLine(d, lines, i, line)
		case models.SectionMortgages:
			p.parseLienLine(d, line)
		case models.SectionSpecialNotes:
			d.notes = append(d.notes, line)
		case models.SectionRequests:
			d.requests = append(d.requests, line)
			if v, ok := requiredAmountIn(line); ok {
				if amt := amount.ParseKoreanAmount(v); amt != nil {
					d.rec.RequiredAmount = amt
				}
			}
		}
	}
	p.flushLien(d)

	return p.finish(d, ExtractPrice(text))
}

func (p *Parser) parseDefaultLine(d *draft, lines []string, i int, line string) {
	if strings.Contains(line, ":") {
		key, value := splitKeyValue(line)
		if key == "" || value == "" {
			return
		}
		if isPriceKey(key, line) {
			d.priceRaw = joinLookahead(value, lines, i)
			p.logger.Debug("price from key-value line", zap.String("value", d.priceRaw))
			return
		}
		p.setField(d, key, value)
		return
	}

	if strings.Contains(strings.ToLower(line), "kb시세") {
		if m := priceLineRegexp.FindStringSubmatch(line); m != nil {
			d.priceRaw = joinLookahead(strings.TrimSpace(m[1]), lines, i)
			p.logger.Debug("price from bare line", zap.String("value", d.priceRaw))
		}
	}
}

func (p *Parser) setField(d *draft, key, value string) {
	r := &d.rec
	switch {
	case strings.Contains(key, "성명") || strings.Contains(key, "이름"):
		if m := ageRegexp.FindStringSubmatch(value); m != nil {
			if age, err := strconv.Atoi(m[1]); err == nil {
				r.Age = &age
			}
			name := strings.TrimSpace(strings.SplitN(value, "(", 2)[0])
			r.Name = &name
		} else {
			r.Name = strPtr(value)
		}
	case strings.Contains(key, "직업"):
		r.Occupation = strPtr(value)
	case strings.Contains(key, "신용"):
		d.creditRaw = value
	case strings.Contains(key, "거주여부"):
		r.Residence = strPtr(value)
	case strings.Contains(key, "소유현황"):
		r.Ownership = strPtr(value)
	case strings.Contains(key, "주소"):
		r.Address = strPtr(value)
	case strings.Contains(key, "면적"):
		if m := areaRegexp.FindStringSubmatch(value); m != nil {
			if area, err := strconv.ParseFloat(m[1], 64); err == nil {
				r.Area = &area
			}
		}
	case strings.Contains(key, "세대수"):
		if m := countRegexp.FindStringSubmatch(value); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				r.HouseholdCount = &n
			}
		}
	case strings.Contains(key, "구분"):
		r.PropertyType = strPtr(value)
	case containsAny(key, requiredAmountKeys):
		if amt := amount.ParseKoreanAmount(value); amt != nil {
			r.RequiredAmount = amt
		}
	case strings.Contains(key, "시세"):
		d.priceRaw = value
	}
}

func (p *Parser) finish(d *draft, scanned string) models.CollateralRecord {
	r := d.rec

	if r.Address != nil {
		if key, ok := region.Canonicalize(*r.Address); ok {
			r.Region = &key
		}
	}

	// The whole-text scan tolerates header variations the line pass misses.
	priceRaw := d.priceRaw
	if scanned != "" {
		priceRaw = scanned
	}
	r.KBPrice = amount.ParsePrice(priceRaw)
	r.CreditScore = amount.ParseCreditScore(d.creditRaw)

	if len(d.notes) > 0 {
		r.SpecialNotes = strPtr(strings.Join(d.notes, "\n"))
	}
	if len(d.requests) > 0 {
		r.Requests = strPtr(strings.Join(d.requests, "\n"))
	}

	p.logger.Debug("parsed collateral message",
		zap.Stringp("region", r.Region),
		zap.String("price_raw", priceRaw),
		zap.Int("liens", len(r.Mortgages)),
	)
	return r
}

// ExtractPrice scans the whole message for the first appraisal price line
// and returns its raw value together with qualifying continuation lines.
func ExtractPrice(text string) string {
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		lower := strings.ToLower(raw)
		if !strings.Contains(lower, "kb시세") && !(strings.Contains(lower, "kb") && strings.Contains(lower, "시세")) {
			continue
		}

		var value string
		if _, after, ok := strings.Cut(raw, ":"); ok {
			value = strings.TrimSpace(after)
		} else if m := priceLineRegexp.FindStringSubmatch(raw); m != nil {
			value = strings.TrimSpace(m[1])
		}

		value = joinLookahead(value, lines, i)
		if digitRegexp.MatchString(value) || strings.Contains(value, amount.NoPriceSentinel) {
			return value
		}
	}
	return ""
}

// joinLookahead appends up to two following lines that carry a price
// qualifier or a digit. It stops at the first line that does neither.
func joinLookahead(value string, lines []string, i int) string {
	parts := make([]string, 0, 3)
	if value != "" {
		parts = append(parts, value)
	}
	for j := 1; j <= 2 && i+j < len(lines); j++ {
		next := strings.TrimSpace(lines[i+j])
		if next == "" || !(containsAny(next, priceLookaheadWords) || digitRegexp.MatchString(next)) {
			break
		}
		parts = append(parts, next)
	}
	return strings.Join(parts, " ")
}

func isPriceKey(key, line string) bool {
	return strings.Contains(strings.ToLower(key), "kb시세") ||
		(strings.Contains(key, "시세") && strings.Contains(strings.ToLower(line), "kb"))
}

func requiredAmountIn(line string) (string, bool) {
	for _, k := range requiredAmountKeys {
		if _, after, ok := strings.Cut(line, k); ok {
			after = strings.TrimLeft(strings.TrimSpace(after), ":")
			return strings.TrimSpace(after), true
		}
	}
	return "", false
}

func splitKeyValue(line string) (string, string) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", ""
	}
	return strings.TrimSpace(key), strings.TrimSpace(value)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
