package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loanquote/internal/amount"
	"loanquote/internal/models"
)

var (
	priorityRegexp    = regexp.MustCompile(`(\d+)\s*순위`)
	parenAmountRegexp = regexp.MustCompile(`\(\s*(\d[\d,]*)\s*\)`)
	bareAmountRegexp  = regexp.MustCompile(`\d[\d,]*`)
	institutionRegexp = regexp.MustCompile(`:\s*([^0-9]+)`)
)

// parseLienLine handles one line of the mortgages section, e.g.
//
//	2순위 : 보성새마을금고 10,800 (9,000)만원
//
// A rank line without an amount ("1순위 : 전세입자") waits for the next
// amount-only line to complete it.
func (p *Parser) parseLienLine(d *draft, line string) {
	m := priorityRegexp.FindStringSubmatchIndex(line)
	if m == nil {
		if d.pendingLien == nil {
			return
		}
		if amt := lienAmount(line); amt != nil {
			d.pendingLien.Amount = *amt
			d.rec.Mortgages = append(d.rec.Mortgages, *d.pendingLien)
			d.pendingLien = nil
		}
		return
	}

	p.flushLien(d)

	priority, err := strconv.Atoi(line[m[2]:m[3]])
	if err != nil {
		return
	}
	lien := models.Lien{Priority: priority}
	if im := institutionRegexp.FindStringSubmatch(line); im != nil {
		if inst := strings.TrimSpace(im[1]); inst != "" {
			lien.Institution = &inst
		}
	}

	// The rank token itself is numeric; search for amounts after it.
	if amt := lienAmount(line[m[1]:]); amt != nil {
		lien.Amount = *amt
		d.rec.Mortgages = append(d.rec.Mortgages, lien)
		return
	}
	d.pendingLien = &lien
}

// flushLien drops a rank line that never received an amount.
func (p *Parser) flushLien(d *draft) {
	if d.pendingLien == nil {
		return
	}
	p.logger.Debug("lien without amount ignored", zap.Int("priority", d.pendingLien.Priority))
	d.pendingLien = nil
}

// lienAmount prefers the parenthesized figure and falls back to the first
// bare number.
func lienAmount(s string) *decimal.Decimal {
	if m := parenAmountRegexp.FindStringSubmatch(s); m != nil {
		return amount.ParseLienAmount(m[1])
	}
	if token := bareAmountRegexp.FindString(s); token != "" {
		return amount.ParseLienAmount(token)
	}
	return nil
}
