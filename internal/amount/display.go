package amount

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

// Grouped renders d rounded to a whole number with thousands separators, e.g. 45,000.
func Grouped(d decimal.Decimal) string {
	return printer.Sprintf("%d", d.Round(0).IntPart())
}
