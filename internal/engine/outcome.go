package engine

import "loanquote/internal/models"

// Kind is the terminal state of one lender evaluation.
type Kind int

const (
	// Unpriceable means the record has no usable price, or no region, or the
	// lender has no ceiling for the tier. Nothing is reported.
	Unpriceable Kind = iota
	// NotServiceable means the lender does not operate in the district.
	NotServiceable
	// CeilingExceeded means existing liens already exceed the lender's LTV ceiling.
	CeilingExceeded
	// NoFit means the lender could not produce an offer for this request.
	NoFit
	// Priced means at least one offer was produced.
	Priced
)

func (k Kind) String() string {
	switch k {
	case Unpriceable:
		return "unpriceable"
	case NotServiceable:
		return "not_serviceable"
	case CeilingExceeded:
		return "ceiling_exceeded"
	case NoFit:
		return "no_fit"
	case Priced:
		return "priced"
	default:
		return "unknown"
	}
}

// Outcome is the result of evaluating one record against one lender.
// Reason is set for NotServiceable and CeilingExceeded, Offers for Priced.
type Outcome struct {
	Kind       Kind
	BankName   string
	Reason     string
	Offers     []models.Offer
	Conditions []string
}

// Reportable returns true if the outcome belongs in the result list.
func (o Outcome) Reportable() bool {
	switch o.Kind {
	case NotServiceable, CeilingExceeded, Priced:
		return true
	}
	return false
}

// OfferSet returns the lender-level view of a reportable outcome.
// ok is false for Unpriceable and NoFit.
func (o Outcome) OfferSet() (set models.OfferSet, ok bool) {
	if !o.Reportable() {
		return models.OfferSet{}, false
	}

	set = models.OfferSet{
		BankName:   o.BankName,
		Offers:     o.Offers,
		Conditions: o.Conditions,
		Errors:     []string{},
	}
	if set.Offers == nil {
		set.Offers = []models.Offer{}
	}
	if set.Conditions == nil {
		set.Conditions = []string{}
	}
	if o.Reason != "" {
		set.Errors = []string{o.Reason}
	}
	return set, true
}
