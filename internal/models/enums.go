package models

// OfferType represents how a new loan sits against existing liens.
type OfferType string

const (
	OfferTypeRefinance   OfferType = "대환"
	OfferTypeSubordinate OfferType = "후순위"
)

// OfferTypeFor returns the offer type for the refinance flag.
func OfferTypeFor(isRefinance bool) OfferType {
	if isRefinance {
		return OfferTypeRefinance
	}
	return OfferTypeSubordinate
}

// Section represents the parser's position inside a collateral message.
type Section string

const (
	SectionDefault      Section = "default"
	SectionMortgages    Section = "mortgages"
	SectionSpecialNotes Section = "special_notes"
	SectionRequests     Section = "requests"
)

// Display strings shared by the engine and the formatter.
const (
	ErrNotServiceableRegion = "취급 불가지역"
)
