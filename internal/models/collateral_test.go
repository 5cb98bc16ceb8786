package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLienClaimAmount(t *testing.T) {
	claim := decimal.NewFromInt(13000)
	assert.Equal(t, "12000", Lien{Amount: decimal.NewFromInt(10000)}.ClaimAmount().String())
	assert.Equal(t, "13000", Lien{Amount: decimal.NewFromInt(10000), MaxClaimAmount: &claim}.ClaimAmount().String())
}

func TestWithRefinanceCopies(t *testing.T) {
	rec := CollateralRecord{Mortgages: []Lien{
		{Priority: 1, Amount: decimal.NewFromInt(10000)},
		{Priority: 2, Amount: decimal.NewFromInt(5000)},
	}}

	out := rec.WithRefinance(2, 9)

	require.Len(t, out.Mortgages, 2)
	assert.False(t, out.Mortgages[0].IsRefinance)
	assert.True(t, out.Mortgages[1].IsRefinance)
	assert.False(t, rec.Mortgages[1].IsRefinance)
}

func TestWithRequiredAmountCopies(t *testing.T) {
	rec := CollateralRecord{}
	out := rec.WithRequiredAmount(decimal.NewFromInt(20000))

	require.NotNil(t, out.RequiredAmount)
	assert.Equal(t, "20000", out.RequiredAmount.String())
	assert.Nil(t, rec.RequiredAmount)
}

func TestRecordAccessors(t *testing.T) {
	assert.Equal(t, "", CollateralRecord{}.RegionName())
	assert.Equal(t, "", CollateralRecord{}.Notes())

	region, notes := "경기도광명시", "택시"
	rec := CollateralRecord{Region: &region, SpecialNotes: &notes}
	assert.Equal(t, region, rec.RegionName())
	assert.Equal(t, notes, rec.Notes())
}

func TestOfferTypeFor(t *testing.T) {
	assert.Equal(t, OfferTypeRefinance, OfferTypeFor(true))
	assert.Equal(t, OfferTypeSubordinate, OfferTypeFor(false))
}
