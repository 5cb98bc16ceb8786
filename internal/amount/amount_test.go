package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "125,000", "125000"},
		{"with unit", "125,000만원", "125000"},
		{"qualifier first", "일반 125,000만원", "125000"},
		{"multi-line lookahead", "일반 125,000만원 하한 110,000만원 상한 130,000만원", "125000"},
		{"floor only", "하한가 98,500", "98500"},
		{"fraction", "50,000.5", "50000.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.in)
			require.NotNil(t, got)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(*got), "got %s", got)
		})
	}
}

func TestParsePriceMissing(t *testing.T) {
	for _, in := range []string{"", "   ", "시세없음", "시세 없음", "일반 만원"} {
		assert.Nil(t, ParsePrice(in), "input %q", in)
	}
}

func TestParseCreditScore(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"750", intPtr(750)},
		{"750점", intPtr(750)},
		{" 1000 ", intPtr(1000)},
		{"0", intPtr(0)},
		{"1001", nil},
		{"X", nil},
		{"x", nil},
		{"없음", nil},
		{"", nil},
		{"좋음", nil},
		{"7.5", nil},
	}

	for _, tt := range tests {
		got := ParseCreditScore(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		require.NotNil(t, got, "input %q", tt.in)
		assert.Equal(t, *tt.want, *got)
	}
}

func TestParseLienAmount(t *testing.T) {
	got := ParseLienAmount("27,000만원")
	require.NotNil(t, got)
	assert.Equal(t, "27000", got.String())

	assert.Nil(t, ParseLienAmount(""))
	assert.Nil(t, ParseLienAmount("만원"))
}

func TestParseKoreanAmount(t *testing.T) {
	tests := map[string]string{
		"2억":         "20000",
		"2억 5,000만원":  "25000",
		"1.5억":       "15000",
		"8,000만원":    "8000",
		"필요자금 3억 필요": "30000",
	}
	for in, want := range tests {
		got := ParseKoreanAmount(in)
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, want, got.String(), "input %q", in)
	}
	assert.Nil(t, ParseKoreanAmount("없음"))
}

func TestFloorToHundred(t *testing.T) {
	tests := map[string]string{
		"7550":    "7500",
		"4850":    "4800",
		"40000":   "40000",
		"99.99":   "0",
		"12345.6": "12300",
	}
	for in, want := range tests {
		got := FloorToHundred(decimal.RequireFromString(in))
		assert.Equal(t, want, got.String(), "input %s", in)
	}
}

func intPtr(i int) *int { return &i }

func TestGrouped(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"900", "900"},
		{"45000", "45,000"},
		{"1234567.6", "1,234,568"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Grouped(decimal.RequireFromString(tt.in)))
		})
	}
}
