package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMessage = `[담보물건 정보]
성명 : 정종민 (68)
직업 : 개인택시
신용점수 : 750
거주여부 : 본인거주
소유현황 : 단독소유
주소 : 서울특별시 강남구 삼성동 123-4 래미안아파트 101동 1001호
면적 : 84.95㎡
세대수 : 16세대 (1개동)
구분 : 아파트
KB시세 : 일반 50,000만원
하한 45,000만원

설정내역
1순위 : 국민은행 12,000 (10,000)만원
2순위 : 전세입자
           27,000 (27,000)만원

특이사항
개인택시 면허 보유
사업자 대출 이력 없음

요청사항
필요자금 : 2억
`

func TestParseSampleMessage(t *testing.T) {
	rec := New(nil).Parse(sampleMessage)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "정종민", *rec.Name)
	require.NotNil(t, rec.Age)
	assert.Equal(t, 68, *rec.Age)
	require.NotNil(t, rec.Occupation)
	assert.Equal(t, "개인택시", *rec.Occupation)
	require.NotNil(t, rec.CreditScore)
	assert.Equal(t, 750, *rec.CreditScore)
	require.NotNil(t, rec.Residence)
	assert.Equal(t, "본인거주", *rec.Residence)
	require.NotNil(t, rec.Ownership)
	assert.Equal(t, "단독소유", *rec.Ownership)
	require.NotNil(t, rec.Area)
	assert.InDelta(t, 84.95, *rec.Area, 0.0001)
	require.NotNil(t, rec.HouseholdCount)
	assert.Equal(t, 16, *rec.HouseholdCount)
	require.NotNil(t, rec.PropertyType)
	assert.Equal(t, "아파트", *rec.PropertyType)

	require.NotNil(t, rec.Region)
	assert.Equal(t, "서울특별시강남구", *rec.Region)

	require.NotNil(t, rec.KBPrice)
	assert.Equal(t, "50000", rec.KBPrice.String())

	require.Len(t, rec.Mortgages, 2)
	first := rec.Mortgages[0]
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, "10000", first.Amount.String())
	require.NotNil(t, first.Institution)
	assert.Equal(t, "국민은행", *first.Institution)
	assert.False(t, first.IsRefinance)
	assert.Nil(t, first.MaxClaimAmount)

	second := rec.Mortgages[1]
	assert.Equal(t, 2, second.Priority)
	assert.Equal(t, "27000", second.Amount.String())
	require.NotNil(t, second.Institution)
	assert.Equal(t, "전세입자", *second.Institution)

	require.NotNil(t, rec.SpecialNotes)
	assert.Equal(t, "개인택시 면허 보유\n사업자 대출 이력 없음", *rec.SpecialNotes)
	require.NotNil(t, rec.Requests)
	assert.Equal(t, "필요자금 : 2억", *rec.Requests)
	require.NotNil(t, rec.RequiredAmount)
	assert.Equal(t, "20000", rec.RequiredAmount.String())
}

func TestParseIsIdempotent(t *testing.T) {
	p := New(nil)
	assert.Equal(t, p.Parse(sampleMessage), p.Parse(sampleMessage))
}

func TestParseEmptyMessage(t *testing.T) {
	rec := New(nil).Parse("")
	assert.Nil(t, rec.KBPrice)
	assert.Nil(t, rec.Region)
	assert.Nil(t, rec.CreditScore)
	assert.NotNil(t, rec.Mortgages)
	assert.Empty(t, rec.Mortgages)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{
			name: "value on following line",
			msg:  "주소 : 경기도 광명시 철산동\nKB시세 :\n일반 38,500만원\n하한 36,000만원",
			want: "38500",
		},
		{
			name: "no separator",
			msg:  "KB시세 일반 61,000만원",
			want: "61000",
		},
		{
			name: "header variation preferred over plain key",
			msg:  "시세 : 45,000\n특이사항\nKB 시세 (일반)\n52,000만원",
			want: "52000",
		},
		{
			name: "plain price key",
			msg:  "시세 : 45,000만원",
			want: "45000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := New(nil).Parse(tt.msg)
			require.NotNil(t, rec.KBPrice)
			assert.Equal(t, tt.want, rec.KBPrice.String())
		})
	}
}

func TestParseNoPrice(t *testing.T) {
	rec := New(nil).Parse("주소 : 서울특별시 마포구\nKB시세 : 시세없음")
	assert.Nil(t, rec.KBPrice)
	require.NotNil(t, rec.Region)
	assert.Equal(t, "서울특별시마포구", *rec.Region)
}

func TestParseCreditUnknown(t *testing.T) {
	rec := New(nil).Parse("신용점수 : X")
	assert.Nil(t, rec.CreditScore)
}

func TestParseNameWithoutAge(t *testing.T) {
	rec := New(nil).Parse("이름 : 홍길동")
	require.NotNil(t, rec.Name)
	assert.Equal(t, "홍길동", *rec.Name)
	assert.Nil(t, rec.Age)
}

func TestParseLiens(t *testing.T) {
	msg := "=========\n" +
		"1순위 : 하나은행 (15,000)만원\n" +
		"2순위 : 대부업체 3,000만원\n" +
		"3순위 : 신원미상\n" +
		"4순위 : 보성새마을금고 10,800 (9,000)만원\n" +
		"비고 없음"
	rec := New(nil).Parse(msg)

	require.Len(t, rec.Mortgages, 3)
	assert.Equal(t, 1, rec.Mortgages[0].Priority)
	assert.Equal(t, "15000", rec.Mortgages[0].Amount.String())
	assert.Equal(t, 2, rec.Mortgages[1].Priority)
	assert.Equal(t, "3000", rec.Mortgages[1].Amount.String())
	// rank 3 never received an amount before rank 4 started.
	assert.Equal(t, 4, rec.Mortgages[2].Priority)
	assert.Equal(t, "9000", rec.Mortgages[2].Amount.String())
	require.NotNil(t, rec.Mortgages[2].Institution)
	assert.Equal(t, "보성새마을금고", *rec.Mortgages[2].Institution)
}

func TestParseAddressFallsBackToMacroRegion(t *testing.T) {
	rec := New(nil).Parse("주소 : 경기 어느 마을")
	require.NotNil(t, rec.Region)
	assert.Equal(t, "경기", *rec.Region)
}

func TestExtractPrice(t *testing.T) {
	assert.Equal(t, "일반 50,000만원 하한 45,000만원", ExtractPrice("KB시세 : 일반 50,000만원\n하한 45,000만원\n\n설정내역"))
	assert.Equal(t, "", ExtractPrice("※ KB시세가 없으면 산출 불가"))
	assert.Equal(t, "", ExtractPrice("no marker here"))
}
