package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	tests := []struct {
		name         string
		companyCode  string
		facilityCode string
		hubCode      string
		value        int64
		want         string
	}{
		{
			name:         "multi hub facility",
			companyCode:  "AK",
			facilityCode: "HYD",
			hubCode:      "NCH",
			value:        301,
			want:         "AKDCHYDNCH00000301",
		},
		{
			name:         "single hub facility omits hub code",
			companyCode:  "AK",
			facilityCode: "AH",
			value:        301,
			want:         "AKDCAH00000301",
		},
		{
			name:         "lowercase codes normalize",
			companyCode:  "bd",
			facilityCode: "sg",
			value:        42,
			want:         "BDDCSG00000042",
		},
		{
			name:         "large counter value",
			companyCode:  "SB",
			facilityCode: "SG",
			value:        99999999,
			want:         "SBDCSG99999999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDocumentNumber(tt.companyCode, tt.facilityCode, tt.hubCode, tt.value))
		})
	}
}

func TestParseCounterValue_RoundTrip(t *testing.T) {
	for _, value := range []int64{300, 301, 999, 1000, 12345678, 99999999} {
		number := FormatDocumentNumber("AK", "HYD", "NCH", value)
		got, err := ParseCounterValue(number)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestParseCounterValue_NoDigits(t *testing.T) {
	_, err := ParseCounterValue("AKDCHYD")
	assert.Error(t, err)
}

func TestParseCounterValue_ShortDigitRun(t *testing.T) {
	_, err := ParseCounterValue("AKDCHYD301")
	assert.Error(t, err)
}

func TestExceedsFieldLimit(t *testing.T) {
	// 18 characters, over the e-way bill ceiling of 16
	assert.True(t, ExceedsFieldLimit(FormatDocumentNumber("AK", "HYD", "NCH", 301)))
	// 14 characters
	assert.False(t, ExceedsFieldLimit(FormatDocumentNumber("AK", "AH", "", 301)))
}

func TestAppendPartSuffix(t *testing.T) {
	base := "AKDCHYDNCH00000301"

	assert.Equal(t, base, AppendPartSuffix(base, 1, "_%02d"))
	assert.Equal(t, base+"_02", AppendPartSuffix(base, 2, "_%02d"))
	assert.Equal(t, base+"_12", AppendPartSuffix(base, 12, "_%02d"))
	assert.Equal(t, base+"-2", AppendPartSuffix(base, 2, "-%d"))
}
