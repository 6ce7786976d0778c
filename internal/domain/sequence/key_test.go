package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKey(t *testing.T) {
	tests := []struct {
		name         string
		companyCode  string
		facilityCode string
		hubCode      string
		want         string
	}{
		{
			name:         "single hub facility",
			companyCode:  "AK",
			facilityCode: "AH",
			want:         "akdcah_seq",
		},
		{
			name:         "multi hub facility includes hub code",
			companyCode:  "AK",
			facilityCode: "HYD",
			hubCode:      "NCH",
			want:         "akdchydnch_seq",
		},
		{
			name:         "mixed case input normalizes",
			companyCode:  "Bd",
			facilityCode: "sg",
			want:         "bddcsg_seq",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveKey(tt.companyCode, tt.facilityCode, tt.hubCode))
		})
	}
}

func TestResolveKey_DistinctHubsGetDistinctKeys(t *testing.T) {
	seen := make(map[string]bool)
	for _, hub := range []string{"BVG", "SGR", "BAL", "KMP", "NCH", "SAN"} {
		key := ResolveKey("AK", "HYD", hub)
		assert.False(t, seen[key], "key %s collides", key)
		seen[key] = true
	}
}

func TestExtractHubCode(t *testing.T) {
	recognized := []string{"BVG", "SGR", "BAL", "KMP", "NCH", "SAN"}

	tests := []struct {
		name     string
		rawHubID string
		want     string
		wantOK   bool
	}{
		{
			name:     "facility prefixed hub id",
			rawHubID: "HYD_NCH",
			want:     "NCH",
			wantOK:   true,
		},
		{
			name:     "bare hub code",
			rawHubID: "SGR",
			want:     "SGR",
			wantOK:   true,
		},
		{
			name:     "lowercase input",
			rawHubID: "hyd_bal",
			want:     "BAL",
			wantOK:   true,
		},
		{
			name:     "unrecognized hub reported",
			rawHubID: "HYD_XYZ",
			want:     "XYZ",
			wantOK:   false,
		},
		{
			name:     "empty input",
			rawHubID: "",
			want:     "",
			wantOK:   false,
		},
		{
			name:     "whitespace only",
			rawHubID: "   ",
			want:     "",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractHubCode(tt.rawHubID, recognized)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
