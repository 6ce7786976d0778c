package sequence

import (
	"strings"
)

// ResolveKey builds the counter name for a company, facility and optional
// destination hub. Keys are lowercase so the same counter is hit regardless
// of how callers case their codes, e.g. ("AK", "HYD", "NCH") -> "akdchydnch_seq"
// and ("AK", "AH", "") -> "akdcah_seq".
func ResolveKey(companyCode, facilityCode, hubCode string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(companyCode))
	b.WriteString("dc")
	b.WriteString(strings.ToLower(facilityCode))
	b.WriteString(strings.ToLower(hubCode))
	b.WriteString("_seq")
	return b.String()
}

// ExtractHubCode pulls the 3-letter hub code out of a raw hub identifier.
// Hub ids arrive as "<facility>_<hub>" ("HYD_NCH") or as a bare hub code.
// The result is only trusted when it appears in the recognized list; the
// bool reports whether it did, so callers can log a fallback.
func ExtractHubCode(rawHubID string, recognized []string) (string, bool) {
	raw := strings.ToUpper(strings.TrimSpace(rawHubID))
	if raw == "" {
		return "", false
	}

	if idx := strings.LastIndex(raw, "_"); idx >= 0 {
		raw = raw[idx+1:]
	}

	for _, code := range recognized {
		if raw == strings.ToUpper(code) {
			return raw, true
		}
	}
	return raw, false
}
