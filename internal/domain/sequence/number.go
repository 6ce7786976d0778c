package sequence

import (
	"fmt"
	"strings"

	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/types"
)

// FormatDocumentNumber renders a delivery challan number from its parts,
// e.g. ("AK", "HYD", "NCH", 301) -> "AKDCHYDNCH00000301". The counter value
// is zero-padded to a fixed width so numbers sort lexically.
func FormatDocumentNumber(companyCode, facilityCode, hubCode string, value int64) string {
	return fmt.Sprintf("%sDC%s%s%0*d",
		strings.ToUpper(companyCode),
		strings.ToUpper(facilityCode),
		strings.ToUpper(hubCode),
		types.CounterDigits,
		value,
	)
}

// ExceedsFieldLimit reports whether a document number is longer than the
// e-way bill document field. Oversized numbers are flagged, never truncated.
func ExceedsFieldLimit(number string) bool {
	return len(number) > types.DocumentNumberFieldLimit
}

// ParseCounterValue recovers the counter value from a document number by
// reading its trailing digit run. Part suffixes must be stripped before
// parsing. FormatDocumentNumber and ParseCounterValue round-trip for any
// valid number.
func ParseCounterValue(number string) (int64, error) {
	i := len(number)
	for i > 0 && number[i-1] >= '0' && number[i-1] <= '9' {
		i--
	}
	digits := number[i:]
	if len(digits) < types.CounterDigits {
		return 0, ierr.NewError("document number has no counter value").
			WithHintf("Expected at least %d trailing digits in %q", types.CounterDigits, number).
			Mark(ierr.ErrValidation)
	}

	var value int64
	for _, c := range digits {
		value = value*10 + int64(c-'0')
	}
	return value, nil
}

// AppendPartSuffix marks a continuation part of a split document,
// e.g. ("AKDCHYDNCH00000301", 2, "_%02d") -> "AKDCHYDNCH00000301_02".
// Part indices are 1-based; part 1 is the head document and keeps the
// parent serial unchanged.
func AppendPartSuffix(number string, part int, format string) string {
	if part <= 1 {
		return number
	}
	return number + fmt.Sprintf(format, part)
}
