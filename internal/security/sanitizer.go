package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

const maxReasonLength = 500

// SanitizeReason cleans free-text fields before they become part of the
// permanent ledger: strip markup and null bytes, trim, cap the length.
func SanitizeReason(input string) string {
	input = htmlPolicy.Sanitize(input)
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)

	if len(input) > maxReasonLength {
		// Cut on a rune boundary so truncation never leaves invalid UTF-8.
		cut := maxReasonLength
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}
	return input
}
