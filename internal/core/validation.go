package core

import (
	"regexp"
	"strings"
)

// MaxInputLength is the keystroke guard applied to amount widgets.
const MaxInputLength = 7

var (
	amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	labelPattern  = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿŒœ '\-]+$`)

	displayStripper = strings.NewReplacer("<", "", ">", "")
)

// IsValidAmount reports whether text is a non-negative number with at most
// two decimals: digits, optionally a dot and one or two digits. Signs,
// exponents, thousands separators and decimal commas are rejected.
func IsValidAmount(text string) bool {
	return amountPattern.MatchString(text)
}

// IsValidCategoryLabel reports whether text is made only of letters
// (accented Latin included), spaces, hyphens and apostrophes.
func IsValidCategoryLabel(text string) bool {
	return labelPattern.MatchString(text)
}

// SanitizeForDisplay strips '<' and '>'. It is not an HTML escaper.
func SanitizeForDisplay(text string) string {
	return displayStripper.Replace(text)
}

// TruncateInput cuts text to at most max runes.
func TruncateInput(text string, max int) string {
	if max < 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
