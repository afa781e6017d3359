// Package telephony holds helpers for phone numbers and the voice
// response markup returned to the telephony provider.
package telephony

import (
	"fmt"
	"regexp"
	"strings"
)

var nonDigitPattern = regexp.MustCompile(`\D`)

// SanitizeNumber normalizes a caller-supplied phone number to E.164-ish
// form. Unrecognizable input is returned unchanged.
func SanitizeNumber(number string) string {
	if number == "" {
		return ""
	}
	digits := nonDigitPattern.ReplaceAllString(number, "")
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	case len(digits) >= 10:
		return "+" + digits
	default:
		return number
	}
}

// ValidNumber reports whether the number has a plausible digit count.
func ValidNumber(number string) bool {
	if number == "" {
		return false
	}
	n := len(nonDigitPattern.ReplaceAllString(number, ""))
	return n >= 10 && n <= 15
}

// MaskNumber hides all but the last four digits for logs and
// dashboards.
func MaskNumber(number string) string {
	if number == "" {
		return ""
	}
	digits := nonDigitPattern.ReplaceAllString(number, "")
	if len(digits) >= 4 {
		return "***-***-" + digits[len(digits)-4:]
	}
	return "***-***-****"
}

// FormatDuration renders a call duration in seconds as a short
// human-readable string.
func FormatDuration(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}
