package enrichment

import (
	"regexp"
	"strings"
)

var naPatterns = []string{
	"n/a", "not available", "none", "null", "unknown", "-", "--", "---",
}

var errorPatternTags = regexp.MustCompile(`(?i)<[a-z!/][^>]*>`)
var errorPatternJS = regexp.MustCompile(`(?i)function\s*\(|=>\s*{|document\.`)
var nonAllowedChar = regexp.MustCompile(`[^a-zA-Z0-9 '\-.,()]`)

// validateField applies §4.5.5's validation rules to one extracted
// value, keyed against the field's label (so an error-pattern reply
// that merely echoes the label back is rejected). It returns the
// trimmed value and whether it is acceptable.
func validateField(label, value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	for _, pat := range naPatterns {
		if lower == pat {
			return "", false
		}
	}
	if strings.TrimFunc(trimmed, func(r rune) bool { return r == '-' || r == ' ' }) == "" {
		return "", false
	}

	if label != "" && strings.Contains(lower, strings.ToLower(label)) {
		return "", false
	}
	if errorPatternTags.MatchString(trimmed) || errorPatternJS.MatchString(trimmed) {
		return "", false
	}

	if len(trimmed) < 2 || len(trimmed) > 200 {
		return "", false
	}

	nonAlnum := nonAllowedChar.FindAllString(trimmed, -1)
	if len(trimmed) > 0 && float64(len(nonAlnum))/float64(len(trimmed)) > 0.3 {
		return "", false
	}

	return trimmed, true
}
