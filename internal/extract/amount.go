package extract

import (
	"regexp"
	"strings"
)

var (
	currencyMarkers = regexp.MustCompile(`(?i)₪|ש"ח|ש\.ח\.?|שקלים|שקל|שח|nis|ils`)
	thousandsGroups = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// NormalizeAmount reduces a monetary value to its canonical digits form.
// Currency markers and spaces are dropped, thousands separators removed,
// a decimal comma becomes a dot and an all-zero fraction is removed, so
// "1,200.00 ₪" becomes "1200" and "250,50" becomes "250.50".
// Applying it twice yields the same result as applying it once.
func NormalizeAmount(s string) string {
	s = currencyMarkers.ReplaceAllString(punctuationFolder.Replace(s), "")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s = strings.Trim(b.String(), ".,")
	if s == "" {
		return ""
	}

	if thousandsGroups.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	// only the last dot can be a decimal point
	if n := strings.Count(s, "."); n > 1 {
		s = strings.Replace(s, ".", "", n-1)
	}

	if i := strings.IndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	return s
}
