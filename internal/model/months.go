package model

import "time"

var hebrewMonths = [...]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// HebrewMonth returns the Hebrew name of a Gregorian month
func HebrewMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return hebrewMonths[m-1]
}

// HebrewMonths returns all month names, January first
func HebrewMonths() []string {
	out := make([]string, len(hebrewMonths))
	copy(out, hebrewMonths[:])
	return out
}
