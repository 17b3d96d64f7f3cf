package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Hebrew punctuation and typographic variants folded to the ASCII forms the
// pattern tables are written against.
var punctuationFolder = strings.NewReplacer(
	"״", `"`, // gershayim
	"׳", "'", // geresh
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‘", "'",
	"’", "'",
	"־", "-", // maqaf
	"–", "-",
	"—", "-",
	"\u00a0", " ",
	"\r\n", "\n",
	"\r", "\n",
)

// NormalizeText prepares raw input for matching: NFC composition, removal of
// niqqud, cantillation and bidi control marks, and punctuation folding.
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(ignorable)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return punctuationFolder.Replace(out)
}

func ignorable(r rune) bool {
	switch r {
	case '\u200b', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Bidi_Control, r)
}

// collapseSpaces trims s and replaces every whitespace run with one space
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
