package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/physioform/internal/model"
)

// FieldKind identifies one of the four participant fields
type FieldKind int

const (
	FieldName FieldKind = iota
	FieldNationalID
	FieldReceiptNumber
	FieldAmount
)

// FieldKinds lists every field kind in record order
var FieldKinds = []FieldKind{FieldName, FieldNationalID, FieldReceiptNumber, FieldAmount}

func (k FieldKind) String() string {
	switch k {
	case FieldName:
		return "name"
	case FieldNationalID:
		return "national_id"
	case FieldReceiptNumber:
		return "receipt_number"
	case FieldAmount:
		return "amount"
	default:
		return "unknown"
	}
}

// Form tells whether a pattern reads an explicit label or infers the value
// from narrative wording. Labeled patterns always precede narrative ones.
type Form int

const (
	FormLabeled Form = iota
	FormNarrative
)

func (f Form) String() string {
	if f == FormLabeled {
		return "labeled"
	}
	return "narrative"
}

// Pattern is one entry of a field's ordered policy table
type Pattern struct {
	Name string
	Form Form

	re *regexp.Regexp
	// clean post-processes the captured value and may reject it
	clean func(string) (string, bool)
	// firstLine restricts matching to the first non-blank line of the chunk
	firstLine bool
	// skipIf disables the pattern for chunks it matches
	skipIf *regexp.Regexp
	// notAfter rejects a capture when the text before it on the same line
	// matches
	notAfter *regexp.Regexp
}

// find returns the first accepted capture of p in text
func (p Pattern) find(text string) (string, bool) {
	if p.firstLine {
		text = firstLine(text)
	}
	if p.skipIf != nil && p.skipIf.MatchString(text) {
		return "", false
	}
	for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
		if p.notAfter != nil && p.notAfter.MatchString(text[lineStart(text, m[2]):m[2]]) {
			continue
		}
		value := strings.TrimSpace(text[m[2]:m[3]])
		if p.clean != nil {
			var ok bool
			if value, ok = p.clean(value); !ok {
				continue
			}
		}
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// Regular expression building blocks. Input is expected to have passed
// through NormalizeText, so Hebrew quotes are already ASCII.
const (
	nameWord   = `[א-ת][א-ת'\-]*`
	nameRun    = nameWord + `(?:[ \t]+` + nameWord + `)*`
	notLetter  = `(?:^|[^א-ת'\-])`
	number     = `(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:[.,]\d{1,2})?)`
	currency   = `(?:₪|ש"ח|ש\.ח\.?|שח|שקלים|שקל|nis|ils)`
	afterToken = `(?:[^א-תa-z0-9]|$)`

	nameLabels        = `שם[ \t]+מלא|שם[ \t]+המשתתפת|שם[ \t]+המשתתף|שם`
	participantLabels = `המשתתפת|המשתתף|משתתפת|משתתף`
	idLabels          = `תעודת\s+זהות|מספר\s+זהות|מס'\s*זהות|ת"ז|ת''ז|ת\.ז\.?|זהות|\bi\.?d\b\.?(?:\s+number)?`
	idNarrative       = `תעודת\s+הזהות|תעודת\s+זהות|מספר\s+הזהות|המספר\s+זהות|מספר\s+זהות|זהות`
	receiptLabels     = `מספר\s+קבלה|קבלה\s+מספר|מס'\s*קבלה|מס\.\s*קבלה|קבלה\s+מס'|קבלה\s+מס\.?|חשבונית\s+מספר|חשבונית|קבלה|receipt(?:\s*(?:no\.?|number|#))?`
	receiptToken      = `([a-z]{0,4}-?\d[a-z0-9\-/]*)`
	amountLabels      = `סכום\s+ששולם|סכום\s+התשלום|סכום\s+לתשלום|סכום|תשלום|amount|paid`
	paymentVerbs      = `שילמה|שילמו|שילם|שולם`
	presenceVerbs     = `השתתפה|השתתפו|השתתף|שילמה|שילם|הגיעה|הגיע|נרשמה|נרשם`
)

// Library holds the ordered pattern tables for every field kind
type Library struct {
	table map[FieldKind][]Pattern
}

// NewLibrary builds the default pattern tables
func NewLibrary() *Library {
	return &Library{
		table: map[FieldKind][]Pattern{
			FieldName: {
				{
					Name:  "name_label",
					Form:  FormLabeled,
					re:    regexp.MustCompile(notLetter + `(?:` + nameLabels + `)[ \t]*[:\-]\s*(` + nameRun + `)`),
					clean: cleanName(1),
				},
				{
					Name:  "participant_label",
					Form:  FormLabeled,
					re:    regexp.MustCompile(notLetter + `(?:` + participantLabels + `)[ \t]*[:\-]?\s*(` + nameRun + `)`),
					clean: cleanName(1),
				},
				{
					Name:  "name_before_verb",
					Form:  FormNarrative,
					re:    regexp.MustCompile(notLetter + `(` + nameWord + `[ \t]+` + nameWord + `)[ \t]+(?:` + presenceVerbs + `)`),
					clean: cleanName(2),
				},
				{
					Name:      "chunk_start",
					Form:      FormNarrative,
					re:        regexp.MustCompile(`^[ \t]*(` + nameRun + `)[ \t]*(?:$|[,(\-:.]|\d)`),
					clean:     cleanLeadingName(2),
					firstLine: true,
				},
			},
			FieldNationalID: {
				{
					Name: "id_label",
					Form: FormLabeled,
					re:   regexp.MustCompile(`(?i)(?:` + idLabels + `)[ \t]*[:\-]?[ \t]*(\d{9})(?:\D|$)`),
				},
				{
					Name: "id_narrative",
					Form: FormNarrative,
					re:   regexp.MustCompile(`(?:` + idNarrative + `)[^\d\n]{1,30}?(\d{9})(?:\D|$)`),
				},
				{
					// unlabeled IDs only count in chunks without any ID label,
					// and never when they follow a receipt or amount label
					Name:     "id_bare",
					Form:     FormNarrative,
					re:       regexp.MustCompile(`(?:^|\D)(\d{9})(?:\D|$)`),
					skipIf:   regexp.MustCompile(`(?i)` + idLabels + `|` + idNarrative),
					notAfter: regexp.MustCompile(`(?i)(?:` + receiptLabels + `|` + amountLabels + `)[^\d\n]{0,25}$`),
				},
			},
			FieldReceiptNumber: {
				{
					Name:  "receipt_label",
					Form:  FormLabeled,
					re:    regexp.MustCompile(`(?i)(?:` + receiptLabels + `)[ \t]*[:#\-]?[ \t]*` + receiptToken),
					clean: cleanReceipt,
				},
				{
					Name:  "receipt_narrative",
					Form:  FormNarrative,
					re:    regexp.MustCompile(`(?i)(?:קבלה|חשבונית|receipt)[^\d\n]{1,25}?(\d{3,}[a-z0-9\-/]*)`),
					clean: cleanReceipt,
				},
			},
			FieldAmount: {
				{
					Name:  "amount_label",
					Form:  FormLabeled,
					re:    regexp.MustCompile(`(?i)(?:` + amountLabels + `)[ \t]*[:\-]?[ \t]*(?:` + currency + `[ \t]*)?` + number),
					clean: cleanAmount,
				},
				{
					Name:  "amount_currency_suffix",
					Form:  FormNarrative,
					re:    regexp.MustCompile(`(?i)(?:^|[^\d.,])` + number + `[ \t]*` + currency + afterToken),
					clean: cleanAmount,
				},
				{
					Name:  "amount_currency_prefix",
					Form:  FormNarrative,
					re:    regexp.MustCompile(`(?i)` + currency + `[ \t]*` + number),
					clean: cleanAmount,
				},
				{
					Name:  "amount_after_payment",
					Form:  FormNarrative,
					re:    regexp.MustCompile(`(?:` + paymentVerbs + `)[^\d\n]{0,20}?` + number),
					clean: cleanAmount,
				},
			},
		},
	}
}

// Patterns returns the ordered pattern table for a field kind
func (l *Library) Patterns(kind FieldKind) []Pattern {
	return append([]Pattern(nil), l.table[kind]...)
}

// Match returns the first value any pattern of kind finds in chunk
func (l *Library) Match(kind FieldKind, chunk string) (string, bool) {
	return l.match(kind, NormalizeText(chunk))
}

func (l *Library) match(kind FieldKind, normalized string) (string, bool) {
	for _, p := range l.table[kind] {
		if v, ok := p.find(normalized); ok {
			return v, true
		}
	}
	return "", false
}

// nameStopWords are label, filler and activity words that can never be part
// of a participant name.
var nameStopWords = func() map[string]bool {
	words := []string{
		// labels
		"שם", "מלא", "משתתף", "משתתפת", "המשתתף", "המשתתפת", "תעודת", "זהות", "הזהות",
		"מספר", "המספר", "מס", "מס'", "קבלה", "הקבלה", "וקבלה", "חשבונית", "סכום", "ששולם",
		"תשלום", "שולם", "שילם", "שילמה", "שילמו", "השתתף", "השתתפה", "השתתפו", "הגיע",
		"הגיעה", "נרשם", "נרשמה", "שקל", "שקלים", "שח", "תאריך",
		// fillers and pronouns
		"גם", "וגם", "היא", "הוא", "והיא", "והוא", "הם", "הן", "של", "שלה", "שלו", "עבור",
		"את", "עם", "בנוסף", "לבסוף", "ביום", "היום", "אחר", "כך",
		// activity vocabulary
		"התעמלות", "הריון", "היריון", "בהריון", "לידה", "הלידה", "לאחר", "אחרי", "קורס",
		"בקורס", "הקורס", "לקורס", "קורסים", "לקורסים", "בקורסים", "סדנה", "סדנת", "שיעור",
	}
	set := make(map[string]bool, len(words)+12)
	for _, w := range words {
		set[w] = true
	}
	for _, m := range model.HebrewMonths() {
		set[m] = true
	}
	return set
}()

// wordSpan is one whitespace-delimited word and its byte offsets
type wordSpan struct {
	text       string
	start, end int
}

func splitWords(s string) []wordSpan {
	var words []wordSpan
	start := -1
	for i, r := range s {
		space := r == ' ' || r == '\t'
		switch {
		case !space && start < 0:
			start = i
		case space && start >= 0:
			words = append(words, wordSpan{text: s[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, wordSpan{text: s[start:], start: start, end: len(s)})
	}
	return words
}

func isNameWord(w string) bool {
	return utf8.RuneCountInString(w) >= 2 && !nameStopWords[w]
}

// nameSegments splits a run of Hebrew words into maximal sequences of
// consecutive name words.
func nameSegments(run string) [][]wordSpan {
	var segments [][]wordSpan
	var current []wordSpan
	for _, w := range splitWords(run) {
		if isNameWord(w.text) {
			current = append(current, w)
			continue
		}
		if len(current) > 0 {
			segments = append(segments, current)
			current = nil
		}
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

func joinWords(words []wordSpan) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

// cleanName keeps the first segment of name words, capped at four words,
// and rejects it when shorter than minWords.
func cleanName(minWords int) func(string) (string, bool) {
	return func(run string) (string, bool) {
		segments := nameSegments(run)
		if len(segments) == 0 {
			return "", false
		}
		words := segments[0]
		if len(words) > 4 {
			words = words[:4]
		}
		if len(words) < minWords {
			return "", false
		}
		return joinWords(words), true
	}
}

// cleanLeadingName is cleanName for runs that must open with the name
// itself, such as the first words of a chunk.
func cleanLeadingName(minWords int) func(string) (string, bool) {
	return func(run string) (string, bool) {
		segments := nameSegments(run)
		if len(segments) == 0 || segments[0][0].start != 0 {
			return "", false
		}
		return cleanName(minWords)(run)
	}
}

func cleanReceipt(v string) (string, bool) {
	v = strings.Trim(v, "-/")
	return v, v != ""
}

func cleanAmount(v string) (string, bool) {
	v = NormalizeAmount(v)
	return v, v != ""
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
