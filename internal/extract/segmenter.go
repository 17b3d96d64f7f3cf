package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultAnchorWindow is how many characters may separate a bare name from
// the national ID that confirms it as a participant anchor.
const DefaultAnchorWindow = 100

// Chunk is the span of input text describing one participant
type Chunk struct {
	Text string
	// Offset is the byte position of the chunk in the normalized input
	Offset int
}

// Segmenter splits free text into per-participant chunks.
//
// A chunk starts at an anchor: either a name label at the start of a line
// ("שם:", "משתתפת") or a run of at least two name words followed closely by
// a nine-digit ID. Each ID confirms at most one anchor, so a participant
// written as "name, label: ID" does not produce two chunks.
type Segmenter struct {
	window int

	labelRe *regexp.Regexp
	runRe   *regexp.Regexp
	digitRe *regexp.Regexp
}

// NewSegmenter returns a segmenter using DefaultAnchorWindow
func NewSegmenter() *Segmenter {
	return NewSegmenterWithWindow(DefaultAnchorWindow)
}

// NewSegmenterWithWindow returns a segmenter with a custom name-to-ID window
func NewSegmenterWithWindow(window int) *Segmenter {
	if window <= 0 {
		window = DefaultAnchorWindow
	}
	return &Segmenter{
		window: window,
		labelRe: regexp.MustCompile(`(?m)^[ \t]*(?:(?:` + nameLabels + `)[ \t]*[:\-]|(?:` +
			participantLabels + `)[ \t]*[:\-]?[ \t]*[א-ת])`),
		runRe:   regexp.MustCompile(notLetter + `(` + nameRun + `)`),
		digitRe: regexp.MustCompile(`\d+`),
	}
}

// Segment splits text into chunks. Offsets refer to NormalizeText(text).
// Blank input yields no chunks; input without anchors yields one chunk.
func (s *Segmenter) Segment(text string) []Chunk {
	return s.segment(NormalizeText(text))
}

type anchor struct {
	start int
	label bool
	// id indexes the confirming national ID, for name-run anchors
	id int
}

type span struct{ start, end int }

func (s *Segmenter) segment(text string) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	starts := s.anchors(text)
	if len(starts) == 0 {
		return []Chunk{{Text: trimmed, Offset: strings.Index(text, trimmed)}}
	}

	chunks := make([]Chunk, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		body := strings.TrimSpace(text[start:end])
		if body == "" {
			continue
		}
		chunks = append(chunks, Chunk{Text: body, Offset: start})
	}
	return chunks
}

// anchors returns the sorted start offsets of all confirmed anchors
func (s *Segmenter) anchors(text string) []int {
	var ids []span
	for _, m := range s.digitRe.FindAllStringIndex(text, -1) {
		if m[1]-m[0] == 9 {
			ids = append(ids, span{m[0], m[1]})
		}
	}

	var candidates []anchor
	labelLines := make(map[int]bool)
	for _, m := range s.labelRe.FindAllStringIndex(text, -1) {
		start := m[0] + len(text[m[0]:m[1]]) - len(strings.TrimLeft(text[m[0]:m[1]], " \t"))
		candidates = append(candidates, anchor{start: start, label: true, id: -1})
		labelLines[lineStart(text, start)] = true
	}

	for _, m := range s.runRe.FindAllStringSubmatchIndex(text, -1) {
		runStart := m[2]
		if labelLines[lineStart(text, runStart)] {
			continue
		}
		for _, seg := range nameSegments(text[m[2]:m[3]]) {
			if len(seg) < 2 {
				continue
			}
			start := runStart + seg[0].start
			end := runStart + seg[len(seg)-1].end
			if len(seg) > 4 {
				// long runs are prose; only the words nearest the ID can be a name
				start = runStart + seg[len(seg)-2].start
			}
			if id := s.idAfter(text, ids, end); id >= 0 {
				candidates = append(candidates, anchor{start: start, id: id})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].start < candidates[j].start
	})

	claimed := make(map[int]bool)
	var starts []int
	for i, c := range candidates {
		if c.label {
			next := len(text)
			if i+1 < len(candidates) {
				next = candidates[i+1].start
			}
			for j, id := range ids {
				if id.start > c.start && id.start < next && !claimed[j] {
					claimed[j] = true
					break
				}
			}
			starts = append(starts, c.start)
			continue
		}
		if claimed[c.id] {
			continue
		}
		claimed[c.id] = true
		starts = append(starts, c.start)
	}
	return starts
}

// idAfter returns the index of the first ID starting within the window
// after pos, or -1.
func (s *Segmenter) idAfter(text string, ids []span, pos int) int {
	for i, id := range ids {
		if id.start < pos {
			continue
		}
		if utf8.RuneCountInString(text[pos:id.start]) <= s.window {
			return i
		}
		return -1
	}
	return -1
}

func lineStart(text string, pos int) int {
	return strings.LastIndexByte(text[:pos], '\n') + 1
}
