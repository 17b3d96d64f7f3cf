package extract

import (
	"github.com/ppiankov/physioform/internal/model"
)

// Extractor is the pattern-based participant extractor. It never fails:
// fields it cannot find are left empty.
type Extractor struct {
	library    *Library
	segmenter  *Segmenter
	classifier *Classifier
}

// NewExtractor wires an extractor; nil arguments get the defaults
func NewExtractor(library *Library, segmenter *Segmenter, classifier *Classifier) *Extractor {
	if library == nil {
		library = NewLibrary()
	}
	if segmenter == nil {
		segmenter = NewSegmenter()
	}
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Extractor{
		library:    library,
		segmenter:  segmenter,
		classifier: classifier,
	}
}

// ExtractChunk applies every field's pattern table to one chunk
func (e *Extractor) ExtractChunk(chunk string) model.ParticipantRecord {
	return e.extractChunk(NormalizeText(chunk))
}

func (e *Extractor) extractChunk(normalized string) model.ParticipantRecord {
	var rec model.ParticipantRecord
	rec.Name, _ = e.library.match(FieldName, normalized)
	rec.NationalID, _ = e.library.match(FieldNationalID, normalized)
	rec.ReceiptNumber, _ = e.library.match(FieldReceiptNumber, normalized)
	rec.Amount, _ = e.library.match(FieldAmount, normalized)
	return rec
}

// Extract segments text and extracts one record per chunk. Chunks that
// yield no field at all are dropped.
func (e *Extractor) Extract(text string) []model.ParticipantRecord {
	normalized := NormalizeText(text)

	var records []model.ParticipantRecord
	for _, chunk := range e.segmenter.segment(normalized) {
		rec := e.extractChunk(chunk.Text)
		if rec.IsEmpty() {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Classify returns the activity type of the whole text
func (e *Extractor) Classify(text string) (model.ActivityType, bool) {
	return e.classifier.Classify(text)
}
