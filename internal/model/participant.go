package model

import "time"

// ParticipantRecord is one workshop participant as extracted from text.
// Every field is always present; a field that was not found is "".
type ParticipantRecord struct {
	Name          string `json:"name"`
	NationalID    string `json:"id"`
	ReceiptNumber string `json:"receipt_number"`
	Amount        string `json:"amount"`
}

// IsEmpty reports whether no field of the record was extracted
func (r ParticipantRecord) IsEmpty() bool {
	return r.Name == "" && r.NationalID == "" && r.ReceiptNumber == "" && r.Amount == ""
}

// Method identifies the strategy that produced an ExtractionResult
type Method string

const (
	MethodNone          Method = ""
	MethodAI            Method = "ai"
	MethodDeterministic Method = "deterministic"
)

// ExtractionResult is the outcome of one extraction request
type ExtractionResult struct {
	ActivityType      *ActivityType       `json:"activity_type"`
	Participants      []ParticipantRecord `json:"participants"`
	TotalParticipants int                 `json:"total_participants"`
	Success           bool                `json:"success"`
	Method            Method              `json:"method"`
	Message           string              `json:"message"`
}

// CapabilityStatus describes which extraction strategies are usable right now
type CapabilityStatus struct {
	AIExtraction  bool      `json:"ai_extraction"`
	RegexFallback bool      `json:"regex_fallback"`
	CheckedAt     time.Time `json:"checked_at"`
}
