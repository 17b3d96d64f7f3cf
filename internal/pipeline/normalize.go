package pipeline

import (
	"strings"

	"github.com/ppiankov/physioform/internal/extract"
	"github.com/ppiankov/physioform/internal/model"
)

const (
	msgAISuccess            = "Text processed successfully using AI-powered extraction"
	msgDeterministicSuccess = "Text processed successfully using pattern-based extraction"
	msgNothingFound         = "No participant information or activity type found in the text"
	msgEmptyText            = "Text cannot be empty"
)

const nationalIDLength = 9

// normalizeRecord cleans one record the same way whichever strategy
// produced it
func normalizeRecord(r model.ParticipantRecord) model.ParticipantRecord {
	return model.ParticipantRecord{
		Name:          strings.Join(strings.Fields(extract.NormalizeText(r.Name)), " "),
		NationalID:    normalizeNationalID(r.NationalID),
		ReceiptNumber: strings.TrimSpace(r.ReceiptNumber),
		Amount:        extract.NormalizeAmount(r.Amount),
	}
}

// normalizeNationalID keeps the digits of id when there are exactly nine
// of them. Separators such as dashes or spaces are allowed.
func normalizeNationalID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '\t':
		default:
			return ""
		}
	}
	if b.Len() != nationalIDLength {
		return ""
	}
	return b.String()
}

// finalize turns a strategy outcome into the response shape
func finalize(out *Outcome, method model.Method) model.ExtractionResult {
	participants := []model.ParticipantRecord{}
	var activity *model.ActivityType

	if out != nil {
		activity = out.ActivityType
		for _, r := range out.Participants {
			r = normalizeRecord(r)
			if r.IsEmpty() {
				continue
			}
			participants = append(participants, r)
		}
	}

	result := model.ExtractionResult{
		ActivityType:      activity,
		Participants:      participants,
		TotalParticipants: len(participants),
		Success:           len(participants) > 0 || activity != nil,
		Method:            method,
	}

	switch {
	case !result.Success:
		result.Message = msgNothingFound
	case method == model.MethodAI:
		result.Message = msgAISuccess
	default:
		result.Message = msgDeterministicSuccess
	}
	return result
}

func emptyTextResult() model.ExtractionResult {
	return model.ExtractionResult{
		Participants: []model.ParticipantRecord{},
		Success:      false,
		Method:       model.MethodNone,
		Message:      msgEmptyText,
	}
}
