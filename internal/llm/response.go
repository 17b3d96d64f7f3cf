package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/physioform/internal/model"
)

// Extraction is the validated result of one AI extraction call
type Extraction struct {
	Participants []model.ParticipantRecord
	ActivityType *model.ActivityType
	Model        string
	TokensUsed   int
}

// ParseResponse turns a model reply into an Extraction. The reply may be
// wrapped in a Markdown code fence or surrounded by prose; the outermost
// JSON object or array is used. A bare array is read as the participant
// list. Unknown activity labels are dropped.
func ParseResponse(content string) (*Extraction, error) {
	raw, ok := jsonPayload(content)
	if !ok {
		return nil, &ExtractionError{Stage: StageParse, Err: eris.New("no JSON found in response")}
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, &ExtractionError{Stage: StageParse, Err: eris.Wrap(err, "decode response")}
	}

	if list, ok := decoded.([]any); ok {
		decoded = map[string]any{"participants": list}
	}

	if err := validateResponse(decoded); err != nil {
		return nil, &ExtractionError{Stage: StageSchema, Err: err}
	}

	obj := decoded.(map[string]any)
	items := obj["participants"].([]any)

	ext := &Extraction{Participants: make([]model.ParticipantRecord, 0, len(items))}
	for _, item := range items {
		fields := item.(map[string]any)
		ext.Participants = append(ext.Participants, model.ParticipantRecord{
			Name:          scalar(fields["name"]),
			NationalID:    scalar(fields["id"]),
			ReceiptNumber: scalar(fields["receipt_number"]),
			Amount:        scalar(fields["amount"]),
		})
	}

	if label, ok := obj["activity_type"].(string); ok {
		if activity, ok := model.ParseActivityType(label); ok {
			ext.ActivityType = model.ActivityPtr(activity)
		}
	}

	return ext, nil
}

// jsonPayload strips code fences and returns the outermost JSON value
func jsonPayload(content string) (string, bool) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end < start {
		return "", false
	}
	return s[start : end+1], true
}

// scalar renders a schema-valid field value as a string
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
