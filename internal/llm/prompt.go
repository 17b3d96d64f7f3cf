package llm

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tyler-sommer/stick"

	"github.com/ppiankov/physioform/internal/model"
)

const systemPrompt = "You are a helpful assistant that processes Hebrew text and extracts structured information. " +
	"Always respond with a single valid JSON object and nothing else."

// extractionTemplate is a Twig template. The JSON example uses single braces
// only so the template lexer leaves it alone.
const extractionTemplate = `You are an expert Hebrew text processor specializing in extracting participant information from physiotherapy workshop reports.

Extract every participant mentioned in the Hebrew text below. For each participant find:
- שם (name): the person's full name in Hebrew, never an activity name
- תעודת זהות (id): the 9-digit Israeli ID number
- מספר קבלה (receipt_number): the receipt or invoice number (קבלה, חשבונית)
- סכום ששולם (amount): the amount paid, digits only, without currency symbols

Also decide which workshop the text describes. Use exactly one of these labels, or null if neither fits:
- {{ post_birth }}
- {{ pregnancy }}

Hebrew text:
"""
{{ text }}
"""

Rules:
1. Return one entry per participant, in the order they appear.
2. Use null for any field that is not mentioned. Do not guess.
3. Do not merge two people into one entry.

Respond with JSON in exactly this shape:
{"activity_type": "{{ pregnancy }}", "participants": [{"name": "שרה כהן", "id": "123456789", "receipt_number": "12345", "amount": "250"}]}
`

// PromptRenderer renders the extraction prompt from a Twig template
type PromptRenderer struct {
	env      *stick.Env
	template string
}

// NewPromptRenderer returns a renderer for the built-in extraction template
func NewPromptRenderer() *PromptRenderer {
	return &PromptRenderer{
		env:      stick.New(nil),
		template: extractionTemplate,
	}
}

// WithTemplate returns a copy of r rendering tpl instead
func (r *PromptRenderer) WithTemplate(tpl string) *PromptRenderer {
	return &PromptRenderer{env: r.env, template: tpl}
}

// System returns the system instruction sent with every prompt
func (r *PromptRenderer) System() string {
	return systemPrompt
}

// Render builds the user prompt for text
func (r *PromptRenderer) Render(text string) (string, error) {
	ctx := map[string]stick.Value{
		"text":       strings.TrimSpace(text),
		"post_birth": string(model.ActivityPostBirth),
		"pregnancy":  string(model.ActivityPregnancy),
	}

	var out strings.Builder
	if err := r.env.Execute(r.template, &out, ctx); err != nil {
		return "", eris.Wrap(err, "render extraction prompt")
	}
	return out.String(), nil
}
