package llm

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var fieldType = map[string]any{"type": []any{"string", "number", "null"}}

// responseSchema is the contract a model reply must satisfy. Every record
// must carry all four keys; a missing value is null.
var responseSchema = map[string]any{
	"type":     "object",
	"required": []any{"participants"},
	"properties": map[string]any{
		"activity_type": map[string]any{"type": []any{"string", "null"}},
		"participants": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"name", "id", "receipt_number", "amount"},
				"properties": map[string]any{
					"name":           fieldType,
					"id":             fieldType,
					"receipt_number": fieldType,
					"amount":         fieldType,
				},
			},
		},
	},
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(responseSchema)
	if err != nil {
		return nil, eris.Wrap(err, "marshal schema")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, eris.Wrap(err, "add schema")
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, eris.Wrap(err, "compile schema")
	}
	return schema, nil
})

// validateResponse checks a decoded reply against responseSchema
func validateResponse(v any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return eris.Wrap(err, "response does not match schema")
	}
	return nil
}
