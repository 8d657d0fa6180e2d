package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// searchSchema pins down the parts of the catalog's search envelope we rely
// on, so a shape change upstream surfaces as a validation error instead of
// silently-empty results.
var searchSchema = map[string]any{
	"type":     "object",
	"required": []any{"products"},
	"properties": map[string]any{
		"products": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"code"},
				"properties": map[string]any{
					"code":         map[string]any{"type": "string"},
					"product_name": map[string]any{"type": "string"},
				},
			},
		},
	},
}

var compiledSearchSchema = mustCompile(searchSchema)

func mustCompile(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

func validateSearchEnvelope(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := compiledSearchSchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
