package diagnostic

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// InputSchema is the JSON Schema (Draft 2020-12) for the native
// diagnostics input format read by ReadJSON.
const InputSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/noncompliant/diagnostics.schema.json",
  "title": "Analyzer Diagnostics",
  "description": "Diagnostics reported by an analyzer run over rule fixtures",
  "type": "object",
  "required": ["diagnostics"],
  "properties": {
    "version": { "type": "string" },
    "tool": { "type": "string" },
    "diagnostics": {
      "type": "array",
      "items": { "$ref": "#/$defs/Diagnostic" }
    }
  },
  "$defs": {
    "Diagnostic": {
      "type": "object",
      "required": ["rule", "location", "message"],
      "properties": {
        "id": { "type": "string" },
        "rule": { "type": "string", "minLength": 1 },
        "severity": {
          "type": "string",
          "enum": ["error", "warning", "note", "none"]
        },
        "location": { "$ref": "#/$defs/Location" },
        "message": { "type": "string" },
        "secondary": {
          "type": "array",
          "items": { "$ref": "#/$defs/Location" }
        }
      }
    },
    "Location": {
      "type": "object",
      "required": ["file", "line"],
      "properties": {
        "file": { "type": "string", "minLength": 1 },
        "line": { "type": "integer", "minimum": 1 },
        "column": { "type": "integer", "minimum": 0 },
        "end_line": { "type": "integer", "minimum": 0 },
        "end_column": { "type": "integer", "minimum": 0 },
        "message": { "type": "string" }
      }
    }
  }
}`

var (
	inputSchemaOnce sync.Once
	inputSchema     *jsonschema.Schema
	inputSchemaErr  error
)

func compiledInputSchema() (*jsonschema.Schema, error) {
	inputSchemaOnce.Do(func() {
		sch, err := jsonschema.UnmarshalJSON(strings.NewReader(InputSchema))
		if err != nil {
			inputSchemaErr = fmt.Errorf("parsing input schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("diagnostics.schema.json", sch); err != nil {
			inputSchemaErr = fmt.Errorf("adding input schema: %w", err)
			return
		}
		inputSchema, inputSchemaErr = compiler.Compile("diagnostics.schema.json")
	})
	return inputSchema, inputSchemaErr
}
