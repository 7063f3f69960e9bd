package report

// Schema is the JSON Schema (Draft 2020-12) for the verification
// JSON output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/noncompliant/verify-report.schema.json",
  "title": "Fixture Verification Report",
  "description": "Output schema for noncompliant verify --format=json",
  "type": "object",
  "required": ["version", "ok", "summary", "files"],
  "properties": {
    "version": {
      "type": "string",
      "description": "Tool version"
    },
    "ok": {
      "type": "boolean",
      "description": "True when no fixture has mismatches"
    },
    "summary": { "$ref": "#/$defs/Summary" },
    "files": {
      "type": "array",
      "items": { "$ref": "#/$defs/FileResult" }
    }
  },
  "$defs": {
    "Summary": {
      "type": "object",
      "required": ["fixtures", "passed", "failed", "expected", "actual", "orphans", "by_kind"],
      "properties": {
        "fixtures": { "type": "integer", "minimum": 0 },
        "passed": { "type": "integer", "minimum": 0 },
        "failed": { "type": "integer", "minimum": 0 },
        "expected": { "type": "integer", "minimum": 0 },
        "actual": { "type": "integer", "minimum": 0 },
        "orphans": {
          "type": "integer",
          "minimum": 0,
          "description": "Diagnostics reported for files that are not fixtures"
        },
        "by_kind": {
          "type": "object",
          "propertyNames": { "$ref": "#/$defs/Kind" },
          "additionalProperties": { "type": "integer", "minimum": 0 }
        }
      }
    },
    "FileResult": {
      "type": "object",
      "required": ["path", "rule", "expected", "actual", "matched", "mismatches"],
      "properties": {
        "path": {
          "type": "string",
          "description": "Fixture path relative to the fixtures directory"
        },
        "rule": { "type": "string" },
        "variant": { "type": "string" },
        "fixed": { "type": "boolean" },
        "expected": { "type": "integer", "minimum": 0 },
        "actual": { "type": "integer", "minimum": 0 },
        "matched": { "type": "integer", "minimum": 0 },
        "mismatches": {
          "type": "array",
          "items": { "$ref": "#/$defs/Mismatch" }
        }
      }
    },
    "Mismatch": {
      "type": "object",
      "required": ["kind", "file", "line"],
      "properties": {
        "kind": { "$ref": "#/$defs/Kind" },
        "file": { "type": "string" },
        "line": { "type": "integer", "minimum": 0 },
        "column": { "type": "integer", "minimum": 1 },
        "rule": { "type": "string" },
        "expected": {
          "type": "string",
          "description": "Annotation side of the mismatch"
        },
        "actual": {
          "type": "string",
          "description": "Reported side of the mismatch"
        },
        "diagnostic_id": {
          "type": "string",
          "description": "Stable identifier of the reported diagnostic (dg-XXXXXXXX)"
        }
      }
    },
    "Kind": {
      "type": "string",
      "enum": [
        "missing", "unexpected", "message_mismatch", "location_mismatch",
        "fixed_line_reported", "missing_secondary", "unexpected_secondary",
        "invalid_annotation"
      ]
    }
  }
}`
