package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Format names an input format.
type Format string

// Supported input formats.
const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

// jsonInput is the top-level native input structure.
type jsonInput struct {
	Version     string       `json:"version"`
	Tool        string       `json:"tool"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// ReadJSON reads diagnostics in the native format. The document is
// validated against InputSchema before it is decoded.
func ReadJSON(r io.Reader) ([]Diagnostic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) ([]Diagnostic, error) {
	sch, err := compiledInputSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing diagnostics JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("diagnostics do not match schema: %w", err)
	}

	var in jsonInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decoding diagnostics: %w", err)
	}
	assignIDs(in.Diagnostics)
	return in.Diagnostics, nil
}

// ReadFile reads diagnostics from path. With FormatAuto the format is
// chosen by extension (".sarif") or, for other files, by the presence
// of a top-level "runs" key.
func ReadFile(path string, format Format) ([]Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}

	if format == "" || format == FormatAuto {
		format = detect(path, data)
	}

	var diags []Diagnostic
	switch format {
	case FormatJSON:
		diags, err = decodeJSON(data)
	case FormatSARIF:
		diags, err = decodeSARIF(data)
	default:
		return nil, fmt.Errorf("unknown diagnostics format %q: must be 'auto', 'json', or 'sarif'", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return diags, nil
}

func detect(path string, data []byte) Format {
	if strings.EqualFold(filepath.Ext(path), ".sarif") {
		return FormatSARIF
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if _, ok := probe["runs"]; ok {
			return FormatSARIF
		}
	}
	return FormatJSON
}
