package diagnostic

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// SARIF 2.1.0 subset. Only the fields needed to place a result are
// decoded.
type sarifLog struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Results []sarifResult `json:"results"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations"`
	RelatedLocations []sarifLocation `json:"relatedLocations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifMessage         `json:"message"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation struct {
		URI string `json:"uri"`
	} `json:"artifactLocation"`
	Region sarifRegion `json:"region"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// ReadSARIF reads diagnostics from a SARIF 2.1.0 log, such as the one
// written by the C# compiler's /errorlog option. The first location of
// each result is the primary location and relatedLocations become
// secondary locations. Results without a physical location are
// skipped.
func ReadSARIF(r io.Reader) ([]Diagnostic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading SARIF: %w", err)
	}
	return decodeSARIF(data)
}

func decodeSARIF(data []byte) ([]Diagnostic, error) {
	var log sarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decoding SARIF: %w", err)
	}
	if !strings.HasPrefix(log.Version, "2.") {
		return nil, fmt.Errorf("unsupported SARIF version %q: only 2.1.0 is supported", log.Version)
	}

	var diags []Diagnostic
	for _, run := range log.Runs {
		for _, res := range run.Results {
			if len(res.Locations) == 0 || res.Locations[0].PhysicalLocation.Region.StartLine == 0 {
				continue
			}
			d := Diagnostic{
				Rule:     res.RuleID,
				Severity: sarifSeverity(res.Level),
				Location: sarifToLocation(res.Locations[0]),
				Message:  res.Message.Text,
			}
			for _, rel := range res.RelatedLocations {
				if rel.PhysicalLocation.Region.StartLine == 0 {
					continue
				}
				d.Secondary = append(d.Secondary, sarifToLocation(rel))
			}
			diags = append(diags, d)
		}
	}

	assignIDs(diags)
	return diags, nil
}

func sarifSeverity(level string) Severity {
	switch level {
	case "error":
		return SeverityError
	case "note":
		return SeverityNote
	case "none":
		return SeverityNone
	default:
		// SARIF's default level is "warning".
		return SeverityWarning
	}
}

func sarifToLocation(l sarifLocation) Location {
	region := l.PhysicalLocation.Region
	loc := Location{
		File:      uriToPath(l.PhysicalLocation.ArtifactLocation.URI),
		Line:      region.StartLine,
		Column:    region.StartColumn,
		EndLine:   region.EndLine,
		EndColumn: region.EndColumn,
	}
	if l.Message != nil {
		loc.Message = l.Message.Text
	}
	return loc
}

// uriToPath converts a SARIF artifact URI into a file path. file://
// URIs are decoded; relative references are returned as-is.
func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file:") {
		if p, err := url.PathUnescape(uri); err == nil {
			return p
		}
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	p := u.Path
	// file:///C:/src/Rule.cs parses to "/C:/src/Rule.cs".
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return p
}
