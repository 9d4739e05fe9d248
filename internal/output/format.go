// Package output renders command results as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid format %q: must be text, json or yaml", s)
}

// WriteJSON encodes payload as JSON, indented when pretty is set.
func WriteJSON(w io.Writer, payload interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

// WriteYAML encodes payload as YAML.
func WriteYAML(w io.Writer, payload interface{}) error {
	data, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Write encodes payload in format. Text output is delegated to text.
func Write(w io.Writer, format Format, payload interface{}, text func(io.Writer) error) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, payload, true)
	case FormatYAML:
		return WriteYAML(w, payload)
	default:
		return text(w)
	}
}
