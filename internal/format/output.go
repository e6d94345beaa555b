// Package format renders command results as JSON, EDN or YAML.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	JSON = "json"
	EDN  = "edn"
	YAML = "yaml"
)

func Formats() []string { return []string{JSON, EDN, YAML} }

// Normalize lower-cases a format name and maps aliases. It reports false for unknown formats.
func Normalize(format string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", JSON:
		return JSON, true
	case EDN:
		return EDN, true
	case YAML, "yml":
		return YAML, true
	default:
		return "", false
	}
}

// Write writes v in the requested format. Struct fields are named by their json tags in
// every format.
func Write(w io.Writer, v any, format string, pretty bool) error {
	f, ok := Normalize(format)
	if !ok {
		return fmt.Errorf("unknown format: %s (want json|edn|yaml)", format)
	}
	switch f {
	case EDN:
		return WriteEDN(w, v, pretty)
	case YAML:
		return WriteYAML(w, v)
	default:
		return WriteJSON(w, v, pretty)
	}
}

// WriteJSON writes strict JSON followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteYAML writes v as a YAML document. YAML output is always indented.
func WriteYAML(w io.Writer, v any) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(x); err != nil {
		return err
	}
	return enc.Close()
}

// generic round-trips v through JSON so json tags and json.RawMessage payloads are honoured.
func generic(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return x, nil
}
