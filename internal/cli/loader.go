package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDocument reads a JSON or YAML document into native Go values
// (maps, slices, primitives) ready for encoding. format is "json",
// "yaml", or "" to pick by file extension.
func LoadDocument(path, format string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = "yaml"
		default:
			format = "json"
		}
	}

	switch format {
	case "yaml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", path, err)
		}
		return doc, nil

	case "json":
		// UseNumber keeps integers integral; plain Unmarshal would
		// widen every number to float64.
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse json %s: %w", path, err)
		}
		return normalizeNumbers(doc), nil

	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i := range val {
			val[i] = normalizeNumbers(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeNumbers(val[k])
		}
		return val
	default:
		return v
	}
}

// RenderDocument renders a decoded value as indented JSON for display.
// Mapping results with non-string keys are stringified, since JSON
// objects only take string keys.
func RenderDocument(v any) ([]byte, error) {
	return json.MarshalIndent(plainify(v), "", "  ")
}

func plainify(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, mv := range val {
			out[fmt.Sprint(k)] = plainify(mv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, mv := range val {
			out[k] = plainify(mv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = plainify(val[i])
		}
		return out
	default:
		return v
	}
}
