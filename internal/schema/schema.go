// Package schema provides structural validation of agent output against an
// explicit, interpreted field specification. It never judges semantic
// correctness; that belongs to the metric layer.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
)

// FieldType tags the expected JSON shape of a field value.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeList    FieldType = "list"
)

// Field describes one schema field. Object fields nest via Fields; list
// fields describe their element shape via Elem.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Default  any       `json:"default,omitempty"`
	Fields   []Field   `json:"fields,omitempty"`
	Elem     *Field    `json:"elem,omitempty"`
}

// Schema is a declared output contract for one workflow.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Error reports a structural mismatch at a specific field path.
type Error struct {
	FieldPath string
	Expected  string
	Actual    string
	Reason    string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema error: field %q: %s", e.FieldPath, e.Reason)
	}
	return fmt.Sprintf("schema error: field %q: expected %s, got %s", e.FieldPath, e.Expected, e.Actual)
}

func newTypeError(path string, expected FieldType, value any) error {
	return &Error{FieldPath: path, Expected: string(expected), Actual: typeName(value)}
}

// LoadFile reads a schema definition from a JSON file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema file %s", path)
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "failed to parse schema file %s", path)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// check rejects malformed definitions at load time.
func (s *Schema) check() error {
	return checkFields("", s.Fields)
}

func checkFields(prefix string, fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		path := joinPath(prefix, f.Name)
		if f.Name == "" {
			return &Error{FieldPath: prefix, Reason: "field without a name"}
		}
		if seen[f.Name] {
			return &Error{FieldPath: path, Reason: "duplicate field"}
		}
		seen[f.Name] = true

		switch f.Type {
		case TypeString, TypeNumber, TypeInteger, TypeBoolean:
		case TypeObject:
			if err := checkFields(path, f.Fields); err != nil {
				return err
			}
		case TypeList:
			if f.Elem == nil {
				return &Error{FieldPath: path, Reason: "list field without elem"}
			}
			if err := checkFields(path, []Field{*f.Elem}); err != nil {
				return err
			}
		default:
			return &Error{FieldPath: path, Reason: fmt.Sprintf("unknown type %q", f.Type)}
		}
	}
	return nil
}

// Validate checks raw output against the schema. Required fields must be
// present with the declared type; optional fields receive their default
// when absent; unknown fields are preserved untouched.
func (s *Schema) Validate(raw map[string]any) (map[string]any, error) {
	return validateObject("", s.Fields, raw)
}

func validateObject(prefix string, fields []Field, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	for _, f := range fields {
		path := joinPath(prefix, f.Name)
		value, present := raw[f.Name]

		if !present || value == nil {
			if f.Required {
				return nil, &Error{FieldPath: path, Expected: string(f.Type), Actual: "missing", Reason: "required field is missing"}
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}

		coerced, err := validateValue(path, f, value)
		if err != nil {
			return nil, err
		}
		out[f.Name] = coerced
	}

	return out, nil
}

func validateValue(path string, f Field, value any) (any, error) {
	switch f.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, newTypeError(path, f.Type, value)
		}
		return s, nil

	case TypeNumber:
		switch n := value.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		}
		return nil, newTypeError(path, f.Type, value)

	case TypeInteger:
		switch n := value.(type) {
		case int:
			return n, nil
		case float64:
			// JSON decoding yields float64; accept integral values only.
			if n == math.Trunc(n) {
				return int(n), nil
			}
		}
		return nil, newTypeError(path, f.Type, value)

	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, newTypeError(path, f.Type, value)
		}
		return b, nil

	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, newTypeError(path, f.Type, value)
		}
		return validateObject(path, f.Fields, obj)

	case TypeList:
		list, ok := value.([]any)
		if !ok {
			return nil, newTypeError(path, f.Type, value)
		}
		out := make([]any, len(list))
		for i, item := range list {
			coerced, err := validateValue(fmt.Sprintf("%s[%d]", path, i), *f.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = coerced
		}
		return out, nil
	}

	return nil, &Error{FieldPath: path, Reason: fmt.Sprintf("unknown type %q", f.Type)}
}

// RequiredFields returns the names of top-level required fields.
func (s *Schema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64, int:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}
