package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const rootField = "(root)"

// Schema is a compiled, read-only set of field declarations. It is safe for
// concurrent use.
type Schema struct {
	fields   []Field
	byName   map[string]Field
	compiled *gojsonschema.Schema
}

// Compile checks fields and translates them into a JSON Schema document that
// rejects unknown properties.
func Compile(fields []Field) (*Schema, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(jsonSchemaFor(fields)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	return &Schema{
		fields:   append([]Field(nil), fields...),
		byName:   byName,
		compiled: compiled,
	}, nil
}

// Fields returns the declarations in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks up a declaration by name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Validate checks payload and returns one message per offending field. Unknown
// fields are reported under their own name. An empty map means the payload is
// valid.
func (s *Schema) Validate(payload map[string]any) (map[string]string, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("could not validate payload: %w", err)
	}

	inputErrors := make(map[string]string)
	if result.Valid() {
		return inputErrors, nil
	}

	for _, desc := range result.Errors() {
		field, message := describe(desc)
		if existing, ok := inputErrors[field]; ok {
			inputErrors[field] = existing + "; " + message
			continue
		}
		inputErrors[field] = message
	}
	return inputErrors, nil
}

func describe(desc gojsonschema.ResultError) (field, message string) {
	switch desc.Type() {
	case "additional_property_not_allowed":
		field = fmt.Sprint(desc.Details()["property"])
		return field, fmt.Sprintf("'%s' is not an allowed input field", field)
	case "required":
		field = fmt.Sprint(desc.Details()["property"])
		return field, fmt.Sprintf("'%s' is required", field)
	}

	field = desc.Field()
	if field == rootField {
		field = "payload"
	}
	// nested paths such as "tags.0" are reported on the top-level field
	field, _, _ = strings.Cut(field, ".")
	return field, desc.Description()
}

func jsonSchemaFor(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]any, 0)

	for _, f := range fields {
		prop := map[string]any{}
		switch f.Type {
		case TypeEmail:
			prop["type"] = "string"
			prop["format"] = "email"
		default:
			prop["type"] = string(f.Type)
		}
		if f.MinLength != nil {
			prop["minLength"] = *f.MinLength
		}
		if f.MaxLength != nil {
			prop["maxLength"] = *f.MaxLength
		}
		if f.Minimum != nil {
			prop["minimum"] = *f.Minimum
		}
		if f.Maximum != nil {
			prop["maximum"] = *f.Maximum
		}
		if f.Pattern != "" {
			prop["pattern"] = f.Pattern
		}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		properties[f.Name] = prop

		if f.Required {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}
