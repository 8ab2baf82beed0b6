package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/ruteri/custom-producer-backend/interfaces"
)

// Type is the declared type of a payload field.
type Type string

const (
	TypeString  Type = "string"
	TypeEmail   Type = "email"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

var knownTypes = map[Type]bool{
	TypeString:  true,
	TypeEmail:   true,
	TypeInteger: true,
	TypeNumber:  true,
	TypeBoolean: true,
	TypeObject:  true,
	TypeArray:   true,
}

// ErrInvalidSchema is wrapped by every declaration error.
var ErrInvalidSchema = errors.New("invalid schema")

// Field is the canonical declaration of one payload field.
type Field struct {
	Name     string `yaml:"name"`
	Type     Type   `yaml:"type"`
	Required bool   `yaml:"required"`

	MinLength *int     `yaml:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty"`
	Minimum   *float64 `yaml:"minimum,omitempty"`
	Maximum   *float64 `yaml:"maximum,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Enum      []any    `yaml:"enum,omitempty"`
}

func (f Field) isText() bool {
	return f.Type == TypeString || f.Type == TypeEmail
}

func (f Field) isNumeric() bool {
	return f.Type == TypeInteger || f.Type == TypeNumber
}

// check reports every problem with a single declaration.
func (f Field) check() []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("field '%s': "+format, append([]any{f.Name}, args...)...))
	}

	if !knownTypes[f.Type] {
		fail("unknown field type '%s'", f.Type)
		return errs
	}

	if f.MinLength != nil || f.MaxLength != nil {
		if !f.isText() {
			fail("min_length/max_length only apply to string fields, not '%s'", f.Type)
		}
		if f.MinLength != nil && *f.MinLength < 0 {
			fail("min_length must not be negative")
		}
		if f.MaxLength != nil && *f.MaxLength < 0 {
			fail("max_length must not be negative")
		}
		if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
			fail("min_length %d is greater than max_length %d", *f.MinLength, *f.MaxLength)
		}
	}

	if f.Minimum != nil || f.Maximum != nil {
		if !f.isNumeric() {
			fail("minimum/maximum only apply to numeric fields, not '%s'", f.Type)
		}
		if f.Minimum != nil && f.Maximum != nil && *f.Minimum > *f.Maximum {
			fail("minimum %v is greater than maximum %v", *f.Minimum, *f.Maximum)
		}
	}

	if f.Pattern != "" {
		if !f.isText() {
			fail("pattern only applies to string fields, not '%s'", f.Type)
		} else if _, err := regexp.Compile(f.Pattern); err != nil {
			fail("invalid pattern: %v", err)
		}
	}

	if f.Enum != nil && len(f.Enum) == 0 {
		fail("enum must list at least one value")
	}

	return errs
}

// checkFields validates a list of canonical declarations as a whole.
func checkFields(fields []Field) error {
	var errs []error
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("field #%d has no name", i))
			continue
		}
		if f.Name == interfaces.ArgPayload || f.Name == interfaces.ArgForRotate {
			errs = append(errs, fmt.Errorf("field '%s': name is reserved", f.Name))
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("field '%s' is declared more than once", f.Name))
		}
		seen[f.Name] = true
		errs = append(errs, f.check()...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSchema, errors.Join(errs...))
	}
	return nil
}

// Names returns the sorted field names.
func Names(fields []Field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}
