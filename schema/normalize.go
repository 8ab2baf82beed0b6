package schema

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Normalize resolves a schema declaration into canonical fields.
//
// Accepted shapes:
//   - []Field
//   - []string: every name becomes an optional string field
//   - []any mixing names, Field values and option maps such as
//     {name: age, type: integer, required: true, minimum: 0}
//
// A nil declaration yields no fields. Anything else is rejected.
func Normalize(decl any) ([]Field, error) {
	var fields []Field

	switch d := decl.(type) {
	case nil:
		return nil, nil
	case []Field:
		fields = append(fields, d...)
	case []string:
		for _, name := range d {
			fields = append(fields, Field{Name: name, Type: TypeString})
		}
	case []any:
		for i, item := range d {
			f, err := normalizeItem(item)
			if err != nil {
				return nil, fmt.Errorf("%w: entry #%d: %w", ErrInvalidSchema, i, err)
			}
			fields = append(fields, f)
		}
	default:
		return nil, fmt.Errorf("%w: schema must be a list of field declarations, got %T", ErrInvalidSchema, decl)
	}

	for i := range fields {
		if fields[i].Type == "" {
			fields[i].Type = TypeString
		}
	}

	if err := checkFields(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func normalizeItem(item any) (Field, error) {
	switch v := item.(type) {
	case string:
		return Field{Name: v, Type: TypeString}, nil
	case Field:
		return v, nil
	case map[string]any:
		return fieldFromOptions(v)
	default:
		return Field{}, fmt.Errorf("cannot declare a field from %T", item)
	}
}

func fieldFromOptions(opts map[string]any) (Field, error) {
	var f Field
	var errs []error

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := opts[key]
		switch key {
		case "name":
			s, ok := value.(string)
			if !ok {
				errs = append(errs, fmt.Errorf("name must be a string"))
			}
			f.Name = s
		case "type":
			s, ok := value.(string)
			if !ok {
				errs = append(errs, fmt.Errorf("type must be a string"))
			}
			f.Type = Type(s)
		case "required":
			b, ok := value.(bool)
			if !ok {
				errs = append(errs, fmt.Errorf("required must be a boolean"))
			}
			f.Required = b
		case "min_length", "max_length":
			n, ok := toInt(value)
			if !ok {
				errs = append(errs, fmt.Errorf("%s must be an integer", key))
				continue
			}
			if key == "min_length" {
				f.MinLength = &n
			} else {
				f.MaxLength = &n
			}
		case "minimum", "maximum":
			n, ok := toFloat(value)
			if !ok {
				errs = append(errs, fmt.Errorf("%s must be a number", key))
				continue
			}
			if key == "minimum" {
				f.Minimum = &n
			} else {
				f.Maximum = &n
			}
		case "pattern":
			s, ok := value.(string)
			if !ok {
				errs = append(errs, fmt.Errorf("pattern must be a string"))
			}
			f.Pattern = s
		case "enum":
			list, ok := value.([]any)
			if !ok {
				errs = append(errs, fmt.Errorf("enum must be a list"))
				continue
			}
			f.Enum = list
		default:
			errs = append(errs, fmt.Errorf("unknown option '%s'", key))
		}
	}

	return f, errors.Join(errs...)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
