package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestNormalize_Shorthand(t *testing.T) {
	fields, err := Normalize([]any{
		"name",
		map[string]any{"name": "age", "type": "integer", "required": true, "minimum": 0},
		Field{Name: "email", Type: TypeEmail},
	})
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, Field{Name: "name", Type: TypeString}, fields[0])
	assert.Equal(t, "age", fields[1].Name)
	assert.Equal(t, TypeInteger, fields[1].Type)
	assert.True(t, fields[1].Required)
	require.NotNil(t, fields[1].Minimum)
	assert.Equal(t, 0.0, *fields[1].Minimum)
	assert.Equal(t, TypeEmail, fields[2].Type)
}

func TestNormalize_Nil(t *testing.T) {
	fields, err := Normalize(nil)
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		decl     any
		contains string
	}{
		{
			name:     "not a sequence",
			decl:     map[string]any{"name": "string"},
			contains: "must be a list of field declarations",
		},
		{
			name:     "duplicate names",
			decl:     []string{"name", "name"},
			contains: "declared more than once",
		},
		{
			name:     "unknown type",
			decl:     []any{map[string]any{"name": "x", "type": "uuid"}},
			contains: "unknown field type 'uuid'",
		},
		{
			name:     "conflicting lengths",
			decl:     []Field{{Name: "x", Type: TypeString, MinLength: intPtr(5), MaxLength: intPtr(2)}},
			contains: "greater than max_length",
		},
		{
			name:     "length on integer",
			decl:     []Field{{Name: "x", Type: TypeInteger, MaxLength: intPtr(2)}},
			contains: "only apply to string fields",
		},
		{
			name:     "bad pattern",
			decl:     []Field{{Name: "x", Type: TypeString, Pattern: "("}},
			contains: "invalid pattern",
		},
		{
			name:     "reserved name",
			decl:     []string{"payload"},
			contains: "name is reserved",
		},
		{
			name:     "unknown option",
			decl:     []any{map[string]any{"name": "x", "colour": "red"}},
			contains: "unknown option 'colour'",
		},
		{
			name:     "unnamed field",
			decl:     []any{map[string]any{"type": "string"}},
			contains: "has no name",
		},
		{
			name:     "non declarable entry",
			decl:     []any{42},
			contains: "cannot declare a field from int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.decl)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchema)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	fields, err := Normalize([]any{
		map[string]any{"name": "name", "required": true, "min_length": 2},
		map[string]any{"name": "age", "type": "integer", "maximum": 150},
		map[string]any{"name": "role", "enum": []any{"reader", "writer"}},
	})
	require.NoError(t, err)

	s, err := Compile(fields)
	require.NoError(t, err)

	t.Run("valid payload", func(t *testing.T) {
		inputErrors, err := s.Validate(map[string]any{"name": "bob", "age": 42.0, "role": "reader"})
		require.NoError(t, err)
		assert.Empty(t, inputErrors)
	})

	t.Run("unknown field", func(t *testing.T) {
		inputErrors, err := s.Validate(map[string]any{"name": "bob", "shoe_size": 44.0})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"shoe_size": "'shoe_size' is not an allowed input field"}, inputErrors)
	})

	t.Run("missing required field", func(t *testing.T) {
		inputErrors, err := s.Validate(map[string]any{"age": 10.0})
		require.NoError(t, err)
		assert.Equal(t, "'name' is required", inputErrors["name"])
	})

	t.Run("per field failures", func(t *testing.T) {
		inputErrors, err := s.Validate(map[string]any{"name": "b", "age": "old", "role": "admin"})
		require.NoError(t, err)
		assert.Len(t, inputErrors, 3)
		assert.Contains(t, inputErrors, "name")
		assert.Contains(t, inputErrors, "age")
		assert.Contains(t, inputErrors, "role")
	})
}

func TestSchema_FieldLookup(t *testing.T) {
	s, err := Compile([]Field{{Name: "user", Type: TypeString, Required: true}})
	require.NoError(t, err)

	f, ok := s.Field("user")
	assert.True(t, ok)
	assert.True(t, f.Required)

	_, ok = s.Field("other")
	assert.False(t, ok)
	assert.Equal(t, []string{"user"}, Names(s.Fields()))
}
