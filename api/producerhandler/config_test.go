package producerhandler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/ruteri/custom-producer-backend/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopCallable(name string, params ...string) *interfaces.Callable {
	return interfaces.NewCallable(name, func(ctx context.Context, args *interfaces.Arguments) (interfaces.CredentialResult, error) {
		return interfaces.CredentialResult{"id": "1"}, nil
	}, params...)
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Create = noopCallable("create")
	cfg.Revoke = noopCallable("revoke")
	cfg.Rotate = noopCallable("rotate")
	cfg.IDColumnName = "id"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.BaseURL)
	assert.Equal(t, "sync/create", cfg.CreateEndpoint)
	assert.Equal(t, "sync/revoke", cfg.RevokeEndpoint)
	assert.Equal(t, "sync/rotate", cfg.RotateEndpoint)
	assert.True(t, cfg.CanRotate)
	assert.False(t, cfg.Finalized())
}

func TestCheck_Valid(t *testing.T) {
	require.NoError(t, validConfig().Check("test"))
}

func TestCheck_MissingCallables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IDColumnName = "id"

	err := cfg.Check("test")
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "Configuration error for handler 'test': you must provide the rotate callable or set 'can_rotate' to false")
	assert.Contains(t, msg, "Configuration error for handler 'test': you must provide 'create_callable'")
	assert.Contains(t, msg, "Configuration error for handler 'test': you must provide 'revoke_callable'")

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "test", cfgErr.Handler)
}

func TestCheck_RotateOnlyRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Rotate = nil
	require.Error(t, cfg.Check("test"))

	cfg.CanRotate = false
	require.NoError(t, cfg.Check("test"))
}

func TestCheck_CallableWithoutFunc(t *testing.T) {
	cfg := validConfig()
	cfg.Create = &interfaces.Callable{Name: "create"}
	cfg.Rotate = &interfaces.Callable{Name: "rotate"}

	err := cfg.Check("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'create_callable' must be a callable but was something else")
	assert.Contains(t, err.Error(), "'rotate_callable' must be a callable but was something else")
}

func TestCheck_IDColumnRequired(t *testing.T) {
	for _, column := range []string{"", "   "} {
		cfg := validConfig()
		cfg.IDColumnName = column

		err := cfg.Check("test")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "you must provide 'id_column_name'")
		assert.Contains(t, err.Error(), "later revoke and rotate calls")
	}
}

func TestCheck_Schema(t *testing.T) {
	tests := []struct {
		name     string
		schema   any
		contains string
	}{
		{"not a sequence", "name,age", "must be a list of field declarations"},
		{"duplicate names", []string{"user", "user"}, "declared more than once"},
		{"unknown type", []any{map[string]any{"name": "user", "type": "blob"}}, "unknown field type 'blob'"},
		{"conflicting validators", []any{map[string]any{"name": "age", "type": "integer", "minimum": 10, "maximum": 1}}, "greater than maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Schema = tt.schema

			err := cfg.Check("test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Configuration error for handler 'test':")
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCheck_CallableParamsAgainstSchema(t *testing.T) {
	schemaDecl := []any{
		map[string]any{"name": "username", "required": true},
		map[string]any{"name": "comment"},
	}

	t.Run("satisfied", func(t *testing.T) {
		cfg := validConfig()
		cfg.Schema = schemaDecl
		cfg.Create = noopCallable("create", "username", "payload", "for_rotate")
		cfg.Revoke = noopCallable("revoke", "id", "username")
		require.NoError(t, cfg.Check("test"))
	})

	t.Run("unknown parameter", func(t *testing.T) {
		cfg := validConfig()
		cfg.Schema = schemaDecl
		cfg.Create = noopCallable("create", "password")

		err := cfg.Check("test")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'create_callable' requires parameter 'password' which is not a field of the schema")
	})

	t.Run("optional field", func(t *testing.T) {
		cfg := validConfig()
		cfg.Schema = schemaDecl
		cfg.Rotate = noopCallable("rotate", "comment")

		err := cfg.Check("test")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'rotate_callable' requires parameter 'comment' but the schema declares it as optional")
	})

	t.Run("identifier column is not available to create", func(t *testing.T) {
		cfg := validConfig()
		cfg.Schema = schemaDecl
		cfg.Create = noopCallable("create", "id")
		require.Error(t, cfg.Check("test"))
	})

	t.Run("no schema", func(t *testing.T) {
		cfg := validConfig()
		cfg.Create = noopCallable("create", "anything")
		require.NoError(t, cfg.Check("test"))
	})
}

func TestCheck_EmptyEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.RevokeEndpoint = "/"

	err := cfg.Check("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'revoke_endpoint' resolves to an empty path")
}

func TestFinalize_Endpoints(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		create   string
		expected string
	}{
		{"no base url", "", "sync/create", "sync/create"},
		{"slashes around base url", "/api/", "sync/create", "api/sync/create"},
		{"slashes around endpoint", "api", "/sync/create/", "api/sync/create"},
		{"nested base url", "/v1/producers/db/", "create", "v1/producers/db/create"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.BaseURL = tt.baseURL
			cfg.CreateEndpoint = tt.create

			finalized, err := cfg.Finalize()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, finalized.CreateEndpoint)
			assert.True(t, finalized.Finalized())

			again, err := finalized.Finalize()
			require.NoError(t, err)
			assert.Equal(t, finalized.CreateEndpoint, again.CreateEndpoint)
			assert.Equal(t, finalized.RevokeEndpoint, again.RevokeEndpoint)
			assert.Equal(t, finalized.RotateEndpoint, again.RotateEndpoint)
		})
	}
}

func TestFinalize_DoesNotModifyOriginal(t *testing.T) {
	cfg := validConfig()
	cfg.BaseURL = "/api/"

	finalized, err := cfg.Finalize()
	require.NoError(t, err)

	assert.Equal(t, "/api/", cfg.BaseURL)
	assert.Equal(t, "sync/create", cfg.CreateEndpoint)
	assert.Equal(t, "api", finalized.BaseURL)
	assert.Equal(t, "api/sync/revoke", finalized.RevokeEndpoint)
	assert.Equal(t, "api/sync/rotate", finalized.RotateEndpoint)
}

func TestFinalize_ResolvesSchemaAndAuthentication(t *testing.T) {
	cfg := validConfig()
	cfg.Schema = []any{"username"}

	finalized, err := cfg.Finalize()
	require.NoError(t, err)

	assert.Equal(t, []schema.Field{{Name: "username", Type: schema.TypeString}}, finalized.Schema)
	assert.Equal(t, PublicAuth{}, finalized.Authentication)
}

func TestNewHandler_InvalidConfiguration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := validConfig()
	cfg.Revoke = nil

	h, err := NewHandler("broken", cfg, logger)
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Contains(t, err.Error(), "Configuration error for handler 'broken': you must provide 'revoke_callable'")
}

func TestFinalize_NormalizedValuesUnchanged(t *testing.T) {
	cfg := validConfig()
	cfg.BaseURL = ""
	cfg.CreateEndpoint = "api/sync/create"
	cfg.RevokeEndpoint = "api/sync/revoke"
	cfg.RotateEndpoint = "api/sync/rotate"

	finalized, err := cfg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "", finalized.BaseURL)
	assert.Equal(t, "api/sync/create", finalized.CreateEndpoint)
	assert.Equal(t, "api/sync/revoke", finalized.RevokeEndpoint)
	assert.Equal(t, "api/sync/rotate", finalized.RotateEndpoint)

	// a copy that lost the finalized flag composes to the same paths
	fresh := validConfig()
	fresh.BaseURL = finalized.BaseURL
	fresh.CreateEndpoint = finalized.CreateEndpoint
	fresh.RevokeEndpoint = finalized.RevokeEndpoint
	fresh.RotateEndpoint = finalized.RotateEndpoint

	again, err := fresh.Finalize()
	require.NoError(t, err)
	assert.Equal(t, finalized.CreateEndpoint, again.CreateEndpoint)
	assert.Equal(t, finalized.RevokeEndpoint, again.RevokeEndpoint)
	assert.Equal(t, finalized.RotateEndpoint, again.RotateEndpoint)
}

func TestFinalize_EmptySchemaIsNoSchema(t *testing.T) {
	for name, decl := range map[string]any{
		"nil string slice": []string(nil),
		"empty list":       []any{},
		"no fields":        []schema.Field{},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Schema = decl
			cfg.Create = noopCallable("create", "anything")
			require.NoError(t, cfg.Check("test"))

			finalized, err := cfg.Finalize()
			require.NoError(t, err)
			assert.Nil(t, finalized.Schema)
		})
	}
}
