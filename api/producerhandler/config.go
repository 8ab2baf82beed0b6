package producerhandler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/ruteri/custom-producer-backend/schema"
)

// Default endpoint paths, relative to BaseURL.
const (
	DefaultCreateEndpoint = "sync/create"
	DefaultRevokeEndpoint = "sync/revoke"
	DefaultRotateEndpoint = "sync/rotate"
)

// Config describes one producer endpoint. Build it from DefaultConfig, override
// what is needed, then hand it to NewHandler which checks and finalizes it.
type Config struct {
	// BaseURL prefixes every endpoint. Leading and trailing slashes are ignored.
	BaseURL string

	CreateEndpoint string
	RevokeEndpoint string
	RotateEndpoint string

	// CanRotate enables the rotate endpoint; Rotate is then required.
	CanRotate bool

	Create *interfaces.Callable
	Revoke *interfaces.Callable
	Rotate *interfaces.Callable

	// IDColumnName names the key in a create result that identifies the
	// credential in later revoke and rotate calls.
	IDColumnName string

	// Schema is an optional payload declaration in any shape schema.Normalize
	// accepts. Without it payloads are passed through unchecked.
	Schema any

	// Authentication defaults to PublicAuth.
	Authentication AuthPolicy

	finalized bool
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "",
		CreateEndpoint: DefaultCreateEndpoint,
		RevokeEndpoint: DefaultRevokeEndpoint,
		RotateEndpoint: DefaultRotateEndpoint,
		CanRotate:      true,
	}
}

// ConfigError is a setup-time problem with a handler configuration.
type ConfigError struct {
	Handler string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration error for handler '%s': %s", e.Handler, e.Message)
}

// Check validates the configuration without modifying it. Every check runs;
// all failures are returned joined.
func (c Config) Check(name string) error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Handler: name, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.CanRotate {
		if c.Rotate == nil {
			fail("rotate_callable", "you must provide the rotate callable or set 'can_rotate' to false")
		} else if c.Rotate.Func == nil {
			fail("rotate_callable", "'rotate_callable' must be a callable but was something else")
		}
	}

	for _, entry := range []struct {
		field    string
		callable *interfaces.Callable
	}{
		{"create_callable", c.Create},
		{"revoke_callable", c.Revoke},
	} {
		if entry.callable == nil {
			fail(entry.field, "you must provide '%s'", entry.field)
		} else if entry.callable.Func == nil {
			fail(entry.field, "'%s' must be a callable but was something else", entry.field)
		}
	}

	if strings.TrimSpace(c.IDColumnName) == "" {
		fail("id_column_name", "you must provide 'id_column_name': it names the column of the create_callable result "+
			"that identifies the credential, which is passed along to later revoke and rotate calls")
	}

	var fields []schema.Field
	if c.Schema != nil {
		var err error
		fields, err = schema.Normalize(c.Schema)
		if err == nil {
			_, err = schema.Compile(fields)
		}
		if err != nil {
			fail("schema", "%v", err)
			fields = nil
		}
	}

	create, revoke, rotate := composeEndpoints(c.BaseURL, c.CreateEndpoint, c.RevokeEndpoint, c.RotateEndpoint)
	for _, endpoint := range [][2]string{{"create_endpoint", create}, {"revoke_endpoint", revoke}, {"rotate_endpoint", rotate}} {
		if endpoint[1] == "" {
			fail(endpoint[0], "'%s' resolves to an empty path", endpoint[0])
		}
	}

	// an empty declaration is no schema
	schemaDeclared := len(fields) > 0
	for _, entry := range []struct {
		field       string
		callable    *interfaces.Callable
		receivesID  bool
		shouldExist bool
	}{
		{"create_callable", c.Create, false, true},
		{"revoke_callable", c.Revoke, true, true},
		{"rotate_callable", c.Rotate, true, c.CanRotate},
	} {
		if entry.callable == nil || !entry.shouldExist {
			continue
		}
		for _, param := range entry.callable.Params {
			if param == interfaces.ArgPayload || param == interfaces.ArgForRotate {
				continue
			}
			if entry.receivesID && param == c.IDColumnName {
				continue
			}
			if !schemaDeclared {
				continue
			}
			f, ok := findField(fields, param)
			if !ok {
				fail(entry.field, "'%s' requires parameter '%s' which is not a field of the schema", entry.field, param)
			} else if !f.Required {
				fail(entry.field, "'%s' requires parameter '%s' but the schema declares it as optional", entry.field, param)
			}
		}
	}

	return errors.Join(errs...)
}

// Finalize composes the endpoint paths and resolves the schema shorthand into
// canonical fields. Finalizing a finalized configuration returns it unchanged.
func (c Config) Finalize() (Config, error) {
	if c.finalized {
		return c, nil
	}

	c.BaseURL = strings.Trim(c.BaseURL, "/")
	c.CreateEndpoint, c.RevokeEndpoint, c.RotateEndpoint = composeEndpoints(c.BaseURL, c.CreateEndpoint, c.RevokeEndpoint, c.RotateEndpoint)

	if c.Schema != nil {
		fields, err := schema.Normalize(c.Schema)
		if err != nil {
			return Config{}, err
		}
		c.Schema = fields
		if len(fields) == 0 {
			c.Schema = nil
		}
	}

	if c.Authentication == nil {
		c.Authentication = PublicAuth{}
	}

	c.finalized = true
	return c, nil
}

// Finalized reports whether Finalize produced this value.
func (c Config) Finalized() bool {
	return c.finalized
}

func composeEndpoints(baseURL, create, revoke, rotate string) (string, string, string) {
	base := strings.Trim(baseURL, "/")
	compose := func(endpoint string) string {
		return strings.TrimLeft(base+"/"+strings.Trim(endpoint, "/"), "/")
	}
	return compose(create), compose(revoke), compose(rotate)
}

func findField(fields []schema.Field, name string) (schema.Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}
