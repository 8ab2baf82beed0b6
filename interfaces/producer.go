package interfaces

import (
	"context"
	"errors"
	"fmt"
)

// Reserved argument names. They are always supplied by the dispatcher and may
// never be declared as payload fields.
const (
	ArgPayload   = "payload"
	ArgForRotate = "for_rotate"
)

var (
	// ErrMissingIdentifier is returned when a create or rotate callable produces a
	// result without the configured identifier column.
	ErrMissingIdentifier = errors.New("credential result is missing the identifier column")

	// ErrCredentialNotFound is returned by producers asked to revoke or rotate an
	// identifier they do not know.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrBackendUnavailable wraps transport failures talking to a secrets backend.
	ErrBackendUnavailable = errors.New("secrets backend unavailable")

	// ErrInvalidLocationURI is returned for producer URIs that cannot be parsed.
	ErrInvalidLocationURI = errors.New("invalid producer location URI")
)

// CredentialResult is what a create or rotate callable hands back. It must carry
// the identifier column so the credential can be revoked or rotated later.
type CredentialResult map[string]any

// Identifier returns the value stored under column.
func (r CredentialResult) Identifier(column string) (any, error) {
	id, ok := r[column]
	if !ok || id == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingIdentifier, column)
	}
	return id, nil
}

// Arguments is the argument bag a Callable is invoked with. Fields holds the
// decoded payload fields (plus the identifier column for revoke and rotate),
// Payload the whole decoded payload.
type Arguments struct {
	Fields    map[string]any
	Payload   map[string]any
	ForRotate bool

	// ID is the identifier of an existing credential; nil for create.
	ID any
}

// Get resolves a named argument, including the reserved ones.
func (a *Arguments) Get(name string) (any, bool) {
	switch name {
	case ArgPayload:
		return a.Payload, true
	case ArgForRotate:
		return a.ForRotate, true
	}
	v, ok := a.Fields[name]
	return v, ok
}

// String returns a named argument formatted as a string, or "" if it is absent.
func (a *Arguments) String(name string) string {
	v, ok := a.Get(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// CallableFunc performs one provisioning action against a secrets backend.
// Implementations may block on network I/O and should honour ctx.
type CallableFunc func(ctx context.Context, args *Arguments) (CredentialResult, error)

// Callable couples a CallableFunc with the named parameters it requires. The
// declaration is checked against the handler schema before any request is served.
type Callable struct {
	Name   string
	Params []string
	Func   CallableFunc
}

// NewCallable declares a callable requiring params.
func NewCallable(name string, fn CallableFunc, params ...string) *Callable {
	return &Callable{Name: name, Params: params, Func: fn}
}

// MissingParams lists declared parameters absent from args.
func (c *Callable) MissingParams(args *Arguments) []string {
	var missing []string
	for _, p := range c.Params {
		if _, ok := args.Get(p); !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// Invoke calls the underlying function.
func (c *Callable) Invoke(ctx context.Context, args *Arguments) (CredentialResult, error) {
	return c.Func(ctx, args)
}
