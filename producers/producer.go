package producers

import (
	"fmt"
	"net/http"

	"github.com/ruteri/custom-producer-backend/api/producerhandler"
	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/ruteri/custom-producer-backend/schema"
)

// Producer bundles the callables, identifier column and payload schema of one
// secrets backend.
type Producer struct {
	// Name identifies the backend in logs, e.g. "vault-secret-creds".
	Name string

	Create *interfaces.Callable
	Revoke *interfaces.Callable

	// Rotate is nil for backends that cannot rotate.
	Rotate *interfaces.Callable

	IDColumnName string
	Schema       []schema.Field
}

// CanRotate reports whether the backend supports rotation.
func (p *Producer) CanRotate() bool {
	return p.Rotate != nil
}

// Apply installs the producer into cfg. Explicit IDColumnName and Schema
// settings in cfg take precedence. CanRotate is left alone: enabling rotation
// on a backend without it fails Config.Check.
func (p *Producer) Apply(cfg *producerhandler.Config) {
	cfg.Create = p.Create
	cfg.Revoke = p.Revoke
	cfg.Rotate = p.Rotate
	if cfg.IDColumnName == "" {
		cfg.IDColumnName = p.IDColumnName
	}
	if cfg.Schema == nil && p.Schema != nil {
		cfg.Schema = p.Schema
	}
}

func notFound(kind string, id string) error {
	return &producerhandler.RequestError{
		StatusCode: http.StatusNotFound,
		Err:        fmt.Errorf("%w: %s %s", interfaces.ErrCredentialNotFound, kind, id),
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
}

func intPtr(v int) *int { return &v }
