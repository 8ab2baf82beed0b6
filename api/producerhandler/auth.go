package producerhandler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrNotAuthenticated is returned by an AuthPolicy rejecting a request.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthPolicy decides whether a request may reach the dispatcher.
type AuthPolicy interface {
	Authenticate(r *http.Request) error
}

// PublicAuth lets every request through. It is installed when a configuration
// does not name a policy.
type PublicAuth struct{}

func (PublicAuth) Authenticate(*http.Request) error {
	return nil
}

// BearerAuth requires "Authorization: Bearer <Token>".
type BearerAuth struct {
	Token string
}

func (a BearerAuth) Authenticate(r *http.Request) error {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || a.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return ErrNotAuthenticated
	}
	return nil
}
