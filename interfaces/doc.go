// Package interfaces defines the types shared between the producer handler and
// the credential producers plugged into it.
//
// A producer is three callables (create, revoke and optionally rotate). Each is a
// Callable: a CallableFunc plus the named parameters it needs. The handler decodes
// the request payload into an Arguments bag and invokes the callable with it;
// create and rotate return a CredentialResult carrying the identifier column that
// later revoke and rotate requests refer back to.
//
// Sentinel errors:
//
//   - ErrMissingIdentifier: a callable returned a result without the identifier column
//   - ErrCredentialNotFound: a producer does not know the identifier it was given
//   - ErrBackendUnavailable: the secrets backend could not be reached
package interfaces
