package api

import "github.com/ruteri/custom-producer-backend/interfaces"

// CredentialResponse is returned by create and rotate.
type CredentialResponse struct {
	// ID is the value of the identifier column of the callable result.
	ID any `json:"id"`

	// Response is the full callable result.
	Response interfaces.CredentialResult `json:"response"`
}

// RevokeResponse confirms a revocation.
type RevokeResponse struct {
	Revoked []any  `json:"revoked"`
	Message string `json:"message"`
}

// ErrorResponse carries envelope, routing and server errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InputErrorResponse carries per-field payload validation failures.
type InputErrorResponse struct {
	Error       string            `json:"error"`
	InputErrors map[string]string `json:"input_errors"`
}

// CreateRequest is the envelope posted to every producer endpoint. Payload is a
// serialized JSON object.
type CreateRequest struct {
	Payload string `json:"payload"`
}

// RevokeRequest adds the identifiers of the credentials to revoke.
type RevokeRequest struct {
	Payload string `json:"payload"`
	IDs     []any  `json:"ids"`
}

// RotateRequest adds the identifier of the credential to rotate.
type RotateRequest struct {
	Payload string `json:"payload"`
	ID      any    `json:"id,omitempty"`
}
