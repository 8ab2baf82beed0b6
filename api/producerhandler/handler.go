package producerhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/custom-producer-backend/api"
	"github.com/ruteri/custom-producer-backend/interfaces"
	"github.com/ruteri/custom-producer-backend/metrics"
	"github.com/ruteri/custom-producer-backend/schema"
)

// Operation names, also used as metric labels.
const (
	OpCreate    = "create"
	OpRevoke    = "revoke"
	OpRotate    = "rotate"
	opUnmatched = "unmatched"
)

// Handler serves the create, revoke and rotate endpoints of one producer.
// Its configuration is finalized in NewHandler and never modified afterwards,
// so a Handler is safe for concurrent use.
type Handler struct {
	name   string
	cfg    Config
	schema *schema.Schema
	log    *slog.Logger
}

// NewHandler checks and finalizes cfg. No Handler is returned for an invalid
// configuration.
//
// Parameters:
//   - name: identifies the handler in configuration errors and logs
//   - cfg: the producer configuration, usually starting from DefaultConfig
//   - log: Structured logger for operational insights
func NewHandler(name string, cfg Config, log *slog.Logger) (*Handler, error) {
	if err := cfg.Check(name); err != nil {
		return nil, err
	}

	finalized, err := cfg.Finalize()
	if err != nil {
		return nil, &ConfigError{Handler: name, Field: "schema", Message: err.Error()}
	}

	h := &Handler{
		name: name,
		cfg:  finalized,
		log:  log.With("handler", name),
	}

	if fields, ok := finalized.Schema.([]schema.Field); ok {
		h.schema, err = schema.Compile(fields)
		if err != nil {
			return nil, &ConfigError{Handler: name, Field: "schema", Message: err.Error()}
		}
	}

	if finalized.CreateEndpoint == finalized.RevokeEndpoint ||
		(finalized.CanRotate && (finalized.RotateEndpoint == finalized.CreateEndpoint || finalized.RotateEndpoint == finalized.RevokeEndpoint)) {
		h.log.Warn("Producer endpoints overlap, the first matching operation wins",
			"create", finalized.CreateEndpoint,
			"revoke", finalized.RevokeEndpoint,
			"rotate", finalized.RotateEndpoint)
	}

	return h, nil
}

// Config returns the finalized configuration.
func (h *Handler) Config() Config {
	return h.cfg
}

// RegisterRoutes hands every path not claimed by another route to the
// dispatcher, which does its own exact matching.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Handle("/*", h)
}

// ServeHTTP routes a request to exactly one lifecycle operation.
//
// Routing is an exact, case-sensitive match on the request path with
// surrounding slashes removed. A request for the rotate endpoint while rotation
// is disabled is indistinguishable from a request for an unknown path.
//
// Status codes:
//   - 200 OK: the callable succeeded
//   - 400 Bad Request: malformed envelope or missing identifiers
//   - 401 Unauthorized: rejected by the authentication policy
//   - 404 Not Found: no operation matches the path
//   - 422 Unprocessable Entity: the payload failed validation
//   - 500 Internal Server Error: the callable failed or broke its result contract
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.cfg.Authentication.Authenticate(r); err != nil {
		h.log.Debug("Request rejected by authentication policy", "err", err, "path", r.URL.Path)
		h.writeError(w, http.StatusUnauthorized, "Not authenticated")
		metrics.ObserveOperation(opUnmatched, http.StatusUnauthorized, time.Since(start))
		return
	}

	operation := h.route(strings.Trim(r.URL.Path, "/"))
	if operation == "" {
		h.writeError(w, http.StatusNotFound, "Page not found")
		metrics.ObserveOperation(opUnmatched, http.StatusNotFound, time.Since(start))
		return
	}

	status := h.serveOperation(w, r, operation)
	metrics.ObserveOperation(operation, status, time.Since(start))
}

func (h *Handler) route(path string) string {
	switch {
	case path == h.cfg.CreateEndpoint:
		return OpCreate
	case path == h.cfg.RevokeEndpoint:
		return OpRevoke
	case path == h.cfg.RotateEndpoint && h.cfg.CanRotate:
		return OpRotate
	}
	return ""
}

func (h *Handler) serveOperation(w http.ResponseWriter, r *http.Request, operation string) int {
	body, err := readBody(w, r)
	if err != nil {
		return h.respond(w, operation, nil, err)
	}

	var response any
	switch operation {
	case OpCreate:
		response, err = h.Create(r.Context(), body)
	case OpRevoke:
		response, err = h.Revoke(r.Context(), body)
	case OpRotate:
		response, err = h.Rotate(r.Context(), body)
	}
	return h.respond(w, operation, response, err)
}

// Create provisions a new credential from a decoded request body.
func (h *Handler) Create(ctx context.Context, body map[string]any) (*api.CredentialResponse, error) {
	payload, err := extractPayload(body)
	if err != nil {
		return nil, err
	}

	args := argumentsFor(payload, h.cfg.IDColumnName, nil, false)
	if err := h.checkPayload(payload, h.cfg.Create, args, false); err != nil {
		return nil, err
	}

	result, err := h.cfg.Create.Invoke(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("create_callable failed: %w", err)
	}

	return h.credentialResponse(OpCreate, result)
}

// Revoke revokes every credential named in the request body.
func (h *Handler) Revoke(ctx context.Context, body map[string]any) (*api.RevokeResponse, error) {
	payload, err := extractPayload(body)
	if err != nil {
		return nil, err
	}

	ids, err := revokeIDs(body, payload, h.cfg.IDColumnName)
	if err != nil {
		return nil, err
	}

	if err := h.checkPayload(payload, h.cfg.Revoke, argumentsFor(payload, h.cfg.IDColumnName, ids[0], false), true); err != nil {
		return nil, err
	}

	revoked := make([]any, 0, len(ids))
	for _, id := range ids {
		if _, err := h.cfg.Revoke.Invoke(ctx, argumentsFor(payload, h.cfg.IDColumnName, id, false)); err != nil {
			return nil, fmt.Errorf("revoke_callable failed for %v: %w", id, err)
		}
		revoked = append(revoked, id)
	}

	h.log.Info("Credentials revoked", "count", len(revoked))
	return &api.RevokeResponse{Revoked: revoked, Message: ""}, nil
}

// Rotate replaces an existing credential and returns the refreshed material.
func (h *Handler) Rotate(ctx context.Context, body map[string]any) (*api.CredentialResponse, error) {
	if !h.cfg.CanRotate {
		return nil, &RequestError{StatusCode: http.StatusNotFound, Err: errors.New("Page not found")}
	}

	payload, err := extractPayload(body)
	if err != nil {
		return nil, err
	}

	id, err := rotateID(body, payload, h.cfg.IDColumnName)
	if err != nil {
		return nil, err
	}

	args := argumentsFor(payload, h.cfg.IDColumnName, id, true)
	if err := h.checkPayload(payload, h.cfg.Rotate, args, true); err != nil {
		return nil, err
	}

	result, err := h.cfg.Rotate.Invoke(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("rotate_callable failed for %v: %w", id, err)
	}

	return h.credentialResponse(OpRotate, result)
}

// checkPayload collects every input error for payload. A nil return means the
// callable may be invoked. With receivesID the identifier column may appear in
// the payload even when the schema does not declare it.
func (h *Handler) checkPayload(payload map[string]any, callable *interfaces.Callable, args *interfaces.Arguments, receivesID bool) error {
	inputErrors := InputErrors{}

	if h.schema != nil {
		validated := payload
		if _, declared := h.schema.Field(h.cfg.IDColumnName); receivesID && !declared {
			if _, present := payload[h.cfg.IDColumnName]; present {
				validated = make(map[string]any, len(payload))
				for k, v := range payload {
					if k != h.cfg.IDColumnName {
						validated[k] = v
					}
				}
			}
		}

		schemaErrors, err := h.schema.Validate(validated)
		if err != nil {
			return err
		}
		for field, msg := range schemaErrors {
			inputErrors[field] = msg
		}
	} else {
		for _, reserved := range []string{interfaces.ArgPayload, interfaces.ArgForRotate} {
			if _, ok := payload[reserved]; ok {
				inputErrors[reserved] = fmt.Sprintf("'%s' is a reserved name and cannot be used as an input field", reserved)
			}
		}
	}

	for _, param := range callable.MissingParams(args) {
		if _, ok := inputErrors[param]; !ok {
			inputErrors[param] = fmt.Sprintf("'%s' is required", param)
		}
	}

	if len(inputErrors) > 0 {
		return inputErrors
	}
	return nil
}

func (h *Handler) credentialResponse(operation string, result interfaces.CredentialResult) (*api.CredentialResponse, error) {
	id, err := result.Identifier(h.cfg.IDColumnName)
	if err != nil {
		return nil, fmt.Errorf("%s_callable returned an invalid result: %w", operation, err)
	}
	return &api.CredentialResponse{ID: id, Response: result}, nil
}

// respond writes either response or the error mapped to its status code, and
// returns the status code written.
func (h *Handler) respond(w http.ResponseWriter, operation string, response any, err error) int {
	if err == nil {
		h.writeJSON(w, http.StatusOK, response)
		return http.StatusOK
	}

	var inputErrors InputErrors
	if errors.As(err, &inputErrors) {
		h.log.Debug("Payload rejected", "operation", operation, "inputErrors", map[string]string(inputErrors))
		h.writeJSON(w, http.StatusUnprocessableEntity, api.InputErrorResponse{
			Error:       "Input errors",
			InputErrors: inputErrors,
		})
		return http.StatusUnprocessableEntity
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		if reqErr.StatusCode >= http.StatusInternalServerError {
			h.log.Error("Producer operation failed", "operation", operation, "err", err)
		}
		h.writeError(w, reqErr.StatusCode, reqErr.Error())
		return reqErr.StatusCode
	}

	if errors.Is(err, interfaces.ErrMissingIdentifier) {
		h.log.Error("Callable broke its result contract", "operation", operation, "idColumn", h.cfg.IDColumnName, "err", err)
	} else {
		h.log.Error("Producer operation failed", "operation", operation, "err", err)
	}
	h.writeError(w, http.StatusInternalServerError, "Internal server error")
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
