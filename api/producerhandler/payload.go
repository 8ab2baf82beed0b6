package producerhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ruteri/custom-producer-backend/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// readBody decodes the request body as a JSON object.
func readBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &RequestError{StatusCode: http.StatusRequestEntityTooLarge, Err: fmt.Errorf("Request body exceeds %d bytes", maxBodySize)}
		}
		return nil, badRequest("Failed to read request body")
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, badRequest("Request body must be a JSON object")
	}
	return body, nil
}

// extractPayload pulls the serialized payload out of the envelope and decodes
// it. Every malformation gets its own message.
func extractPayload(body map[string]any) (map[string]any, error) {
	raw, ok := body[interfaces.ArgPayload]
	if !ok {
		return nil, badRequest("Missing 'payload' in JSON POST body")
	}

	if isEmpty(raw) {
		return nil, badRequest("Provided 'payload' in JSON POST body was empty")
	}

	serialized, ok := raw.(string)
	if !ok {
		if _, isObject := raw.(map[string]any); isObject {
			return nil, badRequest("'payload' in the JSON POST body was a JSON object, but it should be a serialized JSON string")
		}
		return nil, badRequest("'payload' in the JSON POST body must be a serialized JSON string, but another data type was found")
	}

	var decoded any
	if err := json.Unmarshal([]byte(serialized), &decoded); err != nil {
		return nil, badRequest("'payload' in the JSON POST body was not a valid JSON string")
	}

	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, badRequest("'payload' in the JSON POST body must decode to a JSON object")
	}
	return payload, nil
}

// isEmpty mirrors JSON falsiness: null, "", false, 0, {} and [].
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// revokeIDs reads the identifiers a revoke request refers to: "ids" as sent by
// the secrets manager, a single "id", or the identifier column inside the
// payload.
func revokeIDs(body, payload map[string]any, idColumn string) ([]any, error) {
	if raw, ok := body["ids"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, badRequest("'ids' in the JSON POST body must be a list of identifiers")
		}
		if len(list) == 0 {
			return nil, badRequest("Missing 'ids' in JSON POST body")
		}
		for _, id := range list {
			if isEmpty(id) {
				return nil, badRequest("'ids' in the JSON POST body contains an empty identifier")
			}
		}
		return list, nil
	}

	if id, ok := body["id"]; ok && !isEmpty(id) {
		return []any{id}, nil
	}
	if id, ok := payload[idColumn]; ok && !isEmpty(id) {
		return []any{id}, nil
	}
	return nil, badRequest("Missing 'ids' in JSON POST body")
}

// rotateID reads the identifier of the credential to rotate: "id" from the body,
// falling back to the identifier column inside the payload.
func rotateID(body, payload map[string]any, idColumn string) (any, error) {
	if id, ok := body["id"]; ok && !isEmpty(id) {
		return id, nil
	}
	if id, ok := payload[idColumn]; ok && !isEmpty(id) {
		return id, nil
	}
	return nil, badRequest("Missing 'id' in JSON POST body")
}

// argumentsFor spreads the payload into an argument bag. id is threaded
// through under the identifier column when present.
func argumentsFor(payload map[string]any, idColumn string, id any, forRotate bool) *interfaces.Arguments {
	fields := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		fields[k] = v
	}
	if id != nil {
		fields[idColumn] = id
	}
	return &interfaces.Arguments{
		Fields:    fields,
		Payload:   payload,
		ForRotate: forRotate,
		ID:        id,
	}
}
