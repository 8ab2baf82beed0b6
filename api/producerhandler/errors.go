package producerhandler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// RequestError provides structured error information for HTTP responses.
// Callables may return one (wrapped or not) to choose the status code and
// message the caller sees.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...any) *RequestError {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf(format, args...)}
}

// InputErrors maps payload field names to what is wrong with them.
type InputErrors map[string]string

func (e InputErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "input errors: " + strings.Join(parts, ", ")
}
