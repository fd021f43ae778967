package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const genericErrorMessage = "unable to parse error response"

// APIError is a non-2xx response. Info holds the decoded JSON body, or a
// generic message when the body was not JSON.
type APIError struct {
	Status int
	Info   map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed: status %d: %s", e.Status, e.Message())
}

// Message returns the server supplied message, falling back to the status text.
func (e *APIError) Message() string {
	for _, key := range []string{"message", "detail", "error"} {
		if s, ok := e.Info[key].(string); ok && s != "" {
			return s
		}
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return "request failed"
}

// TransportError covers network failures, timeouts and undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		var info map[string]any
		if json.Unmarshal(b, &info) == nil && info != nil {
			apiErr.Info = info
			return apiErr
		}
	}
	apiErr.Info = map[string]any{"message": genericErrorMessage}
	return apiErr
}

// UserMessage turns err into text for an operator notification: the
// server's message for API errors, fallback for everything else.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		for _, key := range []string{"message", "detail", "error"} {
			if s, ok := apiErr.Info[key].(string); ok && s != "" && s != genericErrorMessage {
				return s
			}
		}
	}
	return fallback
}
