package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrAuthMissing is returned without issuing a request when an endpoint
// needs a session token and none is available.
var ErrAuthMissing = errors.New("no session token")

// NetworkError means the request never completed.
type NetworkError struct {
	Endpoint string
	Cause    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Endpoint, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// TransportError is a completed request with a non-2xx status.
type TransportError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Status)
}

// ApplicationError is a 2xx response whose envelope carries an error.
type ApplicationError struct {
	Endpoint string
	Message  string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

// ShapeError is a response that parsed but did not hold the expected
// collection or record.
type ShapeError struct {
	Endpoint string
	Reason   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: unexpected response shape: %s", e.Endpoint, e.Reason)
}

const (
	genericMessage     = "Something went wrong. Please try again."
	networkMessage     = "Could not reach the server. Please try again."
	shapeMessage       = "The server sent an unexpected response."
	authMissingMessage = "Your session has ended. Please sign in again."
)

// UserMessage turns any error from this package into a short message fit
// for display. The server's own message wins when there is one. It never
// returns raw error text or an empty string for a non-nil error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		appErr   *ApplicationError
		transErr *TransportError
		netErr   *NetworkError
		shapeErr *ShapeError
	)
	switch {
	case errors.Is(err, ErrAuthMissing):
		return authMissingMessage
	case errors.As(err, &appErr):
		if msg := strings.TrimSpace(appErr.Message); msg != "" {
			return msg
		}
		return genericMessage
	case errors.As(err, &transErr):
		if msg := serverMessage(transErr.Body); msg != "" {
			return msg
		}
		if text := http.StatusText(transErr.Status); text != "" {
			return fmt.Sprintf("Request failed: %d %s", transErr.Status, text)
		}
		return fmt.Sprintf("Request failed with status %d", transErr.Status)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return networkMessage
	case errors.As(err, &netErr):
		return networkMessage
	case errors.As(err, &shapeErr):
		return shapeMessage
	}
	return genericMessage
}

// serverMessage pulls a human message out of an error response body, which
// may be the usual envelope or a bare {"message": ...} object.
func serverMessage(body string) string {
	var v struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return ""
	}
	if msg, ok := errorText(v.Error); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	return strings.TrimSpace(v.Message)
}
