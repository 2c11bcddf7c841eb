package client

import (
	"errors"
	"fmt"
)

// RemoteError is a response with a non-success HTTP status.
type RemoteError struct {
	StatusCode int
	Message    string // from the {"error": ...} body, may be empty
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error, status %d", e.StatusCode)
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

const (
	// NetworkFailureMessage is shown when the server could not be reached.
	NetworkFailureMessage = "Could not reach the recommendation service. Check your connection and try again."
	// RequestFailureMessage is shown when the request could not be built.
	RequestFailureMessage = "Could not prepare the request to the recommendation service."
)

// UserMessage derives the text shown to the user for a failed call:
// server-provided text or status code for a RemoteError, a connectivity
// message for a TransportError, and a generic message for anything that
// failed before the request was sent.
func UserMessage(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Error()
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return NetworkFailureMessage
	}
	return RequestFailureMessage
}
