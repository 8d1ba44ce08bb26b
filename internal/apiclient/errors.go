package apiclient

import "errors"

// Error classes. Every error returned by the client for one of these
// conditions matches exactly one sentinel with errors.Is, and the matching
// typed error with errors.As.
var (
	// ErrConfiguration marks a client that cannot be built (missing base URL).
	ErrConfiguration = errors.New("apiclient: configuration error")

	// ErrHTTP marks a response outside the 2xx range.
	ErrHTTP = errors.New("apiclient: http error")

	// ErrEnvelope marks a 2xx response whose body breaks the envelope contract.
	ErrEnvelope = errors.New("apiclient: envelope error")

	// ErrRemote marks an envelope with success:false.
	ErrRemote = errors.New("apiclient: remote error")
)

// Default messages.
const (
	msgFetchingData = "There was a problem fetching data."
	msgPostingData  = "There was a problem posting data."
	msgPutRequest   = "There was a problem with the put request."
	msgDeleteReq    = "There was a problem with the delete request."
)

// ConfigurationError is returned by New when the client cannot be built.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return e.Reason }

// Unwrap returns ErrConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// HTTPError is a non-2xx response. Message is the caller's description of
// the operation; the response body is not inspected.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string { return e.Message }

// Unwrap returns ErrHTTP.
func (e *HTTPError) Unwrap() error { return ErrHTTP }

// EnvelopeError is a 2xx response that is not a valid envelope for the
// operation, which points at a backend bug.
type EnvelopeError struct {
	Message string
}

func (e *EnvelopeError) Error() string { return e.Message }

// Unwrap returns ErrEnvelope.
func (e *EnvelopeError) Unwrap() error { return ErrEnvelope }

// RemoteError carries the backend's own error message verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Unwrap returns ErrRemote.
func (e *RemoteError) Unwrap() error { return ErrRemote }
