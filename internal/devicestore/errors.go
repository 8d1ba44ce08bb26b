package devicestore

import "errors"

var (
	// ErrNotInitialized is returned by mutations issued before Initialize succeeded.
	ErrNotInitialized = errors.New("devicestore: not initialized")

	// ErrInvalidFilter is returned for a protocol filter other than none, vnc or rdp.
	ErrInvalidFilter = errors.New("devicestore: invalid protocol filter")
)
