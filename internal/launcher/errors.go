package launcher

import "errors"

var (
	// ErrUnknownProtocol is returned for a device whose protocol has no viewer.
	ErrUnknownProtocol = errors.New("launcher: unknown protocol")

	// ErrViewerNotConfigured is returned when the viewer path for a protocol is empty.
	ErrViewerNotConfigured = errors.New("launcher: viewer not configured")

	// ErrInvalidTarget is returned for a device without an address.
	ErrInvalidTarget = errors.New("launcher: device has no address")
)
