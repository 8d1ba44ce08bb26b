package settings

import "errors"

var (
	// ErrInvalidConfig is returned when an update would leave the
	// configuration invalid. The wrapped message names the field.
	ErrInvalidConfig = errors.New("settings: invalid config")

	// ErrMalformedUpdate is returned when an update body is not a JSON object.
	ErrMalformedUpdate = errors.New("settings: malformed update")

	// ErrPersist is returned when the configuration file cannot be written.
	ErrPersist = errors.New("settings: persisting config")
)
