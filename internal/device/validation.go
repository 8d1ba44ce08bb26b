package device

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength        = 255
	maxAddressLength     = 253 // longest DNS name
	maxDescriptionLength = 1024
	maxPort              = 65535
)

var validProtocols map[Protocol]struct{}

func init() {
	validProtocols = make(map[Protocol]struct{}, len(AllProtocols()))
	for _, p := range AllProtocols() {
		validProtocols[p] = struct{}{}
	}
}

// ValidateDevice checks a device before it is persisted.
// Returns an error describing the first validation failure found.
func ValidateDevice(d Device) error {
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if err := ValidateAddress(d.IPAddress); err != nil {
		return err
	}
	if err := ValidateProtocol(d.Protocol); err != nil {
		return err
	}
	if err := ValidatePort(d.Port); err != nil {
		return err
	}
	if utf8.RuneCountInString(d.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDevice, maxDescriptionLength)
	}
	return nil
}

// ValidateName checks that a device name is present and not too long.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateAddress checks an IP address or hostname. The value is handed to
// an external viewer as an argument, so whitespace is rejected outright.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: ip_address cannot be empty", ErrInvalidAddress)
	}
	if len(addr) > maxAddressLength {
		return fmt.Errorf("%w: ip_address exceeds %d characters", ErrInvalidAddress, maxAddressLength)
	}
	if strings.IndexFunc(addr, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: ip_address cannot contain whitespace", ErrInvalidAddress)
	}
	if strings.HasPrefix(addr, "-") {
		return fmt.Errorf("%w: ip_address cannot start with '-'", ErrInvalidAddress)
	}
	return nil
}

// ValidateProtocol checks if a protocol is valid.
func ValidateProtocol(p Protocol) error {
	if _, ok := validProtocols[p]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidProtocol, p)
	}
	return nil
}

// ValidatePort checks that port is 0 (protocol default) or a real TCP port.
func ValidatePort(port int) error {
	if port < 0 || port > maxPort {
		return fmt.Errorf("%w: %d is outside 0..%d", ErrInvalidPort, port, maxPort)
	}
	return nil
}

// ParseProtocol converts user input into a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(strings.TrimSpace(s)))
	if err := ValidateProtocol(p); err != nil {
		return "", err
	}
	return p, nil
}

// GenerateID creates a new unique device ID.
func GenerateID() string {
	return uuid.New().String()
}
