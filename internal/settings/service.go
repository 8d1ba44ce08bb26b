package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceLookup resolves device IDs referenced by the configuration.
// *device.Registry satisfies it.
type DeviceLookup interface {
	GetDevice(ctx context.Context, id string) (device.Device, error)
}

var validLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {},
}

// Service owns the live configuration. Updates are validated, written back
// to the YAML file, and only then become visible.
//
// All methods are safe for concurrent use.
type Service struct {
	mu      sync.RWMutex
	cfg     config.Config
	path    string
	devices DeviceLookup
	logger  Logger
}

// NewService creates a Service seeded with cfg. Accepted updates are saved
// to path; an empty path keeps them in memory only.
func NewService(cfg *config.Config, path string, devices DeviceLookup) *Service {
	return &Service{
		cfg:     *cfg,
		path:    path,
		devices: devices,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// Current returns the AppConfig view of the live configuration.
func (s *Service) Current() AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FromConfig(&s.cfg)
}

// Clients returns the viewer settings the launcher should use right now.
func (s *Service) Clients() config.ClientsConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clients
}

// Apply merges a partial AppConfig JSON object into the live configuration.
// Keys absent from patch keep their current values; unknown keys are ignored.
func (s *Service) Apply(ctx context.Context, patch []byte) (AppConfig, error) {
	trimmed := bytes.TrimSpace(patch)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return AppConfig{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedUpdate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := FromConfig(&s.cfg)
	if err := json.Unmarshal(trimmed, &next); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}

	return next, s.commitLocked(ctx, next)
}

// ApplyUpdate is Apply for a typed partial update.
func (s *Service) ApplyUpdate(ctx context.Context, u Update) (AppConfig, error) {
	patch, err := json.Marshal(u)
	if err != nil {
		return AppConfig{}, fmt.Errorf("encoding update: %w", err)
	}
	return s.Apply(ctx, patch)
}

// ClearAutoStart removes deviceID as the auto-start target, if it is one.
// It reports whether the configuration changed.
func (s *Service) ClearAutoStart(ctx context.Context, deviceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deviceID == "" || s.cfg.Connection.AutoStartID != deviceID {
		return false, nil
	}

	next := FromConfig(&s.cfg)
	next.Connection.AutoStart = false
	next.Connection.AutoStartID = ""
	if err := s.commitLocked(ctx, next); err != nil {
		return false, err
	}

	s.logger.Info("auto-start cleared", "device_id", deviceID)
	return true, nil
}

// AutoStartTarget returns the device to connect to at startup. ok is false
// when auto-start is off or the referenced device no longer exists.
func (s *Service) AutoStartTarget(ctx context.Context) (device.Device, bool, error) {
	s.mu.RLock()
	conn := s.cfg.Connection
	s.mu.RUnlock()

	if !conn.AutoStart || conn.AutoStartID == "" || s.devices == nil {
		return device.Device{}, false, nil
	}

	d, err := s.devices.GetDevice(ctx, conn.AutoStartID)
	if errors.Is(err, device.ErrDeviceNotFound) {
		s.logger.Warn("auto-start device not found", "device_id", conn.AutoStartID)
		return device.Device{}, false, nil
	}
	if err != nil {
		return device.Device{}, false, fmt.Errorf("resolving auto-start device: %w", err)
	}
	return d, true, nil
}

// commitLocked validates next, saves it and swaps it in. s.mu must be held.
func (s *Service) commitLocked(ctx context.Context, next AppConfig) error {
	if err := s.validate(ctx, next); err != nil {
		return err
	}

	candidate := s.cfg
	next.applyTo(&candidate)
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if s.path != "" {
		if err := candidate.Save(s.path); err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}

	if candidate.API.Port != s.cfg.API.Port {
		s.logger.Warn("server port changed, restart required", "old", s.cfg.API.Port, "new", candidate.API.Port)
	}
	s.cfg = candidate
	s.logger.Info("configuration updated", "path", s.path)
	return nil
}

func (s *Service) validate(ctx context.Context, c AppConfig) error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 1 and 65535", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Clients.VNCViewer) == "" {
		return fmt.Errorf("%w: clients.vnc_viewer is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Clients.RDPViewer) == "" {
		return fmt.Errorf("%w: clients.rdp_viewer is required", ErrInvalidConfig)
	}
	if c.Logging.Level != "" {
		if _, ok := validLogLevels[strings.ToLower(c.Logging.Level)]; !ok {
			return fmt.Errorf("%w: logging.level %q is not one of debug, info, warn, error", ErrInvalidConfig, c.Logging.Level)
		}
	}
	if c.Connection.AutoStart && c.Connection.AutoStartID == "" {
		return fmt.Errorf("%w: connection.auto_start_id is required when auto_start is enabled", ErrInvalidConfig)
	}
	if c.Connection.AutoStartID != "" && s.devices != nil {
		if _, err := s.devices.GetDevice(ctx, c.Connection.AutoStartID); err != nil {
			if errors.Is(err, device.ErrDeviceNotFound) {
				return fmt.Errorf("%w: connection.auto_start_id %q does not match a device", ErrInvalidConfig, c.Connection.AutoStartID)
			}
			return fmt.Errorf("checking auto-start device: %w", err)
		}
	}
	return nil
}
