package device

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by every CRUD operation. Device holds no reference types, so values
// handed out are already independent of the cache.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]Device
	loaded  bool
	cacheMu sync.RWMutex
	logger  Logger
}

// NewRegistry creates a new device registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]Device, len(devices))
	for _, d := range devices {
		r.cache[d.ID] = d
	}
	r.loaded = true

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) GetDevice(ctx context.Context, id string) (Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	loaded := r.loaded
	r.cacheMu.RUnlock()

	if ok {
		return cached, nil
	}
	if loaded {
		return Device{}, ErrDeviceNotFound
	}

	device, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return Device{}, err
	}
	return *device, nil
}

// ListDevices returns every device sorted by name.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if r.loaded {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, d)
		}
		r.cacheMu.RUnlock()
		// Map iteration order is random; break name ties by ID so the
		// listing is deterministic.
		sortByID(devices)
		SortByName(devices)
		return devices, nil
	}
	r.cacheMu.RUnlock()

	devices, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	SortByName(devices)
	return devices, nil
}

// ListDevicesByProtocol returns the devices using protocol, sorted by name.
func (r *Registry) ListDevicesByProtocol(ctx context.Context, protocol Protocol) ([]Device, error) {
	devices, err := r.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByProtocol(devices, protocol), nil
}

// CreateDevice validates nd, assigns it a new ID and persists it.
func (r *Registry) CreateDevice(ctx context.Context, nd NewDevice) (Device, error) {
	device := nd.WithID(GenerateID())

	if err := ValidateDevice(device); err != nil {
		return Device{}, err
	}

	if err := r.repo.Create(ctx, &device); err != nil {
		return Device{}, err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device
	r.cacheMu.Unlock()

	r.logger.Info("device created", "id", device.ID, "name", device.Name, "protocol", device.Protocol)
	return device, nil
}

// UpdateDevice replaces the stored device with the same ID.
// Returns ErrDeviceNotFound if no such device exists.
func (r *Registry) UpdateDevice(ctx context.Context, device Device) (Device, error) {
	if device.ID == "" {
		return Device{}, fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}
	if err := ValidateDevice(device); err != nil {
		return Device{}, err
	}

	if err := r.repo.Update(ctx, &device); err != nil {
		return Device{}, err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device
	r.cacheMu.Unlock()

	r.logger.Info("device updated", "id", device.ID, "name", device.Name)
	return device, nil
}

// DeleteDevice removes a device.
// Returns ErrDeviceNotFound if no such device exists.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("device deleted", "id", id)
	return nil
}

// GetDeviceCount returns the number of cached devices.
func (r *Registry) GetDeviceCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}
