package device

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// MockRepository is a test implementation of Repository.
type MockRepository struct {
	mu      sync.Mutex
	devices map[string]Device
	order   []string
	// For testing error paths
	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		devices: make(map[string]Device),
	}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.devices[id]; ok {
		return &d, nil
	}
	return nil, ErrDeviceNotFound
}

func (m *MockRepository) List(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	devices := make([]Device, 0, len(m.order))
	for _, id := range m.order {
		devices = append(devices, m.devices[id])
	}
	return devices, nil
}

func (m *MockRepository) Create(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.devices[device.ID]; exists {
		return ErrDeviceExists
	}
	m.devices[device.ID] = *device
	m.order = append(m.order, device.ID)
	return nil
}

func (m *MockRepository) Update(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.devices[device.ID]; !exists {
		return ErrDeviceNotFound
	}
	m.devices[device.ID] = *device
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.devices[id]; !exists {
		return ErrDeviceNotFound
	}
	delete(m.devices, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *MockRepository) {
	t.Helper()
	repo := NewMockRepository()
	reg := NewRegistry(repo)
	if err := reg.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	return reg, repo
}

func TestRegistry_CreateDevice(t *testing.T) {
	reg, repo := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.CreateDevice(ctx, NewDevice{
		Name:      "Lab Box",
		IPAddress: "10.1.1.1",
		Protocol:  ProtocolVNC,
	})
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateDevice() should assign an ID")
	}
	if _, ok := repo.devices[created.ID]; !ok {
		t.Error("device not persisted to repository")
	}
	if reg.GetDeviceCount() != 1 {
		t.Errorf("GetDeviceCount() = %d, want 1", reg.GetDeviceCount())
	}

	got, err := reg.GetDevice(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if got != created {
		t.Errorf("GetDevice() = %+v, want %+v", got, created)
	}
}

func TestRegistry_CreateDevice_AssignsUniqueIDs(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		d, err := reg.CreateDevice(ctx, NewDevice{Name: "Same", IPAddress: "h", Protocol: ProtocolRDP})
		if err != nil {
			t.Fatalf("CreateDevice() error = %v", err)
		}
		if seen[d.ID] {
			t.Fatalf("duplicate ID %q", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestRegistry_CreateDevice_Validation(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.CreateDevice(context.Background(), NewDevice{Name: "", IPAddress: "h", Protocol: ProtocolVNC})
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("CreateDevice() error = %v, want ErrInvalidName", err)
	}
	if reg.GetDeviceCount() != 0 {
		t.Error("invalid device should not be cached")
	}
}

func TestRegistry_CreateDevice_RepoError(t *testing.T) {
	reg, repo := newTestRegistry(t)
	repo.createErr = errors.New("disk full")

	_, err := reg.CreateDevice(context.Background(), NewDevice{Name: "A", IPAddress: "h", Protocol: ProtocolVNC})
	if err == nil {
		t.Fatal("CreateDevice() expected error")
	}
	if reg.GetDeviceCount() != 0 {
		t.Error("failed create should not be cached")
	}
}

func TestRegistry_ListDevices_SortedByName(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "Alpha", "mid", "Échelle"} {
		if _, err := reg.CreateDevice(ctx, NewDevice{Name: name, IPAddress: "h", Protocol: ProtocolVNC}); err != nil {
			t.Fatalf("CreateDevice(%s) error = %v", name, err)
		}
	}

	devices, err := reg.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}

	want := []string{"Alpha", "Échelle", "mid", "zeta"}
	if len(devices) != len(want) {
		t.Fatalf("ListDevices() len = %d, want %d", len(devices), len(want))
	}
	for i, name := range want {
		if devices[i].Name != name {
			t.Errorf("devices[%d].Name = %q, want %q", i, devices[i].Name, name)
		}
	}
}

func TestRegistry_ListDevicesByProtocol(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, nd := range []NewDevice{
		{Name: "B", IPAddress: "h", Protocol: ProtocolRDP},
		{Name: "A", IPAddress: "h", Protocol: ProtocolVNC},
		{Name: "C", IPAddress: "h", Protocol: ProtocolRDP},
	} {
		if _, err := reg.CreateDevice(ctx, nd); err != nil {
			t.Fatalf("CreateDevice() error = %v", err)
		}
	}

	rdp, err := reg.ListDevicesByProtocol(ctx, ProtocolRDP)
	if err != nil {
		t.Fatalf("ListDevicesByProtocol() error = %v", err)
	}
	if len(rdp) != 2 || rdp[0].Name != "B" || rdp[1].Name != "C" {
		t.Errorf("ListDevicesByProtocol(rdp) = %+v", rdp)
	}
}

func TestRegistry_UpdateDevice(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.CreateDevice(ctx, NewDevice{Name: "Old", IPAddress: "h", Protocol: ProtocolVNC})
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	created.Name = "New"
	updated, err := reg.UpdateDevice(ctx, created)
	if err != nil {
		t.Fatalf("UpdateDevice() error = %v", err)
	}
	if updated.Name != "New" {
		t.Errorf("UpdateDevice().Name = %q, want New", updated.Name)
	}

	got, _ := reg.GetDevice(ctx, created.ID)
	if got.Name != "New" {
		t.Errorf("cached Name = %q, want New", got.Name)
	}
}

func TestRegistry_UpdateDevice_Errors(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		device  Device
		wantErr error
	}{
		{
			name:    "missing id",
			device:  Device{Name: "A", IPAddress: "h", Protocol: ProtocolVNC},
			wantErr: ErrInvalidDevice,
		},
		{
			name:    "unknown id",
			device:  Device{ID: "ghost", Name: "A", IPAddress: "h", Protocol: ProtocolVNC},
			wantErr: ErrDeviceNotFound,
		},
		{
			name:    "invalid protocol",
			device:  Device{ID: "ghost", Name: "A", IPAddress: "h", Protocol: "telnet"},
			wantErr: ErrInvalidProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.UpdateDevice(ctx, tt.device)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateDevice() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_DeleteDevice(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	created, err := reg.CreateDevice(ctx, NewDevice{Name: "Temp", IPAddress: "h", Protocol: ProtocolRDP})
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	if err := reg.DeleteDevice(ctx, created.ID); err != nil {
		t.Fatalf("DeleteDevice() error = %v", err)
	}
	if _, err := reg.GetDevice(ctx, created.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetDevice() after delete error = %v, want ErrDeviceNotFound", err)
	}
	if err := reg.DeleteDevice(ctx, created.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second DeleteDevice() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_RefreshCache(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, testDevice("seed", "Seeded", ProtocolVNC)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := NewRegistry(repo)

	// Before refresh the registry reads through to the repository
	if _, err := reg.GetDevice(ctx, "seed"); err != nil {
		t.Errorf("GetDevice() before refresh error = %v", err)
	}

	if err := reg.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	if reg.GetDeviceCount() != 1 {
		t.Errorf("GetDeviceCount() = %d, want 1", reg.GetDeviceCount())
	}

	repo.listErr = errors.New("boom")
	if err := reg.RefreshCache(ctx); err == nil {
		t.Error("RefreshCache() expected error from repository")
	}
}

func TestRegistry_ReturnedSlicesAreIndependent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	if _, err := reg.CreateDevice(ctx, NewDevice{Name: "Keep", IPAddress: "h", Protocol: ProtocolVNC}); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	devices, _ := reg.ListDevices(ctx)
	devices[0].Name = "Mutated"

	again, _ := reg.ListDevices(ctx)
	if again[0].Name != "Keep" {
		t.Errorf("cache was mutated through returned slice: %q", again[0].Name)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.CreateDevice(ctx, NewDevice{Name: "N", IPAddress: "h", Protocol: ProtocolVNC}) //nolint:errcheck // concurrency test
		}()
		go func() {
			defer wg.Done()
			reg.ListDevices(ctx) //nolint:errcheck // concurrency test
		}()
	}
	wg.Wait()

	if reg.GetDeviceCount() != 10 {
		t.Errorf("GetDeviceCount() = %d, want 10", reg.GetDeviceCount())
	}
}
