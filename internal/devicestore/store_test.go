package devicestore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"testing"

	"github.com/spark-heimdall/heimdall/internal/apiclient"
	"github.com/spark-heimdall/heimdall/internal/device"
)

// MockAPI is a mock implementation of DeviceAPI for testing.
type MockAPI struct {
	mu      sync.Mutex
	devices []device.Device
	nextID  int

	listErr   error
	addErr    error
	updateErr error
	deleteErr error

	// block, when set, is received from before every call returns.
	block chan struct{}

	listCalls   int
	addCalls    int
	updateCalls int
	deleteCalls int
}

func NewMockAPI(devices ...device.Device) *MockAPI {
	return &MockAPI{devices: devices, nextID: 100}
}

func (m *MockAPI) wait() {
	if m.block != nil {
		<-m.block
	}
}

func (m *MockAPI) ListDevices(_ context.Context, _ ...apiclient.CallOption) ([]device.Device, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]device.Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *MockAPI) AddDevice(_ context.Context, nd device.NewDevice, _ ...apiclient.CallOption) (device.Device, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.addErr != nil {
		return device.Device{}, m.addErr
	}
	m.nextID++
	d := nd.WithID(strconv.Itoa(m.nextID))
	m.devices = append(m.devices, d)
	return d, nil
}

func (m *MockAPI) UpdateDevice(_ context.Context, d device.Device, _ ...apiclient.CallOption) (device.Device, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return device.Device{}, m.updateErr
	}
	if i := device.IndexOf(m.devices, d.ID); i >= 0 {
		m.devices[i] = d
	}
	return d, nil
}

func (m *MockAPI) DeleteDevice(_ context.Context, id string, _ ...apiclient.CallOption) error {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if i := device.IndexOf(m.devices, id); i >= 0 {
		m.devices = append(m.devices[:i], m.devices[i+1:]...)
	}
	return nil
}

func (m *MockAPI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls + m.addCalls + m.updateCalls + m.deleteCalls
}

func names(devices []device.Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.Name
	}
	return out
}

func assertNames(t *testing.T, label string, got []device.Device, want ...string) {
	t.Helper()
	gotNames := names(got)
	if len(gotNames) != len(want) {
		t.Fatalf("%s = %v, want %v", label, gotNames, want)
	}
	for i := range want {
		if gotNames[i] != want[i] {
			t.Fatalf("%s = %v, want %v", label, gotNames, want)
		}
	}
}

func newReadyStore(t *testing.T, api *MockAPI) *Store {
	t.Helper()
	s := New(api)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return s
}

func TestStore_EndToEndScenario(t *testing.T) {
	// The backend assigns id "3" to the next device.
	api := NewMockAPI(
		device.Device{ID: "2", Name: "Zeta", Protocol: device.ProtocolRDP},
		device.Device{ID: "1", Name: "Alpha", Protocol: device.ProtocolVNC},
	)
	api.nextID = 2
	s := newReadyStore(t, api)
	ctx := context.Background()

	assertNames(t, "All()", s.All(), "Alpha", "Zeta")

	s.SetGroupByProtocol(true)
	g := s.Groups()
	if !g.ByProtocol || g.All != nil {
		t.Fatalf("Groups() = %+v, want protocol partition", g)
	}
	assertNames(t, "Groups().VNC", g.VNC, "Alpha")
	assertNames(t, "Groups().RDP", g.RDP, "Zeta")

	added, err := s.Add(ctx, device.NewDevice{Name: "Mid", Protocol: device.ProtocolVNC})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added.ID != "3" {
		t.Errorf("Add() ID = %q, want server-assigned 3", added.ID)
	}
	assertNames(t, "All() after add", s.All(), "Alpha", "Mid", "Zeta")
	assertNames(t, "Groups().VNC after add", s.Groups().VNC, "Alpha", "Mid")

	if err := s.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	assertNames(t, "All() after delete", s.All(), "Mid", "Zeta")

	if got := s.Count(); got != (Counts{Total: 2, Filtered: 2, VNC: 1, RDP: 1}) {
		t.Errorf("Count() = %+v", got)
	}
}

func TestStore_StateMachine(t *testing.T) {
	api := NewMockAPI(device.Device{ID: "1", Name: "A", Protocol: device.ProtocolVNC})
	api.block = make(chan struct{})
	s := New(api)

	if s.State() != StateUninitialized || !s.IsLoading() {
		t.Fatalf("new store State() = %v", s.State())
	}

	done := make(chan error, 1)
	go func() { done <- s.Initialize(context.Background()) }()

	waitForState(t, s, StateLoading)
	api.block <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if s.State() != StateReady || s.IsLoading() {
		t.Errorf("State() = %v after Initialize, want ready", s.State())
	}

	go func() {
		_, err := s.Add(context.Background(), device.NewDevice{Name: "B", Protocol: device.ProtocolRDP})
		done <- err
	}()
	waitForState(t, s, StateLoading)
	api.block <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if s.State() != StateReady {
		t.Errorf("State() = %v after Add, want ready", s.State())
	}
}

func waitForState(t *testing.T, s *Store, want State) {
	t.Helper()
	seen := make(chan struct{})
	var once sync.Once
	unsubscribe := s.Subscribe(func(v View) {
		if v.State == want {
			once.Do(func() { close(seen) })
		}
	})
	defer unsubscribe()
	if s.State() == want {
		return
	}
	<-seen
}

func TestStore_InitializeFailure(t *testing.T) {
	listErr := errors.New("backend down")
	api := NewMockAPI()
	api.listErr = listErr
	s := New(api)

	err := s.Initialize(context.Background())
	if err != listErr {
		t.Fatalf("Initialize() error = %v, want the API error unchanged", err)
	}
	if s.State() != StateUninitialized {
		t.Errorf("State() = %v, want uninitialized", s.State())
	}
}

func TestStore_ReinitializeReplacesCollection(t *testing.T) {
	api := NewMockAPI(device.Device{ID: "1", Name: "Old", Protocol: device.ProtocolVNC})
	s := newReadyStore(t, api)

	api.devices = []device.Device{{ID: "9", Name: "New", Protocol: device.ProtocolRDP}}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	assertNames(t, "All()", s.All(), "New")

	// A failed refresh keeps the loaded collection.
	api.listErr = errors.New("flaky")
	if err := s.Initialize(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	assertNames(t, "All() after failed refresh", s.All(), "New")
	if s.State() != StateReady {
		t.Errorf("State() = %v, want ready", s.State())
	}
}

func TestStore_MutationBeforeInitialize(t *testing.T) {
	api := NewMockAPI()
	s := New(api)
	ctx := context.Background()

	if _, err := s.Add(ctx, device.NewDevice{Name: "x"}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Add() error = %v, want ErrNotInitialized", err)
	}
	if _, err := s.Update(ctx, device.Device{ID: "1"}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Update() error = %v, want ErrNotInitialized", err)
	}
	if err := s.Delete(ctx, "1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Delete() error = %v, want ErrNotInitialized", err)
	}
	if api.calls() != 0 {
		t.Errorf("API called %d times, want 0", api.calls())
	}
}

func TestStore_FailedMutationsLeaveCollection(t *testing.T) {
	remote := &apiclient.RemoteError{Message: "not found"}

	tests := []struct {
		name   string
		arm    func(m *MockAPI)
		mutate func(s *Store) error
	}{
		{
			name: "add",
			arm:  func(m *MockAPI) { m.addErr = remote },
			mutate: func(s *Store) error {
				_, err := s.Add(context.Background(), device.NewDevice{Name: "New"})
				return err
			},
		},
		{
			name: "update",
			arm:  func(m *MockAPI) { m.updateErr = remote },
			mutate: func(s *Store) error {
				_, err := s.Update(context.Background(), device.Device{ID: "1", Name: "Renamed"})
				return err
			},
		},
		{
			name:   "delete",
			arm:    func(m *MockAPI) { m.deleteErr = remote },
			mutate: func(s *Store) error { return s.Delete(context.Background(), "1") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := NewMockAPI(
				device.Device{ID: "1", Name: "A", Protocol: device.ProtocolVNC},
				device.Device{ID: "2", Name: "B", Protocol: device.ProtocolRDP},
			)
			s := newReadyStore(t, api)
			tt.arm(api)

			err := tt.mutate(s)
			if err != error(remote) {
				t.Fatalf("error = %v, want the API error unchanged", err)
			}
			assertNames(t, "All()", s.All(), "A", "B")
			if s.State() != StateReady || s.IsLoading() {
				t.Errorf("State() = %v after failure, want ready", s.State())
			}
		})
	}
}

func TestStore_UpdateResorts(t *testing.T) {
	api := NewMockAPI(
		device.Device{ID: "1", Name: "Alpha", Protocol: device.ProtocolVNC},
		device.Device{ID: "2", Name: "Beta", Protocol: device.ProtocolVNC},
	)
	s := newReadyStore(t, api)

	if _, err := s.Update(context.Background(), device.Device{ID: "1", Name: "Omega", Protocol: device.ProtocolVNC}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	assertNames(t, "All()", s.All(), "Beta", "Omega")
}

func TestStore_ProtocolFilter(t *testing.T) {
	api := NewMockAPI(
		device.Device{ID: "1", Name: "Charlie", Protocol: device.ProtocolRDP},
		device.Device{ID: "2", Name: "alpha", Protocol: device.ProtocolVNC},
		device.Device{ID: "3", Name: "Bravo", Protocol: device.ProtocolVNC},
	)
	s := newReadyStore(t, api)
	before := api.calls()

	if err := s.SetProtocolFilter(FilterVNC); err != nil {
		t.Fatalf("SetProtocolFilter() error = %v", err)
	}
	first := s.Filtered()
	second := s.Filtered()
	assertNames(t, "Filtered()", first, "alpha", "Bravo")
	assertNames(t, "Filtered() again", second, "alpha", "Bravo")
	if api.calls() != before {
		t.Errorf("reading the filtered view issued %d network calls", api.calls()-before)
	}
	if got := s.Count(); got.Total != 3 || got.Filtered != 2 {
		t.Errorf("Count() = %+v", got)
	}

	if err := s.SetProtocolFilter(FilterNone); err != nil {
		t.Fatalf("SetProtocolFilter(none) error = %v", err)
	}
	assertNames(t, "Filtered() unfiltered", s.Filtered(), "alpha", "Bravo", "Charlie")

	if err := s.SetProtocolFilter("ssh"); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("SetProtocolFilter(ssh) error = %v, want ErrInvalidFilter", err)
	}
	if s.ProtocolFilter() != FilterNone {
		t.Errorf("ProtocolFilter() = %q after rejected filter", s.ProtocolFilter())
	}
}

func TestStore_FilterFollowsMutations(t *testing.T) {
	api := NewMockAPI(device.Device{ID: "1", Name: "A", Protocol: device.ProtocolRDP})
	s := newReadyStore(t, api)
	if err := s.SetProtocolFilter(FilterRDP); err != nil {
		t.Fatalf("SetProtocolFilter() error = %v", err)
	}

	if _, err := s.Add(context.Background(), device.NewDevice{Name: "B", Protocol: device.ProtocolRDP}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := s.Add(context.Background(), device.NewDevice{Name: "C", Protocol: device.ProtocolVNC}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	assertNames(t, "Filtered()", s.Filtered(), "A", "B")
}

func TestStore_GroupsAndCounts(t *testing.T) {
	api := NewMockAPI(
		device.Device{ID: "1", Name: "A", Protocol: device.ProtocolVNC},
		device.Device{ID: "2", Name: "B", Protocol: device.ProtocolRDP},
		device.Device{ID: "3", Name: "C", Protocol: device.ProtocolRDP},
	)
	s := newReadyStore(t, api)

	g := s.Groups()
	if g.ByProtocol || g.VNC != nil || g.RDP != nil {
		t.Fatalf("Groups() = %+v, want single list", g)
	}
	assertNames(t, "Groups().All", g.All, "A", "B", "C")
	if got := s.Count(); got != (Counts{Total: 3, Filtered: 3}) {
		t.Errorf("Count() ungrouped = %+v, want zero protocol counts", got)
	}

	s.SetGroupByProtocol(true)
	if !s.GroupByProtocol() {
		t.Error("GroupByProtocol() = false")
	}
	// Grouping ignores the protocol filter.
	if err := s.SetProtocolFilter(FilterVNC); err != nil {
		t.Fatalf("SetProtocolFilter() error = %v", err)
	}
	if got := s.Count(); got != (Counts{Total: 3, Filtered: 1, VNC: 1, RDP: 2}) {
		t.Errorf("Count() grouped = %+v", got)
	}
}

func TestStore_SearchAndCopies(t *testing.T) {
	api := NewMockAPI(device.Device{ID: "1", Name: "A", Protocol: device.ProtocolVNC})
	s := newReadyStore(t, api)

	d, ok := s.Search("1")
	if !ok || d.Name != "A" {
		t.Errorf("Search(1) = %+v, %v", d, ok)
	}
	if _, ok := s.Search("missing"); ok {
		t.Error("Search(missing) found a device")
	}

	all := s.All()
	all[0].Name = "mutated"
	filtered := s.Filtered()
	filtered[0].Name = "mutated"
	g := s.Groups()
	g.All[0].Name = "mutated"

	if got := s.All()[0].Name; got != "A" {
		t.Errorf("collection changed through a returned slice: %q", got)
	}
}

func TestStore_Subscribe(t *testing.T) {
	api := NewMockAPI(device.Device{ID: "1", Name: "A", Protocol: device.ProtocolVNC})
	s := New(api)

	var views []View
	unsubscribe := s.Subscribe(func(v View) { views = append(views, v) })

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if len(views) == 0 {
		t.Fatal("observer not notified")
	}
	last := views[len(views)-1]
	if last.State != StateReady || len(last.Devices) != 1 {
		t.Errorf("last view = %+v", last)
	}

	n := len(views)
	s.SetGroupByProtocol(true)
	if len(views) != n+1 || !views[n].Groups.ByProtocol {
		t.Errorf("SetGroupByProtocol did not notify with the new grouping")
	}

	unsubscribe()
	unsubscribe()
	n = len(views)
	s.SetGroupByProtocol(false)
	if len(views) != n {
		t.Error("observer called after unsubscribe")
	}
}

func TestStore_ConcurrentAddsKeepEveryDevice(t *testing.T) {
	api := NewMockAPI()
	s := newReadyStore(t, api)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Add(context.Background(), device.NewDevice{
				Name:     fmt.Sprintf("dev-%02d", i),
				Protocol: device.ProtocolVNC,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if got := s.Count().Total; got != n {
		t.Errorf("Count().Total = %d, want %d", got, n)
	}
	if s.State() != StateReady {
		t.Errorf("State() = %v, want ready", s.State())
	}
}

func TestStore_SortInvariant(t *testing.T) {
	api := NewMockAPI()
	s := newReadyStore(t, api)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	pool := []string{"delta", "Alpha", "charlie", "Bravo", "écho", "Echo", "foxtrot", "alpha"}

	for i := 0; i < 200; i++ {
		all := s.All()
		switch op := rng.Intn(3); {
		case op == 0 || len(all) == 0:
			if _, err := s.Add(ctx, device.NewDevice{Name: pool[rng.Intn(len(pool))], Protocol: device.ProtocolRDP}); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
		case op == 1:
			d := all[rng.Intn(len(all))]
			d.Name = pool[rng.Intn(len(pool))]
			if _, err := s.Update(ctx, d); err != nil {
				t.Fatalf("Update() error = %v", err)
			}
		default:
			if err := s.Delete(ctx, all[rng.Intn(len(all))].ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
		}

		got := s.All()
		want := device.SortedByName(got)
		for j := range got {
			if got[j].Name != want[j].Name {
				t.Fatalf("step %d: collection %v not in name order", i, names(got))
			}
		}
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterNone, false},
		{"none", FilterNone, false},
		{"VNC", FilterVNC, false},
		{" rdp ", FilterRDP, false},
		{"ssh", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFilter(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
