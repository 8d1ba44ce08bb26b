package devicestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/spark-heimdall/heimdall/internal/apiclient"
	"github.com/spark-heimdall/heimdall/internal/device"
)

// DeviceAPI is the part of the backend client the store needs.
// *apiclient.Client implements it.
type DeviceAPI interface {
	ListDevices(ctx context.Context, opts ...apiclient.CallOption) ([]device.Device, error)
	AddDevice(ctx context.Context, d device.NewDevice, opts ...apiclient.CallOption) (device.Device, error)
	UpdateDevice(ctx context.Context, d device.Device, opts ...apiclient.CallOption) (device.Device, error)
	DeleteDevice(ctx context.Context, id string, opts ...apiclient.CallOption) error
}

// Logger defines the logging interface used by the Store.
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

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

type observer struct {
	id int
	fn func(View)
}

// Store is the client-side device cache.
//
// All methods are safe for concurrent use. Network calls run outside the
// lock; each mutation is applied to the collection as it stands when the
// call returns, so concurrent mutations do not overwrite each other.
type Store struct {
	api    DeviceAPI
	logger Logger

	mu          sync.Mutex
	devices     []device.Device
	filter      Filter
	groupBy     bool
	filtered    []device.Device
	groups      Groups
	initialized bool
	inflight    int
	observers   []observer
	nextID      int
}

// New creates an uninitialized store backed by api.
func New(api DeviceAPI, opts ...Option) *Store {
	s := &Store{
		api:     api,
		logger:  noopLogger{},
		devices: []device.Device{},
		filter:  FilterNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s
}

// Initialize loads the collection from the backend, replacing whatever the
// store held. If the fetch fails the store keeps its previous collection,
// so a store that never loaded stays uninitialized.
func (s *Store) Initialize(ctx context.Context) error {
	s.enter()
	defer s.leave()

	list, err := s.api.ListDevices(ctx)
	if err != nil {
		s.logger.Warn("device list fetch failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.devices = device.SortedByName(list)
	s.initialized = true
	s.recompute()
	view, fns := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("device store initialized", "count", len(view.Devices))
	notify(fns, view)
	return nil
}

// Add creates a device on the backend and inserts the returned record,
// which carries the server-assigned ID.
func (s *Store) Add(ctx context.Context, nd device.NewDevice) (device.Device, error) {
	if err := s.begin(); err != nil {
		return device.Device{}, err
	}
	defer s.leave()

	added, err := s.api.AddDevice(ctx, nd)
	if err != nil {
		return device.Device{}, err
	}

	s.apply(func(list []device.Device) []device.Device {
		return append(list, added)
	})
	return added, nil
}

// Update sends d to the backend and replaces the entry with the same ID by
// the returned record. An entry removed while the call was in flight is
// not resurrected.
func (s *Store) Update(ctx context.Context, d device.Device) (device.Device, error) {
	if err := s.begin(); err != nil {
		return device.Device{}, err
	}
	defer s.leave()

	updated, err := s.api.UpdateDevice(ctx, d)
	if err != nil {
		return device.Device{}, err
	}

	s.apply(func(list []device.Device) []device.Device {
		if i := device.IndexOf(list, d.ID); i >= 0 {
			list[i] = updated
		}
		return list
	})
	return updated, nil
}

// Delete removes a device on the backend and then from the collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.leave()

	if err := s.api.DeleteDevice(ctx, id); err != nil {
		return err
	}

	s.apply(func(list []device.Device) []device.Device {
		out := list[:0]
		for _, d := range list {
			if d.ID != id {
				out = append(out, d)
			}
		}
		return out
	})
	return nil
}

// SetProtocolFilter changes the Filtered view.
func (s *Store) SetProtocolFilter(f Filter) error {
	switch f {
	case FilterNone, FilterVNC, FilterRDP:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilter, string(f))
	}

	s.mu.Lock()
	s.filter = f
	s.recompute()
	view, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, view)
	return nil
}

// ProtocolFilter returns the current filter.
func (s *Store) ProtocolFilter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Filtered returns the filtered view.
func (s *Store) Filtered() []device.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDevices(s.filtered)
}

// SetGroupByProtocol switches the Groups view between one list and a
// per-protocol partition.
func (s *Store) SetGroupByProtocol(on bool) {
	s.mu.Lock()
	s.groupBy = on
	s.recompute()
	view, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, view)
}

// GroupByProtocol reports whether Groups is partitioned by protocol.
func (s *Store) GroupByProtocol() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupBy
}

// Groups returns the grouping view.
func (s *Store) Groups() Groups {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups.clone()
}

// Count returns the sizes of the collection and its views.
func (s *Store) Count() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked()
}

// All returns the full collection in name order.
func (s *Store) All() []device.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDevices(s.devices)
}

// Search looks a device up by ID.
func (s *Store) Search(id string) (device.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := device.IndexOf(s.devices, id); i >= 0 {
		return s.devices[i], true
	}
	return device.Device{}, false
}

// State returns the lifecycle state. The store is Loading while any
// operation is in flight.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// IsLoading reports whether the store is not Ready.
func (s *Store) IsLoading() bool {
	return s.State() != StateReady
}

// View returns a snapshot of the whole store.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe registers fn to receive a View after every change. fn is called
// synchronously on the goroutine that made the change, without the store
// lock held, and must treat the View as read-only since every observer
// gets the same snapshot. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(View)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// begin marks a mutation in flight. Mutations need a loaded collection.
func (s *Store) begin() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.inflight++
	view, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, view)
	return nil
}

// enter marks an operation in flight regardless of state.
func (s *Store) enter() {
	s.mu.Lock()
	s.inflight++
	view, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, view)
}

// leave ends an operation started with begin or enter.
func (s *Store) leave() {
	s.mu.Lock()
	s.inflight--
	view, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, view)
}

// apply runs fn on a copy of the current collection, re-sorts, recomputes
// the views and notifies observers.
func (s *Store) apply(fn func([]device.Device) []device.Device) {
	s.mu.Lock()
	next := fn(cloneDevices(s.devices))
	device.SortByName(next)
	s.devices = next
	s.recompute()
	view, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, view)
}

// recompute derives Filtered and Groups from the collection. Callers hold
// the lock (or own the store exclusively, as in New).
func (s *Store) recompute() {
	switch s.filter {
	case FilterVNC, FilterRDP:
		s.filtered = device.FilterByProtocol(s.devices, device.Protocol(s.filter))
	default:
		s.filtered = s.devices
	}

	if s.groupBy {
		s.groups = Groups{
			ByProtocol: true,
			VNC:        device.FilterByProtocol(s.devices, device.ProtocolVNC),
			RDP:        device.FilterByProtocol(s.devices, device.ProtocolRDP),
		}
	} else {
		s.groups = Groups{All: s.devices}
	}
}

func (s *Store) stateLocked() State {
	switch {
	case s.inflight > 0:
		return StateLoading
	case s.initialized:
		return StateReady
	default:
		return StateUninitialized
	}
}

func (s *Store) countsLocked() Counts {
	vnc, rdp := s.groups.counts()
	return Counts{
		Total:    len(s.devices),
		Filtered: len(s.filtered),
		VNC:      vnc,
		RDP:      rdp,
	}
}

func (s *Store) viewLocked() View {
	return View{
		State:           s.stateLocked(),
		Devices:         cloneDevices(s.devices),
		Filter:          s.filter,
		Filtered:        cloneDevices(s.filtered),
		GroupByProtocol: s.groupBy,
		Groups:          s.groups.clone(),
		Counts:          s.countsLocked(),
	}
}

// snapshotLocked returns the current view and the observers to notify.
// The view is only built when someone is listening.
func (s *Store) snapshotLocked() (View, []func(View)) {
	if len(s.observers) == 0 {
		return View{}, nil
	}
	fns := make([]func(View), len(s.observers))
	for i, o := range s.observers {
		fns[i] = o.fn
	}
	return s.viewLocked(), fns
}

func notify(fns []func(View), view View) {
	for _, fn := range fns {
		fn(view)
	}
}
