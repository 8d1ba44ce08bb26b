package devicestore

import (
	"fmt"
	"strings"

	"github.com/spark-heimdall/heimdall/internal/device"
)

// State is the lifecycle state of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Filter restricts the Filtered view to one protocol.
type Filter string

const (
	FilterNone Filter = "none"
	FilterVNC  Filter = Filter(device.ProtocolVNC)
	FilterRDP  Filter = Filter(device.ProtocolRDP)
)

// ParseFilter converts user input to a Filter. The empty string is FilterNone.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterNone:
		return FilterNone, nil
	case FilterVNC, FilterRDP:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// Groups is the grouping view. When ByProtocol is set VNC and RDP hold the
// partitions and All is nil; otherwise All holds the whole collection.
type Groups struct {
	ByProtocol bool
	VNC        []device.Device
	RDP        []device.Device
	All        []device.Device
}

// Counts summarises the sizes of the collection and its views. VNC and RDP
// are zero unless the grouping view is partitioned by protocol.
type Counts struct {
	Total    int
	Filtered int
	VNC      int
	RDP      int
}

// View is a snapshot of the store handed to observers.
type View struct {
	State           State
	Devices         []device.Device
	Filter          Filter
	Filtered        []device.Device
	GroupByProtocol bool
	Groups          Groups
	Counts          Counts
}

func cloneDevices(devices []device.Device) []device.Device {
	out := make([]device.Device, len(devices))
	copy(out, devices)
	return out
}

func (g Groups) clone() Groups {
	if g.ByProtocol {
		return Groups{ByProtocol: true, VNC: cloneDevices(g.VNC), RDP: cloneDevices(g.RDP)}
	}
	return Groups{All: cloneDevices(g.All)}
}

func (g Groups) counts() (vnc, rdp int) {
	if !g.ByProtocol {
		return 0, 0
	}
	return len(g.VNC), len(g.RDP)
}
