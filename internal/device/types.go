package device

// Protocol is the remote-desktop protocol used to reach a device.
type Protocol string

// Supported protocols.
const (
	ProtocolVNC Protocol = "vnc"
	ProtocolRDP Protocol = "rdp"
)

// Default ports used when a device's Port is zero.
const (
	DefaultVNCPort = 5900
	DefaultRDPPort = 3389
)

// AllProtocols returns every supported protocol in display order.
func AllProtocols() []Protocol {
	return []Protocol{ProtocolVNC, ProtocolRDP}
}

// DefaultPort returns the well-known port for the protocol, or 0 when the
// protocol is unknown.
func (p Protocol) DefaultPort() int {
	switch p {
	case ProtocolVNC:
		return DefaultVNCPort
	case ProtocolRDP:
		return DefaultRDPPort
	default:
		return 0
	}
}

// Device is a connection profile for a remote machine.
// This matches the devices table in migrations/20260301_120000_initial_schema.up.sql.
type Device struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	IPAddress string   `json:"ip_address"`
	Protocol  Protocol `json:"protocol"`

	// Port of 0 means the protocol default.
	Port int `json:"port"`

	// Credentials, mainly meaningful for rdp.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	FullScreen  bool   `json:"full_screen"`
	Description string `json:"description,omitempty"`

	// Screen selects a monitor on multi-monitor hosts.
	Screen string `json:"screen,omitempty"`
}

// EffectivePort returns Port, or the protocol default when Port is zero.
func (d Device) EffectivePort() int {
	if d.Port != 0 {
		return d.Port
	}
	return d.Protocol.DefaultPort()
}

// NewDevice is a device that has not been assigned an ID yet.
// It is the body of a create request.
type NewDevice struct {
	Name        string   `json:"name"`
	IPAddress   string   `json:"ip_address"`
	Protocol    Protocol `json:"protocol"`
	Port        int      `json:"port"`
	Username    string   `json:"username,omitempty"`
	Password    string   `json:"password,omitempty"`
	FullScreen  bool     `json:"full_screen"`
	Description string   `json:"description,omitempty"`
	Screen      string   `json:"screen,omitempty"`
}

// WithID returns the Device carrying the given ID.
func (n NewDevice) WithID(id string) Device {
	return Device{
		ID:          id,
		Name:        n.Name,
		IPAddress:   n.IPAddress,
		Protocol:    n.Protocol,
		Port:        n.Port,
		Username:    n.Username,
		Password:    n.Password,
		FullScreen:  n.FullScreen,
		Description: n.Description,
		Screen:      n.Screen,
	}
}

// FilterByProtocol returns the devices using protocol, preserving order.
// The result never aliases the input.
func FilterByProtocol(devices []Device, protocol Protocol) []Device {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.Protocol == protocol {
			out = append(out, d)
		}
	}
	return out
}

// IndexOf returns the position of the device with id, or -1.
func IndexOf(devices []Device, id string) int {
	for i := range devices {
		if devices[i].ID == id {
			return i
		}
	}
	return -1
}
