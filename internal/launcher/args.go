package launcher

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/config"
)

// Command is a resolved viewer invocation.
type Command struct {
	Binary string
	Args   []string
}

// hostPort joins the device address and port. IPv6 literals are bracketed.
func hostPort(d device.Device, port int) string {
	return net.JoinHostPort(d.IPAddress, strconv.Itoa(port))
}

// VNCArgs returns the vncviewer arguments for d:
//
//	host:port [-FullScreen] [-PasswordFile file]
//
// The port is always explicit; 0 means 5900.
func VNCArgs(d device.Device, passwordFile string) []string {
	args := []string{hostPort(d, d.EffectivePort())}
	if d.FullScreen {
		args = append(args, "-FullScreen")
	}
	if passwordFile != "" {
		args = append(args, "-PasswordFile", passwordFile)
	}
	return args
}

// RDPArgs returns the xfreerdp arguments for d:
//
//	[-u user] [-f] host[:port]
//
// The port is only added when the device overrides the default.
func RDPArgs(d device.Device) []string {
	var args []string
	if d.Username != "" {
		args = append(args, "-u", d.Username)
	}
	if d.FullScreen {
		args = append(args, "-f")
	}

	target := d.IPAddress
	if d.Port != 0 {
		target = hostPort(d, d.Port)
	}
	return append(args, target)
}

// BuildCommand resolves the viewer binary and arguments for d.
func BuildCommand(clients config.ClientsConfig, d device.Device) (Command, error) {
	if d.IPAddress == "" {
		return Command{}, fmt.Errorf("%w: %s", ErrInvalidTarget, d.ID)
	}

	switch d.Protocol {
	case device.ProtocolVNC:
		if clients.VNCViewer == "" {
			return Command{}, fmt.Errorf("%w: vnc", ErrViewerNotConfigured)
		}
		return Command{Binary: clients.VNCViewer, Args: VNCArgs(d, clients.VNCPasswordFile)}, nil

	case device.ProtocolRDP:
		if clients.RDPViewer == "" {
			return Command{}, fmt.Errorf("%w: rdp", ErrViewerNotConfigured)
		}
		return Command{Binary: clients.RDPViewer, Args: RDPArgs(d)}, nil

	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownProtocol, d.Protocol)
	}
}
