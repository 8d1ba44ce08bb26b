package launcher

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/config"
)

func TestVNCArgs(t *testing.T) {
	tests := []struct {
		name         string
		device       device.Device
		passwordFile string
		want         []string
	}{
		{
			name:         "default port",
			device:       device.Device{IPAddress: "10.0.0.5", Protocol: device.ProtocolVNC},
			passwordFile: "/home/u/.vnc/passwd",
			want:         []string{"10.0.0.5:5900", "-PasswordFile", "/home/u/.vnc/passwd"},
		},
		{
			name:         "custom port full screen",
			device:       device.Device{IPAddress: "kiosk.lan", Protocol: device.ProtocolVNC, Port: 5901, FullScreen: true},
			passwordFile: "/p",
			want:         []string{"kiosk.lan:5901", "-FullScreen", "-PasswordFile", "/p"},
		},
		{
			name:   "no password file",
			device: device.Device{IPAddress: "10.0.0.5", Protocol: device.ProtocolVNC},
			want:   []string{"10.0.0.5:5900"},
		},
		{
			name:   "ipv6",
			device: device.Device{IPAddress: "fe80::1", Protocol: device.ProtocolVNC, Port: 5902},
			want:   []string{"[fe80::1]:5902"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VNCArgs(tt.device, tt.passwordFile)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("VNCArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRDPArgs(t *testing.T) {
	tests := []struct {
		name   string
		device device.Device
		want   []string
	}{
		{
			name:   "address only",
			device: device.Device{IPAddress: "10.0.0.9", Protocol: device.ProtocolRDP},
			want:   []string{"10.0.0.9"},
		},
		{
			name:   "user and full screen",
			device: device.Device{IPAddress: "10.0.0.9", Protocol: device.ProtocolRDP, Username: "admin", FullScreen: true},
			want:   []string{"-u", "admin", "-f", "10.0.0.9"},
		},
		{
			name:   "custom port",
			device: device.Device{IPAddress: "10.0.0.9", Protocol: device.ProtocolRDP, Port: 3390},
			want:   []string{"10.0.0.9:3390"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RDPArgs(tt.device)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RDPArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildCommand(t *testing.T) {
	clients := config.ClientsConfig{
		VNCViewer:       "vncviewer",
		VNCPasswordFile: "/p",
		RDPViewer:       "xfreerdp",
	}

	cmd, err := BuildCommand(clients, device.Device{ID: "1", IPAddress: "h", Protocol: device.ProtocolRDP})
	if err != nil {
		t.Fatalf("BuildCommand(rdp) error = %v", err)
	}
	if cmd.Binary != "xfreerdp" || !reflect.DeepEqual(cmd.Args, []string{"h"}) {
		t.Errorf("BuildCommand(rdp) = %+v", cmd)
	}

	cmd, err = BuildCommand(clients, device.Device{ID: "2", IPAddress: "h", Protocol: device.ProtocolVNC})
	if err != nil {
		t.Fatalf("BuildCommand(vnc) error = %v", err)
	}
	if cmd.Binary != "vncviewer" {
		t.Errorf("BuildCommand(vnc).Binary = %q", cmd.Binary)
	}

	errTests := []struct {
		name    string
		clients config.ClientsConfig
		device  device.Device
		wantErr error
	}{
		{"unknown protocol", clients, device.Device{ID: "3", IPAddress: "h", Protocol: "ssh"}, ErrUnknownProtocol},
		{"missing address", clients, device.Device{ID: "4", Protocol: device.ProtocolVNC}, ErrInvalidTarget},
		{"missing vnc viewer", config.ClientsConfig{RDPViewer: "x"}, device.Device{ID: "5", IPAddress: "h", Protocol: device.ProtocolVNC}, ErrViewerNotConfigured},
		{"missing rdp viewer", config.ClientsConfig{VNCViewer: "x"}, device.Device{ID: "6", IPAddress: "h", Protocol: device.ProtocolRDP}, ErrViewerNotConfigured},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildCommand(tt.clients, tt.device); !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildCommand() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
