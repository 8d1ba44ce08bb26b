package settings

import "github.com/spark-heimdall/heimdall/internal/infrastructure/config"

// AppConfig is the user-editable part of the backend configuration, as
// served by GET /api/config.
type AppConfig struct {
	Server     ServerSettings     `json:"server"`
	Connection ConnectionSettings `json:"connection"`
	Clients    ClientSettings     `json:"clients"`
	Logging    LoggingSettings    `json:"logging"`
}

// ServerSettings holds the HTTP listener settings.
type ServerSettings struct {
	Port int `json:"port"`
}

// ConnectionSettings controls the connection opened at startup.
type ConnectionSettings struct {
	AutoStart   bool   `json:"auto_start"`
	AutoStartID string `json:"auto_start_id"`
}

// ClientSettings points at the external viewer executables.
type ClientSettings struct {
	VNCViewer       string `json:"vnc_viewer"`
	VNCPasswordFile string `json:"vnc_password_file"`
	RDPViewer       string `json:"rdp_viewer"`
}

// LoggingSettings holds the log level and output format.
type LoggingSettings struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Update is a partial AppConfig. Nil fields are left unchanged, so its JSON
// encoding only carries the keys the caller set.
type Update struct {
	Server     *ServerUpdate     `json:"server,omitempty"`
	Connection *ConnectionUpdate `json:"connection,omitempty"`
	Clients    *ClientsUpdate    `json:"clients,omitempty"`
	Logging    *LoggingUpdate    `json:"logging,omitempty"`
}

// ServerUpdate is a partial ServerSettings.
type ServerUpdate struct {
	Port *int `json:"port,omitempty"`
}

// ConnectionUpdate is a partial ConnectionSettings.
type ConnectionUpdate struct {
	AutoStart   *bool   `json:"auto_start,omitempty"`
	AutoStartID *string `json:"auto_start_id,omitempty"`
}

// ClientsUpdate is a partial ClientSettings.
type ClientsUpdate struct {
	VNCViewer       *string `json:"vnc_viewer,omitempty"`
	VNCPasswordFile *string `json:"vnc_password_file,omitempty"`
	RDPViewer       *string `json:"rdp_viewer,omitempty"`
}

// LoggingUpdate is a partial LoggingSettings.
type LoggingUpdate struct {
	Level  *string `json:"level,omitempty"`
	Format *string `json:"format,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Server == nil && u.Connection == nil && u.Clients == nil && u.Logging == nil
}

// FromConfig extracts the AppConfig view of a backend configuration.
func FromConfig(cfg *config.Config) AppConfig {
	return AppConfig{
		Server: ServerSettings{Port: cfg.API.Port},
		Connection: ConnectionSettings{
			AutoStart:   cfg.Connection.AutoStart,
			AutoStartID: cfg.Connection.AutoStartID,
		},
		Clients: ClientSettings{
			VNCViewer:       cfg.Clients.VNCViewer,
			VNCPasswordFile: cfg.Clients.VNCPasswordFile,
			RDPViewer:       cfg.Clients.RDPViewer,
		},
		Logging: LoggingSettings{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		},
	}
}

// applyTo writes the AppConfig fields into cfg, leaving every other section alone.
func (a AppConfig) applyTo(cfg *config.Config) {
	cfg.API.Port = a.Server.Port
	cfg.Connection.AutoStart = a.Connection.AutoStart
	cfg.Connection.AutoStartID = a.Connection.AutoStartID
	cfg.Clients.VNCViewer = a.Clients.VNCViewer
	cfg.Clients.VNCPasswordFile = a.Clients.VNCPasswordFile
	cfg.Clients.RDPViewer = a.Clients.RDPViewer
	cfg.Logging.Level = a.Logging.Level
	cfg.Logging.Format = a.Logging.Format
}
