package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/launcher"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	Devices       DeviceMetrics     `json:"devices"`
	Session       *launcher.Session `json:"session,omitempty"`
	Database      *DatabaseMetrics  `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// DeviceMetrics contains device registry statistics.
type DeviceMetrics struct {
	Total      int            `json:"total"`
	ByProtocol map[string]int `json:"by_protocol"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	SchemaVersion   string `json:"schema_version"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
}

// handleMetrics returns system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
	}

	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	metrics.Devices = DeviceMetrics{
		Total:      len(devices),
		ByProtocol: make(map[string]int),
	}
	for _, p := range device.AllProtocols() {
		metrics.Devices.ByProtocol[string(p)] = len(device.FilterByProtocol(devices, p))
	}

	if session, ok := s.launcher.Current(); ok {
		metrics.Session = &session
	}

	if s.database != nil {
		dbStats := s.database.Stats()
		schema, err := s.database.SchemaVersion(r.Context())
		if err != nil {
			s.logger.Warn("reading schema version failed", "error", err)
		}
		metrics.Database = &DatabaseMetrics{
			SchemaVersion:   schema,
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeData(w, http.StatusOK, metrics)
}
