// Package api provides the HTTP API and WebSocket server for Heimdall.
//
// It exposes the device registry, the live configuration and the viewer
// launcher to user interfaces.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
//
// # Endpoints
//
// Resource endpoints live under /api:
//
//	GET    /api/health
//	GET    /api/metrics
//	GET    /api/devices            ?protocol=vnc|rdp
//	POST   /api/devices
//	GET    /api/devices/{id}
//	PUT    /api/devices/{id}
//	DELETE /api/devices/{id}
//	GET    /api/config
//	PUT    /api/config             partial AppConfig
//	GET    /api/events             WebSocket
//
// Connection control does not:
//
//	POST /connect/{id}
//	POST /disconnect
//
// Any other GET outside /api serves the web UI (see package webui).
//
// Every response is an envelope: {"success":true,"data":...} or
// {"success":false,"error":"..."}. Paths are cleaned before routing, so a
// doubled slash from a client that concatenates its base URL still resolves.
//
// # Events
//
// WebSocket clients send {"type":"subscribe","payload":{"channels":[...]}}
// and then receive event frames for connection.started, connection.stopped,
// device.created, device.updated, device.deleted and config.updated.
package api
