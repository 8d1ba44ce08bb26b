// Package device holds the Device connection profile and the backend's
// device registry.
//
// The Device type is shared by both halves of Heimdall: the backend persists
// it, and the API client and device store carry it over the wire. Sorting
// (SortByName) lives here so both sides agree on the canonical order.
//
// # Architecture
//
//	┌──────────────────┐    ┌──────────────────┐
//	│     Registry     │───▶│    Repository    │───▶ SQLite (devices table)
//	│ • CRUD, UUID ids │    │ • SQL queries    │
//	│ • in-memory cache│    └──────────────────┘
//	└──────────────────┘
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	created, err := registry.CreateDevice(ctx, device.NewDevice{
//	    Name:      "Workshop PC",
//	    IPAddress: "192.168.1.40",
//	    Protocol:  device.ProtocolVNC,
//	})
//
// # Thread Safety
//
// The Registry is safe for concurrent use. The Repository implementation
// must also be thread-safe.
package device
