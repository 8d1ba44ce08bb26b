package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/events"
)

// handleListDevices returns all devices in name order.
//
// Query parameters:
//   - protocol: only devices using this protocol (vnc, rdp)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if protocolStr := r.URL.Query().Get("protocol"); protocolStr != "" {
		protocol, err := device.ParseProtocol(protocolStr)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		devices, err := s.registry.ListDevicesByProtocol(ctx, protocol)
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeData(w, http.StatusOK, devices)
		return
	}

	devices, err := s.registry.ListDevices(ctx)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	writeData(w, http.StatusOK, devices)
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "Device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeData(w, http.StatusOK, dev)
}

// handleCreateDevice creates a device. Any id in the body is ignored; the
// server assigns one.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var nd device.NewDevice
	if err := json.NewDecoder(r.Body).Decode(&nd); err != nil {
		writeBadRequest(w, "Invalid request payload")
		return
	}

	dev, err := s.registry.CreateDevice(r.Context(), nd)
	if err != nil {
		if isValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("failed to create device", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to create device")
		return
	}

	s.hub.Broadcast(events.DeviceCreated, dev)
	writeData(w, http.StatusCreated, dev)
}

// handleUpdateDevice replaces a device. The id in the path wins over any id
// in the body.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dev device.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeBadRequest(w, "Invalid request payload")
		return
	}
	dev.ID = id

	updated, err := s.registry.UpdateDevice(r.Context(), dev)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "Device not found")
		case isValidationError(err):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("failed to update device", "id", id, "error", err, "request_id", requestID(r))
			writeInternalError(w, "failed to update device")
		}
		return
	}

	s.hub.Broadcast(events.DeviceUpdated, updated)
	writeData(w, http.StatusOK, updated)
}

// handleDeleteDevice removes a device. If it was the auto-start target,
// auto-start is switched off.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := s.registry.DeleteDevice(ctx, id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "Device not found")
			return
		}
		s.logger.Error("failed to delete device", "id", id, "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to delete device")
		return
	}

	cleared, err := s.settings.ClearAutoStart(ctx, id)
	if err != nil {
		// The device is gone either way; a dangling id is ignored at startup.
		s.logger.Warn("failed to clear auto-start for deleted device", "id", id, "error", err)
	}

	s.hub.Broadcast(events.DeviceDeleted, events.DeviceDeletedPayload{ID: id})
	if cleared {
		s.hub.Broadcast(events.ConfigUpdated, s.settings.Current())
	}
	writeOK(w)
}

// isValidationError checks if an error is a device validation error.
func isValidationError(err error) bool {
	return errors.Is(err, device.ErrInvalidDevice) ||
		errors.Is(err, device.ErrInvalidName) ||
		errors.Is(err, device.ErrInvalidAddress) ||
		errors.Is(err, device.ErrInvalidProtocol) ||
		errors.Is(err, device.ErrInvalidPort)
}
