package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/launcher"
)

// handleConnect opens the viewer for a device, replacing any open session.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeBadRequest(w, "Device ID is required")
		return
	}

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "Device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	if _, err := s.launcher.Connect(r.Context(), dev); err != nil {
		if errors.Is(err, launcher.ErrUnknownProtocol) ||
			errors.Is(err, launcher.ErrViewerNotConfigured) ||
			errors.Is(err, launcher.ErrInvalidTarget) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("failed to start viewer", "device_id", id, "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to start viewer")
		return
	}

	writeOK(w)
}

// handleDisconnect closes the open viewer. Disconnecting with nothing open
// succeeds.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if _, err := s.launcher.Disconnect(r.Context()); err != nil {
		s.logger.Error("failed to stop viewer", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to stop viewer")
		return
	}
	writeOK(w)
}
