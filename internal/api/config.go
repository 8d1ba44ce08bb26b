package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/spark-heimdall/heimdall/internal/events"
	"github.com/spark-heimdall/heimdall/internal/settings"
)

// handleGetConfig returns the live configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.settings.Current())
}

// handleUpdateConfig merges a partial configuration, saves it and hands
// the new viewer settings to the launcher.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "Invalid request payload")
		return
	}

	updated, err := s.settings.Apply(r.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, settings.ErrMalformedUpdate):
			writeBadRequest(w, "Invalid request payload")
		case errors.Is(err, settings.ErrInvalidConfig):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("failed to update config", "error", err, "request_id", requestID(r))
			writeInternalError(w, "failed to save configuration")
		}
		return
	}

	s.launcher.SetClients(s.settings.Clients())
	s.hub.Broadcast(events.ConfigUpdated, updated)
	writeOK(w)
}
