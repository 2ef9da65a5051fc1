package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"recalltrainer/internal/repository"
	"recalltrainer/internal/security"
	"recalltrainer/internal/telemetry"
)

// TelemetryHandler handles telemetry event ingestion
type TelemetryHandler struct {
	telemetryRepo *repository.TelemetryRepository
}

// NewTelemetryHandler creates a new telemetry handler
func NewTelemetryHandler(telemetryRepo *repository.TelemetryRepository) *TelemetryHandler {
	return &TelemetryHandler{telemetryRepo: telemetryRepo}
}

// Ingest accepts a batch of telemetry events. Validation is all-or-nothing:
// one bad event rejects the whole batch so the client can resend it intact.
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var batch telemetry.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_json", "failed to decode telemetry batch", err)
		return
	}

	if len(batch.Events) == 0 {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "inserted": 0})
		return
	}

	if err := telemetry.ValidateBatch(batch.Events); err != nil {
		var ve *telemetry.ValidationError
		reason := "invalid_batch"
		if errors.As(err, &ve) {
			reason = ve.Reason
		}
		respondJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": reason})
		return
	}

	clientIP := security.GetClientIP(r)
	if err := h.telemetryRepo.InsertBatch(batch.Events, clientIP); err != nil {
		respondWithError(w, http.StatusInternalServerError, "telemetry_insert_failed", "telemetry insert failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "inserted": len(batch.Events)})
}

// Health reports whether the database behind the ingestion endpoint is reachable.
func (h *TelemetryHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.telemetryRepo.Ping(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "database_unreachable", "telemetry health check failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}
