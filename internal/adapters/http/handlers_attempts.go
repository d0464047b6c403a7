package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

func (h *Handler) attemptStatus(w http.ResponseWriter, r *http.Request) {
	id, err := attemptIDParam(r)
	if err != nil {
		writeValidationError(w, r, "attempt_status", err)
		return
	}
	snap, err := h.service.AttemptStatus(r.Context(), id)
	if err != nil {
		writeMappedError(w, r, "attempt_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, snap)
}

// attemptEvents streams the countdown as Server-Sent Events, one "attempt"
// event per snapshot. The stream ends after a terminal snapshot.
func (h *Handler) attemptEvents(w http.ResponseWriter, r *http.Request) {
	id, err := attemptIDParam(r)
	if err != nil {
		writeValidationError(w, r, "attempt_events", err)
		return
	}
	snapshots, err := h.service.WatchAttempt(r.Context(), id)
	if err != nil {
		writeMappedError(w, r, "attempt_events", err)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for snap := range snapshots {
		payload, err := json.Marshal(snap)
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "event: attempt\ndata: %s\n\n", payload); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h *Handler) confirmAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := attemptIDParam(r)
	if err != nil {
		writeValidationError(w, r, "confirm_attempt", err)
		return
	}
	res, err := h.service.ConfirmAttempt(r.Context(), id)
	if err != nil {
		writeMappedError(w, r, "confirm_attempt", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) abandonAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := attemptIDParam(r)
	if err != nil {
		writeValidationError(w, r, "abandon_attempt", err)
		return
	}
	snap, err := h.service.AbandonAttempt(r.Context(), id)
	if err != nil {
		writeMappedError(w, r, "abandon_attempt", err)
		return
	}
	writeSuccess(w, http.StatusOK, snap)
}
