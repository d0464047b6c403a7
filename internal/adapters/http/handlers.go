package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			logOperationError(r, "readiness_check", http.StatusServiceUnavailable, "NOT_READY", err)
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", name+" is not reachable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) listOfferings(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.ListPublic(r.Context()))
}

type requestAccessRequest struct {
	ViewerEmail string `json:"viewer_email"`
}

func (h *Handler) requestAccess(w http.ResponseWriter, r *http.Request) {
	var req requestAccessRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(w, r, "request_access", err)
		return
	}
	grant, err := h.service.RequestAccess(r.Context(), chi.URLParam(r, "offering_id"), req.ViewerEmail)
	if err != nil {
		writeMappedError(w, r, "request_access", err)
		return
	}
	status := http.StatusOK
	if grant.Kind == application.GrantRequiresConfirmation {
		status = http.StatusAccepted
	}
	writeSuccess(w, status, grant)
}

func (h *Handler) watch(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.Header.Get(headerWatchToken))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	grant, err := h.service.Watch(r.Context(), chi.URLParam(r, "offering_id"), token)
	if err != nil {
		writeMappedError(w, r, "watch", err)
		return
	}
	writeSuccess(w, http.StatusOK, grant)
}

// surface is the navigation guard. Denied surfaces answer 302 toward the
// matching login entry point.
func (h *Handler) surface(w http.ResponseWriter, r *http.Request) {
	surface, decision := h.service.AuthorizeSurface(r.Context(), authContextFromRequest(r), chi.URLParam(r, "name"))
	if !decision.Granted() {
		writeRedirect(w, decision.RedirectTo, decision.Reason)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"surface":  surface,
		"decision": decision.Outcome.String(),
	})
}
