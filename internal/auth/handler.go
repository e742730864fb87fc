package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Refresh handles POST /sessions/{sessionId}/token behind ControllerOnly and returns a fresh
// grant for the same session.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionIDFromContext(r.Context())
	if sessionID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing controller token"})
		return
	}

	grant, err := h.service.Issue(sessionID)
	if err != nil {
		slog.Error("refresh token", "error", err, "session", sessionID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, grant)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
