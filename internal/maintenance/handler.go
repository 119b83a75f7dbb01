package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"

	"notifeed/internal/auth"
	"notifeed/internal/observability"
)

// RevokeHandler force-logs-out a user by clearing both whitelist entries.
// It is meant for operators, guarded by a shared secret; when no secret is
// configured the route pretends not to exist.
type RevokeHandler struct {
	service     *auth.Service
	logger      *observability.Logger
	adminSecret string
}

func NewRevokeHandler(service *auth.Service, logger *observability.Logger, adminSecret string) *RevokeHandler {
	return &RevokeHandler{
		service:     service,
		logger:      logger,
		adminSecret: strings.TrimSpace(adminSecret),
	}
}

type revokeRequest struct {
	Username string `json:"username"`
}

func (h *RevokeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.adminSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.adminSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var body revokeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	if err := h.service.RevokeSessions(r.Context(), body.Username); err != nil {
		h.logger.Error("session_revoke_failed", map[string]any{
			"username": body.Username,
			"error":    err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to revoke sessions"})
		return
	}

	h.logger.Info("session_revoked", map[string]any{"username": body.Username})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
