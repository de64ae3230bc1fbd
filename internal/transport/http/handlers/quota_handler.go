package handlers

import (
	"net/http"

	authsvc "github.com/avolkau/sparkmatch/internal/services/auth"
	httperrors "github.com/avolkau/sparkmatch/internal/transport/http/errors"
)

type QuotaHandler struct {
	sessions SessionProvider
}

func NewQuotaHandler(sessions SessionProvider) *QuotaHandler {
	return &QuotaHandler{sessions: sessions}
}

// Get reports the caller's remaining super-likes and the next reset.
func (h *QuotaHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.sessions == nil {
		writeInternal(w, "QUOTA_SERVICE_UNAVAILABLE", "quota service is unavailable")
		return
	}

	session, err := h.sessions.Session(r.Context(), identity.UserID)
	if err != nil {
		writeUnavailable(w, "TEMP_UNAVAILABLE", "browsing session is unavailable")
		return
	}

	httperrors.Write(w, http.StatusOK, quotaPayload(session))
}
