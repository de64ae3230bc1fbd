package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/avolkau/sparkmatch/internal/services/browse"
	httperrors "github.com/avolkau/sparkmatch/internal/transport/http/errors"
)

// SessionProvider hands out the caller's live browsing session.
type SessionProvider interface {
	Session(ctx context.Context, userID string) (*browse.Session, error)
}

// PhotoSigner produces short-lived URLs for stored profile photos.
type PhotoSigner interface {
	PhotoURL(ctx context.Context, objectKey string) (string, error)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func writeUnavailable(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{Code: code, Message: message})
}
