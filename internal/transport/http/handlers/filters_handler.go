package handlers

import (
	"errors"
	"net/http"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	authsvc "github.com/avolkau/sparkmatch/internal/services/auth"
	"github.com/avolkau/sparkmatch/internal/services/discovery"
	"github.com/avolkau/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/avolkau/sparkmatch/internal/transport/http/errors"
)

type FiltersHandler struct {
	sessions SessionProvider
}

func NewFiltersHandler(sessions SessionProvider) *FiltersHandler {
	return &FiltersHandler{sessions: sessions}
}

// Apply replaces the caller's filter criteria and rebuilds their deck.
func (h *FiltersHandler) Apply(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.sessions == nil {
		writeInternal(w, "FILTER_SERVICE_UNAVAILABLE", "filter service is unavailable")
		return
	}

	var req dto.FiltersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	gender := req.Gender
	if gender == "" {
		gender = model.GenderAny
	}
	criteria := model.FilterCriteria{
		MaxDistanceKM:    req.MaxDistanceKM,
		AgeRange:         model.AgeRange{Min: req.AgeMin, Max: req.AgeMax},
		GenderPreference: gender,
		LocationHint:     req.LocationHint,
	}

	session, err := h.sessions.Session(r.Context(), identity.UserID)
	if err != nil {
		writeUnavailable(w, "TEMP_UNAVAILABLE", "browsing session is unavailable")
		return
	}

	if err := session.ApplyFilters(r.Context(), criteria); err != nil {
		if errors.Is(err, discovery.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid filter criteria")
			return
		}
		writeUnavailable(w, "TEMP_UNAVAILABLE", "candidate fetch failed")
		return
	}

	applied := session.Criteria()
	httperrors.Write(w, http.StatusOK, dto.FiltersResponse{
		OK:            true,
		MaxDistanceKM: applied.MaxDistanceKM,
		AgeMin:        applied.AgeRange.Min,
		AgeMax:        applied.AgeRange.Max,
		Gender:        applied.GenderPreference,
		LocationHint:  applied.LocationHint,
		DeckSize:      session.Remaining(),
	})
}
