package handlers

import (
	"net/http"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	"github.com/avolkau/sparkmatch/internal/pkg/validate"
	authsvc "github.com/avolkau/sparkmatch/internal/services/auth"
	"github.com/avolkau/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/avolkau/sparkmatch/internal/transport/http/errors"
)

const defaultCardWindow = 10

type CandidateHandler struct {
	sessions SessionProvider
	photos   PhotoSigner
}

func NewCandidateHandler(sessions SessionProvider, photos PhotoSigner) *CandidateHandler {
	return &CandidateHandler{sessions: sessions, photos: photos}
}

// List returns the upcoming cards of the caller's deck, current card
// first. An exhausted deck is refilled with the active filters before
// answering.
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.sessions == nil {
		writeInternal(w, "CANDIDATE_SERVICE_UNAVAILABLE", "candidate service is unavailable")
		return
	}

	session, err := h.sessions.Session(r.Context(), identity.UserID)
	if err != nil {
		writeUnavailable(w, "TEMP_UNAVAILABLE", "browsing session is unavailable")
		return
	}

	if err := session.Refill(r.Context()); err != nil {
		writeUnavailable(w, "TEMP_UNAVAILABLE", "candidate fetch failed")
		return
	}

	limit := defaultCardWindow
	if v := r.URL.Query().Get("limit"); v != "" {
		n, ok := validate.PositiveInt(v)
		if !ok {
			writeBadRequest(w, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = n
	}

	cards := session.UpcomingCards(limit)
	resp := dto.CandidatesResponse{
		Cards:     make([]dto.CandidateCard, 0, len(cards)),
		Remaining: session.Remaining(),
	}
	for _, card := range cards {
		entry, err := h.mapCard(r, card)
		if err != nil {
			writeInternal(w, "INTERNAL_ERROR", "failed to prepare candidate cards")
			return
		}
		resp.Cards = append(resp.Cards, entry)
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *CandidateHandler) mapCard(r *http.Request, card model.Candidate) (dto.CandidateCard, error) {
	entry := dto.CandidateCard{
		ID:           card.ID,
		DisplayName:  card.DisplayName,
		Age:          card.Age,
		Gender:       card.Gender,
		LocationHint: card.LocationHint,
		Interests:    card.Interests,
		Verified:     card.Verified,
		DistanceKM:   card.DistanceKM,
	}
	if h.photos != nil {
		url, err := h.photos.PhotoURL(r.Context(), card.PhotoKey)
		if err != nil {
			return dto.CandidateCard{}, err
		}
		entry.PhotoURL = url
	}
	return entry, nil
}
