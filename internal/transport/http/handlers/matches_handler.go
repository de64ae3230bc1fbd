package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avolkau/sparkmatch/internal/pkg/validate"
	"github.com/avolkau/sparkmatch/internal/repo/postgres"
	authsvc "github.com/avolkau/sparkmatch/internal/services/auth"
	matchessvc "github.com/avolkau/sparkmatch/internal/services/matches"
	"github.com/avolkau/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/avolkau/sparkmatch/internal/transport/http/errors"
)

const (
	matchesPageLimit = 100
	likesPageLimit   = 100
	blocksPageLimit  = 100
)

// MatchLister reads the caller's active matches.
type MatchLister interface {
	ListActiveForUser(ctx context.Context, userID string, limit int) ([]postgres.ActiveMatchRecord, error)
}

// LikeLister reads likes the caller has not answered yet.
type LikeLister interface {
	ListIncomingLikes(ctx context.Context, userID string, limit int) ([]postgres.IncomingLikeRecord, error)
}

// MatchActions mutates the matches surface: unmatching and blocking.
type MatchActions interface {
	Unmatch(ctx context.Context, userID, matchID string) (bool, error)
	Block(ctx context.Context, userID, targetID, reason string) error
	Blocked(ctx context.Context, userID string, limit int) ([]postgres.BlockedUserRecord, error)
}

type MatchesHandler struct {
	matches MatchLister
	likes   LikeLister
	actions MatchActions
	photos  PhotoSigner
}

func NewMatchesHandler(matches MatchLister, likes LikeLister, actions MatchActions, photos PhotoSigner) *MatchesHandler {
	return &MatchesHandler{matches: matches, likes: likes, actions: actions, photos: photos}
}

// List returns the caller's active matches, newest first.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.matches == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	records, err := h.matches.ListActiveForUser(r.Context(), identity.UserID, matchesPageLimit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load matches")
		return
	}

	resp := dto.MatchesResponse{Matches: make([]dto.MatchEntry, 0, len(records))}
	for _, rec := range records {
		entry := dto.MatchEntry{
			MatchID:     rec.ID,
			CandidateID: rec.TargetUserID,
			DisplayName: rec.DisplayName,
			Age:         rec.Age,
			MatchedAt:   rec.CreatedAt,
		}
		if h.photos != nil {
			url, err := h.photos.PhotoURL(r.Context(), rec.PhotoKey)
			if err != nil {
				writeInternal(w, "INTERNAL_ERROR", "failed to prepare match photos")
				return
			}
			entry.PhotoURL = url
		}
		resp.Matches = append(resp.Matches, entry)
	}

	httperrors.Write(w, http.StatusOK, resp)
}

// Unmatch retires one of the caller's matches.
func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.actions == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	matchID := chi.URLParam(r, "matchID")
	if !validate.Required(matchID) {
		writeBadRequest(w, "VALIDATION_ERROR", "match id is required")
		return
	}

	removed, err := h.actions.Unmatch(r.Context(), identity.UserID, matchID)
	if err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid unmatch request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to unmatch")
		return
	}
	if !removed {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    "MATCH_NOT_FOUND",
			Message: "no active match with that id",
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnmatchResponse{OK: true})
}

// Block hides a user from the caller for good: the pair's match is
// retired and neither will see the other in candidates again.
func (h *MatchesHandler) Block(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.actions == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	var req dto.BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validate.Required(req.UserID) {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id is required")
		return
	}

	if err := h.actions.Block(r.Context(), identity.UserID, req.UserID, req.Reason); err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid block request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to block user")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BlockResponse{OK: true})
}

// Blocked returns the caller's block list, newest first.
func (h *MatchesHandler) Blocked(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.actions == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	records, err := h.actions.Blocked(r.Context(), identity.UserID, blocksPageLimit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load blocked users")
		return
	}

	resp := dto.BlocksResponse{Blocked: make([]dto.BlockedUser, 0, len(records))}
	for _, rec := range records {
		entry := dto.BlockedUser{
			UserID:      rec.TargetUserID,
			DisplayName: rec.DisplayName,
			Reason:      rec.Reason,
			BlockedAt:   rec.CreatedAt,
		}
		if h.photos != nil {
			url, err := h.photos.PhotoURL(r.Context(), rec.PhotoKey)
			if err != nil {
				writeInternal(w, "INTERNAL_ERROR", "failed to prepare blocked user photos")
				return
			}
			entry.PhotoURL = url
		}
		resp.Blocked = append(resp.Blocked, entry)
	}

	httperrors.Write(w, http.StatusOK, resp)
}

// Likes returns users who liked the caller and are still unanswered.
func (h *MatchesHandler) Likes(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.likes == nil {
		writeInternal(w, "LIKES_SERVICE_UNAVAILABLE", "likes service is unavailable")
		return
	}

	records, err := h.likes.ListIncomingLikes(r.Context(), identity.UserID, likesPageLimit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load incoming likes")
		return
	}

	resp := dto.LikesResponse{Likes: make([]dto.IncomingLike, 0, len(records))}
	for _, rec := range records {
		resp.Likes = append(resp.Likes, dto.IncomingLike{
			UserID:  rec.ActorID,
			Kind:    rec.Kind,
			LikedAt: rec.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}
