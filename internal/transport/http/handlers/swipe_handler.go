package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/avolkau/sparkmatch/internal/domain/model"
	"github.com/avolkau/sparkmatch/internal/pkg/validate"
	authsvc "github.com/avolkau/sparkmatch/internal/services/auth"
	"github.com/avolkau/sparkmatch/internal/services/browse"
	"github.com/avolkau/sparkmatch/internal/services/gesture"
	quotasvc "github.com/avolkau/sparkmatch/internal/services/quota"
	"github.com/avolkau/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/avolkau/sparkmatch/internal/transport/http/errors"
)

type SwipeHandler struct {
	sessions SessionProvider
}

func NewSwipeHandler(sessions SessionProvider) *SwipeHandler {
	return &SwipeHandler{sessions: sessions}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.sessions == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validate.Required(req.TargetID) || !validate.Required(req.Action) {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and action are required")
		return
	}

	kind, ok := decisionKindFromAction(req.Action)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "unsupported action")
		return
	}

	session, err := h.sessions.Session(r.Context(), identity.UserID)
	if err != nil {
		writeUnavailable(w, "TEMP_UNAVAILABLE", "browsing session is unavailable")
		return
	}

	result, err := session.Swipe(r.Context(), req.TargetID, kind)
	if err != nil {
		writeSwipeError(w, session, err)
		return
	}

	resp := dto.SwipeResponse{
		OK:            true,
		MatchCreated:  result.Matched,
		Quota:         quotaPayload(session),
		DeckRemaining: result.DeckRemaining,
	}
	if result.Matched {
		resp.Match = &dto.MatchPayload{
			MatchID:     result.Match.MatchID,
			CandidateID: result.Match.CandidateID,
			MatchedAt:   result.Match.CreatedAt,
		}
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func writeSwipeError(w http.ResponseWriter, session *browse.Session, err error) {
	switch {
	case errors.Is(err, browse.ErrCardMismatch):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "CARD_MISMATCH",
			Message: "target is no longer the current card",
		})
	case errors.Is(err, browse.ErrNoCard):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "QUEUE_EMPTY",
			Message: "no candidates left to swipe",
		})
	case errors.Is(err, gesture.ErrInvalidTransition):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "SWIPE_IN_PROGRESS",
			Message: "another swipe is already in flight for this card",
		})
	case errors.Is(err, quotasvc.ErrQuotaExhausted):
		_, nextReset := session.QuotaSnapshot()
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "SUPERLIKE_QUOTA_EXHAUSTED",
			Message:       "daily super-like quota exhausted",
			RetryAfterSec: retryAfterSeconds(nextReset),
			ResetAt:       &nextReset,
		})
	case browse.IsRateLimited(err):
		var rl *browse.RateLimitedError
		errors.As(err, &rl)
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_FAST",
			Message:       "too many super-likes, slow down",
			RetryAfterSec: rl.RetryAfterSec,
		})
	case errors.Is(err, browse.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process swipe")
	}
}

func decisionKindFromAction(action string) (model.DecisionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "like":
		return model.DecisionLike, true
	case "pass":
		return model.DecisionPass, true
	case "superlike":
		return model.DecisionSuperLike, true
	default:
		return "", false
	}
}

func quotaPayload(session *browse.Session) dto.QuotaPayload {
	state, nextReset := session.QuotaSnapshot()
	return dto.QuotaPayload{
		Remaining:   state.Remaining,
		NextResetAt: nextReset,
	}
}

func retryAfterSeconds(resetAt time.Time) int64 {
	sec := int64(time.Until(resetAt).Seconds())
	if sec < 1 {
		sec = 1
	}
	return sec
}
