package dto

import "time"

type SwipeRequest struct {
	TargetID string `json:"target_id"`
	Action   string `json:"action"`
}

type SwipeResponse struct {
	OK            bool          `json:"ok"`
	MatchCreated  bool          `json:"match_created"`
	Match         *MatchPayload `json:"match,omitempty"`
	Quota         QuotaPayload  `json:"quota"`
	DeckRemaining int           `json:"deck_remaining"`
}

type MatchPayload struct {
	MatchID     string    `json:"match_id"`
	CandidateID string    `json:"candidate_id"`
	MatchedAt   time.Time `json:"matched_at"`
}
