package dto

import "time"

type MatchEntry struct {
	MatchID     string    `json:"match_id"`
	CandidateID string    `json:"candidate_id"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	MatchedAt   time.Time `json:"matched_at"`
}

type MatchesResponse struct {
	Matches []MatchEntry `json:"matches"`
}

type UnmatchResponse struct {
	OK bool `json:"ok"`
}

type BlockRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

type BlockResponse struct {
	OK bool `json:"ok"`
}

type BlockedUser struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	BlockedAt   time.Time `json:"blocked_at"`
}

type BlocksResponse struct {
	Blocked []BlockedUser `json:"blocked"`
}

type IncomingLike struct {
	UserID  string    `json:"user_id"`
	Kind    string    `json:"kind"`
	LikedAt time.Time `json:"liked_at"`
}

type LikesResponse struct {
	Likes []IncomingLike `json:"likes"`
}
