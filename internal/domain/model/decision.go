package model

import "time"

type DecisionKind string

const (
	DecisionLike      DecisionKind = "LIKE"
	DecisionPass      DecisionKind = "PASS"
	DecisionSuperLike DecisionKind = "SUPERLIKE"
)

func (k DecisionKind) IsPositive() bool {
	return k == DecisionLike || k == DecisionSuperLike
}

type Decision struct {
	ActorID     string       `json:"actor_id"`
	CandidateID string       `json:"candidate_id"`
	Kind        DecisionKind `json:"kind"`
	CreatedAt   time.Time    `json:"created_at"`
}
