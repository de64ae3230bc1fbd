package browse

import (
	"time"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

// EventSink receives the interaction events of one browsing session:
// committed decisions, new matches, a drained super-like balance and a
// drained deck. Implementations must not block; the session calls them
// inline while holding its lock.
type EventSink interface {
	CardDecided(userID string, decision model.Decision)
	MatchFound(event model.MatchEvent)
	QuotaExhausted(userID string, nextReset time.Time)
	QueueExhausted(userID string)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) CardDecided(string, model.Decision) {}
func (NopSink) MatchFound(model.MatchEvent)        {}
func (NopSink) QuotaExhausted(string, time.Time)   {}
func (NopSink) QueueExhausted(string)              {}
