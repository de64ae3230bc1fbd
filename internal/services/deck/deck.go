package deck

import (
	"sync"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

// Deck is the ordered browsing cursor over one filtered candidate pool.
// The index only moves forward within a generation; Reset replaces the
// sequence and rewinds to the front. All methods are safe for concurrent
// use: a decision being resolved while a refresh lands must advance
// exactly one step, never two.
type Deck struct {
	mu    sync.Mutex
	cards []model.Candidate
	index int
}

func New() *Deck {
	return &Deck{}
}

// Current returns the candidate under the cursor, or false when the deck
// is exhausted.
func (d *Deck) Current() (model.Candidate, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index >= len(d.cards) {
		return model.Candidate{}, false
	}
	return d.cards[d.index], true
}

// Advance moves the cursor one step. Advancing an exhausted deck is a
// no-op; the deck stays exhausted.
func (d *Deck) Advance() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index < len(d.cards) {
		d.index++
	}
}

// Reset replaces the sequence and rewinds the cursor.
func (d *Deck) Reset(cards []model.Candidate) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cards = append([]model.Candidate(nil), cards...)
	d.index = 0
}

// Upcoming returns up to limit candidates from the cursor onward, the
// current card first. The slice is a copy.
func (d *Deck) Upcoming(limit int) []model.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index >= len(d.cards) || limit <= 0 {
		return nil
	}
	rest := d.cards[d.index:]
	if limit < len(rest) {
		rest = rest[:limit]
	}
	return append([]model.Candidate(nil), rest...)
}

func (d *Deck) Exhausted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index >= len(d.cards)
}

// Remaining reports how many candidates are left including the current one.
func (d *Deck) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	left := len(d.cards) - d.index
	if left < 0 {
		return 0
	}
	return left
}
