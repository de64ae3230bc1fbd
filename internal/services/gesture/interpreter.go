package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

// Tuning shared with the card animation: a drag commits once it crosses
// 30% of the viewport width, committed cards fly off at 1.2x the viewport
// width, and the card tilts by offset/20 degrees while dragged.
const (
	ThresholdRatio  = 0.3
	FlyOffRatio     = 1.2
	RotationDivisor = 20
)

var (
	ErrInvalidTransition = errors.New("invalid gesture transition")
	ErrValidation        = errors.New("validation error")
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StateDeciding
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateDeciding:
		return "deciding"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Outcome describes where a drag release leaves the card: either a pending
// decision with a fly-off target, or a spring return to origin.
type Outcome struct {
	Decided bool
	Kind    model.DecisionKind
	TargetX float64
	TargetY float64
}

// Interpreter runs the lifecycle of one card gesture: Idle -> Dragging ->
// Deciding -> Resolved. It is driven by discrete input events on a single
// logical thread; it holds no shared animation cells and needs no
// rendering surface to be exercised.
type Interpreter struct {
	viewportWidth  float64
	viewportHeight float64

	state   State
	offsetX float64
	offsetY float64
	pending model.DecisionKind
}

func New(viewportWidth, viewportHeight float64) (*Interpreter, error) {
	if viewportWidth <= 0 || viewportHeight <= 0 {
		return nil, fmt.Errorf("viewport dimensions must be positive: %w", ErrValidation)
	}
	return &Interpreter{
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		state:          StateIdle,
	}, nil
}

func (i *Interpreter) State() State {
	return i.state
}

// Begin starts a drag for the current card.
func (i *Interpreter) Begin() error {
	if i.state != StateIdle {
		return fmt.Errorf("begin from %s: %w", i.state, ErrInvalidTransition)
	}
	i.state = StateDragging
	i.offsetX = 0
	i.offsetY = 0
	return nil
}

// Move records the running drag offset.
func (i *Interpreter) Move(offsetX, offsetY float64) error {
	if i.state != StateDragging {
		return fmt.Errorf("move from %s: %w", i.state, ErrInvalidTransition)
	}
	i.offsetX = offsetX
	i.offsetY = offsetY
	return nil
}

// Rotation is the card tilt in degrees for the current offset. Purely
// presentational; it never influences the decision.
func (i *Interpreter) Rotation() float64 {
	return i.offsetX / RotationDivisor
}

// End releases the drag. Past the threshold the card commits to a like
// (right) or pass (left) and enters Deciding; otherwise it springs back
// to origin and the interpreter returns to Idle with no decision.
func (i *Interpreter) End() (Outcome, error) {
	if i.state != StateDragging {
		return Outcome{}, fmt.Errorf("end from %s: %w", i.state, ErrInvalidTransition)
	}

	threshold := ThresholdRatio * i.viewportWidth
	offset := i.offsetX
	if math.Abs(offset) <= threshold {
		i.state = StateIdle
		i.offsetX = 0
		i.offsetY = 0
		return Outcome{Decided: false}, nil
	}

	kind := model.DecisionLike
	direction := 1.0
	if offset < 0 {
		kind = model.DecisionPass
		direction = -1.0
	}

	i.state = StateDeciding
	i.pending = kind
	return Outcome{
		Decided: true,
		Kind:    kind,
		TargetX: direction * FlyOffRatio * i.viewportWidth,
	}, nil
}

// Tap enters Deciding directly with a synthetic offset, for the explicit
// like/pass/super-like buttons. Super-likes fly upward.
func (i *Interpreter) Tap(kind model.DecisionKind) (Outcome, error) {
	if i.state != StateIdle {
		return Outcome{}, fmt.Errorf("tap from %s: %w", i.state, ErrInvalidTransition)
	}

	outcome := Outcome{Decided: true, Kind: kind}
	switch kind {
	case model.DecisionLike:
		outcome.TargetX = FlyOffRatio * i.viewportWidth
	case model.DecisionPass:
		outcome.TargetX = -FlyOffRatio * i.viewportWidth
	case model.DecisionSuperLike:
		outcome.TargetY = -i.viewportHeight
	default:
		return Outcome{}, fmt.Errorf("unsupported decision kind %q: %w", kind, ErrValidation)
	}

	i.state = StateDeciding
	i.pending = kind
	return outcome, nil
}

// CompleteAnimation resolves the pending decision when the fly-off
// animation finishes. It reports the decision exactly once per card.
func (i *Interpreter) CompleteAnimation() (model.DecisionKind, error) {
	if i.state != StateDeciding {
		return "", fmt.Errorf("complete from %s: %w", i.state, ErrInvalidTransition)
	}
	i.state = StateResolved
	return i.pending, nil
}

// NextCard re-arms the interpreter for the following candidate.
func (i *Interpreter) NextCard() error {
	if i.state != StateResolved {
		return fmt.Errorf("next card from %s: %w", i.state, ErrInvalidTransition)
	}
	i.reset()
	return nil
}

// Cancel force-resets the lifecycle, for when the deck underneath the
// gesture is replaced mid-interaction.
func (i *Interpreter) Cancel() {
	i.reset()
}

func (i *Interpreter) reset() {
	i.state = StateIdle
	i.offsetX = 0
	i.offsetY = 0
	i.pending = ""
}
