package gesture

import (
	"errors"
	"math"
	"testing"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

const (
	viewportWidth  = 400.0
	viewportHeight = 800.0
)

func newInterpreter(t *testing.T) *Interpreter {
	t.Helper()

	i, err := New(viewportWidth, viewportHeight)
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	return i
}

func drag(t *testing.T, i *Interpreter, offsetX float64) Outcome {
	t.Helper()

	if err := i.Begin(); err != nil {
		t.Fatalf("begin drag: %v", err)
	}
	if err := i.Move(offsetX, 0); err != nil {
		t.Fatalf("move drag: %v", err)
	}
	outcome, err := i.End()
	if err != nil {
		t.Fatalf("end drag: %v", err)
	}
	return outcome
}

func TestDragPastThresholdRightIsLike(t *testing.T) {
	i := newInterpreter(t)

	outcome := drag(t, i, 0.4*viewportWidth)
	if !outcome.Decided || outcome.Kind != model.DecisionLike {
		t.Fatalf("expected like decision, got %+v", outcome)
	}
	if outcome.TargetX != FlyOffRatio*viewportWidth {
		t.Fatalf("unexpected fly-off target: got %f want %f", outcome.TargetX, FlyOffRatio*viewportWidth)
	}
	if i.State() != StateDeciding {
		t.Fatalf("expected Deciding state, got %s", i.State())
	}
}

func TestDragPastThresholdLeftIsPass(t *testing.T) {
	i := newInterpreter(t)

	outcome := drag(t, i, -0.4*viewportWidth)
	if !outcome.Decided || outcome.Kind != model.DecisionPass {
		t.Fatalf("expected pass decision, got %+v", outcome)
	}
	if outcome.TargetX != -FlyOffRatio*viewportWidth {
		t.Fatalf("unexpected fly-off target: got %f", outcome.TargetX)
	}
}

func TestShortDragSpringsBack(t *testing.T) {
	i := newInterpreter(t)

	outcome := drag(t, i, 0.1*viewportWidth)
	if outcome.Decided {
		t.Fatalf("expected no decision for sub-threshold drag, got %+v", outcome)
	}
	if i.State() != StateIdle {
		t.Fatalf("expected return to Idle, got %s", i.State())
	}

	// The interpreter is immediately re-armed for another drag.
	if err := i.Begin(); err != nil {
		t.Fatalf("begin after spring back: %v", err)
	}
}

func TestDragExactlyAtThresholdSpringsBack(t *testing.T) {
	i := newInterpreter(t)

	outcome := drag(t, i, ThresholdRatio*viewportWidth)
	if outcome.Decided {
		t.Fatalf("threshold is exclusive: offset == threshold must not decide")
	}
}

func TestRotationTracksOffset(t *testing.T) {
	i := newInterpreter(t)

	if err := i.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := i.Move(120, 30); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got, want := i.Rotation(), 120.0/RotationDivisor; math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected rotation: got %f want %f", got, want)
	}
}

func TestCompleteAnimationResolvesOnce(t *testing.T) {
	i := newInterpreter(t)

	drag(t, i, 0.5*viewportWidth)

	kind, err := i.CompleteAnimation()
	if err != nil {
		t.Fatalf("complete animation: %v", err)
	}
	if kind != model.DecisionLike {
		t.Fatalf("unexpected resolved kind: %s", kind)
	}
	if i.State() != StateResolved {
		t.Fatalf("expected Resolved state, got %s", i.State())
	}

	if _, err := i.CompleteAnimation(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second completion must fail, got %v", err)
	}

	if err := i.NextCard(); err != nil {
		t.Fatalf("next card: %v", err)
	}
	if i.State() != StateIdle {
		t.Fatalf("expected Idle after next card, got %s", i.State())
	}
}

func TestTapBypassesDragging(t *testing.T) {
	for _, tc := range []struct {
		kind    model.DecisionKind
		targetX float64
		targetY float64
	}{
		{model.DecisionLike, FlyOffRatio * viewportWidth, 0},
		{model.DecisionPass, -FlyOffRatio * viewportWidth, 0},
		{model.DecisionSuperLike, 0, -viewportHeight},
	} {
		i := newInterpreter(t)

		outcome, err := i.Tap(tc.kind)
		if err != nil {
			t.Fatalf("tap %s: %v", tc.kind, err)
		}
		if !outcome.Decided || outcome.Kind != tc.kind {
			t.Fatalf("unexpected tap outcome for %s: %+v", tc.kind, outcome)
		}
		if outcome.TargetX != tc.targetX || outcome.TargetY != tc.targetY {
			t.Fatalf("unexpected tap target for %s: %+v", tc.kind, outcome)
		}
		if i.State() != StateDeciding {
			t.Fatalf("expected Deciding after tap, got %s", i.State())
		}
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	i := newInterpreter(t)

	if _, err := i.End(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("end from idle must fail, got %v", err)
	}
	if err := i.Move(10, 0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("move from idle must fail, got %v", err)
	}

	if err := i.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := i.Begin(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double begin must fail, got %v", err)
	}
	if _, err := i.Tap(model.DecisionLike); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("tap during drag must fail, got %v", err)
	}

	i.Cancel()
	if i.State() != StateIdle {
		t.Fatalf("cancel must force Idle, got %s", i.State())
	}
}

func TestNewRejectsBadViewport(t *testing.T) {
	if _, err := New(0, 100); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero width, got %v", err)
	}
	if _, err := New(100, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative height, got %v", err)
	}
}
