package orchestrate

import (
	"errors"
	"fmt"
	"slices"
)

// Kind names one of the two remote operations. Each kind runs its own
// state machine; the two never block each other.
type Kind int

const (
	LoadCatalog Kind = iota
	GetRecommendations
)

var kinds = []Kind{LoadCatalog, GetRecommendations}

func (k Kind) String() string {
	switch k {
	case LoadCatalog:
		return "load_catalog"
	case GetRecommendations:
		return "get_recommendations"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is the lifecycle position of one call kind.
type State int

const (
	Idle State = iota
	Loading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrInvalidTransition = errors.New("invalid state transition")

// transitions lists every legal move. Loading -> Idle is taken when an
// in-flight call is abandoned by a session reset.
var transitions = map[State][]State{
	Idle:      {Loading},
	Loading:   {Succeeded, Failed, Idle},
	Succeeded: {Idle},
	Failed:    {Idle},
}

// Transition reports whether moving from one state to another is allowed.
func Transition(from, to State) error {
	if slices.Contains(transitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// settle returns a finished machine to Idle; Idle and Loading are left alone.
func settle(s State) State {
	if s == Succeeded || s == Failed {
		return Idle
	}
	return s
}
