package selection

import (
	"errors"
	"fmt"
	"strings"
)

// Mode says whether recommendations should resemble a pick or avoid it.
type Mode int

const (
	Like Mode = iota
	Opposite
)

// Strength bounds, in whole percent.
const (
	MinPercent     = 0
	MaxPercent     = 200
	DefaultPercent = 100
)

var ErrInvalidPercent = errors.New("strength percent out of range")

func (m Mode) String() string {
	if m == Opposite {
		return "opposite"
	}
	return "like"
}

// ParseMode accepts "like" or "opposite" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like", "":
		return Like, nil
	case "opposite":
		return Opposite, nil
	}
	return Like, fmt.Errorf("unknown mode %q (use like or opposite)", s)
}

// Tuning is the strength and mode attached to one selection.
type Tuning struct {
	Strength float64
	Mode     Mode
}

func DefaultTuning() Tuning {
	return Tuning{Strength: 1.0, Mode: Like}
}

// FromPercent converts a whole percentage in [0,200] into a strength.
func FromPercent(p int) (float64, error) {
	if p < MinPercent || p > MaxPercent {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPercent, p)
	}
	return float64(p) / 100, nil
}

// Percent returns the strength as a whole percentage.
func (t Tuning) Percent() int {
	return int(t.Strength*100 + 0.5)
}
