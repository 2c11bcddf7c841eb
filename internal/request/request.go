// Package request turns a selection into the wire format the scoring
// service accepts.
package request

import (
	"errors"
	"iter"

	"github.com/felixgeelhaar/steamrec/internal/selection"
)

// ErrEmptySelection is returned instead of a request with no games in it.
var ErrEmptySelection = errors.New("select at least one game")

// Recommendation is the body of POST /api/recommend.
type Recommendation struct {
	InputGames  []InputGame `json:"input_games"`
	NicheFactor float64     `json:"niche_factor"`
}

type InputGame struct {
	ID         int64   `json:"id"`
	Multiplier float64 `json:"multiplier"`
	Type       string  `json:"type"`
}

// Result is one recommended game as returned by the service.
type Result struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
}

// Build snapshots entries into a request. The niche factor is passed
// through as given; range checks belong to whoever collects it.
func Build(entries iter.Seq[selection.Entry], nicheFactor float64) (*Recommendation, error) {
	var games []InputGame
	for e := range entries {
		games = append(games, InputGame{
			ID:         e.ItemID,
			Multiplier: e.Tuning.Strength,
			Type:       e.Tuning.Mode.String(),
		})
	}
	if len(games) == 0 {
		return nil, ErrEmptySelection
	}
	return &Recommendation{InputGames: games, NicheFactor: nicheFactor}, nil
}
