package client

import (
	"context"
	"slices"
	"time"

	"github.com/felixgeelhaar/steamrec/internal/request"
)

// StubService answers from canned data. It backs --demo and tests.
type StubService struct {
	Library *Library
	Pool    []request.Result
	Delay   time.Duration

	// LibraryErr and RecommendErr, when set, are returned instead of data.
	LibraryErr   error
	RecommendErr error

	// Requests records every recommendation request received.
	Requests []*request.Recommendation
}

func NewStubService() *StubService {
	return &StubService{
		Library: &Library{
			Games: []Game{
				{AppID: 620, Name: "Portal 2"},
				{AppID: 220, Name: "Half-Life 2"},
				{AppID: 413150, Name: "Stardew Valley"},
				{AppID: 105600, Name: "Terraria"},
				{AppID: 1145360, Name: "Hades"},
				{AppID: 367520, Name: "Hollow Knight"},
				{AppID: 646570, Name: "Slay the Spire"},
				{AppID: 292030, Name: "The Witcher 3: Wild Hunt"},
				{AppID: 252950, Name: "Rocket League"},
				{AppID: 504230, Name: "Celeste"},
			},
			GameCount: 10,
		},
		Pool: []request.Result{
			{ID: 400, Name: "Portal", ShortDescription: "Puzzles with a portal gun."},
			{ID: 588650, Name: "Dead Cells", ShortDescription: "Roguevania action platformer."},
			{ID: 1794680, Name: "Vampire Survivors", ShortDescription: "Gothic horde survival."},
			{ID: 268910, Name: "Cuphead", ShortDescription: "Run and gun with 1930s cartoon art."},
			{ID: 391540, Name: "Undertale", ShortDescription: "Nobody has to die."},
			{ID: 753640, Name: "Outer Wilds", ShortDescription: "A solar system stuck in a time loop."},
			{ID: 1091500, Name: "Cyberpunk 2077", ShortDescription: "Open world action adventure."},
			{ID: 322330, Name: "Don't Starve Together", ShortDescription: "Survival with friends."},
			{ID: 975370, Name: "Dwarf Fortress", ShortDescription: "Deep colony simulation."},
			{ID: 1086940, Name: "Baldur's Gate 3", ShortDescription: "Party based RPG."},
			{ID: 230410, Name: "Warframe", ShortDescription: "Free to play co-op action."},
			{ID: 1623730, Name: "Palworld", ShortDescription: "Creature collecting survival."},
		},
	}
}

func (s *StubService) Name() string {
	return "stub"
}

func (s *StubService) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.Delay):
		return nil
	}
}

func (s *StubService) FetchLibrary(ctx context.Context, steamID string) (*Library, error) {
	if err := s.wait(ctx); err != nil {
		return nil, &TransportError{Err: err}
	}
	if s.LibraryErr != nil {
		return nil, s.LibraryErr
	}
	lib := *s.Library
	lib.Games = slices.Clone(s.Library.Games)
	return &lib, nil
}

// Recommend returns up to ten pool games that were not part of the input.
// When most of the weight is on opposite picks the pool is walked backwards.
func (s *StubService) Recommend(ctx context.Context, req *request.Recommendation) ([]request.Result, error) {
	if err := s.wait(ctx); err != nil {
		return nil, &TransportError{Err: err}
	}
	s.Requests = append(s.Requests, req)
	if s.RecommendErr != nil {
		return nil, s.RecommendErr
	}

	var weight float64
	inputs := make(map[int64]bool, len(req.InputGames))
	for _, g := range req.InputGames {
		inputs[g.ID] = true
		if g.Type == "opposite" {
			weight -= g.Multiplier
		} else {
			weight += g.Multiplier
		}
	}

	pool := slices.Clone(s.Pool)
	if weight < 0 {
		slices.Reverse(pool)
	}

	var out []request.Result
	for _, r := range pool {
		if inputs[r.ID] {
			continue
		}
		out = append(out, r)
		if len(out) == 10 {
			break
		}
	}
	return out, nil
}
