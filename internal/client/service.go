// Package client talks to the recommendation service: one endpoint returns
// a user's game library, the other scores a tuned selection.
package client

import (
	"context"

	"github.com/felixgeelhaar/steamrec/internal/catalog"
	"github.com/felixgeelhaar/steamrec/internal/request"
)

// Game is one entry of the library payload. Extra fields are ignored.
type Game struct {
	AppID            int64  `json:"appid"`
	Name             string `json:"name"`
	ImgIconURL       string `json:"img_icon_url,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
}

// Library is the body of a successful GET /api/get-games.
type Library struct {
	Games     []Game `json:"games"`
	GameCount int    `json:"game_count"`
}

// Items converts the payload into catalog items.
func (l *Library) Items() []catalog.Item {
	items := make([]catalog.Item, 0, len(l.Games))
	for _, g := range l.Games {
		items = append(items, catalog.Item{
			ID:               g.AppID,
			Name:             g.Name,
			ShortDescription: g.ShortDescription,
			IconRef:          g.ImgIconURL,
		})
	}
	return items
}

// Service defines the two remote operations.
type Service interface {
	// FetchLibrary returns the games owned by steamID.
	FetchLibrary(ctx context.Context, steamID string) (*Library, error)

	// Recommend submits a tuned selection and returns the scored games.
	Recommend(ctx context.Context, req *request.Recommendation) ([]request.Result, error)

	// Name identifies the backend (e.g. "http", "stub").
	Name() string
}
