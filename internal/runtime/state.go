package runtime

import (
	"slices"
	"sync"

	"github.com/felixgeelhaar/steamrec/internal/catalog"
	"github.com/felixgeelhaar/steamrec/internal/request"
	"github.com/felixgeelhaar/steamrec/internal/selection"
	"golang.org/x/text/language"
)

// Session is the single active browsing session: the loaded library, the
// user's selection and the last recommendations. It is reset only when a
// new library load starts.
//
// Catalog and Selection are handed out directly and must only be mutated
// from the goroutine that drives the UI; the mutex guards the bookkeeping
// fields the orchestrator also touches from that same goroutine.
type Session struct {
	mu        sync.RWMutex
	steamID   string
	catalog   *catalog.Catalog
	selection *selection.Store
	results   []request.Result
	resets    int
}

// NewSession creates an empty session whose catalog collates for tag.
func NewSession(tag language.Tag) *Session {
	return &Session{
		catalog:   catalog.New(tag),
		selection: selection.NewStore(),
	}
}

// Reset clears catalog, selection and results and records the account
// about to be loaded.
func (s *Session) Reset(steamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog.Reset()
	s.selection.Clear()
	s.results = nil
	s.steamID = steamID
	s.resets++
}

func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Session) Selection() *selection.Store {
	return s.selection
}

// SteamID returns the account whose library is (being) loaded.
func (s *Session) SteamID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steamID
}

// LoadCatalog replaces the library.
func (s *Session) LoadCatalog(items []catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog.Load(items)
}

// SetResults replaces the displayed recommendations.
func (s *Session) SetResults(results []request.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = slices.Clone(results)
}

// Results returns a copy of the current recommendations.
func (s *Session) Results() []request.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

// Resets counts how many times the session was reset.
func (s *Session) Resets() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resets
}
