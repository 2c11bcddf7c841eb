package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/steamrec/internal/catalog"
	"github.com/felixgeelhaar/steamrec/internal/client"
	"github.com/felixgeelhaar/steamrec/internal/config"
	"github.com/felixgeelhaar/steamrec/internal/guard"
	"github.com/felixgeelhaar/steamrec/internal/observe"
	"github.com/felixgeelhaar/steamrec/internal/orchestrate"
	"github.com/felixgeelhaar/steamrec/internal/request"
	"github.com/felixgeelhaar/steamrec/internal/runtime"
	"github.com/felixgeelhaar/steamrec/internal/selection"
	"github.com/felixgeelhaar/steamrec/internal/status"
	"github.com/felixgeelhaar/steamrec/internal/store"
	"github.com/felixgeelhaar/steamrec/internal/ui"
)

// Runner wires one session for a command: orchestrator, call log and logs.
type Runner struct {
	Observer *observe.Observer
	Store    store.Storage
	Service  client.Service
	Config   *config.Config
	Orch     *orchestrate.Orchestrator
	UI       ui.UI
}

func NewRunner(obs *observe.Observer, s store.Storage, svc client.Service, cfg *config.Config, u ui.UI) *Runner {
	if u == nil {
		u = ui.SilentUI{}
	}
	r := &Runner{
		Observer: obs,
		Store:    s,
		Service:  svc,
		Config:   cfg,
		UI:       u,
	}

	bus := runtime.NewEventBus()
	bus.SubscribeAll(store.Recorder(s, svc.Name(), func(err error) {
		obs.Log().Warn().Err(err).Msg("failed to record call")
	}))
	bus.SubscribeAll(func(e runtime.Event) {
		r.UI.Log(fmt.Sprintf("%s %s %s", e.Timestamp.Format("15:04:05"), e.Kind, e.Type))
	})

	r.Orch = orchestrate.New(
		runtime.NewSession(cfg.Tag()),
		svc,
		status.NewReporter(u),
		guard.New(guard.DefaultPolicy),
		bus,
		obs,
	)
	return r
}

// SetUI redirects status and event lines to u.
func (r *Runner) SetUI(u ui.UI) {
	if u == nil {
		u = ui.SilentUI{}
	}
	r.UI = u
	r.Orch.Status().SetSink(u)
}

// Library loads steamID's games and narrows them by substring filter or
// glob pattern. At most one of the two may be set.
func (r *Runner) Library(ctx context.Context, steamID, filter, glob string) ([]catalog.Item, error) {
	if filter != "" && glob != "" {
		return nil, fmt.Errorf("--filter and --glob cannot be combined")
	}
	if err := r.Orch.LoadCatalog(ctx, steamID); err != nil {
		return nil, r.userError(err)
	}

	cat := r.Orch.Session().Catalog()
	if glob != "" {
		seq, err := cat.Match(glob)
		if err != nil {
			return nil, err
		}
		return slices.Collect(seq), nil
	}
	return slices.Collect(cat.Filter(filter)), nil
}

// Pick is one --pick argument: a game id with an optional tuning.
type Pick struct {
	ID      int64
	Percent int
	Mode    selection.Mode
}

// ParsePick reads id[:percent[:like|opposite]].
func ParsePick(s string) (Pick, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return Pick{}, fmt.Errorf("invalid pick %q: want id[:percent[:like|opposite]]", s)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Pick{}, fmt.Errorf("invalid pick %q: bad game id", s)
	}
	p := Pick{ID: id, Percent: selection.DefaultPercent, Mode: selection.Like}
	if len(parts) > 1 && parts[1] != "" {
		p.Percent, err = strconv.Atoi(strings.TrimSuffix(parts[1], "%"))
		if err != nil {
			return Pick{}, fmt.Errorf("invalid pick %q: bad strength", s)
		}
		if _, err := selection.FromPercent(p.Percent); err != nil {
			return Pick{}, fmt.Errorf("invalid pick %q: %w", s, err)
		}
	}
	if len(parts) > 2 {
		p.Mode, err = selection.ParseMode(parts[2])
		if err != nil {
			return Pick{}, fmt.Errorf("invalid pick %q: %w", s, err)
		}
	}
	return p, nil
}

// Recommend loads the library, selects picks and asks for recommendations.
func (r *Runner) Recommend(ctx context.Context, steamID string, picks []Pick, niche float64) ([]request.Result, error) {
	if v := r.Orch.Guard().CheckNiche(niche); v != nil {
		return nil, v
	}
	if err := r.Orch.LoadCatalog(ctx, steamID); err != nil {
		return nil, r.userError(err)
	}

	cat := r.Orch.Session().Catalog()
	sel := r.Orch.Session().Selection()
	for _, p := range picks {
		item, ok := cat.Lookup(p.ID)
		if !ok {
			return nil, fmt.Errorf("game %d is not in the library of %s", p.ID, steamID)
		}
		if !sel.Contains(p.ID) {
			sel.Toggle(item.ID, item.Name)
		}
		sel.SetTuning(item.ID, p.Percent, p.Mode)
	}

	results, err := r.Orch.Recommend(ctx, niche)
	if err != nil {
		return nil, r.userError(err)
	}
	return results, nil
}

// userError replaces err with the status message the orchestrator showed,
// so the CLI prints what the TUI would.
func (r *Runner) userError(err error) error {
	st := r.Orch.Status().Current()
	if st.Severity == status.Error && st.Message != "" {
		return errors.New(st.Message)
	}
	return err
}
