// Package orchestrate drives the two remote calls of a session. Each call
// is split in two: Begin validates and enters Loading on the caller's
// goroutine, Run performs the network round trip anywhere, and Apply folds
// the outcome back in on the caller's goroutine. A UI loop can therefore
// keep every state mutation on its own thread.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/steamrec/internal/client"
	"github.com/felixgeelhaar/steamrec/internal/guard"
	"github.com/felixgeelhaar/steamrec/internal/observe"
	"github.com/felixgeelhaar/steamrec/internal/request"
	"github.com/felixgeelhaar/steamrec/internal/runtime"
	"github.com/felixgeelhaar/steamrec/internal/status"
)

// ErrInFlight is returned when a call of the same kind is already loading.
var ErrInFlight = errors.New("a request of this kind is already in progress")

// ErrSuperseded is returned when a session reset abandoned the call.
var ErrSuperseded = errors.New("request was superseded by a newer library load")

const (
	msgLoadingCatalog  = "Fetching game library..."
	msgLoadingRecs     = "Getting recommendations..."
	msgEmptySelection  = "Select at least one game before asking for recommendations."
	msgCatalogLoaded   = "Loaded %d games."
	msgRecommendations = "Found %d recommendations."
)

type machine struct {
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// Orchestrator owns the session and the lifecycle of both call kinds.
type Orchestrator struct {
	mu       sync.Mutex
	machines map[Kind]*machine

	session *runtime.Session
	service client.Service
	status  *status.Reporter
	guard   *guard.Guard
	bus     *runtime.EventBus
	observe *observe.Observer
}

func New(sess *runtime.Session, svc client.Service, rep *status.Reporter, g *guard.Guard, bus *runtime.EventBus, o *observe.Observer) *Orchestrator {
	if rep == nil {
		rep = status.NewReporter(nil)
	}
	if g == nil {
		g = guard.New(guard.DefaultPolicy)
	}
	if bus == nil {
		bus = runtime.NewEventBus()
	}
	if o == nil {
		o = observe.Discard()
	}
	machines := make(map[Kind]*machine, len(kinds))
	for _, k := range kinds {
		machines[k] = &machine{state: Idle}
	}
	return &Orchestrator{
		machines: machines,
		session:  sess,
		service:  svc,
		status:   rep,
		guard:    g,
		bus:      bus,
		observe:  o,
	}
}

func (o *Orchestrator) Session() *runtime.Session { return o.session }
func (o *Orchestrator) Status() *status.Reporter  { return o.status }
func (o *Orchestrator) Guard() *guard.Guard       { return o.guard }

// State returns the lifecycle state of a call kind.
func (o *Orchestrator) State(k Kind) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machines[k].state
}

// Busy reports whether the trigger for a kind should be disabled.
func (o *Orchestrator) Busy(k Kind) bool {
	return o.State(k) == Loading
}

// Call is a validated request that has entered Loading.
type Call struct {
	Kind       Kind
	Generation uint64
	SteamID    string
	Request    *request.Recommendation

	ctx     context.Context
	service client.Service
	observe *observe.Observer
}

// Outcome is what a finished Run hands back to Apply.
type Outcome struct {
	Kind       Kind
	Generation uint64
	SteamID    string
	Library    *client.Library
	Results    []request.Result
	Err        error
	Elapsed    time.Duration
}

// Run performs the network call. It touches no session state, so it is safe
// to run on any goroutine. The call is also cancelled when the orchestrator
// abandons it.
func (c *Call) Run(ctx context.Context) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	ctx, span := c.observe.StartSpan(ctx, "orchestrate."+c.Kind.String())
	defer span.End()

	out := Outcome{Kind: c.Kind, Generation: c.Generation, SteamID: c.SteamID}
	start := time.Now()
	switch c.Kind {
	case LoadCatalog:
		out.Library, out.Err = c.service.FetchLibrary(ctx, c.SteamID)
	case GetRecommendations:
		out.Results, out.Err = c.service.Recommend(ctx, c.Request)
	default:
		out.Err = fmt.Errorf("unknown call kind %s", c.Kind)
	}
	out.Elapsed = time.Since(start)
	if out.Err != nil {
		span.RecordError(out.Err)
	}
	return out
}

// enter moves a kind into Loading under a fresh generation. The returned
// context is cancelled if the call is later abandoned.
func (o *Orchestrator) enter(k Kind) (uint64, context.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.machines[k]
	from := settle(m.state)
	if err := Transition(from, Loading); err != nil {
		return 0, nil, ErrInFlight
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.state = Loading
	m.gen++
	m.cancel = cancel
	return m.gen, ctx, nil
}

// abandon cancels any in-flight call of kind k and makes its eventual
// outcome stale.
func (o *Orchestrator) abandon(k Kind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.machines[k]
	wasLoading := m.state == Loading
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.state = Idle
	return wasLoading
}

func (o *Orchestrator) inFlight(k Kind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machines[k].state == Loading
}

func (o *Orchestrator) reject(k Kind, reason string) {
	o.observe.Log().Warn().Str("kind", k.String()).Str("reason", reason).Msg("call rejected")
	o.bus.PublishWithData(runtime.EventCallRejected, k.String(), map[string]interface{}{"reason": reason})
}

// BeginLoadCatalog validates steamID, resets the session and enters Loading.
// A malformed id sets an error status and changes nothing else.
func (o *Orchestrator) BeginLoadCatalog(steamID string) (*Call, error) {
	if v := o.guard.CheckSteamID(steamID); v != nil {
		o.status.Error(v.Message)
		o.reject(LoadCatalog, v.Rule)
		return nil, v
	}
	if o.inFlight(LoadCatalog) {
		o.reject(LoadCatalog, "in_flight")
		return nil, ErrInFlight
	}

	// A new library always discards the previous selection and results,
	// including recommendations still on the wire.
	if o.abandon(GetRecommendations) {
		o.observe.Log().Info().Msg("abandoned in-flight recommendations")
	}
	o.session.Reset(steamID)
	o.status.Reset()
	o.bus.PublishWithData(runtime.EventSessionReset, LoadCatalog.String(), map[string]interface{}{"steam_id": steamID})

	gen, ctx, err := o.enter(LoadCatalog)
	if err != nil {
		o.reject(LoadCatalog, "in_flight")
		return nil, err
	}
	o.status.Loading(msgLoadingCatalog)
	o.started(LoadCatalog, gen, map[string]interface{}{"steam_id": steamID})

	return &Call{
		Kind:       LoadCatalog,
		Generation: gen,
		SteamID:    steamID,
		ctx:        ctx,
		service:    o.service,
		observe:    o.observe,
	}, nil
}

// BeginRecommend snapshots the selection into a request and enters Loading.
// The selection is never reset here, whatever the outcome.
func (o *Orchestrator) BeginRecommend(nicheFactor float64) (*Call, error) {
	sel := o.session.Selection()
	req, err := request.Build(sel.Entries(), nicheFactor)
	if err != nil {
		o.status.Error(msgEmptySelection)
		o.reject(GetRecommendations, "empty_selection")
		return nil, err
	}
	if v := o.guard.CheckSelectionCount(len(req.InputGames)); v != nil {
		o.status.Error(v.Message)
		o.reject(GetRecommendations, v.Rule)
		return nil, v
	}
	if v := o.guard.CheckNiche(nicheFactor); v != nil {
		o.status.Error(v.Message)
		o.reject(GetRecommendations, v.Rule)
		return nil, v
	}

	gen, ctx, err := o.enter(GetRecommendations)
	if err != nil {
		o.reject(GetRecommendations, "in_flight")
		return nil, err
	}
	o.status.Loading(msgLoadingRecs)
	o.started(GetRecommendations, gen, map[string]interface{}{
		"steam_id": o.session.SteamID(),
		"games":    len(req.InputGames),
	})

	return &Call{
		Kind:       GetRecommendations,
		Generation: gen,
		SteamID:    o.session.SteamID(),
		Request:    req,
		ctx:        ctx,
		service:    o.service,
		observe:    o.observe,
	}, nil
}

func (o *Orchestrator) started(k Kind, gen uint64, data map[string]interface{}) {
	data["generation"] = gen
	o.observe.Log().Info().Str("kind", k.String()).Int("generation", int(gen)).Msg("call started")
	o.bus.PublishWithData(runtime.EventCallStarted, k.String(), data)
}

// finish moves a loading kind to its terminal state if out is still the
// current call. It reports false for stale outcomes.
func (o *Orchestrator) finish(out Outcome) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	m, ok := o.machines[out.Kind]
	if !ok || m.state != Loading || m.gen != out.Generation {
		return false
	}
	to := Succeeded
	if out.Err != nil {
		to = Failed
	}
	if err := Transition(m.state, to); err != nil {
		return false
	}
	m.state = to
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	return true
}

// Apply folds a finished call into the session. Outcomes from abandoned or
// superseded calls are dropped and Apply reports false.
func (o *Orchestrator) Apply(out Outcome) bool {
	log := o.observe.Log().With().Int("generation", int(out.Generation)).Logger()
	kind := out.Kind.String()

	if !o.finish(out) {
		log.Info().Str("kind", kind).Msg("discarding stale outcome")
		o.bus.PublishWithData(runtime.EventCallStale, kind, map[string]interface{}{"generation": out.Generation})
		return false
	}

	data := map[string]interface{}{
		"generation": out.Generation,
		"steam_id":   out.SteamID,
		"elapsed_ms": out.Elapsed.Milliseconds(),
	}

	if out.Err != nil {
		msg := client.UserMessage(out.Err)
		o.status.Error(msg)
		log.Warn().Str("kind", kind).Err(out.Err).Msg("call failed")
		data["message"] = msg
		o.bus.PublishWithData(runtime.EventCallFailed, kind, data)
		return true
	}

	var msg string
	switch out.Kind {
	case LoadCatalog:
		items := out.Library.Items()
		o.session.LoadCatalog(items)
		msg = fmt.Sprintf(msgCatalogLoaded, len(items))
		data["items"] = len(items)
	case GetRecommendations:
		o.session.SetResults(out.Results)
		msg = fmt.Sprintf(msgRecommendations, len(out.Results))
		data["items"] = len(out.Results)
	}
	o.status.Success(msg)
	log.Info().Str("kind", kind).Int("items", data["items"].(int)).Msg("call succeeded")
	data["message"] = msg
	o.bus.PublishWithData(runtime.EventCallSucceeded, kind, data)
	return true
}

// LoadCatalog runs a whole library load on the calling goroutine.
func (o *Orchestrator) LoadCatalog(ctx context.Context, steamID string) error {
	call, err := o.BeginLoadCatalog(steamID)
	if err != nil {
		return err
	}
	out := call.Run(ctx)
	o.Apply(out)
	return out.Err
}

// Recommend runs a whole recommendation request on the calling goroutine.
func (o *Orchestrator) Recommend(ctx context.Context, nicheFactor float64) ([]request.Result, error) {
	call, err := o.BeginRecommend(nicheFactor)
	if err != nil {
		return nil, err
	}
	out := call.Run(ctx)
	if !o.Apply(out) {
		return nil, ErrSuperseded
	}
	if out.Err != nil {
		return nil, out.Err
	}
	return o.session.Results(), nil
}
