package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/engine"
	"github.com/vk/nodeflowgo/internal/graph"
	"github.com/vk/nodeflowgo/internal/value"
)

// DefaultTickInterval is the wall-clock period of Run when none is set.
const DefaultTickInterval = 16 * time.Millisecond

// Update is what subscribers receive after a pass changed something.
type Update struct {
	Generation uint64
	// Full is set after a load; Outputs then holds every primary output
	// instead of only the changed ones.
	Full    bool
	Outputs []engine.NodeOutput
}

// Snapshot is a consistent copy of the engine's outputs.
type Snapshot struct {
	Generation uint64
	Order      []string
	Outputs    map[string]map[string]value.Value
}

// Option configures a Runner.
type Option func(*Runner)

// WithTickInterval sets the period of Run. Non-positive values keep the
// default.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithClock replaces time.Now for measuring elapsed time between ticks.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner owns an engine and serializes access to it.
type Runner struct {
	mu     sync.Mutex
	engine *engine.Engine

	subsMu  sync.Mutex
	subs    map[int]func(Update)
	nextSub int

	interval time.Duration
	now      func() time.Time
}

// New wraps e. The runner takes ownership: e must not be used directly
// afterwards.
func New(e *engine.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:   e,
		subs:     make(map[int]func(Update)),
		interval: DefaultTickInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers fn for every future update. The returned function
// removes the subscription.
func (r *Runner) Subscribe(fn func(Update)) (cancel func()) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Runner) publish(u Update) {
	r.subsMu.Lock()
	fns := make([]func(Update), 0, len(r.subs))
	for id := 0; id < r.nextSub; id++ {
		if fn, ok := r.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	r.subsMu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

// Load builds doc and hands it to LoadStore.
func (r *Runner) Load(ctx context.Context, doc *config.Document) error {
	store, err := graph.Build(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	return r.LoadStore(ctx, store)
}

// LoadStore replaces the running graph with store and runs its cold pass.
// Subscribers receive a full update. If the cold pass fails, the previous
// graph keeps running.
func (r *Runner) LoadStore(ctx context.Context, store *graph.Store) error {
	r.mu.Lock()
	if err := r.engine.Replace(ctx, store); err != nil {
		r.mu.Unlock()
		return err
	}
	u := Update{Generation: r.engine.Generation(), Full: true, Outputs: r.engine.PrimaryOutputs()}
	r.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Graph running.", "generation", u.Generation, "outputs", len(u.Outputs))
	r.publish(u)
	return nil
}

// update runs fn followed by a pass and publishes what the pass changed.
func (r *Runner) update(fn func(e *engine.Engine) error) error {
	r.mu.Lock()
	since := r.engine.BeginSnapshot()
	if fn != nil {
		if err := fn(r.engine); err != nil {
			r.mu.Unlock()
			return err
		}
	}
	if err := r.engine.Evaluate(); err != nil {
		r.mu.Unlock()
		return err
	}
	u := Update{Generation: r.engine.Generation(), Outputs: r.engine.OutputsChangedSince(since)}
	r.mu.Unlock()

	if len(u.Outputs) > 0 {
		r.publish(u)
	}
	return nil
}

// Evaluate runs one pass.
func (r *Runner) Evaluate() error {
	return r.update(nil)
}

// Step advances timers by dtMS and runs one pass.
func (r *Runner) Step(dtMS float64) error {
	return r.update(func(e *engine.Engine) error { return e.Tick(dtMS) })
}

// SetValue sets a source node's value and runs one pass.
func (r *Runner) SetValue(id string, v value.Value) error {
	return r.update(func(e *engine.Engine) error { return e.SetNodeValue(id, v) })
}

// SetInterval records a node's polling interval. No pass is run.
func (r *Runner) SetInterval(id string, minMS, maxMS int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.SetNodeInterval(id, minMS, maxMS)
}

// Snapshot copies the current outputs.
func (r *Runner) Snapshot() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.engine.Loaded() {
		return Snapshot{}, engine.ErrNotLoaded
	}
	return Snapshot{
		Generation: r.engine.Generation(),
		Order:      r.engine.Order(),
		Outputs:    r.engine.Outputs(),
	}, nil
}

// Do runs fn with exclusive access to the engine. fn must not retain e.
func (r *Runner) Do(fn func(e *engine.Engine) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.engine)
}

// Run steps the engine with the wall-clock time elapsed since the previous
// step, once per tick interval, until ctx is done. Ticks without a loaded
// graph are skipped. An aborted pass is logged and the loop goes on.
func (r *Runner) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("component", "host")
	logger.Debug("Tick loop starting.", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := r.now()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Tick loop stopped.")
			return nil
		case <-ticker.C:
			now := r.now()
			dt := float64(now.Sub(last)) / float64(time.Millisecond)
			last = now
			if dt < 0 {
				dt = 0
			}
			err := r.Step(dt)
			switch {
			case err == nil:
			case errors.Is(err, engine.ErrNotLoaded):
				logger.Debug("Tick skipped, no graph loaded.")
			default:
				logger.Error("Tick failed.", "dt_ms", dt, "error", err)
			}
		}
	}
}
