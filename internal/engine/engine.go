package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/graph"
	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/scheduler"
	"github.com/vk/nodeflowgo/internal/value"
)

var (
	// ErrNotLoaded is returned by every operation that needs a graph
	// before a Load succeeded.
	ErrNotLoaded = errors.New("no graph loaded")
	// ErrUnknownNode is returned when a control operation names a node the
	// loaded graph does not have.
	ErrUnknownNode = errors.New("unknown node")
	// ErrInvalidArgument is returned for out-of-range control arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// PropagationMode selects which output changes wake downstream nodes.
type PropagationMode uint8

const (
	// PropagateAllOutputs tracks every output port independently and
	// queues the consumers of each input whose value changed.
	PropagateAllOutputs PropagationMode = iota
	// PropagatePrimaryOutput is the single-output heuristic: only a change
	// of a node's first output queues its dependents. A change on any other
	// output is still copied downstream but does not wake anyone.
	PropagatePrimaryOutput
)

func (m PropagationMode) String() string {
	if m == PropagatePrimaryOutput {
		return "primary"
	}
	return "all"
}

// ParsePropagationMode accepts "all" or "primary".
func ParsePropagationMode(s string) (PropagationMode, error) {
	switch s {
	case "all", "":
		return PropagateAllOutputs, nil
	case "primary":
		return PropagatePrimaryOutput, nil
	}
	return 0, fmt.Errorf("%w: propagation mode %q", ErrInvalidArgument, s)
}

// Option configures an Engine.
type Option func(*Engine)

// WithPropagation sets the propagation mode.
func WithPropagation(m PropagationMode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithObserver registers an observer for load, pass and tick events.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine evaluates one loaded graph at a time.
type Engine struct {
	mode     PropagationMode
	observer Observer
	logger   *slog.Logger

	store  *graph.Store
	values []value.Value
	state  *node.State
	queue  *scheduler.Queue
	gens   scheduler.Generations
	timers []int
	cold   bool

	// scratch holds a node's output values from before it ran.
	scratch []value.Value
}

// New creates an engine with no graph loaded.
func New(opts ...Option) *Engine {
	e := &Engine{observer: NopObserver{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the engine's propagation mode.
func (e *Engine) Mode() PropagationMode { return e.mode }

// Load discards the current graph and all runtime state, then builds doc.
// On failure the engine is left empty. The generation counter is not
// reset.
func (e *Engine) Load(ctx context.Context, doc *config.Document) error {
	e.logger = ctxlog.FromContext(ctx)
	e.unload()

	store, err := graph.Build(ctx, doc)
	if err != nil {
		e.logger.Warn("Graph load failed.", "error", err)
		e.observer.LoadFailed(err)
		return fmt.Errorf("failed to load graph: %w", err)
	}
	e.LoadStore(ctx, store)
	return nil
}

// LoadStore is Load for a graph that was already built.
func (e *Engine) LoadStore(ctx context.Context, store *graph.Store) {
	e.logger = ctxlog.FromContext(ctx)
	e.install(store)
	e.announce()
}

// Replace loads store and runs its cold pass as one step. If the cold pass
// fails, the previous graph is restored together with its values, runtime
// state and ready queue, as if Replace had not been called.
func (e *Engine) Replace(ctx context.Context, store *graph.Store) error {
	e.logger = ctxlog.FromContext(ctx)
	prev := e.save()
	e.install(store)
	if err := e.Evaluate(); err != nil {
		e.restore(prev)
		e.logger.Warn("Graph replacement rolled back.", "loaded", e.Loaded(), "error", err)
		if !e.Loaded() {
			e.observer.LoadFailed(err)
		}
		return fmt.Errorf("failed to start graph: %w", err)
	}
	e.announce()
	return nil
}

func (e *Engine) install(store *graph.Store) {
	e.unload()
	e.store = store
	e.values = make([]value.Value, store.NumPorts())
	for i, p := range store.Ports() {
		e.values[i] = value.Zero(p.Type.Kind)
	}
	e.state = node.NewState(store.NumNodes())
	e.queue = scheduler.NewQueue(store.TopoIndices(), store.IDs())
	e.gens.Reset(store.NumPorts(), store.NumNodes())
	for _, i := range store.Order() {
		if store.Node(i).Kind == node.KindTimer {
			e.timers = append(e.timers, i)
		}
	}
	e.cold = true
}

func (e *Engine) announce() {
	e.logger.Info("Graph loaded.", "nodes", e.store.NumNodes(), "ports", e.store.NumPorts(), "connections", len(e.store.Connections()), "propagation", e.mode.String())
	e.observer.Loaded(e.store.NumNodes(), e.store.NumPorts())
}

// loadedGraph is everything install replaces.
type loadedGraph struct {
	store  *graph.Store
	values []value.Value
	state  *node.State
	queue  *scheduler.Queue
	gens   scheduler.Generations
	timers []int
	cold   bool
}

func (e *Engine) save() loadedGraph {
	return loadedGraph{
		store:  e.store,
		values: e.values,
		state:  e.state,
		queue:  e.queue,
		gens:   e.gens,
		timers: e.timers,
		cold:   e.cold,
	}
}

func (e *Engine) restore(g loadedGraph) {
	e.store = g.store
	e.values = g.values
	e.state = g.state
	e.queue = g.queue
	e.gens = g.gens
	e.timers = g.timers
	e.cold = g.cold
}

func (e *Engine) unload() {
	e.store = nil
	e.values = nil
	e.state = nil
	e.queue = nil
	e.timers = nil
	e.cold = false
	e.gens.Reset(0, 0)
}

// Loaded reports whether a graph is loaded.
func (e *Engine) Loaded() bool { return e.store != nil }

// Store returns the loaded graph store, or nil.
func (e *Engine) Store() *graph.Store { return e.store }

func (e *Engine) lookup(id string) (*node.Node, error) {
	if e.store == nil {
		return nil, ErrNotLoaded
	}
	i, ok := e.store.NodeIndex(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return e.store.Node(i), nil
}

// portEnv exposes the value table to node execution.
type portEnv struct{ e *Engine }

func (p portEnv) Get(h node.Handle) value.Value { return p.e.values[h] }
func (p portEnv) Type(h node.Handle) value.Type { return p.e.store.Type(h) }
func (p portEnv) Set(h node.Handle, v value.Value) { p.e.values[h] = v }
