package engine

import (
	"fmt"
	"time"

	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/value"
)

// Evaluate runs one pass: a cold pass right after a load, a warm pass over
// the ready queue otherwise. An execution error aborts the pass, is
// returned, and leaves the generation where it was.
func (e *Engine) Evaluate() error {
	if e.store == nil {
		return ErrNotLoaded
	}
	start := time.Now()
	stats := PassStats{Cold: e.cold}

	var err error
	if e.cold {
		err = e.coldPass(&stats)
	} else {
		err = e.warmPass(&stats)
	}
	if err != nil {
		e.logger.Error("Evaluation pass aborted.", "cold", stats.Cold, "generation", e.gens.Pending(), "error", err)
		e.observer.PassFailed(err)
		return err
	}

	e.cold = false
	stats.Generation = e.gens.Advance()
	stats.Duration = time.Since(start)
	e.logger.Debug("Evaluation pass completed.", "cold", stats.Cold, "generation", stats.Generation, "executed", stats.Executed, "changed", stats.Changed)
	e.observer.PassCompleted(stats)
	return nil
}

// coldPass copies every output into the inputs it feeds, then runs every
// node in topological order.
func (e *Engine) coldPass(stats *PassStats) error {
	for i := range e.store.NumPorts() {
		h := node.Handle(i)
		if e.store.Port(h).Dir == node.Output {
			e.propagate(h, stats)
		}
	}
	for _, i := range e.store.Order() {
		if err := e.run(i, stats); err != nil {
			return err
		}
	}
	e.queue.Clear()
	return nil
}

// warmPass drains the ready queue. Nodes queued while the pass runs are
// always downstream of the running node, so they are picked up in order
// by the same pass.
func (e *Engine) warmPass(stats *PassStats) error {
	for {
		i, ok := e.queue.Pop()
		if !ok {
			return nil
		}
		if err := e.run(i, stats); err != nil {
			return err
		}
	}
}

// run executes node i, stamps what changed and propagates its outputs.
func (e *Engine) run(i int, stats *PassStats) error {
	n := e.store.Node(i)

	e.scratch = e.scratch[:0]
	for _, h := range n.Outputs {
		e.scratch = append(e.scratch, e.values[h])
	}

	if err := node.Execute(n, portEnv{e}, e.state); err != nil {
		return fmt.Errorf("node %q: %w", n.ID, err)
	}
	stats.Executed++

	primaryChanged := false
	for j, h := range n.Outputs {
		changed := !e.scratch[j].Equal(e.values[h])
		if changed {
			e.gens.StampPort(int(h))
			stats.Changed++
			if j == 0 {
				primaryChanged = true
				e.gens.StampNode(i)
			}
		}
		if changed || e.cold {
			e.propagate(h, stats)
		}
	}

	if primaryChanged && !e.cold && e.mode == PropagatePrimaryOutput {
		for _, d := range e.store.Dependents(i) {
			e.enqueue(d)
		}
	}
	return nil
}

// propagate copies output h into every input it feeds, coerced to the
// input's declared type. In PropagateAllOutputs mode every consumer whose
// input changed is queued.
func (e *Engine) propagate(h node.Handle, stats *PassStats) {
	src := e.values[h]
	for _, in := range e.store.FanOut(h) {
		v := value.Coerce(src, e.store.Type(in).Kind)
		if v.Equal(e.values[in]) {
			continue
		}
		e.values[in] = v
		e.gens.StampPort(int(in))
		stats.Changed++
		if !e.cold && e.mode == PropagateAllOutputs {
			e.enqueue(e.store.Port(in).Node)
		}
	}
}

func (e *Engine) enqueue(i int) {
	if e.queue.Push(i) {
		e.observer.Enqueued(e.queue.Len())
	}
}
