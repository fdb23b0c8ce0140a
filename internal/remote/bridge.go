// Package remote exposes a host runner's control surface over socket.io.
//
// The bridge announces itself on connect with a "register" event carrying
// a random instance id, then serves these events:
//
//	set_value    {node, value}     set a source node's value and evaluate
//	set_interval {node, min, max}  record a node's polling interval
//	tick         {dt_ms}           advance timers and evaluate
//	evaluate     {}                run one pass
//	snapshot     {}                reply with "snapshot" {generation, outputs}
//
// Whenever a pass changes outputs it emits "outputs" {generation, full,
// outputs}. A failed request is answered with "error" {event, message}.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/engine"
	"github.com/vk/nodeflowgo/internal/host"
	"github.com/vk/nodeflowgo/internal/value"
)

// Event names.
const (
	EventRegister    = "register"
	EventSetValue    = "set_value"
	EventSetInterval = "set_interval"
	EventTick        = "tick"
	EventEvaluate    = "evaluate"
	EventSnapshot    = "snapshot"
	EventOutputs     = "outputs"
	EventError       = "error"
)

// ErrBadRequest is returned for payloads that do not have the expected
// shape.
var ErrBadRequest = errors.New("bad request")

// Output is one node output on the wire.
type Output struct {
	Node       string `json:"node"`
	Port       string `json:"port"`
	Value      any    `json:"value"`
	Generation uint64 `json:"generation"`
}

// Bridge connects a runner to a socket.io connection.
type Bridge struct {
	runner   *host.Runner
	conn     Conn
	instance string
	logger   *slog.Logger
}

// NewBridge creates a bridge with a fresh instance id.
func NewBridge(r *host.Runner, conn Conn) *Bridge {
	return &Bridge{
		runner:   r,
		conn:     conn,
		instance: uuid.NewString(),
		logger:   slog.Default(),
	}
}

// Instance returns the id announced in the register event.
func (b *Bridge) Instance() string { return b.instance }

// Run wires the handlers, registers with the hub and forwards output
// updates until ctx is done. The connection is closed on return.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger = ctxlog.FromContext(ctx).With("component", "remote", "instance", b.instance)
	defer b.conn.Close()

	b.handle(EventSetValue, b.onSetValue)
	b.handle(EventSetInterval, b.onSetInterval)
	b.handle(EventTick, b.onTick)
	b.handle(EventEvaluate, func(map[string]any) error { return b.runner.Evaluate() })
	b.handle(EventSnapshot, b.onSnapshot)

	cancel := b.runner.Subscribe(b.forward)
	defer cancel()

	b.conn.Emit(EventRegister, map[string]any{"instance": b.instance})
	b.logger.Info("Remote bridge registered.", "sid", b.conn.ID())

	<-ctx.Done()
	b.logger.Debug("Remote bridge stopping.")
	return nil
}

// handle decodes the first argument of event as an object and reports a
// failing handler back to the hub.
func (b *Bridge) handle(event string, fn func(payload map[string]any) error) {
	b.conn.On(event, func(args ...any) {
		payload := map[string]any{}
		if len(args) > 0 && args[0] != nil {
			m, ok := args[0].(map[string]any)
			if !ok {
				b.fail(event, fmt.Errorf("%w: payload is %T, want object", ErrBadRequest, args[0]))
				return
			}
			payload = m
		}
		if err := fn(payload); err != nil {
			b.fail(event, err)
		}
	})
}

func (b *Bridge) fail(event string, err error) {
	b.logger.Warn("Remote request failed.", "event", event, "error", err)
	b.conn.Emit(EventError, map[string]any{"event": event, "message": err.Error()})
}

func (b *Bridge) onSetValue(p map[string]any) error {
	id, err := stringField(p, "node")
	if err != nil {
		return err
	}
	raw, ok := p["value"]
	if !ok {
		return fmt.Errorf("%w: missing value", ErrBadRequest)
	}
	v, err := value.FromAny(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return b.runner.SetValue(id, v)
}

func (b *Bridge) onSetInterval(p map[string]any) error {
	id, err := stringField(p, "node")
	if err != nil {
		return err
	}
	lo, err := int32Field(p, "min")
	if err != nil {
		return err
	}
	hi, err := int32Field(p, "max")
	if err != nil {
		return err
	}
	return b.runner.SetInterval(id, lo, hi)
}

func (b *Bridge) onTick(p map[string]any) error {
	dt, err := numberField(p, "dt_ms")
	if err != nil {
		return err
	}
	return b.runner.Step(dt)
}

func (b *Bridge) onSnapshot(map[string]any) error {
	snap, err := b.runner.Snapshot()
	if err != nil {
		return err
	}
	outputs := make(map[string]map[string]any, len(snap.Outputs))
	for id, ports := range snap.Outputs {
		m := make(map[string]any, len(ports))
		for port, v := range ports {
			m[port] = value.ToAny(v)
		}
		outputs[id] = m
	}
	b.conn.Emit(EventSnapshot, map[string]any{
		"generation": snap.Generation,
		"order":      snap.Order,
		"outputs":    outputs,
	})
	return nil
}

// forward emits a runner update.
func (b *Bridge) forward(u host.Update) {
	b.conn.Emit(EventOutputs, map[string]any{
		"generation": u.Generation,
		"full":       u.Full,
		"outputs":    wireOutputs(u.Outputs),
	})
}

func wireOutputs(in []engine.NodeOutput) []Output {
	out := make([]Output, len(in))
	for i, o := range in {
		out[i] = Output{Node: o.NodeID, Port: o.PortID, Value: value.ToAny(o.Value), Generation: o.Generation}
	}
	return out
}

func stringField(p map[string]any, name string) (string, error) {
	s, ok := p[name].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrBadRequest, name)
	}
	return s, nil
}

func numberField(p map[string]any, name string) (float64, error) {
	switch n := p[name].(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: %s must be a number", ErrBadRequest, name)
}

func int32Field(p map[string]any, name string) (int32, error) {
	f, err := numberField(p, name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a 32-bit integer", ErrBadRequest, name)
	}
	return int32(f), nil
}
