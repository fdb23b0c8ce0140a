package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/graph"
	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/testutil"
	"github.com/vk/nodeflowgo/internal/value"
)

// recorder is an Observer that keeps every event.
type recorder struct {
	NopObserver
	passes   []PassStats
	failures []error
	loads    int
}

func (r *recorder) Loaded(int, int)           { r.loads++ }
func (r *recorder) PassCompleted(s PassStats) { r.passes = append(r.passes, s) }
func (r *recorder) PassFailed(err error)      { r.failures = append(r.failures, err) }

func (r *recorder) last() PassStats { return r.passes[len(r.passes)-1] }

func loaded(t *testing.T, doc *config.Document, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := New(append([]Option{WithObserver(rec)}, opts...)...)
	require.NoError(t, e.Load(testutil.Context(t), doc))
	require.NoError(t, e.Evaluate())
	return e, rec
}

func output(t *testing.T, e *Engine, nodeID, portID string) value.Value {
	t.Helper()
	v, err := e.Output(nodeID, portID)
	require.NoError(t, err)
	return v
}

func TestEngine_ColdPassRunsEveryNode(t *testing.T) {
	e, rec := loaded(t, testutil.BranchesDoc())

	s := rec.last()
	assert.True(t, s.Cold)
	assert.Equal(t, 7, s.Executed)
	assert.Equal(t, uint64(1), s.Generation)
	assert.Equal(t, uint64(1), e.Generation())

	assert.Equal(t, []string{"a", "b", "c", "k", "left", "right", "total"}, e.Order())
	assert.Equal(t, value.DoubleValue(4), output(t, e, "left", "out"))
	assert.Equal(t, value.DoubleValue(12), output(t, e, "right", "out"))
	assert.Equal(t, value.DoubleValue(16), output(t, e, "total", "out"))
	assert.Equal(t, 0, e.QueueDepth())
}

func TestEngine_IdleEvaluateChangesNothing(t *testing.T) {
	e, rec := loaded(t, testutil.BranchesDoc())
	before := e.Outputs()
	g := e.BeginSnapshot()

	for range 3 {
		require.NoError(t, e.Evaluate())
		assert.Zero(t, rec.last().Executed)
	}

	assert.Equal(t, g+3, e.Generation())
	assert.Empty(t, e.PortDeltasSince(g))
	assert.Empty(t, e.OutputsChangedSince(g))
	if diff := cmp.Diff(before, e.Outputs(), cmp.Comparer(value.Value.Equal)); diff != "" {
		t.Errorf("outputs changed on an idle pass (-before +after):\n%s", diff)
	}
}

func TestEngine_WarmPassTouchesOnlyDownstream(t *testing.T) {
	e, rec := loaded(t, testutil.BranchesDoc())
	g := e.BeginSnapshot()

	require.NoError(t, e.SetNodeValue("a", value.DoubleValue(5)))
	require.NoError(t, e.Evaluate())

	assert.Equal(t, 3, rec.last().Executed, "a, left and total")
	assert.Equal(t, value.DoubleValue(20), output(t, e, "total", "out"))

	var changed []string
	for _, o := range e.OutputsChangedSince(g) {
		changed = append(changed, o.NodeID)
		assert.Equal(t, g+1, o.Generation)
	}
	assert.Equal(t, []string{"a", "left", "total"}, changed)

	var ports []string
	for _, d := range e.PortDeltasSince(g) {
		ports = append(ports, d.NodeID+"."+d.PortID+"/"+d.Dir.String())
	}
	assert.Equal(t, []string{
		"a.out/output",
		"left.x/input",
		"left.out/output",
		"total.l/input",
		"total.out/output",
	}, ports)

	gen, err := e.NodeGeneration("right")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen, "right kept its cold-pass stamp")
}

func TestEngine_SameValueDoesNotPropagate(t *testing.T) {
	e, rec := loaded(t, testutil.BranchesDoc())
	g := e.BeginSnapshot()

	require.NoError(t, e.SetNodeValue("a", value.DoubleValue(1)))
	require.NoError(t, e.Evaluate())

	assert.Equal(t, 1, rec.last().Executed)
	assert.Empty(t, e.PortDeltasSince(g))
}

func TestEngine_AddArithmetic(t *testing.T) {
	f1, f2 := float32(0.1), float32(0.2)
	d1, d2 := 0.1, 0.2
	testCases := []struct {
		name string
		typ  string
		x, y value.Value
		want value.Value
	}{
		{"int", "int", value.IntValue(3), value.IntValue(4), value.IntValue(7)},
		{"int wraps", "int", value.IntValue(math.MaxInt32), value.IntValue(1), value.IntValue(math.MinInt32)},
		{"float", "float", value.FloatValue(f1), value.FloatValue(f2), value.FloatValue(f1 + f2)},
		{"double", "double", value.DoubleValue(d1), value.DoubleValue(d2), value.DoubleValue(d1 + d2)},
		{"string", "string", value.StringValue("ab"), value.StringValue("cd"), value.StringValue("abcd")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := testutil.NewDoc().
				Node("x", "Value").Out("out", tc.typ).Param("value", tc.x).
				Node("y", "Value").Out("out", tc.typ).Param("value", tc.y).
				Node("sum", "Add").In("a", tc.typ).In("b", tc.typ).Out("out", tc.typ).
				Connect("x.out", "sum.a").
				Connect("y.out", "sum.b").
				Build()
			e, _ := loaded(t, doc)
			assert.Equal(t, tc.want, output(t, e, "sum", "out"))
		})
	}
}

func TestEngine_InputsAreCoercedToTheirType(t *testing.T) {
	doc := testutil.NewDoc().
		Node("src", "DeviceTrigger").Out("out", "double").Param("value", value.DoubleValue(-2.75)).
		Node("sum", "Add").In("a", "int").Out("out", "int").
		Connect("src.out", "sum.a").
		Build()
	e, _ := loaded(t, doc)

	h, err := e.Handle("sum", "a", node.Input)
	require.NoError(t, err)
	v, err := e.PortValue(h)
	require.NoError(t, err)
	assert.Equal(t, value.IntValue(-2), v)
	assert.Equal(t, value.IntValue(-2), output(t, e, "sum", "out"))
}

func TestEngine_TimerDrivesCounter(t *testing.T) {
	e, _ := loaded(t, testutil.TimerCounterDoc(100))

	step := func(dt float64) {
		t.Helper()
		require.NoError(t, e.Tick(dt))
		require.NoError(t, e.Evaluate())
	}

	step(40)
	step(40)
	assert.Equal(t, value.IntValue(0), output(t, e, "timer", "out"))

	step(40)
	assert.Equal(t, value.IntValue(1), output(t, e, "timer", "out"))
	assert.Equal(t, value.IntValue(1), output(t, e, "counter", "count"))
	acc, err := e.TimerAccumulator("timer")
	require.NoError(t, err)
	assert.InDelta(t, 20, acc, 1e-9)

	step(0)
	assert.Equal(t, value.IntValue(0), output(t, e, "timer", "out"), "pulse lasts one tick")
	n, err := e.CounterValue("counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for range 10 {
		step(50)
	}
	n, err = e.CounterValue("counter")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n, "500ms more at a 100ms period")
}

func TestEngine_TimerWithoutIntervalNeverFires(t *testing.T) {
	e, _ := loaded(t, testutil.TimerCounterDoc(0))
	for range 5 {
		require.NoError(t, e.Tick(1000))
		require.NoError(t, e.Evaluate())
	}
	assert.Equal(t, value.IntValue(0), output(t, e, "timer", "out"))
	assert.Zero(t, e.QueueDepth())
}

func TestEngine_TickRejectsBadDurations(t *testing.T) {
	e, _ := loaded(t, testutil.TimerCounterDoc(100))
	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, e.Tick(dt), ErrInvalidArgument, "dt=%v", dt)
	}
	acc, err := e.TimerAccumulator("timer")
	require.NoError(t, err)
	assert.Zero(t, acc)
}

func TestEngine_PropagationModes(t *testing.T) {
	// The primary output truncates to the same int while the secondary
	// double output changes.
	doc := testutil.NewDoc().
		Node("src", "Value").Out("i", "int").Out("d", "double").Param("value", value.DoubleValue(1.2)).
		Node("sum", "Add").In("x", "double").Out("out", "double").
		Connect("src.d", "sum.x").
		Build()

	testCases := []struct {
		mode PropagationMode
		want value.Value
	}{
		{PropagateAllOutputs, value.DoubleValue(1.7)},
		{PropagatePrimaryOutput, value.DoubleValue(1.2)},
	}
	for _, tc := range testCases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			e, _ := loaded(t, doc, WithPropagation(tc.mode))
			require.NoError(t, e.SetNodeValue("src", value.DoubleValue(1.7)))
			require.NoError(t, e.Evaluate())
			assert.Equal(t, tc.want, output(t, e, "sum", "out"))
			assert.Equal(t, value.IntValue(1), output(t, e, "src", "i"))
		})
	}
}

func TestEngine_LoadFailureLeavesEngineEmpty(t *testing.T) {
	ctx := testutil.Context(t)
	e, rec := loaded(t, testutil.BranchesDoc())
	require.NoError(t, e.Evaluate())
	gen := e.Generation()

	cyclic := testutil.NewDoc().
		Node("x", "Add").In("in", "int").Out("out", "int").
		Node("y", "Add").In("in", "int").Out("out", "int").
		Connect("x.out", "y.in").
		Connect("y.out", "x.in").
		Build()
	err := e.Load(ctx, cyclic)
	require.ErrorIs(t, err, graph.ErrCycle)

	assert.False(t, e.Loaded())
	assert.Equal(t, gen, e.Generation())
	assert.ErrorIs(t, e.Evaluate(), ErrNotLoaded)
	assert.ErrorIs(t, e.Tick(1), ErrNotLoaded)
	assert.ErrorIs(t, e.SetNodeValue("a", value.IntValue(1)), ErrNotLoaded)
	assert.Nil(t, e.Outputs())

	require.NoError(t, e.Load(ctx, testutil.BranchesDoc()))
	require.NoError(t, e.Evaluate())
	assert.Equal(t, gen+1, e.Generation(), "generations keep counting across reloads")
	assert.True(t, rec.last().Cold)
	assert.Equal(t, 2, rec.loads)
}

func TestEngine_ExecutionErrorAbortsPass(t *testing.T) {
	doc := testutil.NewDoc().
		Node("src", "DeviceTrigger").Out("out", "int").Param("value", value.IntValue(1)).
		Node("empty", "Add").Out("out", "int").
		Build()
	rec := &recorder{}
	e := New(WithObserver(rec))
	require.NoError(t, e.Load(testutil.Context(t), doc))

	err := e.Evaluate()
	require.ErrorIs(t, err, node.ErrMisconfigured)
	assert.Contains(t, err.Error(), `"empty"`)
	assert.Zero(t, e.Generation())
	assert.Len(t, rec.failures, 1)
	assert.Empty(t, rec.passes)
}

func TestEngine_ReplaceRollsBackWhenColdPassFails(t *testing.T) {
	ctx := testutil.Context(t)
	rec := &recorder{}
	e := New(WithObserver(rec))

	s, err := graph.Build(ctx, testutil.BranchesDoc())
	require.NoError(t, err)
	require.NoError(t, e.Replace(ctx, s))
	require.NoError(t, e.SetNodeValue("a", value.DoubleValue(5)))
	require.NoError(t, e.Evaluate())
	require.Equal(t, value.DoubleValue(20), output(t, e, "total", "out"))
	gen := e.Generation()

	broken, err := graph.Build(ctx, testutil.NewDoc().
		Node("lonely", "Add").Out("out", "int").
		Build())
	require.NoError(t, err)
	err = e.Replace(ctx, broken)
	require.ErrorIs(t, err, node.ErrMisconfigured)

	assert.True(t, e.Loaded())
	assert.Same(t, s, e.Store())
	assert.Equal(t, gen, e.Generation())
	assert.Equal(t, value.DoubleValue(20), output(t, e, "total", "out"))
	assert.Equal(t, 1, rec.loads)

	require.NoError(t, e.SetNodeValue("c", value.DoubleValue(0)))
	require.NoError(t, e.Evaluate())
	assert.False(t, rec.last().Cold, "the restored graph stays warm")
	assert.Equal(t, value.DoubleValue(17), output(t, e, "total", "out"))
	assert.Equal(t, gen+1, e.Generation())
}

func TestEngine_ReplaceOnEmptyEngine(t *testing.T) {
	ctx := testutil.Context(t)
	e := New()
	broken, err := graph.Build(ctx, testutil.NewDoc().
		Node("lonely", "Add").Out("out", "int").
		Build())
	require.NoError(t, err)

	require.ErrorIs(t, e.Replace(ctx, broken), node.ErrMisconfigured)
	assert.False(t, e.Loaded())
	assert.ErrorIs(t, e.Evaluate(), ErrNotLoaded)
}

func TestEngine_ControlErrors(t *testing.T) {
	e, _ := loaded(t, testutil.TimerCounterDoc(100))

	assert.ErrorIs(t, e.SetNodeValue("nope", value.IntValue(1)), ErrUnknownNode)
	assert.ErrorIs(t, e.SetNodeInterval("timer", 10, 5), ErrInvalidArgument)
	assert.ErrorIs(t, e.SetNodeInterval("timer", -1, 5), ErrInvalidArgument)
	_, err := e.TimerAccumulator("counter")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.CounterValue("timer")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.PortValue(node.Handle(99))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.Handle("timer", "in", node.Input)
	assert.ErrorIs(t, err, ErrUnknownNode)

	require.NoError(t, e.SetNodeInterval("timer", 5, 10))
	v, ok := e.Store().Node(0).Param(node.ParamMaxInterval)
	require.True(t, ok)
	assert.Equal(t, value.IntValue(10), v)
}

func TestParsePropagationMode(t *testing.T) {
	m, err := ParsePropagationMode("")
	require.NoError(t, err)
	assert.Equal(t, PropagateAllOutputs, m)
	m, err = ParsePropagationMode("primary")
	require.NoError(t, err)
	assert.Equal(t, PropagatePrimaryOutput, m)
	_, err = ParsePropagationMode("some")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

// withoutCounters turns counters into no-op nodes, since a counter's total
// depends on the order its inputs arrived in and not only on the current
// parameters.
func withoutCounters(doc *config.Document) *config.Document {
	for i := range doc.Nodes {
		if doc.Nodes[i].Type == "Counter" {
			doc.Nodes[i].Type = "Unknown"
		}
	}
	return doc
}

func TestEngine_WarmPassMatchesFreshEvaluation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("incremental outputs equal a cold evaluation", prop.ForAll(
		func(doc *config.Document, seed int64) bool {
			doc = withoutCounters(doc)
			ctx := testutil.Context(t)

			warm := New()
			if err := warm.Load(ctx, doc); err != nil {
				t.Logf("load: %v", err)
				return false
			}
			if err := warm.Evaluate(); err != nil {
				return false
			}

			changed := doc.Clone()
			for i, n := range changed.Nodes {
				if n.Type != "DeviceTrigger" {
					continue
				}
				v := value.DoubleValue(float64((seed>>(i%32))&0xff) / 4)
				changed.Nodes[i].Parameters["value"] = v
				if err := warm.SetNodeValue(n.ID, v); err != nil {
					return false
				}
			}
			if err := warm.Evaluate(); err != nil {
				return false
			}

			cold := New()
			if err := cold.Load(ctx, changed); err != nil {
				return false
			}
			if err := cold.Evaluate(); err != nil {
				return false
			}

			diff := cmp.Diff(cold.Outputs(), warm.Outputs(), cmp.Comparer(value.Value.Equal))
			if diff != "" {
				t.Logf("outputs differ (-cold +warm):\n%s", diff)
			}
			return diff == ""
		},
		testutil.GenDAG(10),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestEngine_PrimaryOutputs(t *testing.T) {
	e := New()
	assert.Nil(t, e.PrimaryOutputs())

	e, _ = loaded(t, testutil.TimerCounterDoc(100))
	got := e.PrimaryOutputs()
	require.Len(t, got, 2)
	assert.Equal(t, "timer", got[0].NodeID)
	assert.Equal(t, "out", got[0].PortID)
	assert.Equal(t, value.IntValue(0), got[0].Value)
	assert.Zero(t, got[0].Generation, "zero output never changed")
	assert.Equal(t, "counter", got[1].NodeID)
	assert.Equal(t, "count", got[1].PortID)
}
