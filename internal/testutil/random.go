package testutil

import (
	"fmt"
	"math/rand"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/value"
)

var numericTypes = []string{"int", "float", "double", "async_double"}

// RandomDAG builds an acyclic document of 1..maxNodes nodes from seed, using
// only DeviceTrigger, Value, Add, Timer and Counter nodes with numeric
// ports. Nodes are named n0, n1, ... in creation order; each input is fed
// by an earlier node or left unconnected, and the declaration order is
// shuffled so it rarely matches a topological order.
func RandomDAG(seed int64, maxNodes int) *config.Document {
	r := rand.New(rand.NewSource(seed))
	n := 1 + r.Intn(maxNodes)

	type produced struct {
		id, port string
	}
	var outputs []produced
	b := NewDoc()

	feed := func(to, port string) {
		if len(outputs) == 0 || r.Intn(5) == 0 {
			return
		}
		src := outputs[r.Intn(len(outputs))]
		b.Connect(src.id+"."+src.port, to+"."+port)
	}

	for i := range n {
		id := fmt.Sprintf("n%d", i)
		typ := numericTypes[r.Intn(len(numericTypes))]
		kinds := []string{"DeviceTrigger", "Value", "Timer"}
		if len(outputs) > 0 {
			kinds = append(kinds, "Add", "Add", "Counter")
		}
		switch kinds[r.Intn(len(kinds))] {
		case "DeviceTrigger":
			b.Node(id, "DeviceTrigger").Out("out", typ).
				Param("value", value.DoubleValue(float64(r.Intn(400)-200)/8))
		case "Value":
			b.Node(id, "Value").Out("out", typ).
				Param("value", value.DoubleValue(float64(r.Intn(400)-200)/3))
		case "Timer":
			b.Node(id, "Timer").Out("out", typ).
				Param("interval_ms", value.IntValue(int32(25*r.Intn(5))))
		case "Add":
			b.Node(id, "Add")
			arity := 1 + r.Intn(3)
			for j := range arity {
				b.In(fmt.Sprintf("in%d", j), typ)
			}
			b.Out("out", typ)
			for j := range arity {
				feed(id, fmt.Sprintf("in%d", j))
			}
		case "Counter":
			b.Node(id, "Counter").In("in", numericTypes[r.Intn(len(numericTypes))]).Out("count", typ)
			feed(id, "in")
		}
		outputs = append(outputs, produced{id: id, port: b.last().Outputs[0].ID})
	}

	doc := b.Build()
	r.Shuffle(len(doc.Nodes), func(i, j int) { doc.Nodes[i], doc.Nodes[j] = doc.Nodes[j], doc.Nodes[i] })
	return doc
}

// GenDAG generates RandomDAG documents.
func GenDAG(maxNodes int) gopter.Gen {
	return gen.Int64().Map(func(seed int64) *config.Document {
		return RandomDAG(seed, maxNodes)
	})
}
