package graph

import (
	"context"
	"fmt"
	"maps"

	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/ctxlog"
	"github.com/vk/nodeflowgo/internal/node"
	"github.com/vk/nodeflowgo/internal/scheduler"
	"github.com/vk/nodeflowgo/internal/value"
)

type portKey struct {
	node string
	port string
	dir  node.Direction
}

// Connection is a resolved edge between an output and an input handle.
type Connection struct {
	From node.Handle
	To   node.Handle
}

// Store is a built graph. Slices returned by its methods are shared with
// the store and must not be modified.
type Store struct {
	nodes       []node.Node
	ports       []node.Port
	connections []Connection
	nodeIndex   map[string]int
	handles     map[portKey]node.Handle

	fanOut     [][]node.Handle
	source     []node.Handle
	dependents [][]int
	order      []int
	topoIndex  []int
}

// Build resolves doc into a Store.
func Build(ctx context.Context, doc *config.Document) (*Store, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building graph store.", "nodes", len(doc.Nodes), "connections", len(doc.Connections))

	s := &Store{
		nodes:     make([]node.Node, 0, len(doc.Nodes)),
		nodeIndex: make(map[string]int, len(doc.Nodes)),
		handles:   make(map[portKey]node.Handle),
	}

	for _, spec := range doc.Nodes {
		if err := s.addNode(spec); err != nil {
			return nil, err
		}
	}

	for i := range s.nodes {
		if err := node.CheckContract(&s.nodes[i], s.Type); err != nil {
			return nil, err
		}
	}

	s.fanOut = make([][]node.Handle, len(s.ports))
	s.source = make([]node.Handle, len(s.ports))
	for i := range s.source {
		s.source[i] = node.NoHandle
	}
	s.dependents = make([][]int, len(s.nodes))
	edges := make(map[[2]int]struct{})

	for i, c := range doc.Connections {
		if err := s.connect(i, c, edges); err != nil {
			return nil, err
		}
	}

	order, remaining := scheduler.TopologicalOrder(len(s.nodes), s.dependents)
	if len(remaining) > 0 {
		cerr := &CycleError{Nodes: make([]string, len(remaining))}
		for i, n := range remaining {
			cerr.Nodes[i] = s.nodes[n].ID
		}
		return nil, cerr
	}
	s.order = order
	s.topoIndex = scheduler.Positions(order)

	logger.Debug("Graph store built.", "nodes", len(s.nodes), "ports", len(s.ports), "connections", len(s.connections))
	return s, nil
}

func (s *Store) addNode(spec config.NodeSpec) error {
	if _, dup := s.nodeIndex[spec.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, spec.ID)
	}
	idx := len(s.nodes)
	n := node.Node{
		Index:    idx,
		ID:       spec.ID,
		TypeName: spec.Type,
		Kind:     node.ParseKind(spec.Type),
		Params:   maps.Clone(spec.Parameters),
	}

	var err error
	if n.Inputs, err = s.addPorts(idx, spec.ID, spec.Inputs, node.Input); err != nil {
		return err
	}
	if n.Outputs, err = s.addPorts(idx, spec.ID, spec.Outputs, node.Output); err != nil {
		return err
	}

	s.nodeIndex[spec.ID] = idx
	s.nodes = append(s.nodes, n)
	return nil
}

func (s *Store) addPorts(idx int, nodeID string, specs []config.PortSpec, dir node.Direction) ([]node.Handle, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	handles := make([]node.Handle, 0, len(specs))
	for _, ps := range specs {
		key := portKey{node: nodeID, port: ps.ID, dir: dir}
		if _, dup := s.handles[key]; dup {
			return nil, fmt.Errorf("%w: node %q has two %s ports named %q", ErrDuplicatePort, nodeID, dir, ps.ID)
		}
		t, err := value.ParseType(ps.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q %s %q: %w", ErrInvalidType, nodeID, dir, ps.ID, err)
		}
		h := node.Handle(len(s.ports))
		s.ports = append(s.ports, node.Port{Handle: h, Node: idx, ID: ps.ID, Dir: dir, Type: t})
		s.handles[key] = h
		handles = append(handles, h)
	}
	return handles, nil
}

func (s *Store) connect(i int, c config.ConnectionSpec, edges map[[2]int]struct{}) error {
	from, err := s.resolve(i, c.FromNode, c.FromPort, node.Output)
	if err != nil {
		return err
	}
	to, err := s.resolve(i, c.ToNode, c.ToPort, node.Input)
	if err != nil {
		return err
	}

	ft, tt := s.ports[from].Type, s.ports[to].Type
	if !ft.Compatible(tt) {
		return fmt.Errorf("%w: connection %d %s.%s (%s) -> %s.%s (%s)",
			ErrTypeMismatch, i, c.FromNode, c.FromPort, ft, c.ToNode, c.ToPort, tt)
	}
	if prev := s.source[to]; prev != node.NoHandle {
		src := s.ports[prev]
		return fmt.Errorf("%w: connection %d targets %s.%s, already fed by %s",
			ErrInputAlreadyConnected, i, c.ToNode, c.ToPort, src.Key(s.nodes[src.Node].ID))
	}

	s.fanOut[from] = append(s.fanOut[from], to)
	s.source[to] = from
	s.connections = append(s.connections, Connection{From: from, To: to})

	edge := [2]int{s.ports[from].Node, s.ports[to].Node}
	if _, seen := edges[edge]; !seen {
		edges[edge] = struct{}{}
		s.dependents[edge[0]] = append(s.dependents[edge[0]], edge[1])
	}
	return nil
}

func (s *Store) resolve(i int, nodeID, portID string, dir node.Direction) (node.Handle, error) {
	if _, ok := s.nodeIndex[nodeID]; !ok {
		return node.NoHandle, fmt.Errorf("%w: connection %d references unknown node %q", ErrUnresolvedReference, i, nodeID)
	}
	h, ok := s.handles[portKey{node: nodeID, port: portID, dir: dir}]
	if !ok {
		return node.NoHandle, fmt.Errorf("%w: connection %d references unknown %s port %q on node %q", ErrUnresolvedReference, i, dir, portID, nodeID)
	}
	return h, nil
}

// NumNodes returns the number of nodes.
func (s *Store) NumNodes() int { return len(s.nodes) }

// NumPorts returns the number of port handles.
func (s *Store) NumPorts() int { return len(s.ports) }

// Node returns the node at index i. The pointer stays valid for the life of
// the store.
func (s *Store) Node(i int) *node.Node { return &s.nodes[i] }

// NodeIndex resolves a node id.
func (s *Store) NodeIndex(id string) (int, bool) {
	i, ok := s.nodeIndex[id]
	return i, ok
}

// Handle resolves a (node, port, direction) triple.
func (s *Store) Handle(nodeID, portID string, dir node.Direction) (node.Handle, bool) {
	h, ok := s.handles[portKey{node: nodeID, port: portID, dir: dir}]
	return h, ok
}

// Port returns the port with handle h.
func (s *Store) Port(h node.Handle) *node.Port { return &s.ports[h] }

// Ports returns every port in handle order.
func (s *Store) Ports() []node.Port { return s.ports }

// Type returns the declared type of port h.
func (s *Store) Type(h node.Handle) value.Type { return s.ports[h].Type }

// Connections returns the resolved connections in document order.
func (s *Store) Connections() []Connection { return s.connections }

// FanOut returns the input handles fed by output h.
func (s *Store) FanOut(h node.Handle) []node.Handle { return s.fanOut[h] }

// Source returns the output feeding input h, or NoHandle.
func (s *Store) Source(h node.Handle) node.Handle { return s.source[h] }

// Dependents returns the nodes consuming any output of node i, each once.
func (s *Store) Dependents(i int) []int { return s.dependents[i] }

// Order returns node indices in topological order.
func (s *Store) Order() []int { return s.order }

// TopoIndex returns node i's position in Order.
func (s *Store) TopoIndex(i int) int { return s.topoIndex[i] }

// TopoIndices returns every node's position in Order, indexed by node.
func (s *Store) TopoIndices() []int { return s.topoIndex }

// IDs returns node ids indexed by node.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.nodes))
	for i := range s.nodes {
		ids[i] = s.nodes[i].ID
	}
	return ids
}

// Sinks returns, in topological order, the nodes exposed as outputs of a
// generated artifact: nodes with at least one output and no outgoing
// connection. When there are none, every node with outputs qualifies.
func (s *Store) Sinks() []int {
	var sinks, withOutputs []int
	for _, i := range s.order {
		n := &s.nodes[i]
		if len(n.Outputs) == 0 {
			continue
		}
		withOutputs = append(withOutputs, i)
		if len(s.dependents[i]) == 0 {
			sinks = append(sinks, i)
		}
	}
	if len(sinks) == 0 {
		return withOutputs
	}
	return sinks
}
