package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Load errors. Every error returned by Build wraps exactly one of these.
var (
	ErrDuplicateNode         = errors.New("duplicate node id")
	ErrDuplicatePort         = errors.New("duplicate port id")
	ErrInvalidType           = errors.New("invalid port type")
	ErrUnresolvedReference   = errors.New("unresolved reference")
	ErrTypeMismatch          = errors.New("incompatible connection types")
	ErrInputAlreadyConnected = errors.New("input already connected")
	ErrCycle                 = errors.New("graph contains a cycle")
)

// CycleError is returned when the graph is not acyclic.
type CycleError struct {
	// Nodes are the ids of every node on or downstream of a cycle, in
	// document order.
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: unordered nodes %s", ErrCycle, strings.Join(e.Nodes, ", "))
}

// Unwrap makes errors.Is(err, ErrCycle) hold.
func (e *CycleError) Unwrap() error { return ErrCycle }
