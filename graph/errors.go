package graph

import "fmt"

// NodeInterrupt is returned by Interrupt when a node needs outside input.
type NodeInterrupt struct {
	// Node is filled in by the runtime.
	Node  string
	Value any
}

func (e *NodeInterrupt) Error() string {
	return fmt.Sprintf("interrupt at node %s: %v", e.Node, e.Value)
}
