// Package graph provides the deferred computation graph which Sheaf
// Collections compile into, along with Schedulers which execute it. A Node
// wraps a pure function over the materialized values of its dependencies;
// Nodes are immutable once created, so two pipelines branching from one
// upstream Collection share Nodes structurally and each shared Node is
// computed at most once per run.
package graph

import (
	"context"
	"encoding/binary"
	"sync/atomic"

	xxhash "github.com/cespare/xxhash/v2"
)

// A TaskFn computes a node's value from the materialized values of its
// dependencies, in dependency order. It must not mutate its inputs.
type TaskFn func(tc *TaskContext, inputs []interface{}) (interface{}, error)

// A Node is a memoized unit of deferred computation with explicit dependencies
type Node struct {
	id   uint64
	name string
	deps []*Node
	fn   TaskFn
}

var nodeSeq uint64

// NewNode creates a Node which computes fn over the materialized values of
// deps. Its identity is hashed from the operation name, a creation sequence
// number and the identities of its dependencies, which keeps identities
// collision-free and makes them usable for deterministic spill-file naming.
func NewNode(name string, deps []*Node, fn TaskFn) *Node {
	seq := atomic.AddUint64(&nodeSeq, 1)
	h := xxhash.New()
	h.WriteString(name)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seq)
	h.Write(buf[:])
	for _, d := range deps {
		binary.LittleEndian.PutUint64(buf[:], d.id)
		h.Write(buf[:])
	}
	return &Node{
		id:   h.Sum64(),
		name: name,
		deps: deps,
		fn:   fn,
	}
}

// Lift wraps an existing value as a leaf Node
func Lift(name string, value interface{}) *Node {
	return NewNode(name, nil, func(tc *TaskContext, _ []interface{}) (interface{}, error) {
		return value, nil
	})
}

// ID retrieves the identity of this Node
func (n *Node) ID() uint64 {
	return n.id
}

// Name retrieves the operation name of this Node
func (n *Node) Name() string {
	return n.name
}

// Deps retrieves the dependencies of this Node
func (n *Node) Deps() []*Node {
	return n.deps
}

// A TaskContext carries per-execution state into a Node's TaskFn
type TaskContext struct {
	ctx  context.Context
	node *Node
}

// Context retrieves the context.Context governing this execution
func (tc *TaskContext) Context() context.Context {
	return tc.ctx
}

// NodeID retrieves the identity of the Node being computed
func (tc *TaskContext) NodeID() uint64 {
	return tc.node.id
}

// NodeName retrieves the operation name of the Node being computed
func (tc *TaskContext) NodeName() string {
	return tc.node.name
}

// topoSort returns root's reachable subgraph in dependency-first order,
// visiting each Node exactly once even when it is shared between branches.
func topoSort(root *Node) []*Node {
	var order []*Node
	seen := make(map[uint64]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if seen[n.id] {
			return
		}
		seen[n.id] = true
		for _, d := range n.deps {
			visit(d)
		}
		order = append(order, n)
	}
	visit(root)
	return order
}
