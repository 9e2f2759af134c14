package sheaf

import (
	"context"
	"log"

	uuid "github.com/gofrs/uuid"

	"github.com/go-sheaf/sheaf/graph"
)

// StorageKind indicates whether a Collection's partitions reside in memory or on disk
type StorageKind int

const (
	// Memory indicates that partitions hold their records directly in RAM
	Memory StorageKind = iota
	// Disk indicates that partitions reference serialized record streams on durable storage
	Disk
)

// String returns a string representation of this StorageKind
func (k StorageKind) String() string {
	if k == Disk {
		return "disk"
	}
	return "memory"
}

// A Collection is a logical dataset: an ordered list of deferred
// partition-producing graph nodes plus a storage kind. Operators never mutate
// a Collection; each produces a new one sharing its upstream nodes, so two
// branches of a pipeline reuse common work.
type Collection[A any] struct {
	id    string
	parts []*graph.Node
	kind  StorageKind
	dir   string // spill directory for disk-backed Collections
}

// newID generates the unique identifier for a Collection. Disk-backed
// Collections also use it to name their spill directory.
func newID() string {
	id, err := uuid.NewV4()
	if err != nil {
		log.Fatalf("failed to generate UUID for Collection: %v", err)
	}
	return id.String()
}

func newCollection[A any](parts []*graph.Node, kind StorageKind, dir string) *Collection[A] {
	return &Collection[A]{
		id:    newID(),
		parts: parts,
		kind:  kind,
		dir:   dir,
	}
}

// FromValues produces a single-partition, memory-backed Collection from a slice of values
func FromValues[A any](vs []A) *Collection[A] {
	return FromPartitions([][]A{vs})
}

// FromPartitions produces a memory-backed Collection with one partition per
// input slice. Input slices are copied, so later mutation of a caller's slice
// cannot change what a run observes.
func FromPartitions[A any](pss [][]A) *Collection[A] {
	parts := make([]*graph.Node, len(pss))
	for i, ps := range pss {
		copied := make([]A, len(ps))
		copy(copied, ps)
		parts[i] = graph.Lift("values", memPartition[A]{vs: copied})
	}
	return newCollection[A](parts, Memory, "")
}

// A PartitionLoader lazily loads one partition of source data. It is the
// extension point datasources use to defer input I/O into the graph.
type PartitionLoader[A any] func(ctx context.Context) ([]A, error)

// FromLoaders produces a memory-backed Collection whose partitions are loaded
// on demand, one node per loader. Loader failures surface as node failures
// when the graph runs.
func FromLoaders[A any](loaders []PartitionLoader[A]) *Collection[A] {
	parts := make([]*graph.Node, len(loaders))
	for i, loader := range loaders {
		loader := loader
		parts[i] = graph.NewNode("load", nil, func(tc *graph.TaskContext, _ []interface{}) (interface{}, error) {
			vs, err := loader(tc.Context())
			if err != nil {
				return nil, err
			}
			return memPartition[A]{vs: vs}, nil
		})
	}
	return newCollection[A](parts, Memory, "")
}

// ID retrieves the unique identifier of this Collection
func (c *Collection[A]) ID() string {
	return c.id
}

// NumPartitions retrieves the number of partitions in this Collection
func (c *Collection[A]) NumPartitions() int {
	return len(c.parts)
}

// Storage retrieves the StorageKind of this Collection
func (c *Collection[A]) Storage() StorageKind {
	return c.kind
}

// Concat produces a Collection whose partitions are this Collection's
// followed by other's. Storage kind follows the receiver.
func (c *Collection[A]) Concat(other *Collection[A]) *Collection[A] {
	parts := make([]*graph.Node, 0, len(c.parts)+len(other.parts))
	parts = append(parts, c.parts...)
	parts = append(parts, other.parts...)
	return newCollection[A](parts, c.kind, c.dir)
}

// derive produces a Collection over new partition nodes, carrying the
// receiver's storage kind and spill directory forward.
func derive[A any, B any](c *Collection[A], parts []*graph.Node) *Collection[B] {
	return newCollection[B](parts, c.kind, c.dir)
}

// treeReduce pairwise-combines a set of nodes into a single node, giving the
// scheduler a balanced reduction tree rather than a serial chain.
func treeReduce(name string, nodes []*graph.Node, combine graph.TaskFn) *graph.Node {
	for len(nodes) > 1 {
		next := make([]*graph.Node, 0, (len(nodes)+1)/2)
		for i := 0; i < len(nodes); i += 2 {
			if i+1 == len(nodes) {
				next = append(next, nodes[i])
				continue
			}
			next = append(next, graph.NewNode(name, []*graph.Node{nodes[i], nodes[i+1]}, combine))
		}
		nodes = next
	}
	return nodes[0]
}

// concatPartitions is the treeReduce combiner joining two partitions into one
// in-memory partition, preserving order.
func concatPartitions[A any](tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
	left, err := asPartition[A](inputs[0])
	if err != nil {
		return nil, err
	}
	right, err := asPartition[A](inputs[1])
	if err != nil {
		return nil, err
	}
	out := make([]A, 0, left.length()+right.length())
	appendTo := func(v A) error {
		out = append(out, v)
		return nil
	}
	if err := left.each(appendTo); err != nil {
		return nil, err
	}
	if err := right.each(appendTo); err != nil {
		return nil, err
	}
	return memPartition[A]{vs: out}, nil
}

// Run hands this Collection's terminal graph node to s and blocks until the
// graph is executed, returning the concatenation of all partitions' records
// in partition order. On any node failure the result slice is nil and the
// error carries the failure; no partial results are returned.
func (c *Collection[A]) Run(ctx context.Context, s graph.Scheduler) ([]A, error) {
	if len(c.parts) == 0 {
		return []A{}, nil
	}
	root := treeReduce("collect", c.parts, concatPartitions[A])
	v, err := s.Run(ctx, root)
	if err != nil {
		return nil, err
	}
	p, err := asPartition[A](v)
	if err != nil {
		return nil, err
	}
	return p.values()
}
