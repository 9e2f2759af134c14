package sheaf

import (
	"github.com/go-sheaf/sheaf/errors"
	"github.com/go-sheaf/sheaf/graph"
	"github.com/go-sheaf/sheaf/internal/spill"
)

// A partition is an ordered, finite sequence of records: the atomic unit of
// parallel work, materialized by one graph node. Element order is stable
// across repeated reads within one execution.
type partition[A any] interface {
	// length returns the number of records in this partition
	length() int
	// each streams every record through fn, in partition order
	each(fn func(A) error) error
	// values materializes every record in partition order. Callers must not
	// mutate the result, which may alias the partition's backing store.
	values() ([]A, error)
}

// memPartition holds its records directly
type memPartition[A any] struct {
	vs []A
}

func (p memPartition[A]) length() int { return len(p.vs) }

func (p memPartition[A]) each(fn func(A) error) error {
	for _, v := range p.vs {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func (p memPartition[A]) values() ([]A, error) { return p.vs, nil }

// diskPartition references a serialized record sequence on durable storage
// and streams it back without requiring the whole partition in memory
type diskPartition[A any] struct {
	ref spill.FileRef
}

func (p diskPartition[A]) length() int { return p.ref.Count }

func (p diskPartition[A]) each(fn func(A) error) error {
	return spill.Read(p.ref, fn)
}

func (p diskPartition[A]) values() ([]A, error) {
	vs := make([]A, 0, p.ref.Count)
	err := spill.Read(p.ref, func(v A) error {
		vs = append(vs, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// asPartition checks that a dependency materialized a partition of the
// expected element type.
func asPartition[A any](v interface{}) (partition[A], error) {
	p, ok := v.(partition[A])
	if !ok {
		return nil, errors.IncompatiblePartitionError{Value: v}
	}
	return p, nil
}

// a sink is the write-side counterpart of a partition: operators append
// derived records to one and either finish it into the partition they return
// or discard it when the node fails partway through
type sink[A any] interface {
	Sink[A]
	finish() (partition[A], error)
	discard()
}

type memSink[A any] struct {
	vs []A
}

func (s *memSink[A]) Add(v A) error {
	s.vs = append(s.vs, v)
	return nil
}

func (s *memSink[A]) finish() (partition[A], error) {
	return memPartition[A]{vs: s.vs}, nil
}

func (s *memSink[A]) discard() {}

type diskSink[A any] struct {
	w *spill.Writer[A]
}

func (s *diskSink[A]) Add(v A) error {
	return s.w.Append(v)
}

func (s *diskSink[A]) finish() (partition[A], error) {
	ref, err := s.w.Close()
	if err != nil {
		return nil, err
	}
	return diskPartition[A]{ref: ref}, nil
}

func (s *diskSink[A]) discard() {
	s.w.Discard()
}

// makeSink opens the write side of a node's output partition: an in-memory
// buffer for memory-backed Collections, or a spill file named after the node
// for disk-backed ones.
func makeSink[A any](kind StorageKind, dir string, tc *graph.TaskContext) (sink[A], error) {
	if kind == Memory {
		return &memSink[A]{}, nil
	}
	w, err := spill.Create[A](dir, tc.NodeID())
	if err != nil {
		return nil, err
	}
	return &diskSink[A]{w: w}, nil
}
