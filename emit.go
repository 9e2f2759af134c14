package sheaf

import (
	"path/filepath"

	"github.com/go-sheaf/sheaf/errors"
	"github.com/go-sheaf/sheaf/graph"
	"github.com/go-sheaf/sheaf/internal/spill"
)

// EmitToDisk fans every record of c out into zero or more derived values,
// writing them straight to partitioned disk storage rather than accumulating
// them in memory, so stages larger than RAM can pass through it. The output is
// always a disk-backed Collection with one output partition per input
// partition, in input order; derived values are appended in emission order.
// Spill files live under a directory named by the output Collection's ID
// beneath basePath, so Collections sharing a basePath never see each other's
// files, and are named after their producing node, so re-execution is
// reproducible and sibling nodes never contend for a path.
func EmitToDisk[A, B any](c *Collection[A], basePath string, emitter EmitOperation[A, B]) (*Collection[B], error) {
	if basePath == "" {
		return nil, errors.InvalidBasePathError{}
	}
	id := newID()
	dir := filepath.Join(basePath, id)
	parts := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		parts[i] = graph.NewNode("emit", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			w, err := spill.Create[B](dir, tc.NodeID())
			if err != nil {
				return nil, err
			}
			sk := &diskSink[B]{w: w}
			err = src.each(func(v A) error {
				return safeEmit(emitter, v, sk)
			})
			if err != nil {
				sk.discard()
				return nil, err
			}
			return sk.finish()
		})
	}
	return &Collection[B]{id: id, parts: parts, kind: Disk, dir: dir}, nil
}
