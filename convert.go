package sheaf

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-sheaf/sheaf/errors"
	"github.com/go-sheaf/sheaf/graph"
	"github.com/go-sheaf/sheaf/internal/spill"
)

// ToMemory materializes every partition of this Collection into RAM,
// preserving partition count, order, and record values. Operators downstream
// of a small post-aggregation Collection are cheaper without the I/O of a
// disk-backed one. Memory-backed Collections are returned as-is.
func (c *Collection[A]) ToMemory() *Collection[A] {
	if c.kind == Memory {
		return c
	}
	parts := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		parts[i] = graph.NewNode("to_memory", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			vs, err := src.values()
			if err != nil {
				return nil, err
			}
			return memPartition[A]{vs: vs}, nil
		})
	}
	return newCollection[A](parts, Memory, "")
}

// ToDisk spills every partition of this Collection to files under path,
// preserving partition count, order, and record values. Like EmitToDisk, the
// files live under a directory named by the output Collection's ID.
func (c *Collection[A]) ToDisk(path string) (*Collection[A], error) {
	if path == "" {
		return nil, errors.InvalidBasePathError{}
	}
	id := newID()
	dir := filepath.Join(path, id)
	parts := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		parts[i] = graph.NewNode("to_disk", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			w, err := spill.Create[A](dir, tc.NodeID())
			if err != nil {
				return nil, err
			}
			sk := &diskSink[A]{w: w}
			if err := src.each(sk.Add); err != nil {
				sk.discard()
				return nil, err
			}
			return sk.finish()
		})
	}
	return &Collection[A]{id: id, parts: parts, kind: Disk, dir: dir}, nil
}

// SinkText writes a Collection of strings as newline-delimited text under
// path, one file per partition named by partition index, yielding each
// partition's line count. It is the terminal stage of text pipelines whose
// output is consumed by other tools rather than a later operator.
func SinkText(c *Collection[string], path string) (*Collection[int], error) {
	if path == "" {
		return nil, errors.InvalidBasePathError{}
	}
	parts := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		i := i
		parts[i] = graph.NewNode("sink_text", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[string](inputs[0])
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(path, 0755); err != nil {
				return nil, err
			}
			f, err := os.Create(filepath.Join(path, fmt.Sprintf("%05d", i)))
			if err != nil {
				return nil, err
			}
			bw := bufio.NewWriter(f)
			count := 0
			err = src.each(func(line string) error {
				if _, err := bw.WriteString(line); err != nil {
					return err
				}
				if err := bw.WriteByte('\n'); err != nil {
					return err
				}
				count++
				return nil
			})
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := bw.Flush(); err != nil {
				f.Close()
				return nil, err
			}
			if err := f.Close(); err != nil {
				return nil, err
			}
			return memPartition[int]{vs: []int{count}}, nil
		})
	}
	return newCollection[int](parts, Memory, ""), nil
}
