package sheaf

import (
	"github.com/go-sheaf/sheaf/graph"
)

// Map produces a Collection by applying f to every record of c. The partition
// count and per-partition record order are preserved, and no data moves
// between partitions.
func Map[A, B any](c *Collection[A], f MapOperation[A, B]) *Collection[B] {
	kind, dir := c.kind, c.dir
	parts := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		parts[i] = graph.NewNode("map", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			out, err := makeSink[B](kind, dir, tc)
			if err != nil {
				return nil, err
			}
			err = src.each(func(v A) error {
				b, err := safeCall("Map", func() B { return f(v) })
				if err != nil {
					return err
				}
				return out.Add(b)
			})
			if err != nil {
				out.discard()
				return nil, err
			}
			return out.finish()
		})
	}
	return derive[A, B](c, parts)
}

// Filter produces a Collection retaining only the records of c for which f
// returns true, preserving partition count and order.
func (c *Collection[A]) Filter(f FilterOperation[A]) *Collection[A] {
	kind, dir := c.kind, c.dir
	parts := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		parts[i] = graph.NewNode("filter", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			out, err := makeSink[A](kind, dir, tc)
			if err != nil {
				return nil, err
			}
			err = src.each(func(v A) error {
				keep, err := safeCall("Filter", func() bool { return f(v) })
				if err != nil {
					return err
				}
				if !keep {
					return nil
				}
				return out.Add(v)
			})
			if err != nil {
				out.discard()
				return nil, err
			}
			return out.finish()
		})
	}
	return derive[A, A](c, parts)
}

// Flatten produces a Collection of the elements of c's slice-valued records,
// in order, preserving partition count.
func Flatten[A any](c *Collection[[]A]) *Collection[A] {
	kind, dir := c.kind, c.dir
	parts := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		parts[i] = graph.NewNode("flatten", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[[]A](inputs[0])
			if err != nil {
				return nil, err
			}
			out, err := makeSink[A](kind, dir, tc)
			if err != nil {
				return nil, err
			}
			err = src.each(func(vs []A) error {
				for _, v := range vs {
					if err := out.Add(v); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				out.discard()
				return nil, err
			}
			return out.finish()
		})
	}
	return derive[[]A, A](c, parts)
}

// Count produces a single-partition Collection holding the total number of
// records in c. The count stays deferred, so it can feed a later JoinOn (a
// total-line count joined against per-word statistics, for example) without
// being materialized until Run.
func (c *Collection[A]) Count() *Collection[int] {
	if len(c.parts) == 0 {
		zero := graph.Lift("count/collect", memPartition[int]{vs: []int{0}})
		return newCollection[int]([]*graph.Node{zero}, Memory, "")
	}
	lens := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		lens[i] = graph.NewNode("count", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			return src.length(), nil
		})
	}
	total := treeReduce("count/sum", lens, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
		return inputs[0].(int) + inputs[1].(int), nil
	})
	out := graph.NewNode("count/collect", []*graph.Node{total}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
		return memPartition[int]{vs: []int{inputs[0].(int)}}, nil
	})
	return newCollection[int]([]*graph.Node{out}, Memory, "")
}
