package sheaf

import (
	"cmp"
	"slices"
	"sort"

	"github.com/go-sheaf/sheaf/graph"
)

// keys sampled from each input partition when deriving range splitters
const sortSampleSize = 64

// SortBy produces a Collection whose records, read partition by partition in
// partition order, form a single non-decreasing sequence ordered by key. The
// keyspace is range-partitioned using splitters derived from a sample of each
// input partition's keys, records are routed to the partition owning their
// key's range, and each partition is sorted locally with a stable sort. This
// is the one operator whose output partitions have a load-bearing relative
// order (range 0 < range 1 < ...). The partition count is preserved.
func SortBy[A any, K cmp.Ordered](c *Collection[A], key KeyingOperation[A, K]) *Collection[A] {
	kind, dir := c.kind, c.dir
	if len(c.parts) <= 1 {
		out := make([]*graph.Node, len(c.parts))
		for i, p := range c.parts {
			out[i] = localSortNode(kind, dir, p, key)
		}
		return derive[A, A](c, out)
	}

	// stage 1: sample keys from every partition
	samples := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		samples[i] = graph.NewNode("sort/sample", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			stride := src.length() / sortSampleSize
			if stride < 1 {
				stride = 1
			}
			var sampled []K
			idx := 0
			err = src.each(func(v A) error {
				if idx%stride == 0 {
					k, err := safeCall("Key", func() K { return key(v) })
					if err != nil {
						return err
					}
					sampled = append(sampled, k)
				}
				idx++
				return nil
			})
			if err != nil {
				return nil, err
			}
			return sampled, nil
		})
	}

	// splitters: numPartitions-1 quantile boundaries over the pooled sample
	numPartitions := len(c.parts)
	splitters := graph.NewNode("sort/splitters", samples, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
		var pooled []K
		for _, in := range inputs {
			pooled = append(pooled, in.([]K)...)
		}
		slices.Sort(pooled)
		bounds := make([]K, 0, numPartitions-1)
		for i := 1; i < numPartitions; i++ {
			if len(pooled) == 0 {
				break
			}
			bounds = append(bounds, pooled[i*len(pooled)/numPartitions])
		}
		return bounds, nil
	})

	// stage 2: route each record to the range owning its key
	stage := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		stage[i] = graph.NewNode("sort/route", []*graph.Node{p, splitters}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			bounds := inputs[1].([]K)
			buckets := make([][]Pair[K, A], numPartitions)
			err = src.each(func(v A) error {
				k, err := safeCall("Key", func() K { return key(v) })
				if err != nil {
					return err
				}
				j := sort.Search(len(bounds), func(i int) bool { return k <= bounds[i] })
				buckets[j] = append(buckets[j], Pair[K, A]{Key: k, Value: v})
				return nil
			})
			if err != nil {
				return nil, err
			}
			return buckets, nil
		})
	}

	// stage 3: concatenate each range and sort it locally
	out := make([]*graph.Node, numPartitions)
	for j := 0; j < numPartitions; j++ {
		j := j
		out[j] = graph.NewNode("sort/local", stage, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			var pairs []Pair[K, A]
			for _, in := range inputs {
				pairs = append(pairs, in.([][]Pair[K, A])[j]...)
			}
			slices.SortStableFunc(pairs, func(a, b Pair[K, A]) int {
				return cmp.Compare(a.Key, b.Key)
			})
			sk, err := makeSink[A](kind, dir, tc)
			if err != nil {
				return nil, err
			}
			for _, pr := range pairs {
				if err := sk.Add(pr.Value); err != nil {
					sk.discard()
					return nil, err
				}
			}
			return sk.finish()
		})
	}
	return derive[A, A](c, out)
}

// localSortNode sorts a single partition by key without any routing stage
func localSortNode[A any, K cmp.Ordered](kind StorageKind, dir string, p *graph.Node, key KeyingOperation[A, K]) *graph.Node {
	return graph.NewNode("sort/local", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
		src, err := asPartition[A](inputs[0])
		if err != nil {
			return nil, err
		}
		pairs := make([]Pair[K, A], 0, src.length())
		err = src.each(func(v A) error {
			k, err := safeCall("Key", func() K { return key(v) })
			if err != nil {
				return err
			}
			pairs = append(pairs, Pair[K, A]{Key: k, Value: v})
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(pairs, func(a, b Pair[K, A]) int {
			return cmp.Compare(a.Key, b.Key)
		})
		sk, err := makeSink[A](kind, dir, tc)
		if err != nil {
			return nil, err
		}
		for _, pr := range pairs {
			if err := sk.Add(pr.Value); err != nil {
				sk.discard()
				return nil, err
			}
		}
		return sk.finish()
	})
}
