package sheaf

import (
	"github.com/go-sheaf/sheaf/graph"
)

// A Pair couples a grouping key with its value or accumulator
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// FoldBy implements grouped aggregation as a map-side combine, a hash
// shuffle, and a per-bucket merge. Each input partition first folds its own
// records into per-key accumulators (zero creates one on first sight of a
// key, add folds each record in), bounding partial state by the number of
// distinct keys in that partition. Partial accumulators are then shuffled by
// key hash into numPartitions buckets, and within each bucket all partials
// sharing a key are merged. merge runs in arbitrary order, so it must be
// commutative and associative for deterministic results.
func FoldBy[A any, K comparable, B any](c *Collection[A], key KeyingOperation[A, K], zero ZeroOperation[B], add FoldOperation[B, A], merge MergeOperation[B], numPartitions int) (*Collection[Pair[K, B]], error) {
	if err := checkPartitionCount(numPartitions); err != nil {
		return nil, err
	}

	// map-side combine: one accumulator table per input partition, never shared
	stage := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		stage[i] = graph.NewNode("fold/combine", []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			accs := make(map[K]B)
			err = src.each(func(v A) error {
				k, err := safeCall("Key", func() K { return key(v) })
				if err != nil {
					return err
				}
				acc, ok := accs[k]
				if !ok {
					acc, err = safeCall("Zero", zero)
					if err != nil {
						return err
					}
				}
				acc, err = safeCall("Fold", func() B { return add(acc, v) })
				if err != nil {
					return err
				}
				accs[k] = acc
				return nil
			})
			if err != nil {
				return nil, err
			}
			buckets := make([][]Pair[K, B], numPartitions)
			for k, b := range accs {
				j := int(hashKey(k) % uint64(numPartitions))
				buckets[j] = append(buckets[j], Pair[K, B]{Key: k, Value: b})
			}
			return buckets, nil
		})
	}

	// merge: one node per output bucket, folding partials by full key equality
	kind, dir := c.kind, c.dir
	out := make([]*graph.Node, numPartitions)
	for j := 0; j < numPartitions; j++ {
		j := j
		out[j] = graph.NewNode("fold/merge", stage, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			merged := make(map[K]B)
			for _, in := range inputs {
				for _, pr := range in.([][]Pair[K, B])[j] {
					cur, ok := merged[pr.Key]
					if !ok {
						merged[pr.Key] = pr.Value
						continue
					}
					next, err := safeCall("Merge", func() B { return merge(cur, pr.Value) })
					if err != nil {
						return nil, err
					}
					merged[pr.Key] = next
				}
			}
			sk, err := makeSink[Pair[K, B]](kind, dir, tc)
			if err != nil {
				return nil, err
			}
			for k, b := range merged {
				if err := sk.Add(Pair[K, B]{Key: k, Value: b}); err != nil {
					sk.discard()
					return nil, err
				}
			}
			return sk.finish()
		})
	}
	return derive[A, Pair[K, B]](c, out), nil
}

// Frequencies counts the occurrences of each distinct value in c, producing
// (value, count) pairs across numPartitions partitions. It is FoldBy with the
// identity key, a zero of 0, an increment, and a sum.
func Frequencies[A comparable](c *Collection[A], numPartitions int) (*Collection[Pair[A, int]], error) {
	return FoldBy(c,
		func(v A) A { return v },
		func() int { return 0 },
		func(n int, _ A) int { return n + 1 },
		func(x, y int) int { return x + y },
		numPartitions)
}
