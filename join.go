package sheaf

import (
	"github.com/go-sheaf/sheaf/graph"
)

// JoinOn equi-joins two Collections, which may hold different element types.
// Each side is independently shuffled into numPartitions buckets by the hash
// of its own key function, so matching keys land in the same bucket index on
// both sides. Within a bucket the right side is indexed by key and probed
// with the left side's records; every matching pair is passed to combine, so
// multiple matches per key yield the full cross product. A constant key
// function on both sides therefore implements a broadcast join between a
// singleton and a many-valued side. Output storage kind follows the left side.
func JoinOn[A, B any, K comparable, C any](left *Collection[A], right *Collection[B], leftKey KeyingOperation[A, K], rightKey KeyingOperation[B, K], combine CombineOperation[A, B, C], numPartitions int) (*Collection[C], error) {
	if err := checkPartitionCount(numPartitions); err != nil {
		return nil, err
	}

	lstage := keyedBucketNodes("join/left", left.parts, numPartitions, leftKey)
	rstage := keyedBucketNodes("join/right", right.parts, numPartitions, rightKey)
	deps := make([]*graph.Node, 0, len(lstage)+len(rstage))
	deps = append(deps, lstage...)
	deps = append(deps, rstage...)

	kind, dir := left.kind, left.dir
	nleft := len(lstage)
	out := make([]*graph.Node, numPartitions)
	for j := 0; j < numPartitions; j++ {
		j := j
		out[j] = graph.NewNode("join/probe", deps, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			// build the index over the right side, probe with the left
			index := make(map[K][]B)
			for _, in := range inputs[nleft:] {
				for _, pr := range in.([][]Pair[K, B])[j] {
					index[pr.Key] = append(index[pr.Key], pr.Value)
				}
			}
			sk, err := makeSink[C](kind, dir, tc)
			if err != nil {
				return nil, err
			}
			for _, in := range inputs[:nleft] {
				for _, pr := range in.([][]Pair[K, A])[j] {
					for _, rv := range index[pr.Key] {
						lv := pr.Value
						rv := rv
						cv, err := safeCall("Combine", func() C { return combine(lv, rv) })
						if err != nil {
							sk.discard()
							return nil, err
						}
						if err := sk.Add(cv); err != nil {
							sk.discard()
							return nil, err
						}
					}
				}
			}
			return sk.finish()
		})
	}
	return derive[A, C](left, out), nil
}
