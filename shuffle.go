package sheaf

import (
	"fmt"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/go-sheaf/sheaf/errors"
	"github.com/go-sheaf/sheaf/graph"
)

// With inspiration from:
// https://blog.cloudera.com/blog/2015/01/improving-sort-performance-in-apache-spark-its-a-double/
// https://github.com/cespare/xxhash

// hashKey produces a deterministic 64-bit hash of a grouping key from its
// canonical formatted representation. Keys whose hashes collide are still
// kept distinct downstream, where full key equality applies.
func hashKey[K comparable](k K) uint64 {
	d := xxhash.New()
	fmt.Fprintf(d, "%v", k)
	return d.Sum64()
}

// checkPartitionCount rejects invalid shuffle widths before any node is created
func checkPartitionCount(numPartitions int) error {
	if numPartitions < 1 {
		return errors.InvalidPartitionCountError{Count: numPartitions}
	}
	return nil
}

// keyedBucketNodes produces one node per input partition, each yielding
// numPartitions buckets of (key, record) pairs routed by the hash of each
// record's key. All records sharing a key land in the same bucket index
// regardless of origin partition. Keys are computed once here and carried
// alongside their records so downstream stages never re-invoke key.
func keyedBucketNodes[A any, K comparable](name string, parts []*graph.Node, numPartitions int, key KeyingOperation[A, K]) []*graph.Node {
	stage := make([]*graph.Node, len(parts))
	for i, p := range parts {
		stage[i] = graph.NewNode(name, []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			buckets := make([][]Pair[K, A], numPartitions)
			err = src.each(func(v A) error {
				k, err := safeCall("Key", func() K { return key(v) })
				if err != nil {
					return err
				}
				j := int(hashKey(k) % uint64(numPartitions))
				buckets[j] = append(buckets[j], Pair[K, A]{Key: k, Value: v})
				return nil
			})
			if err != nil {
				return nil, err
			}
			return buckets, nil
		})
	}
	return stage
}

// regroup redistributes c's records into numPartitions partitions. route maps
// a record's running index within its partition, plus the record itself, to a
// bucket; the result is taken modulo numPartitions.
func regroup[A any](c *Collection[A], name string, numPartitions int, route func(i int, v A) (uint64, error)) *Collection[A] {
	stage := make([]*graph.Node, len(c.parts))
	for i, p := range c.parts {
		stage[i] = graph.NewNode(name, []*graph.Node{p}, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			src, err := asPartition[A](inputs[0])
			if err != nil {
				return nil, err
			}
			buckets := make([][]A, numPartitions)
			idx := 0
			err = src.each(func(v A) error {
				h, err := route(idx, v)
				if err != nil {
					return err
				}
				idx++
				j := int(h % uint64(numPartitions))
				buckets[j] = append(buckets[j], v)
				return nil
			})
			if err != nil {
				return nil, err
			}
			return buckets, nil
		})
	}

	kind, dir := c.kind, c.dir
	out := make([]*graph.Node, numPartitions)
	for j := 0; j < numPartitions; j++ {
		j := j
		out[j] = graph.NewNode(name+"/gather", stage, func(tc *graph.TaskContext, inputs []interface{}) (interface{}, error) {
			sk, err := makeSink[A](kind, dir, tc)
			if err != nil {
				return nil, err
			}
			for _, in := range inputs {
				for _, v := range in.([][]A)[j] {
					if err := sk.Add(v); err != nil {
						return nil, err
					}
				}
			}
			return sk.finish()
		})
	}
	return derive[A, A](c, out)
}

// Split redistributes c's records round-robin into numPartitions partitions,
// balancing load without regard to record contents.
func (c *Collection[A]) Split(numPartitions int) (*Collection[A], error) {
	if err := checkPartitionCount(numPartitions); err != nil {
		return nil, err
	}
	return regroup(c, "split", numPartitions, func(i int, _ A) (uint64, error) {
		return uint64(i), nil
	}), nil
}

// PartitionBy redistributes c's records into numPartitions partitions by the
// hash of each record's key, co-locating all records which share a key.
func PartitionBy[A any, K comparable](c *Collection[A], numPartitions int, key KeyingOperation[A, K]) (*Collection[A], error) {
	if err := checkPartitionCount(numPartitions); err != nil {
		return nil, err
	}
	return regroup(c, "partition_by", numPartitions, func(_ int, v A) (uint64, error) {
		k, err := safeCall("Key", func() K { return key(v) })
		if err != nil {
			return 0, err
		}
		return hashKey(k), nil
	}), nil
}
