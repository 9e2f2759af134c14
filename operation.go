package sheaf

// MapOperation - A generic function for deriving a new record from an existing one
type MapOperation[A, B any] func(A) B

// FilterOperation - A generic function for determining whether or not a record should be retained
type FilterOperation[A any] func(A) bool

// KeyingOperation - A generic function for deriving a grouping key from a record
type KeyingOperation[A any, K comparable] func(A) K

// ZeroOperation - A generic function producing a fresh accumulator for a newly seen key
type ZeroOperation[B any] func() B

// FoldOperation - A generic function folding one record into an accumulator, returning the updated accumulator
type FoldOperation[B, A any] func(B, A) B

// MergeOperation - A generic function merging two partial accumulators for one key. Partial
// accumulators are merged in arbitrary order, so a MergeOperation must be commutative and
// associative for results to be deterministic.
type MergeOperation[B any] func(B, B) B

// CombineOperation - A generic function combining one matching record from each side of a join
type CombineOperation[A, B, C any] func(A, B) C

// EmitOperation - A generic function fanning one record out into zero or more derived values,
// each passed to the supplied Sink
type EmitOperation[A, B any] func(A, Sink[B]) error

// A Sink accepts derived values produced by an EmitOperation
type Sink[B any] interface {
	// Add appends one value to the Sink's output partition
	Add(v B) error
}
