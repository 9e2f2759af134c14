package errors

import (
	"fmt"
)

// InvalidPartitionCountError occurs when an operator is asked to produce fewer than one partition
type InvalidPartitionCountError struct{ Count int }

// Error returns a textual representation of this InvalidPartitionCountError
func (e InvalidPartitionCountError) Error() string {
	return fmt.Sprintf("Partition count %d must be at least 1", e.Count)
}

// InvalidChunkSizeError occurs when a datasource is asked to chunk its input into fewer than one byte per chunk
type InvalidChunkSizeError struct{ Size int }

// Error returns a textual representation of this InvalidChunkSizeError
func (e InvalidChunkSizeError) Error() string {
	return fmt.Sprintf("Chunk size %d must be at least 1 byte", e.Size)
}

// InvalidBasePathError occurs when a disk-backed operator receives an empty base path
type InvalidBasePathError struct{}

// Error returns a textual representation of this InvalidBasePathError
func (e InvalidBasePathError) Error() string {
	return "Base path for disk-backed partitions must not be empty"
}

// MissingInputError occurs when a datasource path does not exist or cannot be read
type MissingInputError struct {
	Path string
	Err  error
}

// Error returns a textual representation of this MissingInputError
func (e MissingInputError) Error() string {
	return fmt.Sprintf("Input %s cannot be read: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error for this MissingInputError
func (e MissingInputError) Unwrap() error {
	return e.Err
}

// NodeFailedError occurs when a graph node's computation fails during scheduled execution
type NodeFailedError struct {
	Name string
	Err  error
}

// Error returns a textual representation of this NodeFailedError
func (e NodeFailedError) Error() string {
	return fmt.Sprintf("Node %s failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying computation error for this NodeFailedError
func (e NodeFailedError) Unwrap() error {
	return e.Err
}

// IncompatiblePartitionError occurs when a node's dependency materializes a partition of an unexpected type
type IncompatiblePartitionError struct{ Value interface{} }

// Error returns a textual representation of this IncompatiblePartitionError
func (e IncompatiblePartitionError) Error() string {
	return fmt.Sprintf("Materialized value %T is not a partition of the expected element type", e.Value)
}
