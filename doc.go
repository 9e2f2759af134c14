// Package sheaf contains the core components of Sheaf, a library for batch
// processing of partitioned datasets. Collections compile chains of
// transformations (map, grouped fold, join, sort, disk-backed emit) into a
// deferred computation graph which a graph.Scheduler later executes, so this
// root package is an excellent overview of Sheaf's key concepts.
package sheaf
