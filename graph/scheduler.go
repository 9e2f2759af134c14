package graph

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"

	"github.com/go-sheaf/sheaf/errors"
	"github.com/go-sheaf/sheaf/internal/util"
	"github.com/go-sheaf/sheaf/logging"
)

// A Scheduler executes the graph rooted at a Node, returning the root's
// materialized value, or an error if any reachable Node failed.
type Scheduler interface {
	Run(ctx context.Context, root *Node) (interface{}, error)
}

// execute runs a single Node's TaskFn, recovering panics into errors so a
// failing computation poisons its dependents instead of crashing the process.
func execute(ctx context.Context, n *Node, inputs []interface{}) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = fmt.Errorf("Task Panic: %w\n%s", anErr, util.GetTrace())
			} else {
				err = fmt.Errorf("Task Panic: %v\n%s", r, util.GetTrace())
			}
		}
		if err != nil {
			err = errors.NodeFailedError{Name: n.name, Err: err}
		}
	}()
	tc := &TaskContext{ctx: ctx, node: n}
	value, err = n.fn(tc, inputs)
	return
}

// Serial is a Scheduler which executes Nodes one at a time on the calling
// goroutine, in dependency order.
type Serial struct{}

// Run executes the graph rooted at root, memoizing each Node's value by
// identity so shared subgraphs compute once.
func (s *Serial) Run(ctx context.Context, root *Node) (interface{}, error) {
	values := make(map[uint64]interface{})
	for _, n := range topoSort(root) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inputs := make([]interface{}, len(n.deps))
		for i, d := range n.deps {
			inputs[i] = values[d.id]
		}
		value, err := execute(ctx, n, inputs)
		if err != nil {
			logging.Logf(logging.ErrorLevel, "%v", err)
			return nil, err
		}
		values[n.id] = value
	}
	return values[root.id], nil
}

// Greedy is a Scheduler which launches every Node as soon as its dependencies
// are satisfied, bounding parallelism with a weighted semaphore.
type Greedy struct {
	// MaxConcurrency caps the number of Nodes executing at once. Values less
	// than one fall back to the number of usable CPUs.
	MaxConcurrency int
}

type cell struct {
	done  chan struct{}
	value interface{}
	err   error
}

// Run executes the graph rooted at root with bounded parallelism. The first
// Node failure cancels outstanding work; failures which raced to completion
// are aggregated into a single multierror.
func (g *Greedy) Run(ctx context.Context, root *Node) (interface{}, error) {
	limit := g.MaxConcurrency
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	sem := semaphore.NewWeighted(int64(limit))
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	order := topoSort(root)
	cells := make(map[uint64]*cell, len(order))
	for _, n := range order {
		cells[n.id] = &cell{done: make(chan struct{})}
	}

	var wg sync.WaitGroup
	var merrLock sync.Mutex
	var merr *multierror.Error
	for _, n := range order {
		n := n
		c := cells[n.id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(c.done)
			inputs := make([]interface{}, len(n.deps))
			for i, d := range n.deps {
				dc := cells[d.id]
				select {
				case <-dc.done:
				case <-cctx.Done():
					c.err = cctx.Err()
					return
				}
				if dc.err != nil {
					// poisoned by an upstream failure
					c.err = dc.err
					return
				}
				inputs[i] = dc.value
			}
			if err := sem.Acquire(cctx, 1); err != nil {
				c.err = err
				return
			}
			defer sem.Release(1)
			c.value, c.err = execute(cctx, n, inputs)
			if c.err != nil {
				logging.Logf(logging.ErrorLevel, "%v", c.err)
				merrLock.Lock()
				merr = multierror.Append(merr, c.err)
				merrLock.Unlock()
				cancel()
			}
		}()
	}
	wg.Wait()

	if err := merr.ErrorOrNil(); err != nil {
		logging.Logf(logging.DebugLevel, "run failed:\n%s", util.FormatMultiError(merr.Errors))
		return nil, err
	}
	rc := cells[root.id]
	if rc.err != nil {
		return nil, rc.err
	}
	return rc.value, nil
}
