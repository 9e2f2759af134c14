package graph

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/go-sheaf/sheaf/errors"
)

func add(tc *TaskContext, inputs []interface{}) (interface{}, error) {
	sum := 0
	for _, in := range inputs {
		sum += in.(int)
	}
	return sum, nil
}

func TestLift(t *testing.T) {
	n := Lift("lift", 42)
	for _, s := range []Scheduler{&Serial{}, &Greedy{}} {
		v, err := s.Run(context.Background(), n)
		require.Nil(t, err)
		require.Equal(t, 42, v)
	}
}

func TestNodeIdentity(t *testing.T) {
	a := Lift("lift", 1)
	b := Lift("lift", 1)
	require.NotEqual(t, a.ID(), b.ID())
	c := NewNode("add", []*Node{a, b}, add)
	require.NotEqual(t, a.ID(), c.ID())
	require.Equal(t, "add", c.Name())
	require.Len(t, c.Deps(), 2)
}

func TestSharedNodesComputeOnce(t *testing.T) {
	var calls int32
	base := NewNode("base", nil, func(tc *TaskContext, _ []interface{}) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return 10, nil
	})
	// diamond: both branches depend on base
	left := NewNode("add", []*Node{base}, add)
	right := NewNode("add", []*Node{base}, add)
	root := NewNode("add", []*Node{left, right}, add)
	v, err := (&Serial{}).Run(context.Background(), root)
	require.Nil(t, err)
	require.Equal(t, 20, v)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, 0)
	v, err = (&Greedy{MaxConcurrency: 4}).Run(context.Background(), root)
	require.Nil(t, err)
	require.Equal(t, 20, v)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGreedyMatchesSerial(t *testing.T) {
	defer goleak.VerifyNone(t)
	leaves := make([]*Node, 16)
	for i := range leaves {
		leaves[i] = Lift("lift", i)
	}
	nodes := leaves
	for len(nodes) > 1 {
		var next []*Node
		for i := 0; i+1 < len(nodes); i += 2 {
			next = append(next, NewNode("add", []*Node{nodes[i], nodes[i+1]}, add))
		}
		nodes = next
	}
	want, err := (&Serial{}).Run(context.Background(), nodes[0])
	require.Nil(t, err)
	got, err := (&Greedy{MaxConcurrency: 3}).Run(context.Background(), nodes[0])
	require.Nil(t, err)
	require.Equal(t, want, got)
	require.Equal(t, 120, got)
}

func TestFailurePropagation(t *testing.T) {
	defer goleak.VerifyNone(t)
	bad := NewNode("bad", nil, func(tc *TaskContext, _ []interface{}) (interface{}, error) {
		return nil, fmt.Errorf("input file missing")
	})
	mid := NewNode("add", []*Node{bad, Lift("lift", 1)}, add)
	root := NewNode("add", []*Node{mid}, add)
	for _, s := range []Scheduler{&Serial{}, &Greedy{MaxConcurrency: 2}} {
		v, err := s.Run(context.Background(), root)
		require.Nil(t, v)
		require.NotNil(t, err)
		require.Contains(t, err.Error(), "input file missing")
	}
}

func TestPanicsBecomeErrors(t *testing.T) {
	defer goleak.VerifyNone(t)
	boom := NewNode("boom", nil, func(tc *TaskContext, _ []interface{}) (interface{}, error) {
		panic("bad record")
	})
	for _, s := range []Scheduler{&Serial{}, &Greedy{}} {
		_, err := s.Run(context.Background(), boom)
		require.NotNil(t, err)
		nfe := errors.NodeFailedError{}
		require.ErrorAs(t, err, &nfe)
		require.Equal(t, "boom", nfe.Name)
	}
}

func TestGreedyCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Greedy{}).Run(ctx, Lift("lift", 1))
	require.NotNil(t, err)
}

func TestTaskContext(t *testing.T) {
	n := NewNode("probe", nil, func(tc *TaskContext, _ []interface{}) (interface{}, error) {
		require.Equal(t, "probe", tc.NodeName())
		require.NotNil(t, tc.Context())
		return tc.NodeID(), nil
	})
	v, err := (&Serial{}).Run(context.Background(), n)
	require.Nil(t, err)
	require.Equal(t, n.ID(), v)
}
