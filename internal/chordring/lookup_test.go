package chordring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordring/internal/logging"
)

// ringOf builds a chain of n nodes joined in address order and lets
// stabilize run until every node's successor/predecessor settles.
func ringOf(t *testing.T, n int) (*fakeTransport, []*Node) {
	t.Helper()
	ft := newFakeTransport()
	nodes := make([]*Node, n)

	for i := 0; i < n; i++ {
		addr := ringAddr(i)
		node := New(addr, testConfig(), ft, logging.Nop())
		ft.register(node)
		nodes[i] = node
	}

	require.NoError(t, nodes[0].Create())
	for i := 1; i < n; i++ {
		require.NoError(t, nodes[i].Join(context.Background(), nodes[0].Address()))
	}

	// Run enough stabilize rounds for the ring to converge without a
	// background ticker.
	for round := 0; round < n*4; round++ {
		for _, node := range nodes {
			node.Stabilize(context.Background())
		}
	}

	return ft, nodes
}

func ringAddr(i int) string {
	return []string{
		"node-0:9000", "node-1:9001", "node-2:9002", "node-3:9003", "node-4:9004",
	}[i]
}

func TestClosestPrecedingFingerReturnsSelfWhenNoFingerQualifies(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)
	require.NoError(t, n.Create())

	got := n.ClosestPrecedingFinger(n.ID())
	assert.Equal(t, n.Self(), got)
}

func TestFindSuccessorSingleNodeRing(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)
	require.NoError(t, n.Create())

	succ, hops, err := n.FindSuccessor(context.Background(), n.ID()+1)
	require.NoError(t, err)
	assert.Equal(t, n.Self(), succ)
	assert.Equal(t, 1, hops)
}

func TestFindSuccessorConvergesAcrossRing(t *testing.T) {
	_, nodes := ringOf(t, 3)

	for _, origin := range nodes {
		for _, target := range nodes {
			succ, hops, err := origin.FindSuccessor(context.Background(), target.ID())
			require.NoError(t, err)
			assert.Equal(t, target.Self(), succ)
			assert.GreaterOrEqual(t, hops, 1)
		}
	}
}
