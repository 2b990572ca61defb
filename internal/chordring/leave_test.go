package chordring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordring/internal/logging"
)

func TestLeaveResetsToSingleNodeState(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)
	require.NoError(t, n.Create())

	require.NoError(t, n.Leave(context.Background()))
	assert.False(t, n.Joined())
	assert.Equal(t, n.Self(), n.Successor())
	assert.True(t, n.Predecessor().IsZero())
	for _, addr := range n.FingerTable() {
		assert.Equal(t, n.Address(), addr)
	}
}

func TestLeaveTransfersKeysToSuccessor(t *testing.T) {
	ft := newFakeTransport()
	a := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(a)
	require.NoError(t, a.Create())

	b := New("node-b:9001", testConfig(), ft, logging.Nop())
	ft.register(b)
	require.NoError(t, b.Join(context.Background(), "node-a:9000"))

	for i := 0; i < 5; i++ {
		a.Stabilize(context.Background())
		b.Stabilize(context.Background())
	}

	a.PutLocal("a-owned-key", "value")
	require.NoError(t, a.Leave(context.Background()))

	value, found := b.GetLocal("a-owned-key")
	assert.True(t, found)
	assert.Equal(t, "value", value)
}
