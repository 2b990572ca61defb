package chordring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordring/internal/config"
	"chordring/internal/logging"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.HashBits = 8
	cfg.RPCTimeout = time.Second
	return cfg
}

func TestCreateSingleNodeRing(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)

	require.NoError(t, n.Create())
	assert.True(t, n.Joined())
	assert.Equal(t, n.Self(), n.Successor())
	assert.True(t, n.Predecessor().IsZero())
}

func TestCreateTwiceFails(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)

	require.NoError(t, n.Create())
	err := n.Create()
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestJoinResolvesAgainstKnownNodesFindSuccessor(t *testing.T) {
	ft := newFakeTransport()
	a := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(a)

	b := New("node-b:9001", testConfig(), ft, logging.Nop())
	ft.register(b)

	// find_successor resolves locally on node-a regardless of whether it
	// has called Create; join only rejects a *second* join on the caller.
	err := b.Join(context.Background(), "node-a:9000")
	assert.NoError(t, err)
	assert.True(t, b.Joined())
	assert.Equal(t, a.Self(), b.Successor())
}

func TestJoinTwiceFails(t *testing.T) {
	ft := newFakeTransport()
	a := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(a)
	require.NoError(t, a.Create())

	b := New("node-b:9001", testConfig(), ft, logging.Nop())
	ft.register(b)

	require.NoError(t, b.Join(context.Background(), "node-a:9000"))
	err := b.Join(context.Background(), "node-a:9000")
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestFingerTableInitializedToSelf(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)

	table := n.FingerTable()
	assert.Len(t, table, n.Bits())
	for _, addr := range table {
		assert.Equal(t, n.Address(), addr)
	}
}

func TestStringIncludesAddressAndFingerTable(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)
	require.NoError(t, n.Create())

	s := n.String()
	assert.Contains(t, s, "node-a:9000")
	assert.Contains(t, s, "finger table")
}
