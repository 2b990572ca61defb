package chordring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordring/internal/logging"
)

func TestPutGetRoundtripSingleNode(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)
	require.NoError(t, n.Create())

	storageNode, _, err := n.Put(context.Background(), "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, n.Self(), storageNode)

	_, _, value, found, err := n.Get(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "world", value)
}

func TestGetUnknownKeyNotFoundNotError(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)
	require.NoError(t, n.Create())

	_, _, _, found, err := n.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutGetRoutesAcrossRing(t *testing.T) {
	_, nodes := ringOf(t, 3)

	storageNode, _, err := nodes[0].Put(context.Background(), "some-key", "some-value")
	require.NoError(t, err)

	// Whichever node owns "some-key", every other node's Get must route
	// there and see the same value.
	for _, origin := range nodes {
		owner, _, value, found, err := origin.Get(context.Background(), "some-key")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "some-value", value)
		assert.Equal(t, storageNode.Address, owner.Address)
	}
}

func TestPingAlwaysSucceeds(t *testing.T) {
	ft := newFakeTransport()
	n := New("node-a:9000", testConfig(), ft, logging.Nop())
	ft.register(n)
	assert.NoError(t, n.Ping())
}
