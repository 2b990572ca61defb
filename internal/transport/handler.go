// Package transport implements the Chord RPC surface over HTTP and JSON:
// a stateless Client issuing calls against remote peers, and a Server
// dispatching inbound calls into a bound NodeHandler.
package transport

import (
	"context"

	"chordring/internal/chordring"
)

// NodeHandler is everything the HTTP server dispatches requests into.
// chordring.Node satisfies it; the interface exists so the transport
// package never imports concrete node internals, keeping node logic
// transport-agnostic.
type NodeHandler interface {
	Address() string
	ID() uint64
	Bits() int
	Joined() bool

	Successor() chordring.NodeRef
	Predecessor() chordring.NodeRef
	FindSuccessor(ctx context.Context, id uint64) (chordring.NodeRef, int, error)
	ClosestPrecedingFinger(id uint64) chordring.NodeRef
	Notify(ctx context.Context, candidate chordring.NodeRef) error

	Create() error
	Join(ctx context.Context, known string) error
	Leave(ctx context.Context) error

	GetLocal(key string) (string, bool)
	PutLocal(key, value string)
	Get(ctx context.Context, key string) (chordring.NodeRef, int, string, bool, error)
	Put(ctx context.Context, key, value string) (chordring.NodeRef, int, error)

	Ping() error
	FingerTable() []string
	String() string
}

var _ NodeHandler = (*chordring.Node)(nil)
