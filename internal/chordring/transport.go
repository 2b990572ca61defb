package chordring

import "context"

// Transport is the set of remote calls a Node issues against its peers
// during lookup and maintenance. Any codec satisfying this interface may
// back a Node — the node logic never depends on HTTP, JSON, or any other
// wire detail. Narrowed to the subset the node itself calls; the
// CLI-only verbs (create, join, get, put, shutdown, leave) live on the
// concrete transport client instead, since only the CLI front end
// issues them.
type Transport interface {
	// Ping checks liveness of the node at addr.
	Ping(ctx context.Context, addr string) error

	// GetPredecessor asks addr for its predecessor. A zero NodeRef means
	// addr currently has none.
	GetPredecessor(ctx context.Context, addr string) (NodeRef, error)

	// FindSuccessor asks addr to resolve id, recursing on addr's side.
	FindSuccessor(ctx context.Context, addr string, id uint64) (succ NodeRef, hops int, err error)

	// Notify tells addr that self may be its new predecessor.
	Notify(ctx context.Context, addr string, self NodeRef) error

	// PutLocal stores (key, value) directly on addr's local store, used
	// for both the storage dispatcher and notify-driven key transfer.
	PutLocal(ctx context.Context, addr, key, value string) error

	// GetLocal reads key directly from addr's local store, used by the
	// storage dispatcher's Get when routing lands on a remote node.
	GetLocal(ctx context.Context, addr, key string) (value string, found bool, err error)
}
