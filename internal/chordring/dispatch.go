package chordring

import "context"

// PutLocal stores (key, value) in this node's local store only, with no
// routing. Used directly by the storage dispatcher and by notify-driven
// transfer inflow.
func (n *Node) PutLocal(key, value string) {
	n.store.Put(key, value)
}

// GetLocal reads key from this node's local store only, with no routing.
func (n *Node) GetLocal(key string) (value string, found bool) {
	return n.store.Get(key)
}

// Put hashes key, routes to its owning node, and stores (key, value)
// there.
func (n *Node) Put(ctx context.Context, key, value string) (NodeRef, int, error) {
	id := HashID(key, n.bits)
	target, hops, err := n.FindSuccessor(ctx, id)
	if err != nil {
		return NodeRef{}, 0, err
	}

	if target.Address == n.Address() {
		n.PutLocal(key, value)
		return target, hops, nil
	}
	if err := n.transport.PutLocal(ctx, target.Address, key, value); err != nil {
		return NodeRef{}, 0, NewRPCError("put_local", target.Address, err)
	}
	return target, hops, nil
}

// Get hashes key, routes to its owning node, and reads (key) there.
func (n *Node) Get(ctx context.Context, key string) (NodeRef, int, string, bool, error) {
	id := HashID(key, n.bits)
	target, hops, err := n.FindSuccessor(ctx, id)
	if err != nil {
		return NodeRef{}, 0, "", false, err
	}

	if target.Address == n.Address() {
		value, found := n.GetLocal(key)
		return target, hops, value, found, nil
	}

	value, found, err := n.transport.GetLocal(ctx, target.Address, key)
	if err != nil {
		return NodeRef{}, 0, "", false, NewRPCError("get_local", target.Address, err)
	}
	return target, hops, value, found, nil
}

// Ping is the liveness RPC: if a node can execute this at all, it is
// alive.
func (n *Node) Ping() error {
	return nil
}
