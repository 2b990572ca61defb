package chordring

import "context"

// FindSuccessor resolves id to the NodeRef responsible for it, recursing
// across peers as needed. hops counts every node visited, including
// this one, for observability.
func (n *Node) FindSuccessor(ctx context.Context, id uint64) (NodeRef, int, error) {
	n.mu.RLock()
	self := n.self
	succ := n.successor
	n.mu.RUnlock()

	if BetweenOpenClosed(id, self.ID, succ.ID) {
		return succ, 1, nil
	}

	next := n.ClosestPrecedingFinger(id)
	if next.Address == self.Address {
		// No finger brings us closer than our own successor.
		return succ, 1, nil
	}

	succ, hops, err := n.transport.FindSuccessor(ctx, next.Address, id)
	if err != nil {
		return NodeRef{}, 0, NewRPCError("find_successor", next.Address, err)
	}
	return succ, hops + 1, nil
}

// ClosestPrecedingFinger scans the finger table from the highest index
// down and returns the first entry strictly between self and id.
// Returns self if no finger qualifies.
func (n *Node) ClosestPrecedingFinger(id uint64) NodeRef {
	fingers := n.fingerSnapshot()
	self := n.Self()

	for i := len(fingers) - 1; i >= 0; i-- {
		candidate := fingers[i].node
		if candidate.IsZero() {
			continue
		}
		if BetweenOpenOpen(candidate.ID, self.ID, id) {
			return candidate
		}
	}
	return self
}
