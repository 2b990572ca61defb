package chordring

import (
	"context"

	"go.uber.org/zap"
)

// Leave is a best-effort graceful exit: it hands every locally-owned key
// to the successor and re-notifies the successor with this node's
// predecessor, so the ring can adopt the new adjacency without waiting
// for check_predecessor/fix_fingers to notice the gap on their own. It
// does not add replication or a successor list.
func (n *Node) Leave(ctx context.Context) error {
	n.mu.Lock()
	self := n.self
	succ := n.successor
	pred := n.predecessor
	n.mu.Unlock()

	if succ.Address != self.Address {
		for _, key := range n.store.Keys() {
			value, ok := n.store.Get(key)
			if !ok {
				continue
			}
			if err := n.transport.PutLocal(ctx, succ.Address, key, value); err != nil {
				n.log.Warn("leave: key transfer failed", zap.String("key", key), zap.Error(err))
				continue
			}
			n.store.Delete(key)
		}

		if !pred.IsZero() {
			if err := n.transport.Notify(ctx, succ.Address, pred); err != nil {
				n.log.Warn("leave: failed to hand predecessor to successor", zap.Error(err))
			}
		}
	}

	n.mu.Lock()
	n.joined = false
	n.predecessor = NodeRef{}
	n.successor = self
	for i := range n.finger {
		n.finger[i].node = self
	}
	n.mu.Unlock()

	n.log.Info("left ring", zap.String("addr", self.Address))
	return nil
}
