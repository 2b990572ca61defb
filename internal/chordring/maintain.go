package chordring

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunMaintenance starts the three periodic background protocols — stabilize,
// fix_fingers, check_predecessor — each on its own period, and blocks until
// ctx is cancelled or one of them returns an error. The node's
// mutex is never held across the RPCs each protocol issues; every method
// below reads state under the lock, releases it, calls out, then re-
// acquires only to write results.
func (n *Node) RunMaintenance(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return n.loop(ctx, n.cfg.StabilizeInterval, n.Stabilize) })
	g.Go(func() error { return n.fixFingersLoop(ctx) })
	g.Go(func() error { return n.loop(ctx, n.cfg.CheckPredecessorInterval, n.CheckPredecessor) })

	return g.Wait()
}

// loop runs fn every interval until ctx is cancelled.
func (n *Node) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (n *Node) fixFingersLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.FixFingersInterval)
	defer ticker.Stop()
	next := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.FixFinger(ctx, next)
			next = (next + 1) % n.bits
		}
	}
}

// Stabilize reconciles this node's view of its successor with the
// successor's view of its own predecessor, then notifies the successor
// of this node's existence. If the successor is unreachable, it is left
// unchanged this round — without a successor list this is a known single
// point of failure.
func (n *Node) Stabilize(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.RPCTimeout)
	defer cancel()

	self := n.Self()
	succ := n.Successor()

	var x NodeRef
	if succ.Address == self.Address {
		x = n.Predecessor()
	} else {
		var err error
		x, err = n.transport.GetPredecessor(ctx, succ.Address)
		if err != nil {
			n.log.Warn("stabilize: failed to reach successor", zap.String("successor", succ.Address), zap.Error(err))
			return
		}
	}

	if !x.IsZero() && BetweenOpenOpen(x.ID, self.ID, succ.ID) {
		n.setSuccessor(x)
		succ = x
	}

	if succ.Address == self.Address {
		if err := n.Notify(ctx, self); err != nil {
			n.log.Warn("stabilize: self-notify failed", zap.Error(err))
		}
		return
	}

	if err := n.transport.Notify(ctx, succ.Address, self); err != nil {
		n.log.Warn("stabilize: failed to notify successor", zap.String("successor", succ.Address), zap.Error(err))
	}
}

// Notify is invoked (locally in the single-node case, or over RPC
// otherwise) when candidate believes it might be this node's
// predecessor. If accepted, every locally-stored key that now belongs
// in candidate's range is transferred to it.
func (n *Node) Notify(ctx context.Context, candidate NodeRef) error {
	n.mu.Lock()
	self := n.self
	oldPred := n.predecessor
	accept := oldPred.IsZero() || BetweenOpenOpen(candidate.ID, oldPred.ID, self.ID)
	if accept {
		n.predecessor = candidate
	}
	n.mu.Unlock()

	if !accept {
		return nil
	}

	n.log.Debug("notify: accepted predecessor",
		zap.String("addr", self.Address),
		zap.String("predecessor", candidate.Address))

	n.transferKeysToNewPredecessor(ctx, oldPred, candidate)
	return nil
}

// transferKeysToNewPredecessor moves every key this node owns that falls
// in the new predecessor's range to candidate via put_local.
func (n *Node) transferKeysToNewPredecessor(ctx context.Context, oldPred, candidate NodeRef) {
	self := n.Self()
	for _, key := range n.store.Keys() {
		keyID := HashID(key, n.bits)

		var owned bool
		if oldPred.IsZero() {
			owned = !BetweenOpenClosed(keyID, candidate.ID, self.ID)
		} else {
			owned = BetweenOpenClosed(keyID, oldPred.ID, candidate.ID)
		}
		if !owned {
			continue
		}

		value, ok := n.store.Get(key)
		if !ok {
			continue
		}
		if err := n.transport.PutLocal(ctx, candidate.Address, key, value); err != nil {
			n.log.Warn("notify: key transfer failed",
				zap.String("key", key), zap.String("to", candidate.Address), zap.Error(err))
			continue
		}
		n.store.Delete(key)
	}
}

// FixFinger repairs finger table entry index by re-resolving its start
// id.
func (n *Node) FixFinger(ctx context.Context, index int) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.RPCTimeout)
	defer cancel()

	n.mu.RLock()
	start := n.finger[index].start
	n.mu.RUnlock()

	succ, _, err := n.FindSuccessor(ctx, start)
	if err != nil {
		n.log.Debug("fix_fingers: lookup failed", zap.Int("index", index), zap.Error(err))
		return
	}

	n.mu.Lock()
	n.finger[index].node = succ
	n.mu.Unlock()
}

// CheckPredecessor pings the current predecessor and clears it on
// failure.
func (n *Node) CheckPredecessor(ctx context.Context) {
	pred := n.Predecessor()
	if pred.IsZero() || pred.Address == n.Address() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.RPCTimeout)
	defer cancel()

	if err := n.transport.Ping(ctx, pred.Address); err != nil {
		n.log.Info("check_predecessor: predecessor unreachable, clearing", zap.String("predecessor", pred.Address), zap.Error(err))
		n.setPredecessor(NodeRef{})
	}
}
