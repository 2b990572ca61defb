package chordring

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chordring/internal/config"
)

type fingerEntry struct {
	start uint64
	node  NodeRef
}

// Node is a single Chord peer: its own identity, its view of its
// predecessor/successor/finger table, and the keys it currently owns.
// All mutations to this state go through the methods below, which take
// Node.mu for exactly as long as it takes to read or write the fields —
// never across an outbound RPC.
type Node struct {
	self NodeRef
	bits int
	mod  uint64

	mu          sync.RWMutex
	predecessor NodeRef // zero value means "unset"
	successor   NodeRef
	finger      []fingerEntry
	joined      bool

	store     *Store
	transport Transport
	log       *zap.Logger
	cfg       config.Config
}

// New constructs a Node bound to address but not yet part of any ring;
// call Create or Join before RunMaintenance.
func New(address string, cfg config.Config, transport Transport, log *zap.Logger) *Node {
	self := NodeRef{ID: HashID(address, cfg.HashBits), Address: address}

	finger := make([]fingerEntry, cfg.HashBits)
	for i := range finger {
		finger[i] = fingerEntry{start: FingerStart(self.ID, i, cfg.HashBits), node: self}
	}

	return &Node{
		self:      self,
		bits:      cfg.HashBits,
		mod:       ModSize(cfg.HashBits),
		successor: self,
		finger:    finger,
		store:     newStore(),
		transport: transport,
		log:       log,
		cfg:       cfg,
	}
}

// Self returns this node's own reference.
func (n *Node) Self() NodeRef { return n.self }

// Address returns this node's network address.
func (n *Node) Address() string { return n.self.Address }

// ID returns this node's ring identifier.
func (n *Node) ID() uint64 { return n.self.ID }

// Bits returns the configured ring size m.
func (n *Node) Bits() int { return n.bits }

// Create makes this node the sole member of a fresh ring. Fails if the
// node has already joined a ring.
func (n *Node) Create() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.joined {
		return ErrAlreadyJoined
	}

	n.predecessor = NodeRef{}
	n.successor = n.self
	for i := range n.finger {
		n.finger[i].node = n.self
	}
	n.joined = true

	n.log.Info("ring created", zap.String("addr", n.self.Address), zap.Uint64("id", n.self.ID))
	return nil
}

// Join contacts known and adopts its answer to find_successor(self.id) as
// this node's successor. Fails if already joined.
func (n *Node) Join(ctx context.Context, known string) error {
	n.mu.Lock()
	if n.joined {
		n.mu.Unlock()
		return ErrAlreadyJoined
	}
	self := n.self
	n.mu.Unlock()

	succ, _, err := n.transport.FindSuccessor(ctx, known, self.ID)
	if err != nil {
		return NewRPCError("join:find_successor", known, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.joined {
		return ErrAlreadyJoined
	}
	n.predecessor = NodeRef{}
	n.successor = succ
	n.finger[0].node = succ
	n.joined = true

	n.log.Info("joined ring",
		zap.String("addr", n.self.Address),
		zap.String("via", known),
		zap.String("successor", succ.Address))
	return nil
}

// Joined reports whether Create or Join has run successfully.
func (n *Node) Joined() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.joined
}

// Successor returns the current successor.
func (n *Node) Successor() NodeRef {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.successor
}

// Predecessor returns the current predecessor, or the zero NodeRef if
// unset.
func (n *Node) Predecessor() NodeRef {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.predecessor
}

// setSuccessor updates the successor and keeps finger[0] consistent with
// it.
func (n *Node) setSuccessor(s NodeRef) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successor = s
	n.finger[0].node = s
}

// setPredecessor updates the predecessor. Passing the zero NodeRef
// clears it.
func (n *Node) setPredecessor(p NodeRef) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.predecessor = p
}

// fingerSnapshot returns a copy of the finger table for lock-free
// inspection (used by lookup and by FingerTable).
func (n *Node) fingerSnapshot() []fingerEntry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]fingerEntry, len(n.finger))
	copy(out, n.finger)
	return out
}

// FingerTable returns the address of every finger entry's node, index 0
// first. Debug/introspection helper, not part of the RPC surface proper.
func (n *Node) FingerTable() []string {
	fingers := n.fingerSnapshot()
	addrs := make([]string, len(fingers))
	for i, f := range fingers {
		addrs[i] = f.node.Address
	}
	return addrs
}

// String renders the node's full local state, used for debug logging and
// the /node-info endpoint.
func (n *Node) String() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Node %s (id=%d)\n", n.self.Address, n.self.ID)
	fmt.Fprintf(&b, "  successor:   %s\n", n.successor)
	if n.predecessor.IsZero() {
		b.WriteString("  predecessor: (none)\n")
	} else {
		fmt.Fprintf(&b, "  predecessor: %s\n", n.predecessor)
	}
	b.WriteString("  finger table:\n")
	for i, f := range n.finger {
		fmt.Fprintf(&b, "    [%d] start=%d -> %s\n", i, f.start, f.node)
	}
	return b.String()
}
