package chordring

import (
	"context"
	"fmt"
	"sync"
)

// fakeTransport routes every call directly to an in-process Node
// registered under the target address, so multi-node ring behavior can
// be exercised without sockets.
type fakeTransport struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nodes: make(map[string]*Node)}
}

func (f *fakeTransport) register(n *Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[n.Address()] = n
}

func (f *fakeTransport) lookup(addr string) (*Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, ok := f.nodes[addr]
	if !ok {
		return nil, fmt.Errorf("fake transport: no node at %s", addr)
	}
	return n, nil
}

func (f *fakeTransport) Ping(ctx context.Context, addr string) error {
	_, err := f.lookup(addr)
	return err
}

func (f *fakeTransport) GetPredecessor(ctx context.Context, addr string) (NodeRef, error) {
	n, err := f.lookup(addr)
	if err != nil {
		return NodeRef{}, err
	}
	return n.Predecessor(), nil
}

func (f *fakeTransport) FindSuccessor(ctx context.Context, addr string, id uint64) (NodeRef, int, error) {
	n, err := f.lookup(addr)
	if err != nil {
		return NodeRef{}, 0, err
	}
	return n.FindSuccessor(ctx, id)
}

func (f *fakeTransport) Notify(ctx context.Context, addr string, self NodeRef) error {
	n, err := f.lookup(addr)
	if err != nil {
		return err
	}
	return n.Notify(ctx, self)
}

func (f *fakeTransport) PutLocal(ctx context.Context, addr, key, value string) error {
	n, err := f.lookup(addr)
	if err != nil {
		return err
	}
	n.PutLocal(key, value)
	return nil
}

func (f *fakeTransport) GetLocal(ctx context.Context, addr, key string) (string, bool, error) {
	n, err := f.lookup(addr)
	if err != nil {
		return "", false, err
	}
	value, found := n.GetLocal(key)
	return value, found, nil
}

var _ Transport = (*fakeTransport)(nil)
