package transport

import "chordring/internal/chordring"

// nodeRefWire is the JSON form of a NodeRef. A zero-value Address means
// "no such node" (e.g. no predecessor).
type nodeRefWire struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
}

func toWire(n chordring.NodeRef) nodeRefWire {
	return nodeRefWire{ID: n.ID, Address: n.Address}
}

func fromWire(w nodeRefWire) chordring.NodeRef {
	return chordring.NodeRef{ID: w.ID, Address: w.Address}
}

type findSuccessorResponse struct {
	Successor nodeRefWire `json:"successor"`
	Hops      int         `json:"hops"`
}

type getResponse struct {
	StorageNode nodeRefWire `json:"storage_node"`
	Hops        int         `json:"hops"`
	Value       string      `json:"value"`
	Found       bool        `json:"found"`
}

type putResponse struct {
	StorageNode nodeRefWire `json:"storage_node"`
	Hops        int         `json:"hops"`
}

type getLocalResponse struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

type putLocalRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type joinRequest struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Error string `json:"error"`
}
