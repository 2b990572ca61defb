package chordring

import "errors"

// Protocol misuse is rejected with a typed failure, state unchanged.
var (
	ErrAlreadyJoined = errors.New("chordring: node has already joined a ring")
	ErrNotJoined     = errors.New("chordring: node has not joined a ring yet")
)

// RPCError wraps a transient transport failure (timeout, connection
// refused) so callers can distinguish "peer is possibly dead" from a hard
// protocol error without inspecting strings.
type RPCError struct {
	Addr string
	Op   string
	Err  error
}

func (e *RPCError) Error() string {
	return "chordring: rpc " + e.Op + " to " + e.Addr + ": " + e.Err.Error()
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// NewRPCError wraps err as a transient RPC failure, or returns nil if err
// is nil.
func NewRPCError(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	return &RPCError{Addr: addr, Op: op, Err: err}
}
