package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrShutdownRequested is returned by ListenAndServe when the server stops
// because a `/shutdown` RPC was received, rather than because the caller's
// ctx was cancelled. Callers coordinating several goroutines (an errgroup
// running the server alongside a node's maintenance loops) can treat it as
// a clean, voluntary exit.
var ErrShutdownRequested = errors.New("transport: shutdown requested via RPC")

// Server is the RPC server half of the transport abstraction: an
// http.Server dispatching the ring's RPC endpoints into a bound
// NodeHandler. It also exposes sim-crash/sim-recover hooks for
// fault-injection tests, toggled through crashMiddleware.
type Server struct {
	addr       string
	node       NodeHandler
	log        *zap.Logger
	httpServer *http.Server
	inactive   atomic.Bool

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewServer builds a Server bound to node, listening on addr.
func NewServer(addr string, node NodeHandler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{addr: addr, node: node, log: log, shutdownCh: make(chan struct{})}

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/successor", s.handleSuccessor)
	mux.HandleFunc("/predecessor", s.handlePredecessor)
	mux.HandleFunc("/find-successor", s.handleFindSuccessor)
	mux.HandleFunc("/closest-preceding-finger", s.handleClosestPrecedingFinger)
	mux.HandleFunc("/create", s.handleCreate)
	mux.HandleFunc("/join", s.handleJoin)
	mux.HandleFunc("/leave", s.handleLeave)
	mux.HandleFunc("/shutdown", s.handleShutdown)
	mux.HandleFunc("/local/", s.handleLocal)
	mux.HandleFunc("/storage/", s.handleStorage)
	mux.HandleFunc("/node-info", s.handleNodeInfo)
	mux.HandleFunc("/sim-crash", s.handleSimCrash)
	mux.HandleFunc("/sim-recover", s.handleSimRecover)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.crashMiddleware(s.logMiddleware(mux)),
	}
	return s
}

// triggerShutdown wakes ListenAndServe's select loop so it closes the
// listener and returns, even though the caller's ctx is still live. Safe
// to call more than once or concurrently.
func (s *Server) triggerShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

// crashMiddleware refuses every request but /sim-recover while the node
// has been flagged inactive, for fault-injection tests that need a node
// to go dark without actually killing the process.
func (s *Server) crashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sim-recover" {
			next.ServeHTTP(w, r)
			return
		}
		if s.inactive.Load() {
			writeError(w, http.StatusServiceUnavailable, fmt.Errorf("node is simulating a crash"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("rpc",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// ListenAndServe blocks serving the bound address until ctx is cancelled
// or a `/shutdown` RPC arrives, then shuts down gracefully. In the latter
// case it returns ErrShutdownRequested so a caller running this alongside
// other goroutines (e.g. under an errgroup) can cancel them too.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return s.closeGracefully()
	case <-s.shutdownCh:
		if err := s.closeGracefully(); err != nil {
			return err
		}
		return ErrShutdownRequested
	case err := <-errCh:
		return err
	}
}

func (s *Server) closeGracefully() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down transport server: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func parseID(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := s.node.Ping(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSuccessor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	writeJSON(w, toWire(s.node.Successor()))
}

func (s *Server) handlePredecessor(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, toWire(s.node.Predecessor()))
	case http.MethodPut:
		var w2 nodeRefWire
		if err := json.NewDecoder(r.Body).Decode(&w2); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.node.Notify(r.Context(), fromWire(w2)); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (s *Server) handleFindSuccessor(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	succ, hops, err := s.node.FindSuccessor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, findSuccessorResponse{Successor: toWire(succ), Hops: hops})
}

func (s *Server) handleClosestPrecedingFinger(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, toWire(s.node.ClosestPrecedingFinger(id)))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if err := s.node.Create(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.node.Join(r.Context(), req.Address); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleShutdown terminates the maintenance loops and closes the RPC
// server; no key transfer-out is performed. Subsequent RPCs to this node
// fail once the listener closes.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	w.WriteHeader(http.StatusOK)
	s.triggerShutdown()
}

// handleLeave is a best-effort graceful exit: it hands this node's keys
// to its successor and resets it to a lone, unjoined node, but leaves the
// RPC server itself running.
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if err := s.node.Leave(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLocal(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/local/"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing key"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		value, found := s.node.GetLocal(key)
		writeJSON(w, getLocalResponse{Value: value, Found: found})
	case http.MethodPut:
		var req putLocalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.node.PutLocal(key, req.Value)
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/storage/"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing key"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		node, hops, value, found, err := s.node.Get(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, getResponse{StorageNode: toWire(node), Hops: hops, Value: value, Found: found})
	case http.MethodPut:
		var value string
		if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		node, hops, err := s.node.Put(r.Context(), key, value)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, putResponse{StorageNode: toWire(node), Hops: hops})
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

type nodeInfoResponse struct {
	Address     string      `json:"address"`
	ID          uint64      `json:"id"`
	Bits        int         `json:"bits"`
	Joined      bool        `json:"joined"`
	Successor   nodeRefWire `json:"successor"`
	Predecessor nodeRefWire `json:"predecessor"`
	FingerTable []string    `json:"finger_table"`
}

func (s *Server) handleNodeInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, nodeInfoResponse{
		Address:     s.node.Address(),
		ID:          s.node.ID(),
		Bits:        s.node.Bits(),
		Joined:      s.node.Joined(),
		Successor:   toWire(s.node.Successor()),
		Predecessor: toWire(s.node.Predecessor()),
		FingerTable: s.node.FingerTable(),
	})
}

func (s *Server) handleSimCrash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	s.inactive.Store(true)
	s.log.Info("sim-crash: node now refusing requests", zap.String("addr", s.addr))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSimRecover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	s.inactive.Store(false)
	s.log.Info("sim-recover: node accepting requests again", zap.String("addr", s.addr))
	w.WriteHeader(http.StatusOK)
}
