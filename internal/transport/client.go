package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chordring/internal/chordring"
)

// Client is the stateless RPC client half of the transport: given an
// address and a method, it issues the call and returns the decoded
// result or a failure. It implements chordring.Transport, so a Node can
// use it directly as its outbound transport.
type Client struct {
	http *http.Client
	log  *zap.Logger
}

// NewClient builds an RPC client. log may be nil, in which case a no-op
// logger is used.
func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: &http.Client{}, log: log}
}

func (c *Client) do(ctx context.Context, method, addr, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, "http://"+addr+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody errorResponse
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, errBody.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", addr, err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

// Ping checks liveness (`ping`).
func (c *Client) Ping(ctx context.Context, addr string) error {
	return c.do(ctx, http.MethodGet, addr, "/ping", nil, nil)
}

// GetSuccessor returns addr's successor (`get_successor`).
func (c *Client) GetSuccessor(ctx context.Context, addr string) (chordring.NodeRef, error) {
	var w nodeRefWire
	if err := c.do(ctx, http.MethodGet, addr, "/successor", nil, &w); err != nil {
		return chordring.NodeRef{}, err
	}
	return fromWire(w), nil
}

// GetPredecessor returns addr's predecessor, or the zero NodeRef if
// unset (`get_predecessor`).
func (c *Client) GetPredecessor(ctx context.Context, addr string) (chordring.NodeRef, error) {
	var w nodeRefWire
	if err := c.do(ctx, http.MethodGet, addr, "/predecessor", nil, &w); err != nil {
		return chordring.NodeRef{}, err
	}
	return fromWire(w), nil
}

// FindSuccessor asks addr to resolve id (`find_successor`).
func (c *Client) FindSuccessor(ctx context.Context, addr string, id uint64) (chordring.NodeRef, int, error) {
	path := "/find-successor?id=" + url.QueryEscape(strconv.FormatUint(id, 10))
	var resp findSuccessorResponse
	if err := c.do(ctx, http.MethodGet, addr, path, nil, &resp); err != nil {
		return chordring.NodeRef{}, 0, err
	}
	return fromWire(resp.Successor), resp.Hops, nil
}

// ClosestPrecedingFinger asks addr for its closest preceding finger to
// id (`closest_preceding_finger`, optional to expose — kept for
// debugging and tests).
func (c *Client) ClosestPrecedingFinger(ctx context.Context, addr string, id uint64) (chordring.NodeRef, error) {
	path := "/closest-preceding-finger?id=" + url.QueryEscape(strconv.FormatUint(id, 10))
	var w nodeRefWire
	if err := c.do(ctx, http.MethodGet, addr, path, nil, &w); err != nil {
		return chordring.NodeRef{}, err
	}
	return fromWire(w), nil
}

// Notify tells addr that self may be its new predecessor (`notify`).
func (c *Client) Notify(ctx context.Context, addr string, self chordring.NodeRef) error {
	body, err := jsonBody(toWire(self))
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, addr, "/predecessor", body, nil)
}

// Create tells addr to create a fresh ring (`create`).
func (c *Client) Create(ctx context.Context, addr string) error {
	return c.do(ctx, http.MethodPost, addr, "/create", nil, nil)
}

// Join tells addr to join the ring known through known (`join`).
func (c *Client) Join(ctx context.Context, addr, known string) error {
	body, err := jsonBody(joinRequest{Address: known})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, addr, "/join", body, nil)
}

// GetLocal reads key from addr's local store only (`get_local`).
func (c *Client) GetLocal(ctx context.Context, addr, key string) (string, bool, error) {
	var resp getLocalResponse
	if err := c.do(ctx, http.MethodGet, addr, "/local/"+url.PathEscape(key), nil, &resp); err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

// PutLocal stores (key, value) in addr's local store only (`put_local`).
func (c *Client) PutLocal(ctx context.Context, addr, key, value string) error {
	body, err := jsonBody(putLocalRequest{Key: key, Value: value})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, addr, "/local/"+url.PathEscape(key), body, nil)
}

// Get routes key to its owning node and reads it there (`get`).
func (c *Client) Get(ctx context.Context, addr, key string) (chordring.NodeRef, int, string, bool, error) {
	var resp getResponse
	if err := c.do(ctx, http.MethodGet, addr, "/storage/"+url.PathEscape(key), nil, &resp); err != nil {
		return chordring.NodeRef{}, 0, "", false, err
	}
	return fromWire(resp.StorageNode), resp.Hops, resp.Value, resp.Found, nil
}

// Put routes key to its owning node and stores (key, value) there
// (`put`).
func (c *Client) Put(ctx context.Context, addr, key, value string) (chordring.NodeRef, int, error) {
	body, err := jsonBody(value)
	if err != nil {
		return chordring.NodeRef{}, 0, err
	}
	var resp putResponse
	if err := c.do(ctx, http.MethodPut, addr, "/storage/"+url.PathEscape(key), body, &resp); err != nil {
		return chordring.NodeRef{}, 0, err
	}
	return fromWire(resp.StorageNode), resp.Hops, nil
}

// Shutdown asks addr to terminate its maintenance loops and close its RPC
// server (`shutdown`). No key transfer-out is performed; any keys addr
// owns are lost. After this call succeeds, subsequent RPCs to addr fail.
func (c *Client) Shutdown(ctx context.Context, addr string) error {
	return c.do(ctx, http.MethodPost, addr, "/shutdown", nil, nil)
}

// Leave asks addr to hand its keys to its successor and reset itself to a
// lone, unjoined node, without stopping its RPC server (`leave`).
func (c *Client) Leave(ctx context.Context, addr string) error {
	return c.do(ctx, http.MethodPost, addr, "/leave", nil, nil)
}

var _ chordring.Transport = (*Client)(nil)
