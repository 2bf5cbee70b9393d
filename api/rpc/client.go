package rpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jasonknight/space-mmo-sub002/result"
)

// Client is a connection to one rpc Server. Calls are serialized.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	seq  uint64
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client { return &Client{conn: conn} }

// Call sends req to method and decodes the reply body into resp. A failed
// reply is returned as *result.Error carrying the server's code.
func (c *Client) Call(ctx context.Context, method string, req, resp interface{}) error {
	body, err := Marshal(req)
	if err != nil {
		return fmt.Errorf("rpc: encode request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return err
	}

	c.seq++
	seq := c.seq
	if err := WriteFrame(c.conn, &Envelope{Seq: seq, Method: method, Body: body}); err != nil {
		return err
	}
	var reply Reply
	if err := ReadFrame(c.conn, &reply); err != nil {
		return err
	}
	if reply.Seq != seq {
		return fmt.Errorf("rpc: reply seq %d, want %d", reply.Seq, seq)
	}
	if reply.Error != "" {
		code := result.ErrorCode(reply.Code)
		if code == "" {
			code = result.InternalError
		}
		return &result.Error{Code: code, Message: reply.Error}
	}
	if resp == nil {
		return nil
	}
	if err := Unmarshal(reply.Body, resp); err != nil {
		return fmt.Errorf("rpc: decode reply: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
