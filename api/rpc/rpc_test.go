package rpc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type echoReq struct {
	Text  string           `msgpack:"text"`
	Count int              `msgpack:"count"`
	Attrs map[int64]string `msgpack:"attrs"`
}

type echoResp struct {
	Text  string           `msgpack:"text"`
	Attrs map[int64]string `msgpack:"attrs"`
}

func startServer(t *testing.T, register func(s *Server)) (*Server, string) {
	t.Helper()
	s := NewServer("test", zap.NewNop())
	register(s)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()
	t.Cleanup(func() {
		require.NoError(t, s.Close())
		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrServerClosed)
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after Close")
		}
	})
	return s, ln.Addr().String()
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func echo(s *Server) {
	s.Handle("echo", Bind(func(ctx context.Context, req *echoReq) (*echoResp, error) {
		if TraceIDFromCtx(ctx) == "" {
			return nil, errors.New("missing trace id")
		}
		out := ""
		for i := 0; i < req.Count; i++ {
			out += req.Text
		}
		return &echoResp{Text: out, Attrs: req.Attrs}, nil
	}))
	s.Handle("fail", Bind(func(ctx context.Context, req *echoReq) (*echoResp, error) {
		return nil, result.Errorf(result.ItemNotFound, "no %s", req.Text)
	}))
	s.Handle("plain", Bind(func(ctx context.Context, req *echoReq) (*echoResp, error) {
		return nil, errors.New("plain failure")
	}))
	s.Handle("panic", Bind(func(ctx context.Context, req *echoReq) (*echoResp, error) {
		panic("boom")
	}))
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Envelope{Seq: 7, Method: "m", Body: []byte{1, 2, 3}}
	require.NoError(t, WriteFrame(&buf, &in))

	n := binary.BigEndian.Uint32(buf.Bytes()[:4])
	assert.Equal(t, buf.Len()-4, int(n))

	var out Envelope
	require.NoError(t, ReadFrame(&buf, &out))
	assert.Equal(t, in, out)
}

func TestFrame_TooLarge(t *testing.T) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], MaxFrameSize+1)
	var out Envelope
	assert.ErrorIs(t, ReadFrame(bytes.NewReader(hdr[:]), &out), ErrFrameTooLarge)
}

func TestFrame_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, &Envelope{Method: "x"}))
	short := bytes.NewReader(buf.Bytes()[:buf.Len()-1])
	var out Envelope
	assert.Error(t, ReadFrame(short, &out))
}

func TestServer_Call(t *testing.T) {
	_, addr := startServer(t, echo)
	c := dial(t, addr)

	var resp echoResp
	req := &echoReq{Text: "ab", Count: 3, Attrs: map[int64]string{1000: "iron"}}
	require.NoError(t, c.Call(callCtx(t), "echo", req, &resp))
	assert.Equal(t, "ababab", resp.Text)
	assert.Equal(t, map[int64]string{1000: "iron"}, resp.Attrs)

	// Same connection, next sequence number.
	require.NoError(t, c.Call(callCtx(t), "echo", &echoReq{Text: "z", Count: 1}, &resp))
	assert.Equal(t, "z", resp.Text)
}

func TestServer_ErrorCodes(t *testing.T) {
	_, addr := startServer(t, echo)
	c := dial(t, addr)

	cases := []struct {
		method string
		code   result.ErrorCode
	}{
		{"fail", result.ItemNotFound},
		{"plain", result.InternalError},
		{"panic", result.InternalError},
		{"missing", result.DBInvalidData},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			err := c.Call(callCtx(t), tc.method, &echoReq{Text: "x"}, &echoResp{})
			var re *result.Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tc.code, re.Code)
		})
	}

	// The connection survives handler failures.
	var resp echoResp
	require.NoError(t, c.Call(callCtx(t), "echo", &echoReq{Text: "ok", Count: 1}, &resp))
	assert.Equal(t, "ok", resp.Text)
}

func TestServer_UndecodableBody(t *testing.T) {
	_, addr := startServer(t, echo)
	c := dial(t, addr)

	err := c.Call(callCtx(t), "echo", "not a struct", &echoResp{})
	var re *result.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, result.DBInvalidData, re.Code)
}

func TestServer_SequentialClients(t *testing.T) {
	_, addr := startServer(t, echo)

	first := dial(t, addr)
	var resp echoResp
	require.NoError(t, first.Call(callCtx(t), "echo", &echoReq{Text: "1", Count: 1}, &resp))
	require.NoError(t, first.Close())

	second := dial(t, addr)
	require.NoError(t, second.Call(callCtx(t), "echo", &echoReq{Text: "2", Count: 1}, &resp))
	assert.Equal(t, "2", resp.Text)
}

func TestServer_IdleTimeoutFreesLoop(t *testing.T) {
	_, addr := startServer(t, func(s *Server) {
		s.SetIdleTimeout(100 * time.Millisecond)
		echo(s)
	})

	idle := dial(t, addr)
	_ = idle

	busy := dial(t, addr)
	var resp echoResp
	require.NoError(t, busy.Call(callCtx(t), "echo", &echoReq{Text: "after", Count: 1}, &resp))
	assert.Equal(t, "after", resp.Text)
}

func TestServer_CloseDropsActiveConnection(t *testing.T) {
	s := NewServer("test", zap.NewNop())
	echo(s)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	c := dial(t, ln.Addr().String())
	var resp echoResp
	require.NoError(t, c.Call(callCtx(t), "echo", &echoReq{Text: "x", Count: 1}, &resp))
	assert.NotNil(t, s.Addr())

	require.NoError(t, s.Close())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Error(t, c.Call(callCtx(t), "echo", &echoReq{}, &resp))
	assert.NoError(t, s.Close())
}

func TestServer_Methods(t *testing.T) {
	s := NewServer("test", nil)
	echo(s)
	assert.Equal(t, []string{"echo", "fail", "panic", "plain"}, s.Methods())
	assert.Equal(t, "test", s.Name())
}

func TestServer_ServeAfterClose(t *testing.T) {
	s := NewServer("test", nil)
	require.NoError(t, s.Close())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Serve(ln), ErrServerClosed)
}
