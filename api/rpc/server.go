package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jasonknight/space-mmo-sub002/result"
	"go.uber.org/zap"
)

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("rpc: server closed")

// HandlerFunc processes the msgpack body of one request and returns the
// msgpack body of the reply.
type HandlerFunc func(ctx context.Context, body []byte) ([]byte, error)

// Server accepts one connection at a time and answers its requests in
// arrival order. Other clients wait in the listen backlog.
type Server struct {
	name        string
	logger      *zap.Logger
	handlers    map[string]HandlerFunc
	idleTimeout time.Duration

	mu     sync.Mutex
	ln     net.Listener
	conn   net.Conn
	closed bool
}

// NewServer creates a Server.
func NewServer(name string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		name:     name,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Name is the service name given to NewServer.
func (s *Server) Name() string { return s.name }

// SetIdleTimeout drops a connection that sends nothing for d. Zero disables.
func (s *Server) SetIdleTimeout(d time.Duration) { s.idleTimeout = d }

// Handle registers fn for method. Register before Serve.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.handlers[method] = fn
}

// Methods lists registered method names, sorted.
func (s *Server) Methods() []string {
	out := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Addr returns the listener address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve runs the accept loop until Close. It always returns a non-nil error.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("rpc server listening", zap.String("service", s.name), zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		s.serveConn(conn)
		if s.isClosed() {
			return ErrServerClosed
		}
	}
}

// Close stops the accept loop and drops the current connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) setConn(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed && c != nil {
		return false
	}
	s.conn = c
	return true
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	if !s.setConn(conn) {
		return
	}
	defer s.setConn(nil)

	remote := conn.RemoteAddr().String()
	s.logger.Debug("connection opened", zap.String("service", s.name), zap.String("remote", remote))
	for {
		if s.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		var env Envelope
		if err := ReadFrame(conn, &env); err != nil {
			if !errors.Is(err, io.EOF) && !s.isClosed() {
				s.logger.Warn("read frame", zap.String("service", s.name), zap.String("remote", remote), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		reply := s.dispatch(&env)
		if err := WriteFrame(conn, reply); err != nil {
			s.logger.Warn("write frame", zap.String("service", s.name), zap.String("remote", remote), zap.Error(err))
			return
		}
	}
}

// dispatch runs one request. It never panics.
func (s *Server) dispatch(env *Envelope) (reply *Reply) {
	traceID := uuid.NewString()
	ctx := context.WithValue(context.Background(), ctxKeyTraceID{}, traceID)
	reply = &Reply{Seq: env.Seq}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				zap.String("service", s.name),
				zap.String("method", env.Method),
				zap.String("trace_id", traceID),
				zap.Any("panic", r),
				zap.Stack("stack"))
			reply.Body = nil
			reply.Error = fmt.Sprintf("internal error: %v", r)
			reply.Code = string(result.InternalError)
		}
	}()

	fn, ok := s.handlers[env.Method]
	if !ok {
		s.logger.Warn("unknown method", zap.String("service", s.name), zap.String("method", env.Method))
		reply.Error = fmt.Sprintf("unknown method %q", env.Method)
		reply.Code = string(result.DBInvalidData)
		return reply
	}

	start := time.Now()
	body, err := fn(ctx, env.Body)
	if err != nil {
		var re *result.Error
		code := result.InternalError
		if errors.As(err, &re) {
			code = re.Code
		}
		s.logger.Warn("handler error",
			zap.String("service", s.name),
			zap.String("method", env.Method),
			zap.String("trace_id", traceID),
			zap.Error(err))
		reply.Error = err.Error()
		reply.Code = string(code)
		return reply
	}
	s.logger.Debug("handled",
		zap.String("service", s.name),
		zap.String("method", env.Method),
		zap.String("trace_id", traceID),
		zap.Duration("elapsed", time.Since(start)))
	reply.Body = body
	return reply
}

type ctxKeyTraceID struct{}

// TraceIDFromCtx extracts the trace ID from a handler context.
func TraceIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTraceID{}).(string); ok {
		return v
	}
	return ""
}

// Bind adapts a typed handler. A body that does not decode into Req fails
// with DB_INVALID_DATA.
func Bind[Req, Resp any](fn func(ctx context.Context, req *Req) (*Resp, error)) HandlerFunc {
	return func(ctx context.Context, body []byte) ([]byte, error) {
		req := new(Req)
		if err := Unmarshal(body, req); err != nil {
			return nil, result.Errorf(result.DBInvalidData, "decode request: %v", err)
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return Marshal(resp)
	}
}
