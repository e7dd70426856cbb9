package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const requestReadTimeout = 2 * time.Second

// Handler serves one validated session command.
type Handler interface {
	Handle(context.Context, Request) Response
}

type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Server accepts one request per connection. Requests that fail Validate
// never reach the handler.
type Server struct {
	Handler Handler
	Logger  *slog.Logger
}

// Serve runs a Server without logging.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	return (&Server{Handler: handler}).Serve(ctx, listener)
}

// Serve accepts clients until ctx ends or the listener closes.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	var wg sync.WaitGroup
	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			wg.Wait()
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept session client: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			_ = writeLine(conn, s.serveConn(ctx, conn))
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) (resp Response) {
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))

	var req Request
	if err := readLine(bufio.NewReader(conn), &req); err != nil {
		return Response{Error: "request: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return Response{Error: err.Error()}
	}

	defer func() {
		if r := recover(); r != nil {
			if s.Logger != nil {
				s.Logger.Error("session command panicked", "command", req.Command, "panic", fmt.Sprint(r))
			}
			resp = Response{Error: fmt.Sprintf("command %q failed", req.Command)}
		}
	}()

	resp = s.Handler.Handle(ctx, req)
	if s.Logger != nil {
		s.Logger.Debug("session command", "command", req.Command, "ok", resp.OK, "state", resp.State)
	}
	return resp
}
