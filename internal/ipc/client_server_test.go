package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendRoundTrip(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "rehearse.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			if req.Command != "mode" || req.Arg != "voice" {
				return Response{OK: false, Error: "unexpected request"}
			}
			return Response{OK: true, State: "recording_voice", Message: "mode voice"}
		}))
	}()

	resp, err := Send(context.Background(), socketPath, Request{Command: "mode", Arg: "voice"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK, resp.Error)
	require.Equal(t, "recording_voice", resp.State)
	require.Equal(t, "mode voice", resp.Message)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestSendDecodeResponseError(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "rehearse.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		_, _ = reader.ReadBytes('\n')
		_, _ = conn.Write([]byte("not-json\n"))
	}()

	_, err = Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "response: decode")
}

func TestSendReadResponseError(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "rehearse.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		_ = conn.Close()
	}()

	_, err = Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "response: read")
}

func TestServeDecodeRequestErrorResponse(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "rehearse.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, _ Request) Response {
			return Response{OK: true}
		}))
	}()

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "request: decode")

	cancel()
	require.NoError(t, <-serveDone)
}

func TestProbe(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "rehearse.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			if req.Command == "status" {
				return Response{OK: true, State: "idle"}
			}
			return Response{OK: false, Error: "bad"}
		}))
	}()

	alive, probeErr := Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, probeErr)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-serveDone)

	alive, probeErr = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, probeErr)
	require.False(t, alive)
}

func TestLookupCommand(t *testing.T) {
	def, ok := LookupCommand("redo")
	require.True(t, ok)
	require.True(t, def.NeedsArg)

	def, ok = LookupCommand("next")
	require.True(t, ok)
	require.False(t, def.NeedsArg)

	_, ok = LookupCommand("toggle")
	require.False(t, ok)
}

func TestServeRejectsInvalidRequestsBeforeHandler(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rehearse.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handled := make(chan Request, 4)
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			handled <- req
			return Response{OK: true}
		}))
	}()

	cases := []struct {
		req  Request
		want string
	}{
		{req: Request{Command: "toggle"}, want: "unknown command: toggle"},
		{req: Request{Command: "mode"}, want: `command "mode" requires an argument`},
		{req: Request{Command: "next", Arg: "3"}, want: `command "next" takes no argument`},
	}
	for _, tc := range cases {
		resp, err := Send(context.Background(), socketPath, tc.req, 200*time.Millisecond)
		require.NoError(t, err)
		require.False(t, resp.OK)
		require.Equal(t, tc.want, resp.Error)
	}
	require.Empty(t, handled)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestServerRecoversHandlerPanic(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rehearse.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	server := &Server{Handler: HandlerFunc(func(context.Context, Request) Response {
		panic("boom")
	})}
	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(ctx, listener) }()

	resp, err := Send(context.Background(), socketPath, Request{Command: "hint"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, `command "hint" failed`)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestReadLineRejectsOversizedMessages(t *testing.T) {
	huge := `{"command":"answer","arg":"` + strings.Repeat("a", maxLineBytes) + `"}` + "\n"
	var req Request
	err := readLine(bufio.NewReader(strings.NewReader(huge)), &req)
	require.ErrorIs(t, err, errLineTooLong)
}

func TestSendCarriesLongTypedAnswer(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rehearse.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			return Response{OK: true, Message: strconv.Itoa(len(req.Arg))}
		}))
	}()

	answer := strings.Repeat("word ", 2000)
	resp, err := Send(context.Background(), socketPath, Request{Command: "answer", Arg: answer}, time.Second)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(len(answer)), resp.Message)

	cancel()
	require.NoError(t, <-serveDone)
}
