// Package ipc is the daemon's local control socket: one JSON request and
// one JSON reply per connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	log "log/slog"
)

const DefaultSocketPath = "/tmp/voxd.sock"

// Commands.
const (
	CmdWake   = "wake"
	CmdSleep  = "sleep"
	CmdCancel = "cancel"
	CmdTimers = "timers"
	CmdStatus = "status"
)

type ControlMessage struct {
	Cmd string `json:"cmd"`
	ID  int    `json:"id,omitempty"`
}

type Reply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func Ok(format string, args ...any) Reply {
	return Reply{OK: true, Message: fmt.Sprintf(format, args...)}
}

func Fail(format string, args ...any) Reply {
	return Reply{Message: fmt.Sprintf(format, args...)}
}

type Handler func(ControlMessage) Reply

type Server struct {
	path    string
	ln      net.Listener
	handler Handler
}

// Listen binds the socket, replacing a stale one left by a crashed daemon.
func Listen(path string, handler Handler) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Server{path: path, ln: ln, handler: handler}, nil
}

// Serve accepts connections until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()
	defer os.Remove(s.path)

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("Control accept failed", "err", err)
			continue
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Bad control message", "err", err)
		json.NewEncoder(conn).Encode(Fail("bad request: %v", err))
		return
	}

	log.Debug("Control command", "cmd", msg.Cmd, "id", msg.ID)
	if err := json.NewEncoder(conn).Encode(s.handler(msg)); err != nil {
		log.Warn("Control reply failed", "err", err)
	}
}

func Send(ctx context.Context, path string, msg ControlMessage) (Reply, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, err
	}
	var r Reply
	if err := json.NewDecoder(conn).Decode(&r); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return r, nil
}
