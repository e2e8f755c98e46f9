package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "log/slog"

	ws "github.com/gorilla/websocket"

	"voxd/internal/conversation"
	"voxd/internal/fault"
)

// Message kinds on the bus.
const (
	KindTranscript     = "transcript"
	KindUnintelligible = "unintelligible"
	KindSay            = "say"
)

type BusMessage struct {
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// Bus connects to a websocket message bus where remote satellites publish
// transcripts and receive sentences to speak. It is both a Listener and a
// Speaker.
type Bus struct {
	url       string
	name      string
	reconnect time.Duration

	mu   sync.Mutex
	conn *ws.Conn

	up       atomic.Bool
	incoming chan BusMessage
	closed   chan struct{}
}

func NewBus(url, name string, reconnect time.Duration) *Bus {
	if reconnect <= 0 {
		reconnect = 2 * time.Second
	}
	return &Bus{
		url:       url,
		name:      name,
		reconnect: reconnect,
		incoming:  make(chan BusMessage, 16),
		closed:    make(chan struct{}),
	}
}

// Run keeps the connection alive until ctx is done, then closes input.
func (b *Bus) Run(ctx context.Context) error {
	defer close(b.closed)

	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, b.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("Bus dial failed", "url", b.url, "err", err)
		} else {
			log.Info("Connected to bus", "url", b.url)
			b.setConn(conn)
			b.readLoop(ctx, conn)
			b.setConn(nil)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.reconnect):
		}
	}
}

func (b *Bus) readLoop(ctx context.Context, conn *ws.Conn) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("Bus read failed", "err", err, "closed", isClosed(err))
			}
			conn.Close()
			return
		}

		var m BusMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Warn("Malformed bus message", "err", err)
			continue
		}
		if m.To != "" && m.To != b.name {
			continue
		}
		if m.Kind != KindTranscript && m.Kind != KindUnintelligible {
			continue
		}

		select {
		case b.incoming <- m:
		default:
			log.Warn("Dropping bus message, listener is behind")
		}
	}
}

func (b *Bus) setConn(c *ws.Conn) {
	b.mu.Lock()
	b.conn = c
	b.mu.Unlock()
	b.up.Store(c != nil)
}

func (b *Bus) Listen(ctx context.Context, w conversation.Window) (string, error) {
	timer := time.NewTimer(w.Timeout + w.PhraseLimit)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-b.closed:
		return "", fault.ErrInputClosed
	case <-timer.C:
		if !b.up.Load() {
			return "", fmt.Errorf("%w: bus disconnected", fault.ErrSpeechService)
		}
		return "", fault.ErrListenTimeout
	case m := <-b.incoming:
		if m.Kind == KindUnintelligible || m.Content == "" {
			return "", fault.ErrUnintelligible
		}
		return m.Content, nil
	}
}

func (b *Bus) Speak(_ context.Context, text string) error {
	data, err := json.Marshal(BusMessage{From: b.name, Kind: KindSay, Content: text})
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return errors.New("bus not connected")
	}
	return b.conn.WriteMessage(ws.TextMessage, data)
}

func isClosed(err error) bool {
	return ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway, ws.CloseAbnormalClosure)
}
