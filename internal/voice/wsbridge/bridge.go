// Package wsbridge connects a browser-hosted voice SDK to a voice.Controller
// over one websocket. The browser relays SDK events and visitor actions; the
// bridge relays adapter commands and UI updates back.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"portfolio-api/internal/extraction"
	"portfolio-api/internal/transcript"
	"portfolio-api/internal/voice"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameBytes  = 64 << 10
	sendBufferSize = 256
)

var ErrClosed = errors.New("wsbridge: connection closed")

// Bridge is both the voice.Adapter and the voice.EventSink of one socket.
type Bridge struct {
	conn *websocket.Conn
	log  *slog.Logger

	sendMu sync.Mutex
	sendCh chan []byte
	closed bool

	subMu    sync.Mutex
	handlers voice.Handlers
	subGen   uint64

	writerDone chan struct{}
}

func New(conn *websocket.Conn, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		conn:       conn,
		log:        log,
		sendCh:     make(chan []byte, sendBufferSize),
		writerDone: make(chan struct{}),
	}
}

// --- voice.Adapter ---

func (b *Bridge) Start(ctx context.Context, cfg voice.SessionConfig) error {
	return b.enqueue(map[string]any{"type": outCommand, "command": cmdStart, "config": cfg})
}

func (b *Bridge) Stop(ctx context.Context) error {
	return b.enqueue(map[string]any{"type": outCommand, "command": cmdStop})
}

func (b *Bridge) SetMuted(muted bool) error {
	return b.enqueue(map[string]any{"type": outCommand, "command": cmdSetMuted, "muted": muted})
}

type subscription struct {
	b   *Bridge
	gen uint64
}

func (s subscription) Dispose() {
	s.b.subMu.Lock()
	defer s.b.subMu.Unlock()
	if s.b.subGen == s.gen {
		s.b.handlers = voice.Handlers{}
	}
}

func (b *Bridge) Connect(h voice.Handlers) voice.Subscription {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subGen++
	b.handlers = h
	return subscription{b: b, gen: b.subGen}
}

func (b *Bridge) currentHandlers() voice.Handlers {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	return b.handlers
}

// --- voice.EventSink ---

func (b *Bridge) StateChanged(s voice.Snapshot) {
	b.notify(map[string]any{
		"type":             outState,
		"sessionId":        s.SessionID,
		"status":           s.Status,
		"elapsedSeconds":   s.ElapsedSeconds,
		"remainingSeconds": s.RemainingSeconds,
	})
}

func (b *Bridge) Caption(u transcript.Utterance) {
	b.notify(map[string]any{"type": outCaption, "role": u.Role, "text": u.Content})
}

func (b *Bridge) Utterance(u transcript.Utterance) {
	b.notify(map[string]any{"type": outUtterance, "role": u.Role, "content": u.Content})
}

func (b *Bridge) Volume(level float64) {
	b.notify(map[string]any{"type": outVolume, "level": level})
}

func (b *Bridge) Notice(n voice.Notice) {
	b.notify(map[string]any{"type": outNotice, "code": n.Code, "message": n.Message})
}

func (b *Bridge) Review(d extraction.Draft) {
	b.notify(map[string]any{"type": outReview, "draft": d})
}

func (b *Bridge) Navigate(to string) {
	b.notify(map[string]any{"type": outNavigate, "to": to})
}

func (b *Bridge) sendError(err error) {
	b.notify(map[string]any{"type": outError, "error": err.Error()})
}

func (b *Bridge) notify(msg map[string]any) {
	if err := b.enqueue(msg); err != nil && !errors.Is(err, ErrClosed) {
		b.log.Warn("voice frame dropped", "type", msg["type"], "err", err)
	}
}

func (b *Bridge) enqueue(msg map[string]any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.sendCh <- raw:
		return nil
	default:
		return fmt.Errorf("wsbridge: send buffer full")
	}
}

// writeLoop is the only writer on the connection.
func (b *Bridge) writeLoop() {
	defer close(b.writerDone)
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-b.sendCh:
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := b.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.log.Debug("voice socket write failed", "err", err)
				b.drain()
				return
			}
		case <-ping.C:
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.drain()
				return
			}
		}
	}
}

// drain discards queued frames after a write failure so enqueue never blocks.
func (b *Bridge) drain() {
	go func() {
		for range b.sendCh {
		}
	}()
}

func (b *Bridge) close() {
	b.sendMu.Lock()
	if !b.closed {
		b.closed = true
		close(b.sendCh)
	}
	b.sendMu.Unlock()

	select {
	case <-b.writerDone:
	case <-time.After(writeWait):
	}
	_ = b.conn.Close()
}
