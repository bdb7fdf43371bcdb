package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"portfolio-api/internal/voice"

	"github.com/gorilla/websocket"
)

// ControllerFactory builds the controller for one connection, wired to b as
// both its adapter and its sink.
type ControllerFactory func(b *Bridge) *voice.Controller

// Serve runs the socket until the client disconnects or ctx is done. The
// controller is closed and in-flight work awaited before Serve returns.
func Serve(ctx context.Context, b *Bridge, build ControllerFactory) {
	go b.writeLoop()

	ctrl := build(b)
	b.StateChanged(ctrl.Snapshot())

	var inflight sync.WaitGroup
	defer func() {
		ctrl.Close(context.Background())
		inflight.Wait()
		b.close()
	}()

	// async runs work that may block on extraction or persistence so the
	// read loop keeps draining frames.
	async := func(fn func() error) {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			if err := fn(); err != nil {
				b.sendError(err)
			}
		}()
	}

	stop := context.AfterFunc(ctx, func() { _ = b.conn.Close() })
	defer stop()

	b.conn.SetReadLimit(maxFrameBytes)
	_ = b.conn.SetReadDeadline(time.Now().Add(pongWait))
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Debug("voice socket closed", "err", err)
			}
			return
		}
		_ = b.conn.SetReadDeadline(time.Now().Add(pongWait))

		var f inFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			b.sendError(errors.New("invalid frame"))
			continue
		}

		switch f.Type {
		case inStart:
			if err := ctrl.StartCall(ctx); err != nil {
				b.sendError(err)
			}
		case inEnd:
			async(func() error { return ignoreNotLive(ctrl.EndCall(ctx)) })
		case inMute:
			if err := ctrl.SetMuted(f.Muted); err != nil {
				b.sendError(err)
			}
		case inConfirm:
			if f.Draft == nil {
				b.sendError(errors.New("confirm requires a draft"))
				continue
			}
			d := *f.Draft
			async(func() error { return ctrl.Confirm(ctx, d) })
		case inDiscard:
			if err := ctrl.Discard(); err != nil {
				b.sendError(err)
			}
		case inSDK:
			b.dispatchSDK(f, async)
		default:
			b.sendError(errors.New("unknown frame type"))
		}
	}
}

func (b *Bridge) dispatchSDK(f inFrame, async func(func() error)) {
	h := b.currentHandlers()
	switch f.Event {
	case sdkCallStart:
		if h.OnCallStart != nil {
			h.OnCallStart()
		}
	case sdkCallEnd:
		if h.OnCallEnd != nil {
			async(func() error { h.OnCallEnd(); return nil })
		}
	case sdkSpeechStart:
		if h.OnSpeechStart != nil {
			h.OnSpeechStart()
		}
	case sdkSpeechEnd:
		if h.OnSpeechEnd != nil {
			h.OnSpeechEnd()
		}
	case sdkMessage:
		if f.Message == nil || f.Message.Type != "transcript" || h.OnTranscript == nil {
			return
		}
		h.OnTranscript(voice.TranscriptEvent{
			Final: f.Message.TranscriptType == "final",
			Role:  f.Message.Role,
			Text:  f.Message.Transcript,
		})
	case sdkVolumeLevel:
		if h.OnVolume != nil {
			h.OnVolume(f.Volume)
		}
	case sdkError:
		if h.OnError != nil {
			msg := f.Error
			if msg == "" {
				msg = "voice sdk error"
			}
			h.OnError(errors.New(msg))
		}
	default:
		b.log.Debug("unknown voice sdk event", "event", f.Event)
	}
}

func ignoreNotLive(err error) error {
	if errors.Is(err, voice.ErrNotLive) {
		return nil
	}
	return err
}
