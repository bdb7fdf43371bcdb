// Package voice runs the voice-call session state machine for one visitor:
// call lifecycle, transcript accumulation, the duration ceiling, and the
// extraction and review hand-off that turns a call into an inquiry.
package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"portfolio-api/internal/errorsx"
	"portfolio-api/internal/extraction"
	"portfolio-api/internal/inquiry"
	"portfolio-api/internal/redact"
	"portfolio-api/internal/transcript"

	"github.com/google/uuid"
)

var (
	ErrClosed       = errors.New("voice: controller closed")
	ErrBusy         = errors.New("voice: a call is already in progress")
	ErrNotLive      = errors.New("voice: no live call")
	ErrNotInReview  = errors.New("voice: no draft under review")
	ErrConfirmInUse = errors.New("voice: confirmation already in flight")
)

// Extractor turns the finished transcript into a draft.
type Extractor interface {
	Extract(ctx context.Context, utterances []transcript.Utterance, visitorName string) (extraction.Draft, error)
}

// InquiryStore persists a confirmed draft.
type InquiryStore interface {
	UpdateInquiry(ctx context.Context, userID string, d extraction.Draft) (inquiry.UpdateResult, error)
}

// DuplicateRecorder records absorbed duplicate call-end signals for operators.
type DuplicateRecorder interface {
	LogDuplicateEnd(ctx context.Context, userID, sessionID, status string) error
}

// Identity is the authenticated visitor owning the controller.
type Identity struct {
	UserID      string
	DisplayName string
}

type Deps struct {
	Adapter    Adapter
	Sink       EventSink
	Extractor  Extractor
	Store      InquiryStore
	Duplicates DuplicateRecorder
	Log        *slog.Logger
}

type Options struct {
	AssistantID       string
	VoiceID           string
	CeilingSeconds    int
	ExtractionTimeout time.Duration
	PersistTimeout    time.Duration
	// NavigateTo is where the visitor is sent after a successful save.
	NavigateTo string
	// MetadataKey signs the call metadata read back by the provider webhook.
	MetadataKey []byte

	NewTicker    func(time.Duration) Ticker
	NewSessionID func() string
	Clock        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CeilingSeconds <= 0 {
		o.CeilingSeconds = DefaultCeilingSeconds
	}
	if o.ExtractionTimeout <= 0 {
		o.ExtractionTimeout = 30 * time.Second
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}
	if o.NavigateTo == "" {
		o.NavigateTo = "/"
	}
	if o.NewTicker == nil {
		o.NewTicker = newRealTicker
	}
	if o.NewSessionID == nil {
		o.NewSessionID = uuid.NewString
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Controller owns the voice session of one visitor connection. Every entry
// point is serialized; collaborator calls run with the lock released.
type Controller struct {
	id   Identity
	deps Deps
	opts Options
	log  *slog.Logger

	mu     sync.Mutex
	sess   *session
	sub    Subscription
	closed bool
	// echoPending is set when we stop an SDK call and cleared by the SDK's
	// call-end for it. It outlives the session so a late echo cannot end the
	// next call.
	echoPending bool
}

func NewController(id Identity, deps Deps, opts Options) *Controller {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	c := &Controller{
		id:   id,
		deps: deps,
		opts: opts.withDefaults(),
		log:  deps.Log.With("user_id", id.UserID),
	}
	c.sess = &session{status: StatusIdle, ceilingSeconds: c.opts.CeilingSeconds}
	c.sub = deps.Adapter.Connect(Handlers{
		OnCallStart:   c.handleCallStart,
		OnCallEnd:     c.handleCallEnd,
		OnSpeechStart: c.handleSpeechStart,
		OnSpeechEnd:   c.handleSpeechEnd,
		OnTranscript:  c.handleTranscript,
		OnVolume:      c.handleVolume,
		OnError:       c.handleError,
	})
	return c
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.snapshot()
}

// transition moves the current session to next and publishes the new state.
// Same-state moves are no-ops. Must be called with the lock held.
func (c *Controller) transition(next Status, reason string) error {
	s := c.sess
	if s.status == next {
		return nil
	}
	if !CanTransition(s.status, next) {
		return &InvalidTransitionError{From: s.status, To: next}
	}
	prev := s.status
	s.status = next
	if !next.Live() {
		s.timer.stop()
		s.timer = nil
	}
	c.log.Debug("voice state changed", "session_id", s.id, "from", prev, "to", next, "reason", reason)
	c.deps.Sink.StateChanged(s.snapshot())
	return nil
}

// resetIdle abandons the current session. Must be called with the lock held.
func (c *Controller) resetIdle(reason string) {
	if c.sess.status == StatusIdle {
		return
	}
	if err := c.transition(StatusIdle, reason); err != nil {
		c.log.Error("voice reset failed", "err", err)
	}
	c.sess.draft = nil
}

// StartCall begins a new call. The previous session, if any, is discarded.
func (c *Controller) StartCall(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.sess.status != StatusIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	s := &session{
		id:             c.opts.NewSessionID(),
		status:         StatusIdle,
		ceilingSeconds: c.opts.CeilingSeconds,
	}
	c.sess = s
	if err := c.transition(StatusConnecting, "visitor_start"); err != nil {
		c.mu.Unlock()
		return err
	}
	cfg := BuildSessionConfig(c.opts, c.id, s.id)
	s.greeting = cfg.FirstMessage
	c.mu.Unlock()

	c.log.Info("voice call starting", "session_id", s.id)
	if err := c.deps.Adapter.Start(ctx, cfg); err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTransportConnect)
		c.log.Warn("voice call start failed", "session_id", s.id, "err", err)

		c.mu.Lock()
		if c.sess == s && s.status == StatusConnecting {
			c.resetIdle("start_failed")
			c.deps.Sink.Notice(newNotice(NoticeConnectFailed))
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// EndCall ends the live call on the visitor's request.
func (c *Controller) EndCall(ctx context.Context) error {
	return c.endCall(ctx, endVisitor, "")
}

// SetMuted toggles the visitor microphone during a live call.
func (c *Controller) SetMuted(muted bool) error {
	c.mu.Lock()
	live := !c.closed && c.sess.status.Live()
	c.mu.Unlock()
	if !live {
		return ErrNotLive
	}
	return c.deps.Adapter.SetMuted(muted)
}

// Tick advances the call clock by one second. The session timer calls it;
// it is a no-op outside the live states.
func (c *Controller) Tick() {
	c.mu.Lock()
	id := c.sess.id
	c.mu.Unlock()
	c.tick(id)
}

func (c *Controller) tick(sessionID string) {
	c.mu.Lock()
	s := c.sess
	if c.closed || s.id != sessionID || !s.status.Live() {
		c.mu.Unlock()
		return
	}
	if s.elapsedSeconds < s.ceilingSeconds {
		s.elapsedSeconds++
		c.deps.Sink.StateChanged(s.snapshot())
	}
	reached := s.elapsedSeconds >= s.ceilingSeconds
	c.mu.Unlock()

	if reached {
		if err := c.endCall(context.Background(), endTimeLimit, sessionID); err != nil && !errors.Is(err, ErrNotLive) {
			c.log.Warn("voice time limit end failed", "session_id", sessionID, "err", err)
		}
	}
}

// endCall is the single end-of-call path for the SDK signal, the visitor and
// the time limit. Only the first signal for a live session gets through; it
// then runs extraction once. sessionID, when set, pins the call to a session.
func (c *Controller) endCall(ctx context.Context, trigger endTrigger, sessionID string) error {
	c.mu.Lock()
	s := c.sess
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if sessionID != "" && s.id != sessionID {
		c.mu.Unlock()
		return ErrNotLive
	}

	if trigger == endRemote && c.echoPending && !s.status.Live() {
		// the SDK confirming a stop we requested, possibly for the previous call
		c.echoPending = false
		status := s.status
		c.mu.Unlock()
		c.log.Debug("voice call end echo ignored", "session_id", s.id, "status", status)
		return nil
	}

	switch {
	case s.status == StatusConnecting:
		// The call never went live; there is nothing to extract.
		c.resetIdle("ended_while_connecting")
		if trigger != endRemote {
			c.echoPending = true
		}
		c.mu.Unlock()
		if trigger != endRemote {
			c.stopAdapter(ctx, s.id)
		}
		return nil

	case !s.status.Live():
		status, endedBy := s.status, s.endedBy
		c.mu.Unlock()
		switch {
		case endedBy == endNone:
			return ErrNotLive
		case trigger == endTimeLimit:
			// a tick raced with another end signal
			return nil
		}
		c.log.Warn("duplicate voice call end ignored", "session_id", s.id, "status", status, "trigger", trigger, "first_trigger", endedBy)
		if c.deps.Duplicates != nil {
			if err := c.deps.Duplicates.LogDuplicateEnd(ctx, c.id.UserID, s.id, status.String()); err != nil {
				c.log.Warn("audit append failed", "err", err, "session_id", s.id)
			}
		}
		return nil
	}

	s.endedBy = trigger
	if err := c.transition(StatusProcessing, trigger.String()); err != nil {
		c.mu.Unlock()
		return err
	}
	if trigger != endRemote {
		c.echoPending = true
	}
	if trigger == endTimeLimit {
		c.deps.Sink.Notice(newNotice(NoticeTimeLimit))
	}
	utterances := s.transcript.Snapshot()
	elapsed := s.elapsedSeconds
	duration := c.opts.Clock().Sub(s.startedAt)
	c.mu.Unlock()

	c.log.Info("voice call ended", "session_id", s.id, "trigger", trigger, "elapsed_seconds", elapsed, "duration", duration, "utterances", len(utterances))
	if trigger != endRemote {
		c.stopAdapter(ctx, s.id)
	}

	if len(utterances) == 0 {
		c.mu.Lock()
		if c.sess == s && s.status == StatusProcessing {
			c.resetIdle("empty_transcript")
		}
		c.mu.Unlock()
		return nil
	}

	c.runExtraction(ctx, s, utterances)
	return nil
}

// runExtraction makes the session's single extraction attempt and moves the
// session to review or back to idle. It is not cancelled by the caller.
func (c *Controller) runExtraction(ctx context.Context, s *session, utterances []transcript.Utterance) {
	exCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.ExtractionTimeout)
	defer cancel()

	draft, err := c.deps.Extractor.Extract(exCtx, utterances, c.id.DisplayName)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sess != s || s.status != StatusProcessing {
		c.log.Info("voice extraction result dropped", "session_id", s.id, "closed", c.closed)
		return
	}
	if err != nil {
		c.log.Warn("voice extraction failed", "session_id", s.id, "reason", errorsx.Reason(err), "err", err)
		c.resetIdle("extraction_failed")
		c.deps.Sink.Notice(newNotice(NoticeProcessingFailed))
		return
	}

	draft.ID = s.id
	draft.SourceSessionID = s.id
	s.draft = &draft
	c.log.Info("voice draft ready", "session_id", s.id, "purpose", draft.Purpose, "email", redact.Ptr(draft.Email))
	if err := c.transition(StatusReview, "extracted"); err != nil {
		c.log.Error("voice review transition failed", "err", err)
		return
	}
	c.deps.Sink.Review(draft)
}

// Confirm saves the visitor-edited draft. On failure the session stays in
// review so the visitor can retry without repeating the call.
func (c *Controller) Confirm(ctx context.Context, edited extraction.Draft) error {
	c.mu.Lock()
	s := c.sess
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if s.status != StatusReview || s.draft == nil {
		c.mu.Unlock()
		return ErrNotInReview
	}
	if s.confirming {
		c.mu.Unlock()
		return ErrConfirmInUse
	}
	s.confirming = true
	edited.ID = s.draft.ID
	edited.SourceSessionID = s.draft.SourceSessionID
	s.draft = &edited
	c.mu.Unlock()

	pCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.PersistTimeout)
	res, err := c.deps.Store.UpdateInquiry(pCtx, c.id.UserID, edited)
	cancel()
	if err == nil && !res.Success {
		err = errors.New("voice: inquiry store reported failure")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s.confirming = false
	if c.closed || c.sess != s || s.status != StatusReview {
		return err
	}
	if err != nil {
		c.log.Warn("voice inquiry save failed", "session_id", s.id, "reason", errorsx.Reason(err), "err", err)
		c.deps.Sink.Notice(newNotice(NoticeSaveFailed))
		return errorsx.Wrap(err, errorsx.ReasonPersistence)
	}

	c.log.Info("voice inquiry saved", "session_id", s.id, "inquiry_id", res.ID)
	c.resetIdle("confirmed")
	c.deps.Sink.Notice(newNotice(NoticeSaved))
	c.deps.Sink.Navigate(c.opts.NavigateTo)
	return nil
}

// Discard drops the draft under review without saving it.
func (c *Controller) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.sess.status != StatusReview {
		return ErrNotInReview
	}
	if c.sess.confirming {
		return ErrConfirmInUse
	}
	c.resetIdle("discarded")
	return nil
}

// Close tears the controller down: the SDK subscription is disposed, the
// timer stopped and any live call stopped. Later entry points return ErrClosed.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	s := c.sess
	s.timer.stop()
	s.timer = nil
	callUp := s.status == StatusConnecting || s.status.Live()
	c.mu.Unlock()

	c.sub.Dispose()
	if callUp {
		c.stopAdapter(ctx, s.id)
	}
	c.log.Debug("voice controller closed", "session_id", s.id)
}

func (c *Controller) stopAdapter(ctx context.Context, sessionID string) {
	if err := c.deps.Adapter.Stop(ctx); err != nil {
		c.log.Warn("voice adapter stop failed", "session_id", sessionID, "err", errorsx.Wrap(err, errorsx.ReasonTransportProtocol))
	}
}

// --- adapter handlers ---

func (c *Controller) handleCallStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sess
	if c.closed || s.status != StatusConnecting {
		c.log.Debug("voice call-start ignored", "session_id", s.id, "status", s.status)
		return
	}
	s.transcript.Reset()
	s.elapsedSeconds = 0
	s.endedBy = endNone
	s.startedAt = c.opts.Clock()
	// the SDK only starts a new call after the previous one is gone
	c.echoPending = false
	if err := c.transition(StatusActive, "call_start"); err != nil {
		c.log.Error("voice activate failed", "err", err)
		return
	}
	sessionID := s.id
	s.timer = startSessionTimer(c.opts.NewTicker(time.Second), func() { c.tick(sessionID) })
	c.deps.Sink.Utterance(transcript.Utterance{Role: transcript.RoleAssistant, Content: s.greeting})
}

func (c *Controller) handleCallEnd() {
	if err := c.endCall(context.Background(), endRemote, ""); err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrNotLive) {
		c.log.Warn("voice call-end handling failed", "err", err)
	}
}

func (c *Controller) handleSpeechStart() { c.liveTransition(StatusSpeaking, "assistant_speech_start") }
func (c *Controller) handleSpeechEnd()   { c.liveTransition(StatusListening, "assistant_speech_end") }

func (c *Controller) liveTransition(next Status, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.sess.status.Live() {
		return
	}
	if err := c.transition(next, reason); err != nil {
		c.log.Debug("voice transition skipped", "err", err)
	}
}

func (c *Controller) handleTranscript(ev TranscriptEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sess
	if c.closed || !s.status.Live() {
		return
	}
	kind := transcript.KindPartial
	if ev.Final {
		kind = transcript.KindFinal
	}
	u, appended := s.transcript.Observe(kind, ev.Role, ev.Text)
	if !ev.Final {
		c.deps.Sink.Caption(u)
		return
	}
	if !appended {
		return
	}
	c.log.Debug("voice utterance", "session_id", s.id, "role", u.Role, "text", redact.Text(u.Content))
	c.deps.Sink.Utterance(u)
	if u.Role == transcript.RoleVisitor {
		// the assistant is expected to answer next
		if err := c.transition(StatusSpeaking, "visitor_utterance"); err != nil {
			c.log.Debug("voice transition skipped", "err", err)
		}
	}
}

func (c *Controller) handleVolume(level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.sess.status.Live() {
		return
	}
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	c.deps.Sink.Volume(level)
}

// handleError resets a connecting or live session. Once the call has ended
// the transport is irrelevant and errors are only logged.
func (c *Controller) handleError(err error) {
	c.mu.Lock()
	s := c.sess
	if c.closed {
		c.mu.Unlock()
		return
	}
	err = errorsx.Wrap(err, errorsx.ReasonTransportProtocol)
	if s.status != StatusConnecting && !s.status.Live() {
		c.mu.Unlock()
		c.log.Info("voice transport error after call", "session_id", s.id, "status", s.status, "err", err)
		return
	}
	c.log.Warn("voice transport failed", "session_id", s.id, "status", s.status, "err", err)
	c.resetIdle("transport_error")
	c.echoPending = true
	c.deps.Sink.Notice(newNotice(NoticeConnectFailed))
	c.mu.Unlock()

	c.stopAdapter(context.Background(), s.id)
}
