package voice

import (
	"sync"
	"time"
)

// Ticker abstracts time.Ticker for tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

// sessionTimer drives one-second ticks for a single session until stopped.
type sessionTimer struct {
	ticker Ticker
	done   chan struct{}
	once   sync.Once
}

func startSessionTimer(t Ticker, onTick func()) *sessionTimer {
	st := &sessionTimer{ticker: t, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-st.done:
				return
			case <-t.C():
				onTick()
			}
		}
	}()
	return st
}

// stop is idempotent and safe on a nil timer.
func (st *sessionTimer) stop() {
	if st == nil {
		return
	}
	st.once.Do(func() {
		close(st.done)
		st.ticker.Stop()
	})
}
