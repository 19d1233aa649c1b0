package wsession

import (
	"sync"
	"sync/atomic"
	"time"
)

// watchdog is the periodic check described in SPEC_FULL §4.7: it fires a
// NoMessageReceived reconnection when no inbound traffic has been observed
// within reconnectTimeout. It is armed on every successful connect and
// disarmed on every stop/disconnect, mirroring the ticker-driven run loop
// the teacher uses for active keep-alive pings (conn_keep_alive_active.go),
// generalized from "always fire" to "fire only when stale."
type watchdog struct {
	logger   logger
	interval time.Duration
	onFire   func()

	lastReceived atomic.Int64 // unix nanos

	mu      sync.Mutex
	running bool
	stopC   chan struct{}
	doneC   chan struct{}
}

func newWatchdog(logger logger, interval time.Duration, onFire func()) *watchdog {
	return &watchdog{
		logger:   logger.WithField("component", "watchdog"),
		interval: interval,
		onFire:   onFire,
	}
}

// touch stamps the last-received timestamp. Called by the receive loop on
// every successful frame read.
func (w *watchdog) touch() {
	w.lastReceived.Store(time.Now().UnixNano())
}

// arm starts the periodic check. No-op if already armed or interval is
// zero (the "reconnect_timeout = ∅ disables watchdog" rule).
func (w *watchdog) arm() {
	if w.interval <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true
	w.touch()
	w.stopC = make(chan struct{})
	w.doneC = make(chan struct{})

	go w.run(w.stopC, w.doneC)
}

// disarm stops the periodic check and waits for the loop to exit.
func (w *watchdog) disarm() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopC := w.stopC
	doneC := w.doneC
	w.mu.Unlock()

	close(stopC)
	<-doneC
}

func (w *watchdog) run(stopC, doneC chan struct{}) {
	defer close(doneC)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopC:
			return
		case <-ticker.C:
			last := time.Unix(0, w.lastReceived.Load())
			if time.Since(last) > w.interval {
				w.logger.Warnf("no inbound traffic for %s, requesting reconnect", time.Since(last))
				w.onFire()
			}
		}
	}
}
