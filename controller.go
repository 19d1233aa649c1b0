package wsession

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// connectionEpoch bundles everything that belongs to one (re)connect
// cycle: the transport handle and the errgroup supervising the goroutines
// bound to it. Grounded on the teacher's reopenIntervalConnectionHandler,
// which swaps a single `inner` handle under a mutex on every reopen
// (conn_reopen_interval.go); we generalize the swapped unit from "one
// ConnectionHandler" to "one transport + its errgroup", and swap it via
// atomic.Pointer instead of sync.RWMutex per SPEC_FULL §5's atomic
// publication requirement.
type connectionEpoch struct {
	id        uuid.UUID
	transport Transport
	eg        *errgroup.Group
	ctx       context.Context
}

// Start implements the tolerant facade operation: it never returns an
// error for network reasons, surfacing failures as
// DisconnectionHappened(Error) events instead (spec §6/§7).
func (s *Session) Start(ctx context.Context) error {
	return s.start(ctx, false)
}

// StartOrFail is the fail-fast variant: it propagates the initial connect
// error to the caller.
func (s *Session) StartOrFail(ctx context.Context) error {
	return s.start(ctx, true)
}

func (s *Session) start(ctx context.Context, failFast bool) error {
	if s.isDisposing.Load() {
		return ErrAlreadyDisposed
	}
	if s.cfg.URL == "" {
		return newInvalidInputError("url must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.isStarted.CompareAndSwap(false, true) {
		return nil // already started: no-op
	}

	s.scopes.rotateSession()

	if s.outboundText == nil {
		s.outboundText = newBoundedQueue(s.logger, "outbound-text", s.cfg.OutboundQueueCapacity, s.sendOne(TextMessage))
		s.outboundBinary = newBoundedQueue(s.logger, "outbound-binary", s.cfg.OutboundQueueCapacity, s.sendOne(BinaryMessage))
	}

	// The caller's ctx governs only this first dial; every later
	// reconnect dials against the rotating session scope instead, since
	// there is no caller left on the stack to hold a ctx for it.
	dialCtx, cancel := context.WithCancel(s.scopes.session)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return s.startClient(dialCtx, ReconnectionInitial, failFast)
}

// startClient dials a fresh transport via cfg.TransportFactory, installs
// it as the current epoch, launches its receive loop, arms the watchdog,
// and publishes ReconnectionHappened. On dial failure it publishes
// DisconnectionHappened(Error) and, unless the subscriber cancels
// reconnection or the caller asked for fail-fast, schedules a retry after
// ErrorReconnectTimeout. Grounded on backoffConnectionHandler.newConnHandler
// (conn_reconnect_retry_backoff.go), generalized from an unconditional
// retry loop to the documented cancel_reconnection / fail_fast branches.
func (s *Session) startClient(dialCtx context.Context, rtype ReconnectionType, failFast bool) error {
	s.watchdog.disarm()

	tr, err := s.cfg.TransportFactory(dialCtx, s.cfg.URL)
	if err != nil {
		info := &DisconnectionInfo{Type: DisconnectionError, Exception: err, At: time.Now()}
		s.disconnectionHappened.Publish(info)

		if info.CancelReconnection {
			return nil
		}
		if failFast {
			return wrapSessionError(KindConnectFailed, err, "initial connect")
		}
		if s.cfg.ErrorReconnectTimeout <= 0 {
			return nil
		}

		go func() {
			select {
			case <-time.After(s.cfg.ErrorReconnectTimeout):
			case <-s.scopes.total.Done():
				return
			}
			s.reconnect(ReconnectionError, false, err)
		}()
		return nil
	}

	epoch := &connectionEpoch{id: uuid.New(), transport: tr, ctx: s.scopes.session}
	eg, egCtx := errgroup.WithContext(s.scopes.session)
	epoch.eg = eg
	epoch.ctx = egCtx
	s.epoch.Store(epoch)

	s.isRunning.Store(true)

	buf := make([]byte, s.cfg.ReceiveBufferSize)
	eg.Go(func() error {
		s.receiveLoop(epoch.ctx, epoch, buf)
		return nil
	})

	s.reconnectionHappened.Publish(ReconnectionInfo{Type: rtype, At: time.Now()})
	s.watchdog.touch()
	s.watchdog.arm()

	return nil
}

// reconnect runs the single-flight reconnection body (spec §4.5): at most
// one reconnection is ever active on a session. Grounded on
// backoffConnectionHandler.run's retry branch, generalized to rotate the
// session cancellation scope (aborting the old transport first) before
// dialing the replacement, per spec's ordering requirement.
func (s *Session) reconnect(rtype ReconnectionType, failFast bool, cause error) {
	s.reconnectMu.Lock()
	defer s.reconnectMu.Unlock()

	if s.isDisposing.Load() {
		return
	}
	if cause != nil {
		s.logger.Infof("reconnecting (%s) due to: %s", rtype, cause)
	}

	s.isReconnecting.Store(true)
	defer s.isReconnecting.Store(false)

	if prev := s.epoch.Load(); prev != nil {
		prev.transport.Abort()
		_ = prev.eg.Wait() // wait for the old epoch's receive loop to exit before installing a new one
	}

	s.isRunning.Store(false)
	s.scopes.rotateSession()

	if err := s.startClient(s.scopes.session, rtype, failFast); err != nil {
		s.logger.Errorf("reconnect failed: %s", err)
	}
}

// shouldIgnoreReconnection is the guard from spec §4.5: true once the
// session is disposing, already reconnecting, stopping, or the caller's
// transport handle is no longer the current one (meaning a fresher
// reconnection has already superseded it).
func (s *Session) shouldIgnoreReconnection(client Transport) bool {
	if s.isDisposing.Load() || s.isReconnecting.Load() || s.isStopping.Load() {
		return true
	}
	current := s.epoch.Load()
	return current == nil || current.transport != client
}

// Stop performs a tolerant close: it never returns an error for network
// reasons, reporting success via the returned bool.
func (s *Session) Stop(status int, reason string) (bool, error) {
	return s.stop(context.Background(), status, reason, false)
}

// StopOrFail may propagate a close-handshake error to the caller.
func (s *Session) StopOrFail(status int, reason string) (bool, error) {
	return s.stop(context.Background(), status, reason, true)
}

func (s *Session) stop(ctx context.Context, status int, reason string, failFast bool) (bool, error) {
	if s.isDisposing.Load() {
		return false, ErrAlreadyDisposed
	}

	epoch := s.epoch.Load()
	var tr Transport
	if epoch != nil {
		tr = epoch.transport
	}

	ok, err := s.stopInternal(ctx, tr, status, reason, failFast, false)
	s.disconnectionHappened.Publish(&DisconnectionInfo{Type: DisconnectionByUser, CloseStatus: status, CloseDescription: reason, At: time.Now()})
	return ok, err
}

// stopInternal is spec §4.5's stop_internal: reject if disposing, deactivate
// the watchdog, and drive the close handshake through the transport
// (CloseOutput when the peer already initiated closing, Close otherwise).
func (s *Session) stopInternal(ctx context.Context, client Transport, status int, reason string, failFast bool, byServer bool) (bool, error) {
	if s.isDisposing.Load() {
		return false, ErrAlreadyDisposed
	}

	s.watchdog.disarm()

	if client == nil {
		s.isStarted.Store(false)
		s.isRunning.Store(false)
		return false, nil
	}
	if !s.isRunning.Load() {
		s.logger.Infof("stop requested on a session that is not running")
		return false, nil
	}

	s.isStopping.Store(true)
	var closeErr error
	if byServer {
		closeErr = client.CloseOutput(ctx, status, reason)
	} else {
		closeErr = client.Close(ctx, status, reason)
	}

	if closeErr != nil {
		s.logger.Errorf("close handshake failed: %s", closeErr)
		if failFast {
			s.isRunning.Store(false)
			s.isStopping.Store(false)
			return false, wrapSessionError(KindCloseFailed, closeErr, "close handshake")
		}
	}

	s.isRunning.Store(false)
	s.isStopping.Store(false)
	if !byServer || !s.cfg.IsReconnectionEnabled {
		s.isStarted.Store(false)
	}

	return closeErr == nil, nil
}

// Dispose tears the session down permanently. It is idempotent: every call
// after the first is a no-op.
func (s *Session) Dispose() {
	if !s.isDisposing.CompareAndSwap(false, true) {
		return
	}

	wasRunning := s.isRunning.Load()

	s.watchdog.disarm()

	var disposers []disposer
	if s.outboundText != nil {
		disposers = append(disposers, s.outboundText)
	}
	if s.outboundBinary != nil {
		disposers = append(disposers, s.outboundBinary)
	}
	if s.inbound != nil {
		disposers = append(disposers, s.inbound)
	}

	var wg sync.WaitGroup
	for _, q := range disposers {
		wg.Add(1)
		go func(q disposer) {
			defer wg.Done()
			q.Dispose()
		}(q)
	}
	wg.Wait()

	s.scopes.cancelAll()

	if epoch := s.epoch.Load(); epoch != nil {
		epoch.transport.Abort()
	}

	if wasRunning {
		s.disconnectionHappened.Publish(&DisconnectionInfo{Type: DisconnectionExit, At: time.Now()})
	}

	s.isRunning.Store(false)
	s.isStarted.Store(false)

	s.messageReceived.Close()
	s.reconnectionHappened.Close()
	s.disconnectionHappened.Close()
}

type disposer interface {
	Dispose()
}
