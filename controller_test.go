package wsession

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

func newTestConfig(factory TransportFactory) SessionConfig {
	return NewSessionConfig("wss://example.test/ws", factory,
		WithLogger(newTestLogger(io.Discard)),
		WithReconnectTimeout(0),
		WithErrorReconnectTimeout(0),
	)
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", d)
	}
}

func TestSessionStartMakesItRunning(t *testing.T) {
	tr := newFakeTransport()
	var dials atomic.Int32
	factory := func(ctx context.Context, url string) (Transport, error) {
		dials.Add(1)
		return tr, nil
	}

	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !s.IsStarted() {
		t.Error("expected IsStarted() true")
	}
	if !s.IsRunning() {
		t.Error("expected IsRunning() true")
	}
	if dials.Load() != 1 {
		t.Errorf("expected exactly one dial, got %d", dials.Load())
	}
}

func TestSessionStartIsIdempotent(t *testing.T) {
	var dials atomic.Int32
	factory := func(ctx context.Context, url string) (Transport, error) {
		dials.Add(1)
		return newFakeTransport(), nil
	}

	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	_ = s.Start(context.Background())
	_ = s.Start(context.Background())
	_ = s.Start(context.Background())

	if dials.Load() != 1 {
		t.Errorf("expected Start to be a no-op once already started, got %d dials", dials.Load())
	}
}

func TestSessionStartOrFailPropagatesDialError(t *testing.T) {
	wantErr := errors.New("dial refused")
	factory := func(ctx context.Context, url string) (Transport, error) {
		return nil, wantErr
	}

	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	err := s.StartOrFail(context.Background())
	if err == nil {
		t.Fatal("expected StartOrFail to propagate the dial error")
	}

	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected a *SessionError, got %T", err)
	}
	if sessionErr.Kind() != KindConnectFailed {
		t.Errorf("expected KindConnectFailed, got %s", sessionErr.Kind())
	}
}

func TestSessionStartTolerantRetriesAfterDialFailure(t *testing.T) {
	var dials atomic.Int32
	tr := newFakeTransport()
	factory := func(ctx context.Context, url string) (Transport, error) {
		n := dials.Add(1)
		if n == 1 {
			return nil, errors.New("first attempt fails")
		}
		return tr, nil
	}

	cfg := NewSessionConfig("wss://example.test/ws", factory,
		WithLogger(newTestLogger(io.Discard)),
		WithReconnectTimeout(0),
		WithErrorReconnectTimeout(5*time.Millisecond),
	)
	s := NewSession(cfg)
	defer s.Dispose()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, time.Second, s.IsRunning)
	if dials.Load() < 2 {
		t.Errorf("expected at least 2 dial attempts, got %d", dials.Load())
	}
}

func TestSessionStartDialErrorCancelReconnectionStopsRetrying(t *testing.T) {
	var dials atomic.Int32
	factory := func(ctx context.Context, url string) (Transport, error) {
		dials.Add(1)
		return nil, errors.New("always fails")
	}

	cfg := NewSessionConfig("wss://example.test/ws", factory,
		WithLogger(newTestLogger(io.Discard)),
		WithReconnectTimeout(0),
		WithErrorReconnectTimeout(5*time.Millisecond),
	)
	s := NewSession(cfg)
	defer s.Dispose()

	s.SubscribeDisconnections(func(info *DisconnectionInfo) {
		if info.Type == DisconnectionError {
			info.CancelReconnection = true
		}
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	if got := dials.Load(); got != 1 {
		t.Errorf("expected CancelReconnection to suppress retries, got %d dials", got)
	}
}

func TestSessionStopClosesTransport(t *testing.T) {
	tr := newFakeTransport()
	factory := func(ctx context.Context, url string) (Transport, error) {
		return tr, nil
	}

	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	_ = s.Start(context.Background())
	waitFor(t, time.Second, s.IsRunning)

	ok, err := s.Stop(1000, "bye")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !ok {
		t.Error("expected Stop to report a clean close")
	}
	if !tr.closeCalled.Load() {
		t.Error("expected the transport's full Close handshake to run")
	}
	if s.IsRunning() {
		t.Error("expected IsRunning() false after Stop")
	}
}

func TestSessionStopOnNotRunningSessionIsNoop(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	ok, err := s.Stop(1000, "bye")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ok {
		t.Error("expected Stop on a never-started session to report false")
	}
}

func TestSessionDisposeIsIdempotent(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))

	_ = s.Start(context.Background())
	waitFor(t, time.Second, s.IsRunning)

	s.Dispose()
	s.Dispose() // must not panic or block a second time

	if s.IsRunning() {
		t.Error("expected IsRunning() false after Dispose")
	}
}

func TestSessionDisposePublishesExitWhenRunning(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))

	var gotExit atomic.Bool
	s.SubscribeDisconnections(func(info *DisconnectionInfo) {
		if info.Type == DisconnectionExit {
			gotExit.Store(true)
		}
	})

	_ = s.Start(context.Background())
	waitFor(t, time.Second, s.IsRunning)

	s.Dispose()

	if !gotExit.Load() {
		t.Error("expected a DisconnectionExit event on Dispose of a running session")
	}
}

func TestSessionOperationsFailAfterDispose(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))
	s.Dispose()

	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyDisposed) {
		t.Errorf("expected Start after Dispose to return ErrAlreadyDisposed, got %v", err)
	}
	if _, err := s.Stop(1000, "bye"); !errors.Is(err, ErrAlreadyDisposed) {
		t.Errorf("expected Stop after Dispose to return ErrAlreadyDisposed, got %v", err)
	}
}

func TestShouldIgnoreReconnectionAfterDispose(t *testing.T) {
	tr := newFakeTransport()
	factory := func(ctx context.Context, url string) (Transport, error) {
		return tr, nil
	}
	s := NewSession(newTestConfig(factory))
	_ = s.Start(context.Background())
	waitFor(t, time.Second, s.IsRunning)

	s.Dispose()

	if !s.shouldIgnoreReconnection(tr) {
		t.Error("expected reconnection to be ignored once the session is disposing")
	}
}

func TestSessionStartWithEmptyURLReturnsInvalidInput(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(NewSessionConfig("", factory, WithLogger(newTestLogger(io.Discard))))
	defer s.Dispose()

	err := s.Start(context.Background())
	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected a *SessionError for an empty URL, got %v", err)
	}
	if sessionErr.Kind() != KindInvalidInput {
		t.Errorf("expected KindInvalidInput, got %s", sessionErr.Kind())
	}
	if s.IsStarted() {
		t.Error("expected Start to reject before marking the session started")
	}
}

func TestCurrentTransportAsReturnsConcreteTransport(t *testing.T) {
	tr := newFakeTransport()
	factory := func(ctx context.Context, url string) (Transport, error) {
		return tr, nil
	}
	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	_ = s.Start(context.Background())
	waitFor(t, time.Second, s.IsRunning)

	got, err := CurrentTransportAs[*fakeTransport](s)
	if err != nil {
		t.Fatalf("CurrentTransportAs: %v", err)
	}
	if got != tr {
		t.Error("expected CurrentTransportAs to return the session's current transport")
	}
}

func TestCurrentTransportAsWrongConcreteTypeReturnsInvalidCast(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	_ = s.Start(context.Background())
	waitFor(t, time.Second, s.IsRunning)

	_, err := CurrentTransportAs[*wsTransport](s)
	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected a *SessionError, got %v", err)
	}
	if sessionErr.Kind() != KindInvalidCast {
		t.Errorf("expected KindInvalidCast, got %s", sessionErr.Kind())
	}
}

func TestCurrentTransportAsBeforeStartReturnsInvalidCast(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	_, err := CurrentTransportAs[*fakeTransport](s)
	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected a *SessionError, got %v", err)
	}
	if sessionErr.Kind() != KindInvalidCast {
		t.Errorf("expected KindInvalidCast, got %s", sessionErr.Kind())
	}
}

func TestSessionReconnectOnLostConnectionRedials(t *testing.T) {
	var dials atomic.Int32
	var transports []*fakeTransport
	factory := func(ctx context.Context, url string) (Transport, error) {
		dials.Add(1)
		tr := newFakeTransport()
		transports = append(transports, tr)
		return tr, nil
	}

	cfg := NewSessionConfig("wss://example.test/ws", factory,
		WithLogger(newTestLogger(io.Discard)),
		WithReconnectTimeout(0),
		WithLostReconnectTimeout(0),
	)
	s := NewSession(cfg)
	defer s.Dispose()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, time.Second, s.IsRunning)

	transports[0].Abort() // simulate an unexpectedly lost connection

	waitFor(t, time.Second, func() bool { return dials.Load() >= 2 })
	waitFor(t, time.Second, s.IsRunning)
}
