package wsession

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSendTextDeliversThroughOutboundQueue(t *testing.T) {
	s, tr := newDispatchTestSession(t, false)
	defer s.Dispose()

	s.SendText("hello")

	waitFor(t, time.Second, func() bool { return tr.sendCount.Load() == 1 })
}

func TestSendBytesBeforeStartIsDropped(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))
	defer s.Dispose()

	// Must not panic: outboundBinary is nil before Start runs.
	s.SendBytes([]byte("data"))
}

func TestSendInstantTextBypassesQueue(t *testing.T) {
	s, tr := newDispatchTestSession(t, false)
	defer s.Dispose()

	if err := s.SendInstantText(context.Background(), "now"); err != nil {
		t.Fatalf("SendInstantText: %v", err)
	}
	if tr.sendCount.Load() != 1 {
		t.Errorf("expected exactly one immediate send, got %d", tr.sendCount.Load())
	}
}

func TestSendInstantTextAfterDisposeFails(t *testing.T) {
	factory := func(ctx context.Context, url string) (Transport, error) {
		return newFakeTransport(), nil
	}
	s := NewSession(newTestConfig(factory))
	s.Dispose()

	if err := s.SendInstantText(context.Background(), "x"); err == nil {
		t.Error("expected SendInstantText to fail after Dispose")
	}
}

func TestSendInstantBytesNilDataReturnsInvalidInput(t *testing.T) {
	s, tr := newDispatchTestSession(t, false)
	defer s.Dispose()

	err := s.SendInstantBytes(context.Background(), nil)

	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected a *SessionError for nil data, got %v", err)
	}
	if sessionErr.Kind() != KindInvalidInput {
		t.Errorf("expected KindInvalidInput, got %s", sessionErr.Kind())
	}
	if tr.sendCount.Load() != 0 {
		t.Error("expected nil data to be rejected before reaching the transport")
	}
}

func TestWriteMessageDropsWhenNotConnected(t *testing.T) {
	s, tr := newDispatchTestSession(t, false)
	defer s.Dispose()

	tr.state.Store(int32(StateClosed))

	err := s.writeMessage(context.Background(), []byte("x"), TextMessage)
	if err != nil {
		t.Fatalf("expected writeMessage to swallow the not-connected case, got %v", err)
	}
	if tr.sendCount.Load() != 0 {
		t.Error("expected no Send call when the transport is not open")
	}
}
