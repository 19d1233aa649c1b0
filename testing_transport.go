package wsession

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"
)

// mockTransport is a testify mock standing in for a dialed Transport.
// Grounded on the teacher's mockClient (testing_client.go), generalized
// from the teacher's Open/Send/Close/CloseChan surface to the richer
// Transport interface SPEC_FULL requires (Receive, CloseOutput, Abort,
// State).
type mockTransport struct {
	mock.Mock

	state atomic.Int32
}

func newMockTransport() *mockTransport {
	m := &mockTransport{}
	m.state.Store(int32(StateOpen))
	return m
}

func (m *mockTransport) Send(ctx context.Context, payload []byte, kind MessageType, endOfMessage bool) error {
	args := m.Called(ctx, payload, kind, endOfMessage)
	return args.Error(0)
}

func (m *mockTransport) Receive(ctx context.Context, buf []byte) (Frame, error) {
	args := m.Called(ctx, buf)
	frame, _ := args.Get(0).(Frame)
	return frame, args.Error(1)
}

func (m *mockTransport) Close(ctx context.Context, status int, reason string) error {
	args := m.Called(ctx, status, reason)
	m.state.Store(int32(StateClosed))
	return args.Error(0)
}

func (m *mockTransport) CloseOutput(ctx context.Context, status int, reason string) error {
	args := m.Called(ctx, status, reason)
	m.state.Store(int32(StateCloseSent))
	return args.Error(0)
}

func (m *mockTransport) Abort() {
	m.Called()
	m.state.Store(int32(StateAborted))
}

func (m *mockTransport) State() ConnState {
	return ConnState(m.state.Load())
}

func (m *mockTransport) setState(s ConnState) {
	m.state.Store(int32(s))
}

// fakeTransport is a hand-rolled Transport double for controller lifecycle
// tests, where the static expectation style of mockTransport would fight
// the asynchronous, block-until-cancelled shape Receive needs: real
// transports block in Receive until the connection goes away, and the
// controller relies on that to observe cancellation/abort promptly.
type fakeTransport struct {
	state     atomic.Int32
	abortOnce sync.Once
	aborted   chan struct{}

	sendCount         atomic.Int32
	closeCalled       atomic.Bool
	closeOutputCalled atomic.Bool
}

func newFakeTransport() *fakeTransport {
	t := &fakeTransport{aborted: make(chan struct{})}
	t.state.Store(int32(StateOpen))
	return t
}

func (f *fakeTransport) Send(ctx context.Context, payload []byte, kind MessageType, endOfMessage bool) error {
	f.sendCount.Add(1)
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context, buf []byte) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-f.aborted:
		return Frame{}, ErrConnectionClosed
	}
}

func (f *fakeTransport) Close(ctx context.Context, status int, reason string) error {
	f.closeCalled.Store(true)
	f.state.Store(int32(StateClosed))
	f.abort()
	return nil
}

func (f *fakeTransport) CloseOutput(ctx context.Context, status int, reason string) error {
	f.closeOutputCalled.Store(true)
	f.state.Store(int32(StateCloseSent))
	return nil
}

func (f *fakeTransport) Abort() {
	f.state.Store(int32(StateAborted))
	f.abort()
}

func (f *fakeTransport) abort() {
	f.abortOnce.Do(func() { close(f.aborted) })
}

func (f *fakeTransport) State() ConnState {
	return ConnState(f.state.Load())
}
