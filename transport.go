package wsession

import (
	"context"
	"fmt"
)

// ConnState mirrors the RFC 6455 connection states a Transport can be in.
type ConnState int

const (
	StateNone ConnState = iota
	StateConnecting
	StateOpen
	StateCloseSent
	StateCloseReceived
	StateClosed
	StateAborted
)

// Frame is what Transport.Receive reports about the frame it just read.
type Frame struct {
	Kind         MessageType
	Count        int
	EndOfMessage bool
	// CloseCode / CloseReason are populated only when Kind == CloseMessage.
	CloseCode   int
	CloseReason string
}

// Transport is the full-duplex WebSocket frame channel supplied by a
// TransportFactory. It is an external collaborator per SPEC_FULL §1: this
// package never re-implements TLS, the HTTP upgrade handshake or wire
// framing, it only consumes an already-connected Transport. Semantics
// match RFC 6455.
type Transport interface {
	// Send writes one frame. endOfMessage=true for every call the session
	// makes today (SPEC_FULL's single-chunk assembly policy never splits
	// an outbound message across frames).
	Send(ctx context.Context, payload []byte, kind MessageType, endOfMessage bool) error
	// Receive reads the next frame into buf and reports what it read.
	// buf is the session's reusable 50 MiB scratch buffer (receive_loop.go).
	Receive(ctx context.Context, buf []byte) (Frame, error)
	// Close starts the closing handshake by sending a Close frame and then
	// shuts the connection down. The default wsTransport does not wait for
	// the peer's Close reply before shutting down.
	Close(ctx context.Context, status int, reason string) error
	// CloseOutput sends a Close frame without waiting for the peer's
	// reply; used when the peer already sent a Close (SPEC_FULL §4.4).
	CloseOutput(ctx context.Context, status int, reason string) error
	// Abort tears the connection down immediately, no handshake.
	Abort()
	// State reports the current connection state.
	State() ConnState
}

// TransportFactory dials a new Transport. Consumed by the controller on
// every (re)connect attempt; the URL is read fresh from SessionConfig each
// call, so reassigning it mid-run only takes effect on the next reconnect
// (SPEC_FULL §9).
type TransportFactory func(ctx context.Context, url string) (Transport, error)

// CurrentTransportAs is the facade-level escape hatch from spec §7: it
// returns the session's current transport type-asserted to the concrete
// type T, for callers that need to reach past the Transport interface (for
// example to call a *wsTransport-specific method). It raises
// KindInvalidCast when there is no current transport, or when the current
// one is not concretely a T.
func CurrentTransportAs[T Transport](s *Session) (T, error) {
	var zero T
	epoch := s.epoch.Load()
	if epoch == nil {
		return zero, newInvalidCastError("no current transport")
	}
	tr, ok := epoch.transport.(T)
	if !ok {
		return zero, newInvalidCastError(fmt.Sprintf("current transport is not %T", zero))
	}
	return tr, nil
}
