package wsession

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

// wsTransport is the default Transport, grounded on the teacher's
// WsConnection (net_websocket.go): a *websocket.Conn from
// github.com/fasthttp/websocket plus the close-once bookkeeping the
// teacher uses to make Close/Abort/read-loop-exit idempotent with each
// other.
type wsTransport struct {
	dialer *websocket.Dialer
	logger logger

	conn      *websocket.Conn
	state     atomic.Int32
	closeOnce sync.Once

	writeTimeout time.Duration
}

// NewWebsocketTransportFactory returns a TransportFactory that dials with
// the given *websocket.Dialer, the same construction the teacher exposes
// via NewWebsocketFactory in net_websocket.go, generalized to the
// TransportFactory shape SPEC_FULL §6 requires.
func NewWebsocketTransportFactory(dialer *websocket.Dialer, log logger) TransportFactory {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return func(ctx context.Context, url string) (Transport, error) {
		t := &wsTransport{dialer: dialer, logger: log.WithField("transport", "websocket"), writeTimeout: time.Second}
		t.state.Store(int32(StateConnecting))

		conn, resp, err := dialer.DialContext(ctx, url, http.Header{})
		if err = adaptDialError(resp, err); err != nil {
			t.state.Store(int32(StateClosed))
			return nil, wrapSessionError(KindConnectFailed, err, "dial "+url)
		}

		t.conn = conn
		t.state.Store(int32(StateOpen))
		return t, nil
	}
}

func adaptDialError(resp *http.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return errors.Wrap(ErrCannotConnect, "rate limited")
	}
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}
	return nil
}

func (t *wsTransport) State() ConnState {
	return ConnState(t.state.Load())
}

// Send writes one frame under the caller's send-lock. Mirrors the teacher's
// write loop switch in net_websocket.go: control frames go through
// WriteControl with a short deadline, data frames through WriteMessage.
func (t *wsTransport) Send(ctx context.Context, payload []byte, kind MessageType, endOfMessage bool) error {
	if t.State() != StateOpen {
		return errors.Wrap(ErrConnectionClosed, "send on non-open transport")
	}

	deadline := time.Now().Add(t.writeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = t.conn.SetWriteDeadline(deadline)

	var err error
	switch kind {
	case PingMessage:
		err = t.conn.WriteControl(websocket.PingMessage, payload, deadline)
	case PongMessage:
		err = t.conn.WriteControl(websocket.PongMessage, payload, deadline)
	case TextMessage:
		err = t.conn.WriteMessage(websocket.TextMessage, payload)
	case BinaryMessage:
		err = t.conn.WriteMessage(websocket.BinaryMessage, payload)
	default:
		err = t.conn.WriteMessage(websocket.BinaryMessage, payload)
	}

	if err != nil {
		return wrapSessionError(KindSendFailed, err, "write frame")
	}
	return nil
}

// Receive reads exactly one frame into buf via conn.NextReader, copying the
// payload out with a Read loop the way SPEC_FULL §4.3 requires: the
// scratch buffer is reused across calls, but the returned Frame.Count is
// the exact byte count so the caller can size a fresh owned slice.
func (t *wsTransport) Receive(ctx context.Context, buf []byte) (Frame, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(dl)
	}

	messageType, r, err := t.conn.NextReader()
	if err != nil {
		// A Close control frame surfaces as *websocket.CloseError from the
		// default close handler (mirrors the teacher's SetCloseHandler in
		// net_websocket.go); hand it to the dispatcher as a ReceiveItem
		// instead of treating it as a read failure.
		if ce, ok := err.(*websocket.CloseError); ok {
			t.state.Store(int32(StateCloseReceived))
			return Frame{
				Kind:         CloseMessage,
				Count:        len(ce.Text),
				EndOfMessage: true,
				CloseCode:    ce.Code,
				CloseReason:  ce.Text,
			}, nil
		}
		return Frame{}, errors.Wrap(ErrConnectionClosed, err.Error())
	}

	n := 0
	for {
		if n == len(buf) {
			// scratch buffer exhausted; grow the caller's frame budget
			// rather than truncate the message.
			buf = append(buf, make([]byte, 64*1024)...)
		}
		m, rerr := r.Read(buf[n:])
		n += m
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return Frame{}, rerr
		}
	}

	kind := TextMessage
	if messageType == websocket.BinaryMessage {
		kind = BinaryMessage
	}

	return Frame{Kind: kind, Count: n, EndOfMessage: true}, nil
}

func (t *wsTransport) Close(ctx context.Context, status int, reason string) error {
	deadline := time.Now().Add(t.writeTimeout)
	msg := websocket.FormatCloseMessage(status, reason)
	err := t.conn.WriteControl(websocket.CloseMessage, msg, deadline)

	// Close does not wait for the peer's Close reply: the goroutine below
	// only parks until waitCtx ends, and the connection is aborted right
	// after the Close frame is written.
	waitCtx, cancel := context.WithTimeout(ctx, t.writeTimeout)
	defer cancel()
	go func() {
		<-waitCtx.Done()
	}()

	t.state.Store(int32(StateCloseSent))
	t.Abort()

	if err != nil {
		return wrapSessionError(KindCloseFailed, err, "close handshake")
	}
	return nil
}

func (t *wsTransport) CloseOutput(ctx context.Context, status int, reason string) error {
	deadline := time.Now().Add(t.writeTimeout)
	msg := websocket.FormatCloseMessage(status, reason)
	err := t.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	t.state.Store(int32(StateCloseSent))
	if err != nil {
		return wrapSessionError(KindCloseFailed, err, "close output")
	}
	return nil
}

func (t *wsTransport) Abort() {
	t.closeOnce.Do(func() {
		t.state.Store(int32(StateAborted))
		_ = t.conn.Close()
	})
}
