package wsession

import (
	"context"
	"errors"
	"time"
)

// receiveLoop is the long-running task from SPEC_FULL §4.3, bound to one
// transport handle (one connection epoch). It reads raw frames into buf
// (the session's reusable 50 MiB scratch buffer), copies each frame's
// payload into a freshly allocated owned slice sized exactly to the
// reported byte count, stamps the watchdog, and hands a ReceiveItem to the
// inbound queue. Grounded on WsConnection.read in the teacher's
// net_websocket.go, generalized from "recv <- message" (unbounded channel
// send) to "enqueue onto the bounded inbound queue."
func (s *Session) receiveLoop(ctx context.Context, epoch *connectionEpoch, buf []byte) {
	tr := epoch.transport

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := tr.Receive(ctx, buf)
		if err != nil {
			s.handleReceiveLoopExit(ctx, epoch, err)
			return
		}

		item := ReceiveItem{
			Kind:  frame.Kind,
			Final: frame.EndOfMessage,
			Count: frame.Count,
			epoch: epoch,
		}

		if frame.Kind == CloseMessage {
			item.Data = []byte(frame.CloseReason)
			item.CloseCode = frame.CloseCode
		} else {
			owned := make([]byte, frame.Count)
			copy(owned, buf[:frame.Count])
			item.Data = owned
		}

		s.watchdog.touch()
		s.inbound.Add(item)

		if tr.State() != StateOpen {
			s.handleReceiveLoopExit(ctx, epoch, nil)
			return
		}
	}
}

// handleReceiveLoopExit maps the termination cause to an action per the
// table in SPEC_FULL §4.3: cancellation exits silently, a closed
// transport lets the controller decide via the dispatcher's Close-frame
// handling, and an unexpected I/O error requests a lost-reconnect after
// logging.
func (s *Session) handleReceiveLoopExit(ctx context.Context, epoch *connectionEpoch, cause error) {
	if ctx.Err() != nil {
		return // cancellation / disposal: exit silently
	}

	if cause == nil {
		return // transport closed cleanly; dispatcher's close handling decides
	}

	if errors.Is(cause, ErrConnectionClosed) {
		s.logger.Infof("receive loop: connection closed: %s", cause)
	} else {
		s.logger.Errorf("receive loop: unexpected I/O error: %s", cause)
	}

	if s.shouldIgnoreReconnection(epoch.transport) || !s.isStarted.Load() {
		return
	}

	go func() {
		if s.cfg.LostReconnectTimeout > 0 {
			select {
			case <-time.After(s.cfg.LostReconnectTimeout):
			case <-s.scopes.total.Done():
				return
			}
		}
		s.reconnect(ReconnectionLost, false, cause)
	}()
}
