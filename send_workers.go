package wsession

import "context"

// sendOne returns the per-item handler for one outbound queue (text or
// binary). Grounded on the teacher's write loop switch in
// net_websocket.go: acquire the send-lock, check the transport is
// connected, write, and never re-enqueue on failure — the teacher's write
// loop likewise drops a message on a write error rather than retrying it.
func (s *Session) sendOne(kind MessageType) func(Message) error {
	return func(m Message) error {
		// Bind the write to the current epoch's session scope so a worker
		// waiting on the send-lock unblocks when that scope is cancelled.
		ctx := context.Background()
		if epoch := s.epoch.Load(); epoch != nil {
			ctx = epoch.ctx
		}
		return s.writeMessage(ctx, m.Data(), kind)
	}
}

func (s *Session) writeMessage(ctx context.Context, payload []byte, kind MessageType) error {
	return s.sendLock.withLock(ctx, func() error {
		epoch := s.epoch.Load()
		if epoch == nil || epoch.transport.State() != StateOpen {
			s.logger.Warnf("dropping %s message: not connected", kind)
			return nil
		}
		return epoch.transport.Send(ctx, payload, kind, true)
	})
}

// SendText enqueues a text message onto the outbound-text queue. A no-op
// before Start has run or after Dispose, matching spec §6's "silently
// dropped if queue closed."
func (s *Session) SendText(text string) {
	if s.isDisposing.Load() || s.outboundText == nil {
		return
	}
	s.outboundText.Add(NewTextMessage([]byte(text)))
}

// SendBytes enqueues a binary message onto the outbound-binary queue.
func (s *Session) SendBytes(data []byte) {
	if s.isDisposing.Load() || s.outboundBinary == nil {
		return
	}
	s.outboundBinary.Add(NewBinaryMessage(data))
}

// SendInstantText bypasses the queue but still acquires the send-lock, so
// it never races a queued write on the wire.
func (s *Session) SendInstantText(ctx context.Context, text string) error {
	if s.isDisposing.Load() {
		return ErrAlreadyDisposed
	}
	return s.writeMessage(ctx, []byte(text), TextMessage)
}

// SendInstantBytes is the binary counterpart of SendInstantText.
func (s *Session) SendInstantBytes(ctx context.Context, data []byte) error {
	if s.isDisposing.Load() {
		return ErrAlreadyDisposed
	}
	if data == nil {
		return newInvalidInputError("message must not be nil")
	}
	return s.writeMessage(ctx, data, BinaryMessage)
}
