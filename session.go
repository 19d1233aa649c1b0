package wsession

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is the resilient client-side WebSocket session manager described
// by SPEC_FULL: one logical connection to a remote endpoint, reconnected
// automatically on transient failure, with bounded outbound queues and an
// event-stream inbound path. Grounded on the teacher's basicClient
// (client_basic.go), generalized from a single ConnectionHandler
// delegate to the full lifecycle controller in controller.go.
type Session struct {
	id     uuid.UUID
	cfg    SessionConfig
	logger logger

	scopes   *scopes
	sendLock *sendLock
	watchdog *watchdog

	outboundText   *boundedQueue[Message]
	outboundBinary *boundedQueue[Message]
	inbound        *boundedQueue[ReceiveItem]

	epoch atomic.Pointer[connectionEpoch]

	isStarted      atomic.Bool
	isRunning      atomic.Bool
	isDisposing    atomic.Bool
	isReconnecting atomic.Bool
	isStopping     atomic.Bool
	reconnectMu    sync.Mutex

	messageReceived       *Stream[ResponseMessage]
	reconnectionHappened  *Stream[ReconnectionInfo]
	disconnectionHappened *Stream[*DisconnectionInfo]
}

// NewSession constructs a Session. The outbound queues are created lazily
// on Start (they are recreated per SPEC_FULL's "worker queues live for the
// whole session" once Start has run for the first time); the inbound
// queue and streams live for the whole object from construction, since
// StreamFakeMessage and Subscribe* must work even before Start is called.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		id:                    uuid.New(),
		cfg:                   cfg,
		logger:                cfg.Logger.WithField("session", cfg.Name),
		scopes:                newScopes(),
		sendLock:              newSendLock(),
		messageReceived:       newStream[ResponseMessage](),
		reconnectionHappened:  newStream[ReconnectionInfo](),
		disconnectionHappened: newStream[*DisconnectionInfo](),
	}
	s.watchdog = newWatchdog(s.logger, cfg.ReconnectTimeout, s.onWatchdogFire)
	s.inbound = newBoundedQueue(s.logger, "inbound", cfg.InboundQueueCapacity, s.dispatchOne)
	return s
}

// dispatchOne acts on the epoch that produced item (item.epoch), never on
// whatever epoch is current at dequeue time: a reconnect can complete
// between an old epoch's receive loop enqueuing an item and this worker
// draining it, and dispatchInbound/handleCloseFrame must not be fooled
// into operating on the new, unrelated transport (SPEC_FULL §4.6).
func (s *Session) dispatchOne(item ReceiveItem) error {
	if item.epoch == nil {
		return nil
	}
	return s.dispatchInbound(item.epoch, item)
}

func (s *Session) onWatchdogFire() {
	epoch := s.epoch.Load()
	if epoch == nil || s.shouldIgnoreReconnection(epoch.transport) {
		return
	}
	if !s.cfg.IsReconnectionEnabled {
		return
	}

	info := &DisconnectionInfo{Type: DisconnectionNoMessageReceived}
	s.disconnectionHappened.Publish(info)
	if info.CancelReconnection {
		return
	}
	// reconnect disarms the watchdog, which waits for this callback's
	// goroutine to exit, so it must not run on that goroutine.
	go s.reconnect(ReconnectionNoMessageReceived, false, nil)
}

// ID returns the session's stable identifier, stamped into log lines and
// correlating events across reconnects.
func (s *Session) ID() uuid.UUID { return s.id }

// IsStarted reports whether the session is started: Start sets it; Stop
// and Dispose clear it, and so does a server-initiated close while
// reconnection is disabled.
func (s *Session) IsStarted() bool { return s.isStarted.Load() }

// IsRunning reports whether a transport is currently open and receiving.
func (s *Session) IsRunning() bool { return s.isRunning.Load() }

// SubscribeMessages registers fn on message_received.
func (s *Session) SubscribeMessages(fn func(ResponseMessage)) Unsubscribe {
	return s.messageReceived.Subscribe(fn)
}

// SubscribeReconnections registers fn on reconnection_happened.
func (s *Session) SubscribeReconnections(fn func(ReconnectionInfo)) Unsubscribe {
	return s.reconnectionHappened.Subscribe(fn)
}

// SubscribeDisconnections registers fn on disconnection_happened. fn may
// mutate the pointee's CancelReconnection/CancelClosing fields; the
// controller observes the mutation once fn returns.
func (s *Session) SubscribeDisconnections(fn func(*DisconnectionInfo)) Unsubscribe {
	return s.disconnectionHappened.Subscribe(fn)
}

// StreamFakeMessage is the test hook from spec §6: it publishes directly
// to message_received, bypassing the transport entirely.
func (s *Session) StreamFakeMessage(msg ResponseMessage) {
	s.messageReceived.Publish(msg)
}

// SetURL reassigns the target endpoint. Per SPEC_FULL §9 this only takes
// effect on the next reconnect; the controller reads cfg.URL fresh every
// time startClient runs.
func (s *Session) SetURL(url string) {
	s.cfg.URL = url
}
