package wsession

import "time"

// DisconnectionType classifies why a connection went away.
type DisconnectionType int

const (
	DisconnectionExit DisconnectionType = iota + 1
	DisconnectionNoMessageReceived
	DisconnectionError
	DisconnectionLost
	DisconnectionByServer
	DisconnectionByUser
)

func (t DisconnectionType) String() string {
	switch t {
	case DisconnectionExit:
		return "exit"
	case DisconnectionNoMessageReceived:
		return "no_message_received"
	case DisconnectionError:
		return "error"
	case DisconnectionLost:
		return "lost"
	case DisconnectionByServer:
		return "by_server"
	case DisconnectionByUser:
		return "by_user"
	default:
		return "unknown"
	}
}

// DisconnectionInfo is published on disconnection_happened. Subscribers may
// mutate CancelReconnection / CancelClosing synchronously during delivery;
// the controller reads them back once Stream.Publish returns (see
// event_emitter.go's synchronous-fan-out guarantee).
type DisconnectionInfo struct {
	Type             DisconnectionType
	CloseStatus      int
	CloseDescription string
	Exception        error
	At               time.Time

	// CancelReconnection, when set true by a subscriber during delivery of
	// a Error-type disconnection, suppresses the pending retry.
	CancelReconnection bool
	// CancelClosing, when set true by a subscriber during delivery of a
	// ByServer-type disconnection, tells the dispatcher to abort the
	// transport (forcing a lost-reconnect) instead of completing a normal
	// close handshake.
	CancelClosing bool
}

// ReconnectionType classifies why a (re)connection cycle started.
type ReconnectionType int

const (
	ReconnectionInitial ReconnectionType = iota + 1
	ReconnectionLost
	ReconnectionNoMessageReceived
	ReconnectionError
	ReconnectionByUser
)

func (t ReconnectionType) String() string {
	switch t {
	case ReconnectionInitial:
		return "initial"
	case ReconnectionLost:
		return "lost"
	case ReconnectionNoMessageReceived:
		return "no_message_received"
	case ReconnectionError:
		return "error"
	case ReconnectionByUser:
		return "by_user"
	default:
		return "unknown"
	}
}

// ReconnectionInfo is published on reconnection_happened after a
// (re)connect succeeds.
type ReconnectionInfo struct {
	Type ReconnectionType
	At   time.Time
}
