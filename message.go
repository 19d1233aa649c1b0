package wsession

import "fmt"

// MessageType identifies the kind of frame carried by a Message. Text and
// Binary are application-visible; Ping, Pong and Close are control frames
// the transport surfaces internally so the dispatcher can drive the
// lifecycle without leaking RFC 6455 framing details to subscribers.
type MessageType byte

const (
	TextMessage   MessageType = 1
	BinaryMessage MessageType = 2
	CloseMessage  MessageType = 8
	PingMessage   MessageType = 9
	PongMessage   MessageType = 10
)

func (t MessageType) Is(other MessageType) bool {
	return t == other
}

func (t MessageType) IsData() bool {
	return t == TextMessage || t == BinaryMessage
}

func (t MessageType) IsPing() bool {
	return t.Is(PingMessage)
}

func (t MessageType) IsPong() bool {
	return t.Is(PongMessage)
}

func (t MessageType) IsClose() bool {
	return t.Is(CloseMessage)
}

// Message is a single outbound frame moving through a send queue towards
// the transport.
type Message interface {
	Type() MessageType
	Data() []byte
	String() string
}

type message struct {
	msgType MessageType
	data    []byte
}

func (m message) Type() MessageType { return m.msgType }
func (m message) Data() []byte      { return m.data }

func (m message) String() string {
	return fmt.Sprintf("Message{type=%d,len=%d}", m.msgType, len(m.data))
}

func NewTextMessage(data []byte) Message {
	return message{msgType: TextMessage, data: data}
}

func NewBinaryMessage(data []byte) Message {
	return message{msgType: BinaryMessage, data: data}
}

func NewPingMessage(data []byte) Message {
	return message{msgType: PingMessage, data: data}
}

func NewPongMessage(data []byte) Message {
	return message{msgType: PongMessage, data: data}
}

// ReceiveItem is what the receive loop hands the inbound queue: one raw
// frame, assembled under the single-chunk policy (see DESIGN.md).
type ReceiveItem struct {
	Kind  MessageType
	Final bool
	Count int
	Data  []byte // owned slice, sized exactly to Count

	// CloseCode is populated only when Kind == CloseMessage.
	CloseCode int

	// epoch is the connection epoch whose receive loop produced this item.
	// The inbound dispatch worker acts on this handle rather than
	// reloading whatever epoch is current at dequeue time, so a reconnect
	// racing ahead of a buffered item (SPEC_FULL §4.6's stale-handle rule)
	// can never make dispatch act on a different connection than the one
	// that actually produced the frame.
	epoch *connectionEpoch
}

// ResponseMessage is the tagged union published to message_received
// subscribers.
type ResponseMessage struct {
	kind   MessageType
	text   string
	binary []byte
	code   int
	reason string
}

func (r ResponseMessage) Kind() MessageType   { return r.kind }
func (r ResponseMessage) IsText() bool        { return r.kind == TextMessage }
func (r ResponseMessage) IsBinary() bool      { return r.kind == BinaryMessage }
func (r ResponseMessage) IsClose() bool       { return r.kind == CloseMessage }
func (r ResponseMessage) Text() string        { return r.text }
func (r ResponseMessage) Binary() []byte      { return r.binary }
func (r ResponseMessage) CloseCode() int      { return r.code }
func (r ResponseMessage) CloseReason() string { return r.reason }

func (r ResponseMessage) String() string {
	switch r.kind {
	case TextMessage:
		return fmt.Sprintf("ResponseMessage{text=%q}", r.text)
	case BinaryMessage:
		return fmt.Sprintf("ResponseMessage{binary=%d bytes}", len(r.binary))
	case CloseMessage:
		return fmt.Sprintf("ResponseMessage{close code=%d reason=%q}", r.code, r.reason)
	default:
		return "ResponseMessage{unknown}"
	}
}

func NewTextResponse(s string) ResponseMessage {
	return ResponseMessage{kind: TextMessage, text: s}
}

func NewBinaryResponse(b []byte) ResponseMessage {
	return ResponseMessage{kind: BinaryMessage, binary: b}
}

func NewCloseResponse(code int, reason string) ResponseMessage {
	return ResponseMessage{kind: CloseMessage, code: code, reason: reason}
}
