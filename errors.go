package wsession

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("program exit")
)

// ErrorKind enumerates the facade-level error taxonomy a caller can branch
// on with errors.Is / (*SessionError).Kind.
type ErrorKind int

const (
	KindAlreadyDisposed ErrorKind = iota + 1
	KindConnectFailed
	KindSendFailed
	KindCloseFailed
	KindInvalidCast
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindAlreadyDisposed:
		return "already_disposed"
	case KindConnectFailed:
		return "connect_failed"
	case KindSendFailed:
		return "send_failed"
	case KindCloseFailed:
		return "close_failed"
	case KindInvalidCast:
		return "invalid_cast"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// SessionError is the error type returned by fail-fast facade operations
// and carried inside DisconnectionInfo for tolerant ones. It wraps a cause
// the way the teacher's ErrUnrecoverableConnection wraps a dial error.
type SessionError struct {
	kind ErrorKind
	err  error
}

func (e *SessionError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("wsession: %s", e.kind)
	}
	return fmt.Sprintf("wsession: %s: %s", e.kind, e.err)
}

func (e *SessionError) Unwrap() error { return e.err }

func (e *SessionError) Kind() ErrorKind { return e.kind }

func newSessionError(kind ErrorKind, cause error) *SessionError {
	return &SessionError{kind: kind, err: cause}
}

func wrapSessionError(kind ErrorKind, cause error, msg string) *SessionError {
	if cause == nil {
		return newSessionError(kind, errors.New(msg))
	}
	return newSessionError(kind, errors.Wrap(cause, msg))
}

// ErrAlreadyDisposed is returned by every facade operation once the
// session has entered the disposed terminal state.
var ErrAlreadyDisposed = newSessionError(KindAlreadyDisposed, errors.New("session has been disposed"))

// newInvalidInputError is returned for misuse: empty URL, nil message, etc.
func newInvalidInputError(msg string) *SessionError {
	return newSessionError(KindInvalidInput, errors.New(msg))
}

// newInvalidCastError is returned by CurrentTransportAs when the caller
// asks for a concrete transport type that the current transport isn't.
func newInvalidCastError(msg string) *SessionError {
	return newSessionError(KindInvalidCast, errors.New(msg))
}
