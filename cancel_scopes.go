package wsession

import "context"

// scopes holds the two nested cancellation lifetimes SPEC_FULL §1/§9
// describe: total is cancelled only by dispose, session is cancelled on
// every stop/reconnect boundary and is re-created (rotated) for the next
// connection epoch. Parenting session under total means cancelling total
// always cancels whichever session scope is currently live, without the
// controller having to track both explicitly on teardown.
type scopes struct {
	total         context.Context
	cancelTotal   context.CancelFunc
	session       context.Context
	cancelSession context.CancelFunc
}

func newScopes() *scopes {
	total, cancelTotal := context.WithCancel(context.Background())
	s := &scopes{total: total, cancelTotal: cancelTotal}
	s.rotateSession()
	return s
}

// rotateSession cancels the current session scope (if any) and replaces it
// with a fresh one parented under total. Called at the start of every
// start()/reconnect() so blocking I/O bound to the old epoch observes
// cancellation immediately.
func (s *scopes) rotateSession() {
	if s.cancelSession != nil {
		s.cancelSession()
	}
	s.session, s.cancelSession = context.WithCancel(s.total)
}

func (s *scopes) cancelSessionScope() {
	if s.cancelSession != nil {
		s.cancelSession()
	}
}

func (s *scopes) cancelAll() {
	s.cancelSessionScope()
	s.cancelTotal()
}
