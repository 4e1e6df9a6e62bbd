// ABOUTME: Synchronous in-process dispatcher for login lifecycle events
// ABOUTME: Listeners run in subscription order on the caller's goroutine

package events

import "sync"

// Dispatcher fans lifecycle events out to subscribed listeners. Dispatch is
// synchronous and ordered: the login orchestrator depends on observers
// seeing events in the exact sequence they were emitted.
type Dispatcher struct {
	mu           sync.RWMutex
	loginStarted []func(*LoginStarted)
	beforeLogin  []func(BeforeLogin)
	userLoggedIn []func(UserLoggedIn)
	loggedOut    []func(LoggedOut)
}

// NewDispatcher creates a dispatcher with no listeners.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// OnLoginStarted subscribes to pre-login events. The event is shared by
// pointer so observers can flip Proceed, matching the legacy hook shape.
func (d *Dispatcher) OnLoginStarted(fn func(*LoginStarted)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loginStarted = append(d.loginStarted, fn)
}

// OnBeforeLogin subscribes to before-login events.
func (d *Dispatcher) OnBeforeLogin(fn func(BeforeLogin)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.beforeLogin = append(d.beforeLogin, fn)
}

// OnUserLoggedIn subscribes to completed-login events.
func (d *Dispatcher) OnUserLoggedIn(fn func(UserLoggedIn)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.userLoggedIn = append(d.userLoggedIn, fn)
}

// OnLoggedOut subscribes to logout events.
func (d *Dispatcher) OnLoggedOut(fn func(LoggedOut)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loggedOut = append(d.loggedOut, fn)
}

// EmitLoginStarted dispatches a pre-login event to all listeners.
func (d *Dispatcher) EmitLoginStarted(ev *LoginStarted) {
	d.mu.RLock()
	listeners := d.loginStarted
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// EmitBeforeLogin dispatches a before-login event to all listeners.
func (d *Dispatcher) EmitBeforeLogin(ev BeforeLogin) {
	d.mu.RLock()
	listeners := d.beforeLogin
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// EmitUserLoggedIn dispatches a completed-login event to all listeners.
func (d *Dispatcher) EmitUserLoggedIn(ev UserLoggedIn) {
	d.mu.RLock()
	listeners := d.userLoggedIn
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// EmitLoggedOut dispatches a logout event to all listeners.
func (d *Dispatcher) EmitLoggedOut(ev LoggedOut) {
	d.mu.RLock()
	listeners := d.loggedOut
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
