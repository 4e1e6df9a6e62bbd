// ABOUTME: Context propagation for the request-scoped session state
// ABOUTME: Provides WithState/FromContext mirroring the auth-context pattern

package session

import "context"

// stateKey is the key type for storing State in context.Context.
type stateKey struct{}

// WithState returns a new context with the session state attached.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// FromContext retrieves the session state, returning nil if not present.
func FromContext(ctx context.Context) *State {
	val := ctx.Value(stateKey{})
	if val == nil {
		return nil
	}
	st, ok := val.(*State)
	if !ok {
		return nil
	}
	return st
}

// MustFromContext retrieves the session state, panicking if not present.
func MustFromContext(ctx context.Context) *State {
	st := FromContext(ctx)
	if st == nil {
		panic("session: State not found in context")
	}
	return st
}
