// ABOUTME: Error types surfaced by the login orchestrator
// ABOUTME: DisabledAccountError is the only fatal identity-security rejection

package login

import "fmt"

// DisabledAccountError aborts a login for an administratively disabled
// account. It is surfaced to the caller as a user-facing rejection.
type DisabledAccountError struct {
	UID string
}

func (e *DisabledAccountError) Error() string {
	return fmt.Sprintf("account %q is disabled", e.UID)
}
