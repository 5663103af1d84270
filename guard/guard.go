package guard

import (
	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/session"
)

// Decision tells a protected view whether to render or where to redirect.
type Decision int

const (
	Pending                 Decision = iota // Render a neutral loading state
	Allow                                   // Render the view
	RedirectUnauthenticated                 // Send the user to sign in
	RedirectForbidden                       // Signed in without a permitted role
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectUnauthenticated:
		return "redirect_unauthenticated"
	case RedirectForbidden:
		return "redirect_forbidden"
	}
	return "unknown"
}

// Authorize decides access to a view that requires one of the roles in required.
// StatusError is treated exactly like a resolved role of none.
func Authorize(snap session.Snapshot, required roles.Set) Decision {
	if snap.Pending() {
		return Pending
	}
	if !snap.SignedIn() {
		return RedirectUnauthenticated
	}
	if snap.Status == session.StatusError || snap.Role == roles.None || !required.Has(snap.Role) {
		return RedirectForbidden
	}
	return Allow
}

// AuthorizeSignedIn decides access to a view that only needs a signed-in
// identity. A known identity is allowed while its role is still resolving or
// failed to resolve.
func AuthorizeSignedIn(snap session.Snapshot) Decision {
	if snap.Status == session.StatusInitializing {
		return Pending
	}
	if !snap.SignedIn() {
		return RedirectUnauthenticated
	}
	return Allow
}
