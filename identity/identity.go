package identity

import (
	"context"

	ierrors "github.com/jrsteele09/go-rolegate/internal/errors"
)

var (
	ErrInvalidCredentials = ierrors.ErrInvalidCredentials
	ErrAccountExists      = ierrors.ErrAccountExists
	ErrUnsupported        = ierrors.ErrUnsupported
)

// Identity is the signed-in principal reported by an identity backend.
// The zero value means signed out.
type Identity struct {
	ID          string `json:"id,omitempty"`           // Opaque user identifier, the role lookup key
	Email       string `json:"email,omitempty"`        // Email address used to sign in
	DisplayName string `json:"display_name,omitempty"` // Name shown in greetings, may be empty
}

// IsZero reports whether the identity is absent.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// Same reports whether both values refer to the same principal.
func (i Identity) Same(other Identity) bool {
	return i.ID == other.ID
}

// Credentials are the email and password pair submitted by sign-in and sign-up forms.
type Credentials struct {
	Email    string
	Password string
}

// ChangeFunc receives every sign-in and sign-out transition. A zero Identity means signed out.
type ChangeFunc func(Identity)

// Provider abstracts the external identity backend.
type Provider interface {
	// OnIdentityChange registers fn and delivers the current state once, then every change.
	// The returned function removes the registration.
	OnIdentityChange(fn ChangeFunc) (unsubscribe func(), err error)

	// SignIn authenticates and, on success, triggers an identity change.
	SignIn(ctx context.Context, creds Credentials) (Identity, error)

	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, creds Credentials) (Identity, error)

	// SignOut ends the session. Signing out while signed out is a no-op.
	SignOut(ctx context.Context) error
}
