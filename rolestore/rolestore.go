package rolestore

import (
	"context"
	"time"

	ierrors "github.com/jrsteele09/go-rolegate/internal/errors"
	"github.com/jrsteele09/go-rolegate/roles"
)

// ErrUnknownRole is surfaced when a store holds a value outside the closed role set.
var ErrUnknownRole = ierrors.ErrUnknownRole

// Client resolves the role held by a user. A user with nothing assigned
// resolves to roles.None with a nil error.
type Client interface {
	LookupRole(ctx context.Context, userID string) (roles.Role, error)
}

// Writer records role assignments, used when an account picks its role at sign-up.
type Writer interface {
	SetRole(ctx context.Context, userID string, role roles.Role) error
	DeleteRole(ctx context.Context, userID string) error
}

// Repo is a store that can both resolve and record roles.
type Repo interface {
	Client
	Writer
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, userID string) (roles.Role, error)

func (f ClientFunc) LookupRole(ctx context.Context, userID string) (roles.Role, error) {
	return f(ctx, userID)
}

// WithTimeout bounds every lookup made through c. A non-positive timeout returns c unchanged.
func WithTimeout(c Client, timeout time.Duration) Client {
	if timeout <= 0 {
		return c
	}
	return ClientFunc(func(ctx context.Context, userID string) (roles.Role, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type result struct {
			role roles.Role
			err  error
		}
		done := make(chan result, 1)
		go func() {
			role, err := c.LookupRole(ctx, userID)
			done <- result{role, err}
		}()

		select {
		case r := <-done:
			return r.role, r.err
		case <-ctx.Done():
			return roles.None, ierrors.Wrapf(ctx.Err(), "[rolestore.WithTimeout] lookup for %s", userID)
		}
	})
}
