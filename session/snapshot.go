package session

import (
	"github.com/jrsteele09/go-rolegate/identity"
	"github.com/jrsteele09/go-rolegate/roles"
)

// Status is the controller state for the current generation.
type Status int

const (
	StatusInitializing Status = iota // No identity event received yet
	StatusResolving                  // Identity known, role lookup in flight
	StatusReady                      // Identity and role resolved (or signed out)
	StatusError                      // Role lookup failed; identity retained, role is none
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusResolving:
		return "resolving"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Snapshot is an immutable read of the session. Identity and Role always
// belong to the same generation.
type Snapshot struct {
	Identity   identity.Identity // Zero when signed out
	Role       roles.Role        // roles.None when signed out, pending or unassigned
	Status     Status
	Generation uint64 // Incremented on every applied identity change or refresh
	Revision   uint64 // Incremented on every committed transition
	LastError  error  // Set with StatusError, cleared by the next transition
}

// SignedIn reports whether an identity is present.
func (s Snapshot) SignedIn() bool {
	return !s.Identity.IsZero()
}

// Pending reports whether consumers should show a neutral loading state.
func (s Snapshot) Pending() bool {
	return s.Status == StatusInitializing || s.Status == StatusResolving
}
