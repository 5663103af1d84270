package guard

import (
	"net/http"

	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/session"
)

const (
	DefaultLoginPath     = "/login"
	DefaultForbiddenPath = "/"
)

// SnapshotSource is satisfied by *session.Controller.
type SnapshotSource interface {
	CurrentSnapshot() session.Snapshot
}

// Redirects configures where denied requests are sent.
type Redirects struct {
	LoginPath     string // Used for RedirectUnauthenticated
	ForbiddenPath string // Used for RedirectForbidden
}

func (r Redirects) withDefaults() Redirects {
	if r.LoginPath == "" {
		r.LoginPath = DefaultLoginPath
	}
	if r.ForbiddenPath == "" {
		r.ForbiddenPath = DefaultForbiddenPath
	}
	return r
}

// RequireRoles is middleware for role-gated routes such as /teacher/dashboard
func RequireRoles(source SnapshotSource, redirects Redirects, required ...roles.Role) func(http.HandlerFunc) http.HandlerFunc {
	set := roles.NewSet(required...)
	return middleware(source, redirects, func(snap session.Snapshot) Decision {
		return Authorize(snap, set)
	})
}

// RequireSignedIn is middleware for routes open to any signed-in identity
func RequireSignedIn(source SnapshotSource, redirects Redirects) func(http.HandlerFunc) http.HandlerFunc {
	return middleware(source, redirects, AuthorizeSignedIn)
}

func middleware(source SnapshotSource, redirects Redirects, decide func(session.Snapshot) Decision) func(http.HandlerFunc) http.HandlerFunc {
	redirects = redirects.withDefaults()
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch decide(source.CurrentSnapshot()) {
			case Allow:
				next(w, r)
			case RedirectUnauthenticated:
				http.Redirect(w, r, redirects.LoginPath, http.StatusSeeOther)
			case RedirectForbidden:
				http.Redirect(w, r, redirects.ForbiddenPath, http.StatusSeeOther)
			default:
				// Session still resolving: no redirect until the role is known
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("Loading..."))
			}
		}
	}
}
