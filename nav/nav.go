package nav

import (
	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/session"
)

const (
	HomePath   = "/"
	LoginPath  = "/login"
	SignUpPath = "/signup"
)

// Link is a navigation entry.
type Link struct {
	Label string
	Path  string
}

// Menu is what the navigation bar shows for one snapshot.
type Menu struct {
	Links []Link
	// Greeting is set when signed in, e.g. "Welcome, ada@example.com".
	Greeting   string
	ShowLogout bool
	// AuthLinks holds Login and Sign Up when signed out.
	AuthLinks []Link
	// Loading is true while the session is pending; auth controls are hidden.
	Loading bool
}

var dashboards = map[roles.Role]Link{
	roles.Student: {Label: "Student Dashboard", Path: "/student/dashboard"},
	roles.Teacher: {Label: "Teacher Dashboard", Path: "/teacher/dashboard"},
	roles.Admin:   {Label: "Admin Dashboard", Path: "/admin/dashboard"},
}

// DashboardPath returns the landing page for role, or HomePath for none.
func DashboardPath(role roles.Role) string {
	if l, ok := dashboards[role]; ok {
		return l.Path
	}
	return HomePath
}

// Build derives the menu from a snapshot. Role links appear only once the role
// has resolved; nothing role-specific is guessed while pending.
func Build(snap session.Snapshot) Menu {
	menu := Menu{Links: []Link{{Label: "Home", Path: HomePath}}}

	if snap.Status == session.StatusReady {
		if l, ok := dashboards[snap.Role]; ok && snap.SignedIn() {
			menu.Links = append(menu.Links, l)
		}
	}

	if snap.Pending() {
		menu.Loading = true
		return menu
	}

	if snap.SignedIn() {
		menu.Greeting = "Welcome, " + greetingName(snap)
		menu.ShowLogout = true
		return menu
	}

	menu.AuthLinks = []Link{
		{Label: "Login", Path: LoginPath},
		{Label: "Sign Up", Path: SignUpPath},
	}
	return menu
}

func greetingName(snap session.Snapshot) string {
	if snap.Identity.Email != "" {
		return snap.Identity.Email
	}
	if snap.Identity.DisplayName != "" {
		return snap.Identity.DisplayName
	}
	return snap.Identity.ID
}
