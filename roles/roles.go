package roles

import (
	"sort"
	"strings"

	ierrors "github.com/jrsteele09/go-rolegate/internal/errors"
)

// ErrUnknownRole is returned by Parse for values outside the closed role set.
var ErrUnknownRole = ierrors.ErrUnknownRole

// Role is the authorization level attached to a signed-in identity.
type Role string

const (
	None    Role = ""        // No role: signed out, lookup pending, or nothing assigned
	Student Role = "student" // Access to the student dashboard
	Teacher Role = "teacher" // Access to the teacher dashboard
	Admin   Role = "admin"   // Access to the admin dashboard
)

// instructorLabel is the sign-up form's name for the teacher role.
const instructorLabel = "instructor"

// All lists the assignable roles in display order.
var All = []Role{Student, Teacher, Admin}

// Parse normalises a raw role value from a role store. Empty input is None.
func Parse(raw string) (Role, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "", "none":
		return None, nil
	case string(Student):
		return Student, nil
	case string(Teacher), instructorLabel:
		return Teacher, nil
	case string(Admin):
		return Admin, nil
	default:
		return None, ierrors.Wrapf(ErrUnknownRole, "[roles.Parse] %q", raw)
	}
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case Student, Teacher, Admin:
		return true
	}
	return false
}

func (r Role) String() string {
	if r == None {
		return "none"
	}
	return string(r)
}

// Set is an immutable collection of required roles.
type Set struct {
	members map[Role]struct{}
}

// NewSet builds a Set. None and unknown values are dropped.
func NewSet(rs ...Role) Set {
	s := Set{members: make(map[Role]struct{}, len(rs))}
	for _, r := range rs {
		if r.Valid() {
			s.members[r] = struct{}{}
		}
	}
	return s
}

// Has reports membership. None is never a member.
func (s Set) Has(r Role) bool {
	_, ok := s.members[r]
	return ok
}

func (s Set) Len() int {
	return len(s.members)
}

// Roles returns the members in display order.
func (s Set) Roles() []Role {
	out := make([]Role, 0, len(s.members))
	for _, r := range All {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, len(s.members))
	for r := range s.members {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ",") + "}"
}

// ParseSet parses a comma separated role list such as "student,teacher".
func ParseSet(raw string) (Set, error) {
	var rs []Role
	for _, part := range strings.Split(raw, ",") {
		r, err := Parse(part)
		if err != nil {
			return Set{}, err
		}
		rs = append(rs, r)
	}
	return NewSet(rs...), nil
}
