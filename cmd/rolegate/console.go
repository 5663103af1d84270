package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-rolegate/guard"
	"github.com/jrsteele09/go-rolegate/identity"
	"github.com/jrsteele09/go-rolegate/nav"
	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/rolestore"
	"github.com/jrsteele09/go-rolegate/session"
	"github.com/pkg/errors"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  signup <email> <password> [role]   create an account, optionally assigning a role
  signin <email> <password>          sign in
  signout                            sign out
  refresh                            re-resolve the current role
  status                             print the current snapshot
  check <role[,role...]>             authorize the current snapshot against roles
  nav                                print the navigation menu
  stats                              print controller counters
  quit                               exit`

// console drives the controller from line-oriented commands.
type console struct {
	ctrl     *session.Controller
	provider identity.Provider
	writer   rolestore.Writer // nil when roles cannot be assigned
	timeout  time.Duration

	lock sync.Mutex
	out  io.Writer
}

func newConsole(ctrl *session.Controller, provider identity.Provider, writer rolestore.Writer, out io.Writer, timeout time.Duration) *console {
	return &console{ctrl: ctrl, provider: provider, writer: writer, out: out, timeout: timeout}
}

func (c *console) printf(format string, args ...any) {
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// onSnapshot prints every committed snapshot.
func (c *console) onSnapshot(snap session.Snapshot) {
	c.printf("[session] %s", formatSnapshot(snap))
}

// run reads commands until EOF, quit or ctx is done.
func (c *console) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := c.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				c.printf("error: %v", err)
			}
		}
	}
}

func (c *console) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch cmd {
	case "signup":
		return c.signUp(ctx, args)
	case "signin", "login":
		if len(args) != 2 {
			return errors.New("usage: signin <email> <password>")
		}
		id, err := c.provider.SignIn(ctx, identity.Credentials{Email: args[0], Password: args[1]})
		if err != nil {
			return errors.Wrap(err, "sign in")
		}
		c.printf("signed in as %s", id.Email)
		return nil
	case "signout", "logout":
		return c.ctrl.SignOut(ctx)
	case "refresh":
		return c.ctrl.Refresh()
	case "status":
		c.printf("%s", formatSnapshot(c.ctrl.CurrentSnapshot()))
		return nil
	case "check":
		if len(args) != 1 {
			return errors.New("usage: check <role[,role...]>")
		}
		required, err := roles.ParseSet(args[0])
		if err != nil {
			return err
		}
		snap := c.ctrl.CurrentSnapshot()
		c.printf("%s %s: %s", cmd, required, guard.Authorize(snap, required))
		return nil
	case "nav":
		c.printf("%s", formatMenu(nav.Build(c.ctrl.CurrentSnapshot())))
		return nil
	case "stats":
		s := c.ctrl.Stats()
		c.printf("identity_events=%d duplicates=%d lookups=%d applied=%d failed=%d stale=%d listeners=%d",
			s.IdentityEvents, s.DuplicateEvents, s.LookupsIssued, s.LookupsApplied, s.LookupsFailed, s.StaleDiscarded, s.Listeners)
		return nil
	case "help", "?":
		c.printf("%s", helpText)
		return nil
	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q, try help", cmd)
}

// signUp creates the account and writes its role. The lookup issued by the
// sign-in event can race the write, so the role is refreshed afterwards.
func (c *console) signUp(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: signup <email> <password> [role]")
	}
	role := roles.Student
	if len(args) == 3 {
		parsed, err := roles.Parse(args[2])
		if err != nil {
			return err
		}
		role = parsed
	}
	if c.writer == nil && role != roles.None {
		return errors.New("roles cannot be assigned with this role store")
	}

	id, err := c.provider.SignUp(ctx, identity.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return errors.Wrap(err, "sign up")
	}
	if c.writer != nil {
		if err := c.writer.SetRole(ctx, id.ID, role); err != nil {
			return errors.Wrap(err, "assign role")
		}
	}
	c.printf("created %s as %s", id.Email, role)
	return c.ctrl.Refresh()
}

func formatSnapshot(snap session.Snapshot) string {
	user := "-"
	if snap.SignedIn() {
		user = snap.Identity.Email
		if user == "" {
			user = snap.Identity.ID
		}
	}
	s := fmt.Sprintf("rev=%d gen=%d status=%s user=%s role=%s", snap.Revision, snap.Generation, snap.Status, user, snap.Role)
	if snap.LastError != nil {
		s += fmt.Sprintf(" error=%q", snap.LastError.Error())
	}
	return s
}

func formatMenu(menu nav.Menu) string {
	parts := make([]string, 0, len(menu.Links)+3)
	for _, l := range menu.Links {
		parts = append(parts, l.Label+" ("+l.Path+")")
	}
	switch {
	case menu.Loading:
		parts = append(parts, "Loading...")
	case menu.ShowLogout:
		parts = append(parts, menu.Greeting, "Logout")
	default:
		for _, l := range menu.AuthLinks {
			parts = append(parts, l.Label+" ("+l.Path+")")
		}
	}
	return strings.Join(parts, " | ")
}
