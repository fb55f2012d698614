package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tradeconsole/internal/console/guard"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

// Go runs path through the route guard and prints what would be shown.
// Being sent to the login path opens the credential dialog.
func (a *App) Go(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: go <path>")
		return nil
	}
	path := args[0]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	d := guard.Decide(a.session.Snapshot(), path)
	a.metrics.ObserveGuard(d.Kind.String())

	switch d.Kind {
	case guard.Loading:
		printlnFn("Loading... (session is still being restored)")
	case guard.Redirect:
		printlnFn("Redirected to", d.Location)
		if d.Location == guard.LoginPath {
			return a.Open(ctx)
		}
	default:
		if path == guard.LoginPath {
			return a.Open(ctx)
		}
		printlnFn("Showing", path)
	}
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	s := a.session.Snapshot()
	switch {
	case s.Hydrating:
		printlnFn("Session is being restored")
	case !s.Authenticated:
		printlnFn("Not signed in")
	case s.Profile != nil:
		printlnFn(fmt.Sprintf("%s <%s>, role %s", s.Profile.Name, s.Profile.Email, s.Role))
	default:
		printlnFn("Signed in, role", s.Role.String())
	}
	return nil
}

func (a *App) Memberships(ctx context.Context) error {
	m := a.session.Snapshot().Memberships
	switch m.State {
	case models.FetchPending:
		printlnFn("Memberships are loading")
	case models.FetchFailed:
		printlnFn("Could not load memberships:", m.Err)
	case models.FetchResolved:
		if len(m.Plans) == 0 {
			printlnFn("No active memberships")
			return nil
		}
		printlnFn("Active plans:", strings.Join(m.Plans, ", "))
	default:
		printlnFn("Memberships are not loaded")
	}
	return nil
}

// Refetch reloads memberships in the foreground.
func (a *App) Refetch(ctx context.Context) error {
	if err := a.session.RefetchMemberships(ctx); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	return a.Memberships(ctx)
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Logged out")
	return nil
}
