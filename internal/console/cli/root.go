package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

func (a *App) getStatus() string {
	s := a.session.Snapshot()

	var parts []string
	switch {
	case s.Hydrating:
		parts = append(parts, "restoring")
	case s.Authenticated && s.Profile != nil:
		parts = append(parts, s.Profile.Email, s.Role.String())
	case s.Authenticated:
		parts = append(parts, s.Role.String())
	default:
		parts = append(parts, "signed out")
	}

	if s.DialogOpen {
		st := a.flow.State()
		step := string(st.Step)
		if st.Step == models.StepCredentials {
			step = string(st.Tab)
		}
		parts = append(parts, "["+step+"]")
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the trade console (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
