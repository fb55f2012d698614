// Package guard decides whether a console path may be shown for the current
// session and wraps that decision as HTTP middleware.
package guard

import (
	"strings"

	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

const (
	LoginPath     = "/admin/login"
	DashboardPath = "/admin/dashboard"
)

type Kind int

const (
	// Allow renders the requested view.
	Allow Kind = iota
	// Loading renders a neutral placeholder while the session hydrates.
	Loading
	// Redirect sends the caller to Location.
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

type Decision struct {
	Kind     Kind
	Location string
}

// route is a protected path pattern; a segment written as "{name}" matches
// any single non-empty segment.
type route []string

var protected = []route{
	split("/admin/dashboard"),
	split("/admin/chat/{planName}"),
	split("/admin/create-plan"),
	split("/admin/edit-plan/{planName}"),
	split("/admin/users"),
	split("/admin/daily-calls"),
	split("/admin/all-daily-calls"),
}

// ProtectedPatterns lists the protected routes in router syntax.
func ProtectedPatterns() []string {
	out := make([]string, 0, len(protected))
	for _, r := range protected {
		out = append(out, "/"+strings.Join(r, "/"))
	}
	return out
}

// IsProtected reports whether path is one of the admin views.
func IsProtected(path string) bool {
	segs := split(path)
	for _, r := range protected {
		if r.match(segs) {
			return true
		}
	}
	return false
}

// Decide maps a session snapshot and a path to a Decision. The login page
// is always allowed. Protected paths wait for hydration and then need an
// authenticated admin. Every other path redirects to the login page.
func Decide(s models.Session, path string) Decision {
	if clean(path) == LoginPath {
		return Decision{Kind: Allow}
	}
	if !IsProtected(path) {
		return Decision{Kind: Redirect, Location: LoginPath}
	}
	if s.Hydrating {
		return Decision{Kind: Loading}
	}
	if !s.IsAdmin() {
		return Decision{Kind: Redirect, Location: LoginPath}
	}
	return Decision{Kind: Allow}
}

func (r route) match(segs []string) bool {
	if len(r) != len(segs) {
		return false
	}
	for i, p := range r {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return true
}

func clean(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func split(path string) []string {
	p := strings.Trim(clean(path), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
