package models

// Session is a point-in-time copy of the process-wide authentication state.
// Authenticated implies a non-empty Token, except while Hydrating.
type Session struct {
	Token         string       `json:"-"`
	Authenticated bool         `json:"authenticated"`
	Hydrating     bool         `json:"hydrating"`
	Role          Role         `json:"role,omitempty"`
	Profile       *UserProfile `json:"profile,omitempty"`
	Memberships   Memberships  `json:"memberships"`
	DialogOpen    bool         `json:"dialogOpen"`
}

// IsAdmin reports whether the session may enter protected admin paths.
func (s Session) IsAdmin() bool {
	return s.Authenticated && s.Role.IsAdmin()
}

// Credentials is the persisted token and cached role tag.
type Credentials struct {
	Token string
	Role  Role
}

// Empty reports whether no token is stored.
func (c Credentials) Empty() bool { return c.Token == "" }
