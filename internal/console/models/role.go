// Package models holds the data types shared by the console session,
// credential flow and route guard.
package models

// Role is the role tag the gateway attaches to an account. Values other than
// RoleUser and RoleAdmin are kept verbatim but never authorized.
type Role string

const (
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsAdmin reports whether r grants access to the admin console.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r Role) String() string { return string(r) }
