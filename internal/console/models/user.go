package models

// UserProfile is the identity returned by the gateway for the signed-in
// account. Memberships are populated only for RoleUser.
type UserProfile struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Memberships []string `json:"memberships,omitempty"`
}

// Clone returns a deep copy of p, or nil when p is nil.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Memberships != nil {
		c.Memberships = append([]string(nil), p.Memberships...)
	}
	return &c
}
