package models

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
)

// Membership is one subscription record as served by GET /memberships.
type Membership struct {
	ID       string           `json:"_id"`
	PlanName string           `json:"planName"`
	Status   MembershipStatus `json:"status"`
}

// ActivePlanNames returns the plan names of active memberships, preserving
// their order.
func ActivePlanNames(ms []Membership) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.Status == MembershipActive {
			out = append(out, m.PlanName)
		}
	}
	return out
}

// FetchState tracks the lifecycle of an asynchronous membership fetch.
type FetchState string

const (
	FetchIdle     FetchState = "idle"
	FetchPending  FetchState = "pending"
	FetchResolved FetchState = "resolved"
	FetchFailed   FetchState = "failed"
)

// Memberships is the observable result of the latest membership refetch.
type Memberships struct {
	State FetchState `json:"state"`
	Plans []string   `json:"plans,omitempty"`
	Err   string     `json:"error,omitempty"`
}
