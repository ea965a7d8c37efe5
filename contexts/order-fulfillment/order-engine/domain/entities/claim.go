package entities

import "time"

const (
	ReleaseReasonCompleted    = "completed"
	ReleaseReasonLeaseExpired = "lease_expired"
)

// WorkerClaim is time-bounded exclusive ownership of one order by one worker.
// At any instant at most one live claim exists per order.
type WorkerClaim struct {
	ClaimID       string
	OrderID       string
	WorkerID      string
	Attempt       int
	LeaseUntil    time.Time
	ClaimedAt     time.Time
	ReleasedAt    *time.Time
	ReleaseReason string
}

// Live reports whether the claim still grants ownership at the given instant.
func (c WorkerClaim) Live(now time.Time) bool {
	return c.ReleasedAt == nil && c.LeaseUntil.After(now)
}

// WorkerHeartbeat is the per-worker liveness record updated every loop
// iteration so operator tooling can spot wedged or crash-looping workers.
type WorkerHeartbeat struct {
	WorkerID   string
	Claimed    bool
	LastError  string
	LastSeenAt time.Time
}
