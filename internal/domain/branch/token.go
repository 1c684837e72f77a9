package branch

import "time"

// Token is a vendor bearer token scoped to one branch.
type Token struct {
	BranchID  uint
	Value     string
	ExpiresAt time.Time
}

func (t *Token) Remaining(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now)
}

// IsUsable reports whether the token has not yet expired.
func (t *Token) IsUsable(now time.Time) bool {
	return t != nil && t.Value != "" && t.Remaining(now) > 0
}

// InRefreshWindow reports whether a still-usable token expires within threshold.
func (t *Token) InRefreshWindow(now time.Time, threshold time.Duration) bool {
	return t.IsUsable(now) && t.Remaining(now) <= threshold
}
