package model

import "time"

// Coupon is a one-time code. ClaimedAt is set when the allocator takes the
// coupon out of the pool; UserID is set when the assignment is finalized.
// A claimed coupon with no user is an inconsistent state an operator must
// resolve, it is never returned to the pool automatically.
type Coupon struct {
	ID        int        `json:"id"`
	Code      string     `json:"coupon"`
	UserID    *int       `json:"user_id,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}
