package model

import "time"

// User represents a registered contact. A user is created on the first
// inbound message from an unseen phone and never deleted; the phone number is
// the natural key, the id the stable reference for answers and coupons.
type User struct {
	ID        int       `json:"id"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact is the subset of a user needed for broadcast fan-out.
type Contact struct {
	ID    int    `json:"id"`
	Phone string `json:"phone"`
}
