package main

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// visit is the demo session record: a per-visitor counter that expires
// after a period of inactivity.
type visit struct {
	Count int           `json:"count" bson:"count"`
	User  string        `json:"user,omitempty" bson:"user,omitempty"`
	Idle  time.Duration `json:"idle" bson:"idle"`
}

func (v visit) Expires() session.Expiry {
	if v.Idle <= 0 {
		return session.OnSessionEnd()
	}
	return session.OnInactivity(v.Idle)
}
