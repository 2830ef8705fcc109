package session

import (
	"fmt"
	"math"
	"time"
)

// ExpiryKind enumerates the expiration strategies a record can declare.
type ExpiryKind uint8

const (
	// ExpiryOnSessionEnd persists no explicit expiration. How long the record
	// survives in storage is up to the backend.
	ExpiryOnSessionEnd ExpiryKind = iota
	// ExpiryOnInactivity is a sliding expiration refreshed on every save.
	ExpiryOnInactivity
	// ExpiryAtDateTime is a fixed absolute expiration.
	ExpiryAtDateTime
)

func (k ExpiryKind) String() string {
	switch k {
	case ExpiryOnSessionEnd:
		return "on_session_end"
	case ExpiryOnInactivity:
		return "on_inactivity"
	case ExpiryAtDateTime:
		return "at_date_time"
	default:
		return fmt.Sprintf("expiry_kind(%d)", uint8(k))
	}
}

// Expiry is the expiration policy of a record. The zero value is OnSessionEnd.
type Expiry struct {
	kind     ExpiryKind
	duration time.Duration
	at       time.Time
}

// OnSessionEnd returns a policy without an explicit expiration.
func OnSessionEnd() Expiry {
	return Expiry{kind: ExpiryOnSessionEnd}
}

// OnInactivity returns a sliding policy: the record lapses d after its last save.
func OnInactivity(d time.Duration) Expiry {
	return Expiry{kind: ExpiryOnInactivity, duration: d}
}

// AtDateTime returns a policy that lapses at the fixed instant t.
func AtDateTime(t time.Time) Expiry {
	return Expiry{kind: ExpiryAtDateTime, at: t}
}

func (e Expiry) Kind() ExpiryKind { return e.kind }

// Duration returns the inactivity window of an OnInactivity policy.
func (e Expiry) Duration() time.Duration { return e.duration }

// Time returns the instant of an AtDateTime policy.
func (e Expiry) Time() time.Time { return e.at }

// Deadline returns the instant after which a record written at now is lapsed.
// The boolean is false for OnSessionEnd.
func (e Expiry) Deadline(now time.Time) (time.Time, bool) {
	switch e.kind {
	case ExpiryOnInactivity:
		return now.Add(e.duration), true
	case ExpiryAtDateTime:
		return e.at, true
	default:
		return time.Time{}, false
	}
}

// MaxAge returns the cookie Max-Age in seconds for a disposition emitted at now.
// The boolean is false for OnSessionEnd, meaning a browser-session cookie.
// A deadline already in the past yields 0 seconds.
func (e Expiry) MaxAge(now time.Time) (int, bool) {
	deadline, ok := e.Deadline(now)
	if !ok {
		return 0, false
	}
	secs := deadline.Sub(now).Seconds()
	if secs <= 0 {
		return 0, true
	}
	if secs > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(math.Ceil(secs)), true
}

func (e Expiry) String() string {
	switch e.kind {
	case ExpiryOnInactivity:
		return fmt.Sprintf("%s(%s)", e.kind, e.duration)
	case ExpiryAtDateTime:
		return fmt.Sprintf("%s(%s)", e.kind, e.at.UTC().Format(time.RFC3339))
	default:
		return e.kind.String()
	}
}

// IsActive reports whether a record with the given deadline is still alive at now.
// Backends use it to filter lapsed records on load.
func IsActive(deadline time.Time, hasDeadline bool, now time.Time) bool {
	return !hasDeadline || now.Before(deadline)
}
