package models

import (
	"strings"
	"time"
)

// Class groups endpoints that share one per-user budget.
type Class string

const (
	// ClassNearby covers proximity listings, which reveal relative position.
	ClassNearby Class = "nearby"
	// ClassDefault covers every other authenticated endpoint.
	ClassDefault Class = "default"
)

// Limit is a sliding-window budget.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, only set when not allowed
}

// SanitizeKeySegment escapes the key delimiter so a caller-supplied segment
// cannot address a neighbouring bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// UserKey builds the bucket key for userID under class.
func UserKey(class Class, userID string) string {
	return "user:" + SanitizeKeySegment(userID) + ":" + SanitizeKeySegment(string(class))
}
