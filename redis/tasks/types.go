package tasks

import "time"

// Task types
const (
	TypePublishDue  = "publish:due"
	TypeHealthCheck = "health:check"
)

// SweepPayload represents the payload for a publish sweep task.
type SweepPayload struct {
	// Now pins the sweep reference time; zero means the handler uses the
	// current time.
	Now time.Time `json:"now,omitempty"`
}
