package runlog

import (
	"encoding/json"
	"time"
)

// Status is the recorded outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	// StatusFailed covers write failures, provider outages and cancellation.
	StatusFailed Status = "failed"
	// StatusInvalid marks structural validation or configuration failures.
	StatusInvalid Status = "invalid"
	StatusLocked  Status = "locked"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string          `json:"id"`
	Command    string          `json:"command"`
	Language   string          `json:"language,omitempty"`
	Status     Status          `json:"status"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt,omitzero"`
	Summary    json.RawMessage `json:"summary,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
