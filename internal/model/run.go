package model

import "time"

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	// RunStatusStopped means the run hit its runtime cap or was cancelled
	// before the last page.
	RunStatusStopped RunStatus = "stopped"
	RunStatusFailed  RunStatus = "failed"
)

// Counts tallies record outcomes for one run.
type Counts struct {
	Success int `json:"success"`
	Partial int `json:"partial"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Total returns the number of records seen.
func (c Counts) Total() int {
	return c.Success + c.Partial + c.Failed + c.Skipped
}

// RunResult is the final state recorded when a run ends.
type RunResult struct {
	Status       RunStatus `json:"status"`
	Counts       Counts    `json:"counts"`
	StoppedEarly bool      `json:"stopped_early"`
	Error        string    `json:"error,omitempty"`
}

// Run is one sync invocation in the run history.
type Run struct {
	ID           string     `json:"id"`
	Job          string     `json:"job"`
	Status       RunStatus  `json:"status"`
	Counts       Counts     `json:"counts"`
	StoppedEarly bool       `json:"stopped_early"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
