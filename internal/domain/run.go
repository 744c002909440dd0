package domain

import "time"

type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// AllocationRun is an audit record for one execution of the external
// matching process. Rows are created once, moved to a terminal state
// once, and never deleted.
type AllocationRun struct {
	ID          string     `json:"id"`
	RunNo       int64      `json:"runNo"`
	Status      RunStatus  `json:"status"`
	StartedBy   string     `json:"startedBy,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Processed   int        `json:"processed"`
	Created     int        `json:"created"`
	Error       string     `json:"error,omitempty"`
}

// RunStats is what the caller reports when completing a run.
type RunStats struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
}

type Summary struct {
	TotalPostings  int64          `json:"totalPostings"`
	TotalStudents  int64          `json:"totalStudents"`
	TotalRuns      int64          `json:"totalRuns"`
	ActiveRuns     int64          `json:"activeRuns"`
	CompletedRuns  int64          `json:"completedRuns"`
	FailedRuns     int64          `json:"failedRuns"`
	TotalProcessed int64          `json:"totalProcessed"`
	TotalCreated   int64          `json:"totalCreated"`
	TotalEvents    int64          `json:"totalEvents"`
	LastRun        *AllocationRun `json:"lastRun,omitempty"`
}
