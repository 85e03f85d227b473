package models

import "time"

// Sync run statuses. Transitions only move forward: running -> completed or
// running -> failed.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// Sync run types.
const (
	SyncTypeScheduled = "scheduled"
	SyncTypeManual    = "manual"
)

// SyncRun records one execution of the fetch-transform-upsert pipeline.
type SyncRun struct {
	ID               string     `db:"id" json:"id"`
	RunType          string     `db:"run_type" json:"runType"`
	Status           string     `db:"status" json:"status"`
	RecordsProcessed int        `db:"records_processed" json:"recordsProcessed"`
	RecordsCreated   int        `db:"records_created" json:"recordsCreated"`
	RecordsUpdated   int        `db:"records_updated" json:"recordsUpdated"`
	Errors           StringList `db:"errors" json:"errors,omitempty"`
	StartedAt        time.Time  `db:"started_at" json:"startedAt"`
	CompletedAt      *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// SyncStatus is the response shape of the sync status endpoint.
type SyncStatus struct {
	LastRun          *SyncRun   `json:"lastRun,omitempty"`
	RunInProgress    bool       `json:"runInProgress"`
	SchedulerRunning bool       `json:"schedulerRunning"`
	NextScheduledAt  *time.Time `json:"nextScheduledAt,omitempty"`
}
