package models

import (
	"time"
)

// JobState is the lifecycle state of an ingestion job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransitionTo reports whether a transition from s to next is legal.
// The lifecycle is append-only: pending -> running -> {completed, failed}.
func (s JobState) CanTransitionTo(next JobState) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobFailed
	case JobRunning:
		return next == JobCompleted || next == JobFailed
	default:
		return false
	}
}

// JobStats accumulates per-job ingestion counters. The invariant
// TotalProcessed == Successful + Failed + Duplicates holds at every point
// during and after a run.
type JobStats struct {
	TotalProcessed        int `json:"total_processed"`
	SuccessfulSubmissions int `json:"successful_submissions"`
	FailedSubmissions     int `json:"failed_submissions"`
	DuplicatesSkipped     int `json:"duplicates_skipped"`
}

// Job is one execution of the ingestion pipeline against one spider,
// bounded by an item cap. Owned exclusively by the coordinator once
// running; the dashboard observes it through registry snapshots.
type Job struct {
	ID         string     `json:"id"`
	SpiderName string     `json:"spider_name"`
	MaxItems   int        `json:"max_items"`
	State      JobState   `json:"state"`
	Stats      JobStats   `json:"stats"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}
