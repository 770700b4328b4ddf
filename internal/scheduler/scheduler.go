// Package scheduler runs the engine's recurring jobs.
package scheduler

import "context"

// Job describes one registered recurring job.
type Job struct {
	ID   string
	Name string
	Cron string
}

// Scheduler is the contract the engine needs from the job runner:
// enumerate registrations, cancel one, and register a named recurring
// job. Tasks are bound to names ahead of time by the implementation.
type Scheduler interface {
	ListJobs(ctx context.Context) ([]Job, error)
	CancelJob(ctx context.Context, jobID string) error
	ScheduleRecurring(ctx context.Context, name, cronExpr string) error
}
