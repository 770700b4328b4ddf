package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Gocron implements Scheduler on top of an in-process gocron runner.
type Gocron struct {
	scheduler gocron.Scheduler

	mu    sync.Mutex
	tasks map[string]func(context.Context)
	crons map[uuid.UUID]string
}

// NewGocron creates a stopped scheduler. Call Start after the tasks
// are registered and the initial job set is reconciled.
func NewGocron() (*Gocron, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Gocron{
		scheduler: s,
		tasks:     make(map[string]func(context.Context)),
		crons:     make(map[uuid.UUID]string),
	}, nil
}

// RegisterTask binds a job name to the function it runs. Scheduling a
// name with no registered task is an error.
func (g *Gocron) RegisterTask(name string, fn func(context.Context)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks[name] = fn
}

// ScheduleRecurring registers a recurring job for a previously
// registered task name. The cron expression is validated up front.
func (g *Gocron) ScheduleRecurring(ctx context.Context, name, cronExpr string) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron %q: %w", cronExpr, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fn, ok := g.tasks[name]
	if !ok {
		return fmt.Errorf("no task registered for job %q", name)
	}

	job, err := g.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			fn(context.Background())
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}

	g.crons[job.ID()] = cronExpr
	log.Printf("scheduler: registered job %s (%s) as %s", name, cronExpr, job.ID())
	return nil
}

// ListJobs returns every registered recurring job.
func (g *Gocron) ListJobs(ctx context.Context) ([]Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var jobs []Job
	for _, j := range g.scheduler.Jobs() {
		jobs = append(jobs, Job{
			ID:   j.ID().String(),
			Name: j.Name(),
			Cron: g.crons[j.ID()],
		})
	}
	return jobs, nil
}

// CancelJob removes one registered job.
func (g *Gocron) CancelJob(ctx context.Context, jobID string) error {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", jobID, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.scheduler.RemoveJob(id); err != nil {
		return fmt.Errorf("cancel job %s: %w", jobID, err)
	}
	delete(g.crons, id)
	return nil
}

// Start begins executing registered jobs.
func (g *Gocron) Start() {
	g.scheduler.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (g *Gocron) Shutdown() error {
	return g.scheduler.Shutdown()
}
