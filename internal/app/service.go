// Package app wires the voting domain to the store, the content
// platform, and the scheduler: it opens sessions, records votes, and
// keeps every summary comment reconciled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"opinavote/bot/internal/config"
	"opinavote/bot/internal/platform"
	"opinavote/bot/internal/scheduler"
	"opinavote/bot/internal/store"
	"opinavote/bot/internal/vote"
)

// ReconcileJobName is the single recurring job the engine owns.
const ReconcileJobName = "tallyReconciliation"

type sessionStore interface {
	GetSession(context.Context, string) (vote.Record, error)
	SaveSession(context.Context, string, vote.Record) error
	RegisterKey(context.Context, string) error
	SessionKeys(context.Context) ([]string, error)
	Ping(context.Context) error
}

type Service struct {
	cfg       config.Config
	store     sessionStore
	platform  platform.Client
	scheduler scheduler.Scheduler
	now       func() time.Time

	// Per-thread mutexes serialize the load-modify-store sequence so
	// two near-simultaneous replies cannot lose an increment.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(cfg config.Config, sessions *store.Store, client platform.Client, sched scheduler.Scheduler) *Service {
	return &Service{
		cfg:       cfg,
		store:     sessions,
		platform:  client,
		scheduler: sched,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Service) threadLock(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[threadID] = l
	}
	return l
}

// OpenSession starts a voting session for a new root thread: posts the
// distinguished zero-tally summary comment, persists the record, and
// registers the key for reconciliation. A thread that already has a
// session is left untouched.
func (s *Service) OpenSession(ctx context.Context, threadID string, createdAt time.Time) error {
	l := s.threadLock(threadID)
	l.Lock()
	defer l.Unlock()

	_, err := s.store.GetSession(ctx, threadID)
	if err == nil {
		log.Printf("app: session already open for %s, ignoring duplicate create", threadID)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check existing session: %w", err)
	}

	rec := vote.NewRecord(createdAt, s.cfg.VotingPeriod, "")
	text := vote.Render(&rec, vote.PhaseProvisional)

	commentID, err := s.platform.SubmitComment(ctx, threadID, text)
	if err != nil {
		return fmt.Errorf("post summary comment: %w", err)
	}
	if err := s.platform.Distinguish(ctx, commentID); err != nil {
		return fmt.Errorf("distinguish summary comment: %w", err)
	}
	rec.SummaryRef = commentID

	if err := s.store.SaveSession(ctx, threadID, rec); err != nil {
		return err
	}
	if err := s.store.RegisterKey(ctx, threadID); err != nil {
		return err
	}

	log.Printf("app: opened session for %s, window closes %s", threadID, rec.WindowEnd.Format(time.RFC3339))
	return nil
}

// RecordVote processes one reply: classifies it, applies the vote if
// the session is still open, re-renders the summary comment, and
// persists. Replies that carry no valid vote still trigger a
// re-render, matching the summary to the stored tallies.
func (s *Service) RecordVote(ctx context.Context, replyID, parentID, body string, createdAt time.Time) error {
	if !platform.IsThreadID(parentID) {
		log.Printf("app: reply %s is not a direct reply to a thread, ignoring", replyID)
		return nil
	}

	thread, err := s.platform.ThreadByID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("fetch thread %s: %w", parentID, err)
	}
	if thread == nil {
		log.Printf("app: thread %s not found, ignoring reply %s", parentID, replyID)
		return nil
	}
	if thread.Removed {
		log.Printf("app: thread %s was removed, ignoring reply %s", parentID, replyID)
		return nil
	}

	l := s.threadLock(parentID)
	l.Lock()
	defer l.Unlock()

	rec, err := s.store.GetSession(ctx, parentID)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("app: no session for thread %s, ignoring reply %s", parentID, replyID)
		return nil
	}
	if err != nil {
		return err
	}

	if !rec.Open(createdAt) {
		log.Printf("app: voting window for %s closed at %s, ignoring reply %s", parentID, rec.WindowEnd.Format(time.RFC3339), replyID)
		return nil
	}

	if category, ok := vote.Classify(body); ok {
		rec.Increment(category)
		log.Printf("app: reply %s voted %s on %s (total %d)", replyID, category, parentID, rec.Total)
	}

	text := vote.Render(&rec, rec.PhaseAt(s.now()))
	comment, err := s.platform.CommentByID(ctx, rec.SummaryRef)
	if err != nil {
		return fmt.Errorf("fetch summary comment %s: %w", rec.SummaryRef, err)
	}
	if comment == nil {
		log.Printf("app: summary comment %s not found for thread %s", rec.SummaryRef, parentID)
	} else if err := s.platform.EditComment(ctx, rec.SummaryRef, text); err != nil {
		return fmt.Errorf("edit summary comment %s: %w", rec.SummaryRef, err)
	}

	return s.store.SaveSession(ctx, parentID, rec)
}

// Reconcile re-renders the summary comment of every registered
// session. Failures are isolated per key: a session that cannot be
// loaded or rendered never stops the rest of the batch.
func (s *Service) Reconcile(ctx context.Context) error {
	keys, err := s.store.SessionKeys(ctx)
	if err != nil {
		return fmt.Errorf("list session keys: %w", err)
	}
	if len(keys) == 0 {
		log.Printf("app: reconcile found no registered sessions")
		return nil
	}

	for _, key := range keys {
		if err := s.reconcileOne(ctx, key); err != nil {
			log.Printf("app: reconcile %s: %v", key, err)
		}
	}
	return nil
}

func (s *Service) reconcileOne(ctx context.Context, threadID string) error {
	rec, err := s.store.GetSession(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("app: reconcile: no record for key %s, skipping", threadID)
		return nil
	}
	if err != nil {
		return err
	}

	text := vote.Render(&rec, rec.PhaseAt(s.now()))
	comment, err := s.platform.CommentByID(ctx, rec.SummaryRef)
	if err != nil {
		return fmt.Errorf("fetch summary comment %s: %w", rec.SummaryRef, err)
	}
	if comment == nil {
		return fmt.Errorf("summary comment %s not found", rec.SummaryRef)
	}
	if err := s.platform.EditComment(ctx, rec.SummaryRef, text); err != nil {
		return fmt.Errorf("edit summary comment %s: %w", rec.SummaryRef, err)
	}
	return nil
}

// EnsureReconcileJob reconciles the scheduler's job set to exactly one
// hourly reconciliation job. An already-correct registration is kept;
// duplicates and stale jobs are cancelled. Cancellation failures are
// logged and never block registration.
func (s *Service) EnsureReconcileJob(ctx context.Context) error {
	jobs, err := s.scheduler.ListJobs(ctx)
	if err != nil {
		log.Printf("app: list jobs failed, registering anyway: %v", err)
	}

	kept := false
	for _, job := range jobs {
		if !kept && job.Name == ReconcileJobName && job.Cron == s.cfg.ReconcileCron {
			kept = true
			continue
		}
		log.Printf("app: cancelling job %s (%s)", job.Name, job.ID)
		if err := s.scheduler.CancelJob(ctx, job.ID); err != nil {
			log.Printf("app: cancel job %s: %v", job.ID, err)
		}
	}

	if kept {
		log.Printf("app: reconcile job already registered")
		return nil
	}
	if err := s.scheduler.ScheduleRecurring(ctx, ReconcileJobName, s.cfg.ReconcileCron); err != nil {
		return fmt.Errorf("schedule reconcile job: %w", err)
	}
	return nil
}

// Ping reports whether the session store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
