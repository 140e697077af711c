package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Dispatcher delivers one digest for a user. digest.Service implements it.
type Dispatcher interface {
	DispatchDigest(ctx context.Context, userID string, itemCount int) error
}

// Job is the tagged payload handed to dispatch workers at fire time. It
// carries identifiers only; the dispatcher resolves the user's current
// email and items when it runs, so a stale address is never captured.
type Job struct {
	UserID    string
	ItemCount int
}

const (
	defaultPollInterval = 30 * time.Second
	workerCount         = 4
	jobQueueSize        = 64
)

// trigger is one user's firing rule plus the bookkeeping needed to fire
// at most once per matching minute.
type trigger struct {
	userID    string
	weekday   time.Weekday
	hour      int
	minute    int
	itemCount int
	lastFired time.Time
}

// Scheduler owns the process-wide trigger table and the clock that scans
// it. Construct one at startup and pass it by reference; table mutations
// and the clock's read-and-fire scan are mutually exclusive, so a trigger
// is never observed half-replaced.
type Scheduler struct {
	dispatcher Dispatcher
	interval   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	triggers map[string]*trigger

	jobs chan Job
	wg   sync.WaitGroup
}

// New creates a Scheduler polling at the given interval. A non-positive
// interval falls back to the 30s default, matching minute-granularity
// cron semantics.
func New(dispatcher Dispatcher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Scheduler{
		dispatcher: dispatcher,
		interval:   interval,
		now:        time.Now,
		triggers:   make(map[string]*trigger),
		jobs:       make(chan Job, jobQueueSize),
	}
}

// UpsertTrigger installs a recurring trigger for userID, atomically
// replacing any existing one. Exactly one trigger per user exists at any
// time. Replacing a trigger whose fire is already queued does not recall
// the queued job; cancellation only prevents future fires.
func (s *Scheduler) UpsertTrigger(userID string, weekday time.Weekday, hour, minute, itemCount int) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if weekday < time.Sunday || weekday > time.Saturday {
		return fmt.Errorf("invalid weekday %d", int(weekday))
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour %d out of range [0,23]", hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("minute %d out of range [0,59]", minute)
	}
	if itemCount < 0 {
		return fmt.Errorf("item count must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers[userID] = &trigger{
		userID:    userID,
		weekday:   weekday,
		hour:      hour,
		minute:    minute,
		itemCount: itemCount,
	}
	return nil
}

// RemoveTrigger deletes the trigger for userID. Idempotent; removing a
// trigger that does not exist is a no-op.
func (s *Scheduler) RemoveTrigger(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.triggers, userID)
}

// Len returns the number of installed triggers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// TriggerFor reports the cadence currently installed for userID.
func (s *Scheduler) TriggerFor(userID string) (weekday time.Weekday, hour, minute, itemCount int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.triggers[userID]
	if !ok {
		return 0, 0, 0, 0, false
	}
	return t.weekday, t.hour, t.minute, t.itemCount, true
}

// Run starts the dispatch workers and the clock loop, blocking until ctx
// is canceled. Jobs already handed to a worker at shutdown are allowed to
// complete.
func (s *Scheduler) Run(ctx context.Context) {
	for i := 0; i < workerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("INFO (Scheduler): Clock started, polling every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("INFO (Scheduler): Clock stopping")
			close(s.jobs)
			s.wg.Wait()
			return
		case <-ticker.C:
			s.tick(s.now())
		}
	}
}

// tick runs one clock cycle: collect every trigger due at now and hand
// the fires to the worker pool. The enqueue is non-blocking so a backed-up
// queue can never stall the clock; a dropped fire is logged and the next
// scheduled occurrence is the natural retry point.
func (s *Scheduler) tick(now time.Time) {
	for _, job := range s.collectDue(now) {
		select {
		case s.jobs <- job:
		default:
			log.Printf("WARN (Scheduler): Dispatch queue full, dropping digest fire for user %s", job.UserID)
		}
	}
}

// collectDue marks and returns the triggers matching now's weekday and
// wall-clock minute. Marking happens under the lock, so a trigger fires at
// most once per matching minute no matter how many ticks land inside it.
func (s *Scheduler) collectDue(now time.Time) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Job
	for _, t := range s.triggers {
		if now.Weekday() != t.weekday || now.Hour() != t.hour || now.Minute() != t.minute {
			continue
		}
		if sameMinute(t.lastFired, now) {
			continue
		}
		t.lastFired = now
		due = append(due, Job{UserID: t.userID, ItemCount: t.itemCount})
	}
	return due
}

// worker drains the job queue and invokes the dispatcher. A failed
// dispatch is logged and not retried before the next scheduled occurrence;
// one user's failure never affects another's fire.
func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()
	// Shutdown cancels ctx before the queue closes. Queued fires must
	// still complete, so dispatch with cancellation detached.
	ctx = context.WithoutCancel(ctx)
	for job := range s.jobs {
		if err := s.dispatcher.DispatchDigest(ctx, job.UserID, job.ItemCount); err != nil {
			log.Printf("ERROR (Scheduler): Digest dispatch failed for user %s: %v", job.UserID, err)
		}
	}
}

func sameMinute(a, b time.Time) bool {
	return !a.IsZero() && a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}
