package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDispatcher captures dispatch calls and can be told to fail for
// specific users.
type recordingDispatcher struct {
	mu      sync.Mutex
	calls   []Job
	failFor map[string]error
}

func (d *recordingDispatcher) DispatchDigest(_ context.Context, userID string, itemCount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Job{UserID: userID, ItemCount: itemCount})
	if err, ok := d.failFor[userID]; ok {
		return err
	}
	return nil
}

func (d *recordingDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// mondayAt returns a fixed Monday with the given wall-clock time.
func mondayAt(hour, minute, second int) time.Time {
	return time.Date(2026, time.March, 2, hour, minute, second, 0, time.UTC)
}

// fridayAt returns the Friday of the same week.
func fridayAt(hour, minute, second int) time.Time {
	return time.Date(2026, time.March, 6, hour, minute, second, 0, time.UTC)
}

func drainJobs(s *Scheduler) []Job {
	var jobs []Job
	for {
		select {
		case job := <-s.jobs:
			jobs = append(jobs, job)
		default:
			return jobs
		}
	}
}

func TestUpsertTriggerValidation(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)

	assert.Error(t, s.UpsertTrigger("", time.Monday, 9, 0, 5))
	assert.Error(t, s.UpsertTrigger("u1", time.Weekday(7), 9, 0, 5))
	assert.Error(t, s.UpsertTrigger("u1", time.Monday, 24, 0, 5))
	assert.Error(t, s.UpsertTrigger("u1", time.Monday, -1, 0, 5))
	assert.Error(t, s.UpsertTrigger("u1", time.Monday, 9, 60, 5))
	assert.Error(t, s.UpsertTrigger("u1", time.Monday, 9, 0, -1))
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))
	assert.Equal(t, 1, s.Len())
}

func TestUpsertTriggerReplacesExisting(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)

	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))
	require.NoError(t, s.UpsertTrigger("u1", time.Friday, 17, 0, 3))

	assert.Equal(t, 1, s.Len(), "second upsert must replace, not add")

	weekday, hour, minute, itemCount, ok := s.TriggerFor("u1")
	require.True(t, ok)
	assert.Equal(t, time.Friday, weekday)
	assert.Equal(t, 17, hour)
	assert.Equal(t, 0, minute)
	assert.Equal(t, 3, itemCount)
}

func TestRemoveTriggerIsIdempotent(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)

	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))
	s.RemoveTrigger("u1")
	assert.Equal(t, 0, s.Len())

	s.RemoveTrigger("u1") // no-op
	s.RemoveTrigger("never-existed")
	assert.Equal(t, 0, s.Len())
}

func TestTickFiresDueTrigger(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)
	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))

	s.tick(mondayAt(9, 0, 0))

	jobs := drainJobs(s)
	require.Len(t, jobs, 1)
	assert.Equal(t, "u1", jobs[0].UserID)
	assert.Equal(t, 5, jobs[0].ItemCount)
}

func TestTickDoesNotFireOffSchedule(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)
	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))

	s.tick(mondayAt(9, 1, 0))   // wrong minute
	s.tick(mondayAt(10, 0, 0))  // wrong hour
	s.tick(fridayAt(9, 0, 0))   // wrong weekday

	assert.Empty(t, drainJobs(s))
}

func TestTriggerFiresOncePerMatchingMinute(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)
	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))

	// Two sub-minute polls land inside the same matching minute.
	s.tick(mondayAt(9, 0, 10))
	s.tick(mondayAt(9, 0, 40))
	assert.Len(t, drainJobs(s), 1)

	// The following week's occurrence fires again.
	nextWeek := mondayAt(9, 0, 5).AddDate(0, 0, 7)
	s.tick(nextWeek)
	assert.Len(t, drainJobs(s), 1)
}

func TestTwoUsersSameMinuteBothFireOnce(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)
	require.NoError(t, s.UpsertTrigger("alice", time.Monday, 9, 0, 5))
	require.NoError(t, s.UpsertTrigger("bob", time.Monday, 9, 0, 10))

	s.tick(mondayAt(9, 0, 0))
	s.tick(mondayAt(9, 0, 30))

	jobs := drainJobs(s)
	require.Len(t, jobs, 2)
	fired := map[string]int{}
	for _, job := range jobs {
		fired[job.UserID] = job.ItemCount
	}
	assert.Equal(t, 5, fired["alice"])
	assert.Equal(t, 10, fired["bob"])
}

func TestRescheduleMovesTheFire(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)
	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))
	require.NoError(t, s.UpsertTrigger("u1", time.Friday, 17, 0, 5))

	s.tick(mondayAt(9, 0, 0))
	assert.Empty(t, drainJobs(s), "old cadence must not fire after replacement")

	s.tick(fridayAt(17, 0, 0))
	jobs := drainJobs(s)
	require.Len(t, jobs, 1)
	assert.Equal(t, "u1", jobs[0].UserID)
}

func TestFullQueueDropsFireWithoutBlocking(t *testing.T) {
	s := New(&recordingDispatcher{}, 0)
	s.jobs = make(chan Job, 1)
	require.NoError(t, s.UpsertTrigger("alice", time.Monday, 9, 0, 5))
	require.NoError(t, s.UpsertTrigger("bob", time.Monday, 9, 0, 5))

	done := make(chan struct{})
	go func() {
		s.tick(mondayAt(9, 0, 0))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick blocked on a full dispatch queue")
	}

	assert.Len(t, drainJobs(s), 1, "one fire queued, one dropped")
}

func TestDispatchFailureDoesNotAffectOtherUsers(t *testing.T) {
	d := &recordingDispatcher{failFor: map[string]error{
		"alice": errors.New("smtp connection refused"),
	}}
	s := New(d, 0)

	s.wg.Add(1)
	go s.worker(context.Background())

	s.jobs <- Job{UserID: "alice", ItemCount: 5}
	s.jobs <- Job{UserID: "bob", ItemCount: 3}
	close(s.jobs)
	s.wg.Wait()

	require.Equal(t, 2, d.callCount(), "bob's dispatch must run despite alice's failure")
}

// ctxCheckingDispatcher records the context error observed by each dispatch.
type ctxCheckingDispatcher struct {
	mu      sync.Mutex
	ctxErrs []error
}

func (d *ctxCheckingDispatcher) DispatchDigest(ctx context.Context, _ string, _ int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctxErrs = append(d.ctxErrs, ctx.Err())
	return nil
}

func TestQueuedJobsCompleteAfterShutdownSignal(t *testing.T) {
	d := &ctxCheckingDispatcher{}
	s := New(d, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the shutdown signal has already landed

	s.jobs <- Job{UserID: "alice", ItemCount: 5}
	s.jobs <- Job{UserID: "bob", ItemCount: 3}
	close(s.jobs)

	s.wg.Add(1)
	go s.worker(ctx)
	s.wg.Wait()

	require.Len(t, d.ctxErrs, 2, "queued fires must still dispatch during drain")
	for _, err := range d.ctxErrs {
		assert.NoError(t, err, "dispatch must not inherit the shutdown cancellation")
	}
}

func TestRunFiresAndStops(t *testing.T) {
	d := &recordingDispatcher{}
	s := New(d, 10*time.Millisecond)

	// Pin the clock to a due moment so every tick matches.
	s.now = func() time.Time { return mondayAt(9, 0, 0) }
	require.NoError(t, s.UpsertTrigger("u1", time.Monday, 9, 0, 5))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Wait for the single dedup-guarded fire to be dispatched.
	deadline := time.After(2 * time.Second)
	for d.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("trigger never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}

	assert.Equal(t, 1, d.callCount(), "pinned minute must fire exactly once")
}
