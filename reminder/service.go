package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/models"
)

// PreferenceStore is the durable side of a reminder: the persisted cadence
// rows that survive process restarts.
type PreferenceStore interface {
	UpsertReminderPreference(ctx context.Context, pref *models.ReminderPreference) error
	GetReminderPreference(ctx context.Context, userID string) (*models.ReminderPreference, error)
	DeleteReminderPreference(ctx context.Context, userID string) error
	GetAllReminderPreferences(ctx context.Context) ([]models.ReminderPreference, error)
}

// TriggerTable is the live side: the scheduler's in-memory trigger map.
type TriggerTable interface {
	UpsertTrigger(userID string, weekday time.Weekday, hour, minute, itemCount int) error
	RemoveTrigger(userID string)
}

// ValidationError marks input the caller can correct. The HTTP layer maps
// it to a 400 response.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func errValidation(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Service translates user-submitted cadences into a persisted preference
// row plus a live scheduler trigger, keeping the two convergent.
type Service struct {
	prefs    PreferenceStore
	triggers TriggerTable

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewService(prefs PreferenceStore, triggers TriggerTable) *Service {
	return &Service{
		prefs:     prefs,
		triggers:  triggers,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the lock serializing reminder writes for userID. Locks
// are never reclaimed; the map is bounded by the number of users seen.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// SetReminder validates the cadence, persists it (overwriting any prior
// row for the user), and installs the live trigger. The two writes behave
// as one logical unit: writes for the same user are serialized under a
// per-user lock, so the last committed call owns both the row and the
// trigger, and if trigger installation fails, the previous preference row
// is restored, or the fresh row deleted when there was none. The store
// never silently diverges from the schedule.
func (s *Service) SetReminder(ctx context.Context, userID, day, timeOfDay string, itemCount int) (*models.ReminderPreference, error) {
	weekday, err := models.ParseWeekday(day)
	if err != nil {
		return nil, errValidation("invalid day of week %q", day)
	}
	hour, minute, err := models.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, errValidation("invalid time of day %q (expected HH:MM)", timeOfDay)
	}
	if itemCount < 0 {
		return nil, errValidation("item count must not be negative")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	previous, err := s.prefs.GetReminderPreference(ctx, userID)
	if err != nil && !errors.Is(err, datastore.ErrReminderNotFound) {
		return nil, fmt.Errorf("failed to read existing reminder for user %s: %w", userID, err)
	}

	pref := &models.ReminderPreference{
		UserID:    userID,
		Weekday:   weekday,
		Hour:      hour,
		Minute:    minute,
		ItemCount: itemCount,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.prefs.UpsertReminderPreference(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to persist reminder preference: %w", err)
	}

	if err := s.triggers.UpsertTrigger(userID, weekday, hour, minute, itemCount); err != nil {
		s.rollbackPreference(ctx, userID, previous)
		return nil, fmt.Errorf("failed to install trigger for user %s: %w", userID, err)
	}

	return pref, nil
}

// rollbackPreference undoes a preference write whose matching trigger
// install failed. Best effort: a rollback failure is logged, and startup
// reconciliation repairs any remaining divergence on the next boot.
func (s *Service) rollbackPreference(ctx context.Context, userID string, previous *models.ReminderPreference) {
	if previous == nil {
		if err := s.prefs.DeleteReminderPreference(ctx, userID); err != nil {
			log.Printf("ERROR (Reminder): Rollback delete failed for user %s: %v", userID, err)
		}
		return
	}
	if err := s.prefs.UpsertReminderPreference(ctx, previous); err != nil {
		log.Printf("ERROR (Reminder): Rollback restore failed for user %s: %v", userID, err)
	}
}

// GetReminder returns the user's persisted cadence.
func (s *Service) GetReminder(ctx context.Context, userID string) (*models.ReminderPreference, error) {
	return s.prefs.GetReminderPreference(ctx, userID)
}

// ClearReminder removes both the live trigger and the persisted row.
// Clearing a user with no reminder is a no-op. A fire already handed to a
// dispatch worker completes; removal only prevents future fires.
func (s *Service) ClearReminder(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.triggers.RemoveTrigger(userID)
	if err := s.prefs.DeleteReminderPreference(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete reminder preference for user %s: %w", userID, err)
	}
	return nil
}

// RestoreTriggers rebuilds the in-memory trigger table from persisted
// preferences. Run at startup before the HTTP listener starts serving, so
// a restart never silently drops reminders. Returns the number restored.
func (s *Service) RestoreTriggers(ctx context.Context) (int, error) {
	prefs, err := s.prefs.GetAllReminderPreferences(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminder preferences: %w", err)
	}

	restored := 0
	for i := range prefs {
		p := &prefs[i]
		if err := s.triggers.UpsertTrigger(p.UserID, p.Weekday, p.Hour, p.Minute, p.ItemCount); err != nil {
			log.Printf("ERROR (Reminder): Could not restore trigger for user %s: %v", p.UserID, err)
			continue
		}
		restored++
	}
	return restored, nil
}
