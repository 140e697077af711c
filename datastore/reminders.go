package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coreybb/resurface/models"
)

// ReminderRepository handles database operations for reminder preferences.
// The table holds at most one row per user; writes are upserts by user ID.
type ReminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new ReminderRepository.
func NewReminderRepository(db *sql.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// UpsertReminderPreference inserts the preference or replaces the user's
// existing row, preserving the one-preference-per-user invariant.
func (r *ReminderRepository) UpsertReminderPreference(ctx context.Context, pref *models.ReminderPreference) error {
	if pref == nil {
		return fmt.Errorf("nil reminder preference")
	}

	query := `
		INSERT INTO reminder_preferences (user_id, weekday, hour, minute, item_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			weekday    = EXCLUDED.weekday,
			hour       = EXCLUDED.hour,
			minute     = EXCLUDED.minute,
			item_count = EXCLUDED.item_count,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		pref.UserID, int(pref.Weekday), pref.Hour, pref.Minute, pref.ItemCount, pref.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert reminder preference for user %s: %w", pref.UserID, err)
	}
	return nil
}

// GetReminderPreference retrieves the user's preference, or
// ErrReminderNotFound when the user has none.
func (r *ReminderRepository) GetReminderPreference(ctx context.Context, userID string) (*models.ReminderPreference, error) {
	query := `
		SELECT user_id, weekday, hour, minute, item_count, updated_at
		FROM reminder_preferences
		WHERE user_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, userID)

	pref, err := scanReminderPreference(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder preference for user %s: %w", userID, err)
	}
	return pref, nil
}

// DeleteReminderPreference removes the user's preference row. Deleting a
// row that does not exist is a no-op.
func (r *ReminderRepository) DeleteReminderPreference(ctx context.Context, userID string) error {
	query := `
		DELETE FROM reminder_preferences
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete reminder preference for user %s: %w", userID, err)
	}
	return nil
}

// GetAllReminderPreferences retrieves every persisted preference. Used at
// startup to rebuild the scheduler's trigger table.
func (r *ReminderRepository) GetAllReminderPreferences(ctx context.Context) ([]models.ReminderPreference, error) {
	query := `
		SELECT user_id, weekday, hour, minute, item_count, updated_at
		FROM reminder_preferences
		ORDER BY updated_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.ReminderPreference
	for rows.Next() {
		pref, err := scanReminderPreference(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder preference row: %w", err)
		}
		prefs = append(prefs, *pref)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder preference rows: %w", err)
	}

	if prefs == nil {
		prefs = []models.ReminderPreference{}
	}
	return prefs, nil
}

func scanReminderPreference(scan func(dest ...any) error) (*models.ReminderPreference, error) {
	var pref models.ReminderPreference
	var weekday int
	var updatedAt time.Time
	if err := scan(&pref.UserID, &weekday, &pref.Hour, &pref.Minute, &pref.ItemCount, &updatedAt); err != nil {
		return nil, err
	}
	pref.Weekday = time.Weekday(weekday)
	pref.UpdatedAt = updatedAt
	return &pref, nil
}
