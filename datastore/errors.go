package datastore

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicateEmail is returned when a user with the same email
	// (case-insensitive) already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateItem is returned when the user has already saved the URL.
	ErrDuplicateItem = errors.New("item already saved for this user")

	ErrUserNotFound     = errors.New("user not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrReminderNotFound = errors.New("reminder preference not found")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, regardless of how many layers wrapped it.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// isForeignKeyViolation reports whether err is a Postgres foreign-key
// violation. Both items and reminder_preferences reference users, so this
// surfaces a write against a user id that does not exist.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
