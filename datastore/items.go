package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/resurface/models"
	"github.com/google/uuid"
)

// ItemRepository handles database operations for saved items.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// CreateItem inserts a new item record. Re-saving a URL the user already
// owns returns ErrDuplicateItem; the same URL under a different user is a
// distinct row.
func (r *ItemRepository) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" || item.UserID == "" || item.URL == "" {
		return fmt.Errorf("missing required fields for creating item")
	}
	if _, err := uuid.Parse(item.ID); err != nil {
		return fmt.Errorf("invalid item ID format: %w", err)
	}
	if _, err := uuid.Parse(item.UserID); err != nil {
		return fmt.Errorf("invalid user ID format: %w", err)
	}

	query := `
		INSERT INTO items (id, user_id, url, title, source, word_count, time_added)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.URL, item.Title, string(item.Source), item.WordCount, item.TimeAdded,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateItem
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItemsByUserID retrieves all of a user's items, newest first.
func (r *ItemRepository) GetItemsByUserID(ctx context.Context, userID string) ([]models.Item, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user ID format: %w", err)
	}

	query := `
		SELECT id, user_id, url, title, source, word_count, time_added
		FROM items
		WHERE user_id = $1
		ORDER BY time_added DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for user %s: %w", userID, err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read items for user %s: %w", userID, err)
	}
	return items, nil
}

// GetRecentItemsByUserID retrieves the user's limit most recently added
// items, newest first. This is the digest content query.
func (r *ItemRepository) GetRecentItemsByUserID(ctx context.Context, userID string, limit int) ([]models.Item, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user ID format: %w", err)
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative")
	}

	query := `
		SELECT id, user_id, url, title, source, word_count, time_added
		FROM items
		WHERE user_id = $1
		ORDER BY time_added DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent items for user %s: %w", userID, err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent items for user %s: %w", userID, err)
	}
	return items, nil
}

// DeleteItem removes an item owned by userID. Deleting an item that does
// not exist (or belongs to someone else) returns ErrItemNotFound.
func (r *ItemRepository) DeleteItem(ctx context.Context, itemID, userID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return fmt.Errorf("invalid item ID format: %w", err)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("invalid user ID format: %w", err)
	}

	query := `
		DELETE FROM items
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for item %s: %w", itemID, err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func scanItems(rows *sql.Rows) ([]models.Item, error) {
	var items []models.Item
	for rows.Next() {
		var item models.Item
		var sourceStr string
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.URL, &item.Title,
			&sourceStr, &item.WordCount, &item.TimeAdded,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		item.Source = models.ItemSource(sourceStr)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}
