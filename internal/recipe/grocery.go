package recipe

import (
	"context"
	"fmt"
	"strings"
)

// ListGrocery returns unchecked items first, each group ordered by name.
func (s *SQLiteStore) ListGrocery(ctx context.Context) ([]GroceryItem, error) {
	items := []GroceryItem{}
	err := s.query(ctx, &items,
		"SELECT item, COALESCE(quantity, '') AS quantity, COALESCE(checked, 0) AS checked FROM grocery ORDER BY checked ASC, item ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery: %w", err)
	}
	return items, nil
}

// UpsertGroceryItem inserts item or overwrites both quantity and checked.
// Re-adding a purchased item therefore marks it unpurchased again.
func (s *SQLiteStore) UpsertGroceryItem(ctx context.Context, item, quantity string, checked bool) error {
	err := s.exec(ctx,
		"INSERT INTO grocery (item, quantity, checked) VALUES (?, ?, ?) ON CONFLICT(item) DO UPDATE SET quantity = excluded.quantity, checked = excluded.checked",
		strings.TrimSpace(item), strings.TrimSpace(quantity), checked,
	)
	if err != nil {
		return fmt.Errorf("failed to save grocery item: %w", err)
	}
	return nil
}

// SetGroceryChecked flips the purchased flag of an existing item.
func (s *SQLiteStore) SetGroceryChecked(ctx context.Context, item string, checked bool) error {
	if err := s.exec(ctx, "UPDATE grocery SET checked = ? WHERE item = ?", checked, item); err != nil {
		return fmt.Errorf("failed to update grocery item: %w", err)
	}
	return nil
}

// RemoveGroceryItem deletes item by exact name.
func (s *SQLiteStore) RemoveGroceryItem(ctx context.Context, item string) error {
	if err := s.exec(ctx, "DELETE FROM grocery WHERE item = ?", item); err != nil {
		return fmt.Errorf("failed to remove grocery item: %w", err)
	}
	return nil
}

// RenameGroceryItem deletes oldItem and upserts newItem.
func (s *SQLiteStore) RenameGroceryItem(ctx context.Context, oldItem, newItem, quantity string, checked bool) error {
	if oldItem != newItem {
		if err := s.RemoveGroceryItem(ctx, oldItem); err != nil {
			return err
		}
	}
	return s.UpsertGroceryItem(ctx, newItem, quantity, checked)
}

// ClearGrocery deletes every item, or only purchased ones.
func (s *SQLiteStore) ClearGrocery(ctx context.Context, onlyChecked bool) error {
	query := "DELETE FROM grocery"
	if onlyChecked {
		query += " WHERE checked = 1"
	}
	if err := s.exec(ctx, query); err != nil {
		return fmt.Errorf("failed to clear grocery: %w", err)
	}
	return nil
}
