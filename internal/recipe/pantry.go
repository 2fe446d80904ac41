package recipe

import (
	"context"
	"fmt"
	"strings"
)

// ListPantry returns pantry items ordered by name.
func (s *SQLiteStore) ListPantry(ctx context.Context) ([]PantryItem, error) {
	items := []PantryItem{}
	err := s.query(ctx, &items, "SELECT item, COALESCE(quantity, '') AS quantity FROM pantry ORDER BY item ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry: %w", err)
	}
	return items, nil
}

// UpsertPantryItem inserts item or overwrites its quantity. Both values are
// trimmed before storage.
func (s *SQLiteStore) UpsertPantryItem(ctx context.Context, item, quantity string) error {
	err := s.exec(ctx,
		"INSERT INTO pantry (item, quantity) VALUES (?, ?) ON CONFLICT(item) DO UPDATE SET quantity = excluded.quantity",
		strings.TrimSpace(item), strings.TrimSpace(quantity),
	)
	if err != nil {
		return fmt.Errorf("failed to save pantry item: %w", err)
	}
	return nil
}

// RemovePantryItem deletes item by exact name.
func (s *SQLiteStore) RemovePantryItem(ctx context.Context, item string) error {
	if err := s.exec(ctx, "DELETE FROM pantry WHERE item = ?", item); err != nil {
		return fmt.Errorf("failed to remove pantry item: %w", err)
	}
	return nil
}

// RenamePantryItem deletes oldItem and upserts newItem with quantity.
func (s *SQLiteStore) RenamePantryItem(ctx context.Context, oldItem, newItem, quantity string) error {
	if oldItem != newItem {
		if err := s.RemovePantryItem(ctx, oldItem); err != nil {
			return err
		}
	}
	return s.UpsertPantryItem(ctx, newItem, quantity)
}
