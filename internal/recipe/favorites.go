package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// GetFavorites returns favorited recipe ids in ascending order.
func (s *SQLiteStore) GetFavorites(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := s.query(ctx, &ids, "SELECT recipe_id FROM favorites ORDER BY recipe_id"); err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return ids, nil
}

// SetFavorite adds or removes id from the favorites set. Adding an existing
// favorite is a no-op.
func (s *SQLiteStore) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	if !favorite {
		if err := s.exec(ctx, "DELETE FROM favorites WHERE recipe_id = ?", id); err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		return nil
	}
	err := s.exec(ctx, "INSERT INTO favorites (recipe_id) VALUES (?)", id)
	if err != nil && !isConstraintViolation(err) {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
