package recipe

import (
	"context"
	"strings"
)

// MissingIngredients lists the ingredient names of r that the pantry does not
// cover. Pantry names compare case-insensitively, and an item stocked with an
// empty quantity does not count. Names keep their original casing and order;
// duplicates are reported once per occurrence.
func MissingIngredients(r *Recipe, pantry []PantryItem) []string {
	stock := make(map[string]string, len(pantry))
	for _, p := range pantry {
		stock[strings.ToLower(p.Item)] = p.Quantity
	}

	missing := []string{}
	for _, ing := range r.Ingredients {
		name := strings.ToLower(ing.Name)
		if name == "" {
			continue
		}
		if qty, ok := stock[name]; !ok || qty == "" {
			missing = append(missing, ing.Name)
		}
	}
	return missing
}

// ComputeMissingIngredients checks r against the current pantry.
func (s *SQLiteStore) ComputeMissingIngredients(ctx context.Context, r *Recipe) ([]string, error) {
	pantry, err := s.ListPantry(ctx)
	if err != nil {
		return nil, err
	}
	return MissingIngredients(r, pantry), nil
}

// AddMissingToGrocery puts every missing ingredient on the grocery list,
// unchecked, with the quantity the recipe asks for.
func (s *SQLiteStore) AddMissingToGrocery(ctx context.Context, r *Recipe) ([]string, error) {
	missing, err := s.ComputeMissingIngredients(ctx, r)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(missing))
	for _, name := range missing {
		want[name] = true
	}
	for _, ing := range r.Ingredients {
		if !want[ing.Name] {
			continue
		}
		if err := s.UpsertGroceryItem(ctx, ing.Name, ing.Quantity, false); err != nil {
			return nil, err
		}
	}
	return missing, nil
}
