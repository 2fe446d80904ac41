package recipe

import (
	sq "github.com/Masterminds/squirrel"
)

// SearchFilter narrows SearchRecipes. Zero-valued fields do not filter.
type SearchFilter struct {
	// Text is matched as a substring of title or description.
	Text string
	// Categories must each appear as a substring of the stored category
	// string, so "Veg" also matches "Vegetarian".
	Categories []string
	// MaxTime is an inclusive ceiling on time_minutes.
	MaxTime *int
	// Difficulty must match exactly.
	Difficulty string
}

func (f SearchFilter) predicates() sq.And {
	preds := sq.And{}
	if f.Text != "" {
		like := "%" + f.Text + "%"
		preds = append(preds, sq.Or{sq.Like{"title": like}, sq.Like{"description": like}})
	}
	for _, cat := range f.Categories {
		preds = append(preds, sq.Like{"categories": "%" + cat + "%"})
	}
	if f.MaxTime != nil {
		preds = append(preds, sq.LtOrEq{"time_minutes": *f.MaxTime})
	}
	if f.Difficulty != "" {
		preds = append(preds, sq.Eq{"difficulty": f.Difficulty})
	}
	return preds
}

func (f SearchFilter) toSQL() (string, []any, error) {
	q := sq.Select(recipeColumns).From("recipes")
	if preds := f.predicates(); len(preds) > 0 {
		q = q.Where(preds)
	}
	return q.OrderBy("time_minutes ASC", "title ASC").ToSql()
}
