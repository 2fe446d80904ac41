package recipe

import (
	"sort"
	"strings"
)

// LocalMatchLimit caps LocalMatches when the AI service gives nothing usable.
const LocalMatchLimit = 12

// LocalMatches ranks recipes by how many of terms occur, case-insensitively,
// inside any of their ingredient names. Recipes scoring zero are dropped; ties
// are broken by title. At most limit recipes are returned.
func LocalMatches(recipes []*Recipe, terms []string, limit int) []*Recipe {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(t); t != "" {
			lowered = append(lowered, t)
		}
	}

	type scored struct {
		score int
		title string
		r     *Recipe
	}
	var hits []scored
	for _, r := range recipes {
		names := make([]string, len(r.Ingredients))
		for i, ing := range r.Ingredients {
			names[i] = strings.ToLower(ing.Name)
		}
		score := 0
		for _, t := range lowered {
			for _, n := range names {
				if strings.Contains(n, t) {
					score++
					break
				}
			}
		}
		if score > 0 {
			hits = append(hits, scored{score: score, title: strings.ToLower(r.Title), r: r})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].title < hits[j].title
	})

	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]*Recipe, len(hits))
	for i, h := range hits {
		out[i] = h.r
	}
	return out
}
