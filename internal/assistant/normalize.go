package assistant

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"homechef/internal/recipe"
)

// Caps applied to a suggestion response.
const (
	MaxMatchTitles    = 20
	MaxIdeas          = 10
	MaxSubstitutions  = 20
	MaxTitleLen       = 120
	MaxDescriptionLen = 2000
	MaxIngredientLen  = 120
	MaxDifficultyLen  = 20
	MaxSteps          = 30
	MaxCategories     = 10
)

// Suggestions is the normalized answer to "what can I cook with these?".
type Suggestions struct {
	MatchTitles   []string         `json:"match_titles"`
	Ideas         []*recipe.Recipe `json:"ideas"`
	Substitutions []string         `json:"substitutions"`
	// Raw holds the plain-text answer when no structured response could be
	// recovered.
	Raw string `json:"raw,omitempty"`
}

var errBadShape = errors.New("unexpected value shape")

// normalizeSuggestions rebuilds data field by field, clamping lengths and
// counts. Ideas that cannot be rebuilt are dropped individually.
func normalizeSuggestions(data map[string]any) *Suggestions {
	s := &Suggestions{
		MatchTitles:   stringList(data["match_titles"], MaxMatchTitles),
		Ideas:         []*recipe.Recipe{},
		Substitutions: stringList(data["substitutions"], MaxSubstitutions),
	}
	if raw, ok := data[rawKey]; ok && raw != nil {
		s.Raw = strings.TrimSpace(stringify(raw))
	}

	ideas, _ := data["ideas"].([]any)
	if len(ideas) > MaxIdeas {
		ideas = ideas[:MaxIdeas]
	}
	for _, v := range ideas {
		idea, err := normalizeIdea(v)
		if err != nil {
			continue
		}
		s.Ideas = append(s.Ideas, idea)
	}
	return s
}

func normalizeIdea(v any) (*recipe.Recipe, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errBadShape
	}

	r := &recipe.Recipe{
		Title:       truncate(stringOr(obj["title"], "AI Idea"), MaxTitleLen),
		Description: truncate(stringOr(obj["description"], ""), MaxDescriptionLen),
		Ingredients: []recipe.Ingredient{},
		Difficulty:  truncate(stringOr(obj["difficulty"], "Easy"), MaxDifficultyLen),
		Steps:       stringList(obj["steps"], MaxSteps),
		Categories:  stringList(obj["categories"], MaxCategories),
	}

	if raw, present := obj["ingredients"]; present && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("ingredients: %w", errBadShape)
		}
		for _, item := range list {
			ing, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ingredient: %w", errBadShape)
			}
			name := stringOr(ing["name"], "")
			if strings.TrimSpace(name) == "" {
				continue
			}
			r.Ingredients = append(r.Ingredients, recipe.Ingredient{
				Name:     truncate(name, MaxIngredientLen),
				Quantity: truncate(stringOr(ing["quantity"], ""), MaxIngredientLen),
			})
		}
	}

	minutes, err := toMinutes(obj["time_minutes"])
	if err != nil {
		return nil, err
	}
	r.TimeMinutes = minutes
	return r, nil
}

// toMinutes accepts numbers and numeric strings; anything else drops the idea.
func toMinutes(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("time_minutes: %w", errBadShape)
		}
		return clampMinutes(int(t)), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("time_minutes: %w", err)
		}
		return clampMinutes(n), nil
	default:
		return 0, fmt.Errorf("time_minutes: %w", errBadShape)
	}
}

func clampMinutes(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// stringList converts a JSON array to at most limit strings. Non-arrays
// yield an empty list.
func stringList(v any, limit int) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	if len(list) > limit {
		list = list[:limit]
	}
	for _, item := range list {
		out = append(out, stringify(item))
	}
	return out
}

func stringOr(v any, def string) string {
	if v == nil {
		return def
	}
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
