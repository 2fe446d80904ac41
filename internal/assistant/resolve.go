package assistant

import (
	"context"

	"homechef/internal/recipe"
)

// User-facing notes attached to a Resolution.
const (
	MessageLocalFallback = "AI unavailable. Showing local matches based on your ingredients."
	MessageNoSuggestions = "No suggestions found for the provided ingredients."
	RawSuggestionTitle   = "AI Suggestion"
)

// TitleFinder looks up stored recipes by exact title.
type TitleFinder interface {
	FindRecipesByTitles(ctx context.Context, titles []string) ([]*recipe.Recipe, error)
}

// Resolution is what the user sees after asking for suggestions.
type Resolution struct {
	Matched       []*recipe.Recipe `json:"matched"`
	Ideas         []*recipe.Recipe `json:"ideas"`
	Substitutions []string         `json:"substitutions"`
	LocalFallback bool             `json:"local_fallback"`
	Message       string           `json:"message,omitempty"`
}

// Resolve maps suggested titles onto stored recipes. When the service named
// neither a stored recipe nor a new idea, recipes are ranked locally against
// the ingredients instead; failing that, any plain-text answer becomes a
// single idea.
func Resolve(ctx context.Context, finder TitleFinder, s *Suggestions, ingredients []string, recipes []*recipe.Recipe) (*Resolution, error) {
	matched, err := finder.FindRecipesByTitles(ctx, s.MatchTitles)
	if err != nil {
		return nil, err
	}
	res := &Resolution{
		Matched:       matched,
		Ideas:         s.Ideas,
		Substitutions: s.Substitutions,
	}
	if res.Ideas == nil {
		res.Ideas = []*recipe.Recipe{}
	}
	if res.Substitutions == nil {
		res.Substitutions = []string{}
	}
	if len(res.Matched) > 0 || len(res.Ideas) > 0 {
		return res, nil
	}

	if local := recipe.LocalMatches(recipes, ingredients, recipe.LocalMatchLimit); len(local) > 0 {
		res.Matched = local
		res.LocalFallback = true
		res.Message = MessageLocalFallback
		return res, nil
	}

	if s.Raw != "" {
		res.Ideas = []*recipe.Recipe{{
			Title:       RawSuggestionTitle,
			Description: s.Raw,
			Ingredients: []recipe.Ingredient{},
			Steps:       []string{},
			Categories:  []string{},
		}}
		return res, nil
	}
	res.Message = MessageNoSuggestions
	return res, nil
}
