package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"homechef/internal/metrics"
	"homechef/internal/recipe"
)

// FallbackModels are tried in order when the configured model is reported
// missing. Each call switches at most once.
var FallbackModels = []string{
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash-002",
	"gemini-1.5-flash-8b",
	"gemini-1.5-pro-002",
}

// rawKey holds the plain-text answer when a structured one was unusable.
const rawKey = "raw"

var (
	jsonParams         = Params{Temperature: 0.3, TopP: 0.9, MaxTokens: 1024, JSON: true}
	textParams         = Params{Temperature: 0.3, TopP: 0.9, MaxTokens: 1024}
	substitutionParams = Params{Temperature: 0.4, TopP: 0.9, MaxTokens: 512}
	answerParams       = Params{Temperature: 0.5, TopP: 0.9, MaxTokens: 512}
	chatParams         = Params{Temperature: 0.5, TopP: 0.9, MaxTokens: 768}
)

// Service wraps a Backend with response repair, clamping and model fallback.
type Service struct {
	backend   Backend
	log       *zap.Logger
	fallbacks []string

	mu    sync.Mutex
	model string
}

// NewService creates a Service that starts with model.
func NewService(backend Backend, model string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{backend: backend, log: log, fallbacks: FallbackModels, model: model}
}

// Model returns the model currently in use.
func (s *Service) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Service) adopt(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// fallback runs call with model. If the model is reported missing, call is
// retried with the first fallback model that is not. The model that produced
// the final result is returned alongside its error.
func (s *Service) fallback(model string, call func(model string) error) (string, error) {
	err := call(model)
	if !IsModelNotFound(err) {
		return model, err
	}
	s.log.Warn("model unavailable, trying fallbacks", zap.String("model", model), zap.Error(err))
	for _, name := range s.fallbacks {
		if name == model {
			continue
		}
		err = call(name)
		if IsModelNotFound(err) {
			continue
		}
		metrics.ModelFallbacks.WithLabelValues(name).Inc()
		s.log.Info("switched model", zap.String("from", model), zap.String("to", name))
		return name, err
	}
	return model, err
}

// generateText runs a plain-text request with model fallback.
func (s *Service) generateText(ctx context.Context, prompt string, params Params) (string, error) {
	var text string
	used, err := s.fallback(s.Model(), func(model string) error {
		out, err := s.backend.Generate(ctx, Request{Model: model, Prompt: prompt, Params: params})
		text = out
		return err
	})
	s.adopt(used)
	return text, err
}

// generateJSON asks for a JSON object and repairs the reply if needed. When no
// object can be recovered, the prompt is reissued as plain text and the reply
// is returned under fallbackKey.
func (s *Service) generateJSON(ctx context.Context, prompt, fallbackKey string) (map[string]any, error) {
	var data map[string]any
	used, err := s.fallback(s.Model(), func(model string) error {
		text, err := s.backend.Generate(ctx, Request{Model: model, Prompt: prompt, Params: jsonParams})
		if err != nil {
			return err
		}
		obj, stage, err := parseObject(text)
		if err != nil {
			return err
		}
		metrics.ParseStages.WithLabelValues(stage).Inc()
		data = obj
		return nil
	})
	s.adopt(used)
	if err == nil {
		return data, nil
	}

	s.log.Warn("structured response unusable, retrying as plain text", zap.Error(err))
	text, err := s.backend.Generate(ctx, Request{Model: used, Prompt: prompt, Params: textParams})
	if err != nil {
		s.log.Error("generative request failed", zap.String("model", used), zap.Error(err))
		return nil, err
	}
	return map[string]any{fallbackKey: text}, nil
}

type catalogEntry struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	TimeMinutes int      `json:"time_minutes"`
	Difficulty  string   `json:"difficulty"`
	Categories  []string `json:"categories"`
}

// NormalizeIngredients trims, de-duplicates and sorts user input.
func NormalizeIngredients(ingredients []string) []string {
	seen := make(map[string]bool, len(ingredients))
	out := []string{}
	for _, i := range ingredients {
		i = strings.TrimSpace(i)
		if i == "" || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Strings(out)
	return out
}

func buildCatalog(recipes []*recipe.Recipe) []catalogEntry {
	catalog := make([]catalogEntry, 0, len(recipes))
	for _, r := range recipes {
		names := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			names = append(names, ing.Name)
		}
		categories := r.Categories
		if categories == nil {
			categories = []string{}
		}
		catalog = append(catalog, catalogEntry{
			Title:       r.Title,
			Ingredients: names,
			TimeMinutes: r.TimeMinutes,
			Difficulty:  r.Difficulty,
			Categories:  categories,
		})
	}
	return catalog
}

// marshalText encodes v as JSON without HTML escaping, for prompts.
func marshalText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func suggestionPrompt(ingredients []string, recipes []*recipe.Recipe) (string, error) {
	catalog, err := marshalText(buildCatalog(recipes))
	if err != nil {
		return "", fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return fmt.Sprintf(`System: You are HomeChef AI. Match the user's ingredients against the recipe catalog and propose new recipes when the catalog falls short. Reply with JSON only.
User Ingredients: %s
Catalog: %s

Reply with a JSON object with these keys:
- match_titles: array of titles taken from the Catalog
- ideas: array of new recipes, each with title, description, ingredients (array of {name, quantity}), steps (array of strings), time_minutes (integer), difficulty (Easy, Medium or Hard) and categories (array of strings)
- substitutions: array of strings
Every key must be present. Use sensible defaults for anything unknown.
`, strings.Join(ingredients, ", "), catalog), nil
}

// SuggestFromIngredients asks the backend which catalog recipes fit the
// ingredients and for new ideas, and returns the normalized answer.
func (s *Service) SuggestFromIngredients(ctx context.Context, ingredients []string, recipes []*recipe.Recipe) (*Suggestions, error) {
	prompt, err := suggestionPrompt(NormalizeIngredients(ingredients), recipes)
	if err != nil {
		return nil, err
	}
	data, err := s.generateJSON(ctx, prompt, rawKey)
	metrics.AIRequests.WithLabelValues("suggest", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return normalizeSuggestions(data), nil
}

// SubstitutionsForRecipe asks for replacements for the missing ingredients
// of r. At most MaxSubstitutions lines are returned.
func (s *Service) SubstitutionsForRecipe(ctx context.Context, r *recipe.Recipe, missing []string) ([]string, error) {
	ingredients, err := marshalText(r.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	prompt := fmt.Sprintf(`You are HomeChef AI. Suggest practical, food-safe substitutions for the missing ingredients of this recipe.
Recipe Title: %s
Missing Ingredients: %s
Ingredients: %s

Answer with a numbered list of short, concrete substitutions.
`, r.Title, strings.Join(missing, ", "), ingredients)

	text, err := s.generateText(ctx, prompt, substitutionParams)
	metrics.AIRequests.WithLabelValues("substitutions", metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error("substitution request failed", zap.String("recipe", r.Title), zap.Error(err))
		return nil, err
	}
	return substitutionLines(text), nil
}

// substitutionLines keeps non-empty lines that contain a letter, with list
// markers trimmed.
func substitutionLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		line = strings.Trim(line, " -*\t")
		if !strings.ContainsFunc(line, unicode.IsLetter) {
			continue
		}
		out = append(out, line)
		if len(out) == MaxSubstitutions {
			break
		}
	}
	return out
}

// Answer replies to a free-form question, optionally grounded by context.
func (s *Service) Answer(ctx context.Context, question, background string) (string, error) {
	prompt := question
	if background != "" {
		prompt = fmt.Sprintf("Context: %s\nQuestion: %s", background, question)
	}
	text, err := s.generateText(ctx, prompt, answerParams)
	metrics.AIRequests.WithLabelValues("answer", metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error("answer request failed", zap.Error(err))
		return "", err
	}
	return text, nil
}

// StepTipQuestion is asked when the cook requests help with the current step.
const StepTipQuestion = "Give one concise, practical tip for carrying out the current step safely and well."

// StepTip asks for advice on step index of r.
func (s *Service) StepTip(ctx context.Context, r *recipe.Recipe, step int) (string, error) {
	if step < 0 || step >= len(r.Steps) {
		return "", fmt.Errorf("%w: %d", ErrStepOutOfRange, step)
	}
	return s.Answer(ctx, StepTipQuestion, fmt.Sprintf("Recipe: %s\nCurrent Step: %s", r.Title, r.Steps[step]))
}
