package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a recipe id has no row.
	ErrNotFound = errors.New("recipe not found")
	// ErrInvalidRecipe wraps validation failures on insert.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

var validate = validator.New()

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Recipe is a stored recipe or, with a nil ID, an unsaved AI idea.
type Recipe struct {
	ID          *int64       `json:"id,omitempty"`
	Title       string       `json:"title" validate:"required,notblank"`
	Description string       `json:"description"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	TimeMinutes int          `json:"time_minutes" validate:"gte=0"`
	Difficulty  string       `json:"difficulty"`
	ImagePath   string       `json:"image_path"`
	Categories  []string     `json:"categories"`
}

func init() {
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Validate checks the fields required before a recipe can be inserted.
func (r *Recipe) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecipe, err)
	}
	return nil
}

// PantryItem is an item the user has at home. An empty quantity means the
// item is out of stock.
type PantryItem struct {
	Item     string `json:"item" db:"item"`
	Quantity string `json:"quantity" db:"quantity"`
}

// GroceryItem is an entry on the shopping list.
type GroceryItem struct {
	Item     string `json:"item" db:"item"`
	Quantity string `json:"quantity" db:"quantity"`
	Checked  bool   `json:"checked" db:"checked"`
}

// recipeRow mirrors the recipes table.
type recipeRow struct {
	ID              int64  `db:"id"`
	Title           string `db:"title"`
	Description     string `db:"description"`
	IngredientsJSON string `db:"ingredients_json"`
	StepsJSON       string `db:"steps_json"`
	TimeMinutes     int    `db:"time_minutes"`
	Difficulty      string `db:"difficulty"`
	ImagePath       string `db:"image_path"`
	Categories      string `db:"categories"`
}

const recipeColumns = "id, title, COALESCE(description, '') AS description, " +
	"COALESCE(ingredients_json, '') AS ingredients_json, COALESCE(steps_json, '') AS steps_json, " +
	"COALESCE(time_minutes, 0) AS time_minutes, COALESCE(difficulty, '') AS difficulty, " +
	"COALESCE(image_path, '') AS image_path, COALESCE(categories, '') AS categories"

// toRecipe decodes the embedded JSON columns. Malformed JSON yields empty
// lists rather than an error so one bad row does not hide the library.
func (row recipeRow) toRecipe() *Recipe {
	id := row.ID
	r := &Recipe{
		ID:          &id,
		Title:       row.Title,
		Description: row.Description,
		Ingredients: []Ingredient{},
		Steps:       []string{},
		TimeMinutes: row.TimeMinutes,
		Difficulty:  row.Difficulty,
		ImagePath:   row.ImagePath,
		Categories:  SplitCategories(row.Categories),
	}
	if row.IngredientsJSON != "" {
		var ings []Ingredient
		if err := json.Unmarshal([]byte(row.IngredientsJSON), &ings); err == nil && ings != nil {
			r.Ingredients = ings
		}
	}
	if row.StepsJSON != "" {
		var steps []string
		if err := json.Unmarshal([]byte(row.StepsJSON), &steps); err == nil && steps != nil {
			r.Steps = steps
		}
	}
	return r
}

// SplitCategories parses the comma-joined categories column.
func SplitCategories(s string) []string {
	out := []string{}
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// JoinCategories is the inverse of SplitCategories for storage.
func JoinCategories(categories []string) string {
	return strings.Join(categories, ",")
}

// insertArgs returns the positional values for the recipes INSERT.
func (r *Recipe) insertArgs() ([]any, error) {
	ings := r.Ingredients
	if ings == nil {
		ings = []Ingredient{}
	}
	steps := r.Steps
	if steps == nil {
		steps = []string{}
	}
	ingredientsJSON, err := json.Marshal(ings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal steps: %w", err)
	}
	return []any{
		r.Title,
		r.Description,
		string(ingredientsJSON),
		string(stepsJSON),
		r.TimeMinutes,
		r.Difficulty,
		r.ImagePath,
		JoinCategories(r.Categories),
	}, nil
}
