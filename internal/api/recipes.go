package api

import (
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homechef/internal/recipe"
)

// Default and maximum thumbnail sizes for RecipeImage.
const (
	defaultImageWidth  = 320
	defaultImageHeight = 200
	maxImageSide       = 2048
)

// ListRecipes lists every recipe, or searches when any filter is given.
// Filters: q, category (repeatable or comma separated), max_time, difficulty.
func (h *Handler) ListRecipes(c *gin.Context) {
	filter := recipe.SearchFilter{
		Text:       strings.TrimSpace(c.Query("q")),
		Difficulty: strings.TrimSpace(c.Query("difficulty")),
	}
	for _, v := range c.QueryArray("category") {
		filter.Categories = append(filter.Categories, recipe.SplitCategories(v)...)
	}
	if raw := c.Query("max_time"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "max_time must be a non-negative integer")
			return
		}
		filter.MaxTime = &n
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	var recipes []*recipe.Recipe
	var err error
	if filter.Text == "" && filter.Difficulty == "" && len(filter.Categories) == 0 && filter.MaxTime == nil {
		recipes, err = h.RecipeStore.ListRecipes(ctx)
	} else {
		recipes, err = h.RecipeStore.SearchRecipes(ctx, filter)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe returns one recipe by id.
func (h *Handler) GetRecipe(c *gin.Context) {
	r, ok := h.loadRecipe(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r)
}

// CreateRecipe stores a recipe, typically an AI idea the user chose to keep.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err.Error())
		return
	}
	r.ID = nil

	ctx, cancel := dbContext(c)
	defer cancel()

	id, err := h.RecipeStore.InsertRecipe(ctx, &r)
	if err != nil {
		h.fail(c, err)
		return
	}
	r.ID = &id
	c.JSON(http.StatusCreated, &r)
}

// MissingIngredients lists the recipe's ingredients not stocked in the pantry.
func (h *Handler) MissingIngredients(c *gin.Context) {
	r, ok := h.loadRecipe(c)
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	missing, err := h.RecipeStore.ComputeMissingIngredients(ctx, r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missing": missing})
}

// AddMissingToGrocery puts every missing ingredient on the grocery list.
func (h *Handler) AddMissingToGrocery(c *gin.Context) {
	r, ok := h.loadRecipe(c)
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	added, err := h.RecipeStore.AddMissingToGrocery(ctx, r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

// RecipeImage renders the recipe image as a PNG covering w x h.
func (h *Handler) RecipeImage(c *gin.Context) {
	width, ok := imageSide(c, "w", defaultImageWidth)
	if !ok {
		return
	}
	height, ok := imageSide(c, "h", defaultImageHeight)
	if !ok {
		return
	}
	r, ok := h.loadRecipe(c)
	if !ok {
		return
	}

	img := h.Images.Load(r.ImagePath, width, height)
	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, img); err != nil {
		h.Log.Warn("failed to encode recipe image", zap.Int64("recipe_id", *r.ID), zap.Error(err))
	}
}

func imageSide(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxImageSide {
		badRequest(c, key+" must be between 1 and "+strconv.Itoa(maxImageSide))
		return 0, false
	}
	return n, true
}

// ListFavorites returns the favorite recipe ids.
func (h *Handler) ListFavorites(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	ids, err := h.RecipeStore.GetFavorites(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// AddFavorite marks a recipe as favorite. Repeating it is harmless.
func (h *Handler) AddFavorite(c *gin.Context) {
	h.setFavorite(c, true)
}

// RemoveFavorite clears the favorite mark.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	h.setFavorite(c, false)
}

func (h *Handler) setFavorite(c *gin.Context, favorite bool) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.SetFavorite(ctx, id, favorite); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
