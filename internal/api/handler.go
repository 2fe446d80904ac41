package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homechef/internal/assistant"
	"homechef/internal/images"
	"homechef/internal/recipe"
	"homechef/internal/worker"
)

// Actions guarded against concurrent AI calls.
const (
	actionSuggest       = "suggest"
	actionSubstitutions = "substitutions"
	actionTip           = "tip"
	actionChat          = "chat"
)

// dbTimeout bounds every data-access call made from a handler.
const dbTimeout = 5 * time.Second

// RecipeStore defines the interface for recipe, pantry and grocery data operations.
type RecipeStore interface {
	recipe.Store
}

// Assistant defines the generative operations the API exposes.
type Assistant interface {
	SuggestFromIngredients(ctx context.Context, ingredients []string, recipes []*recipe.Recipe) (*assistant.Suggestions, error)
	SubstitutionsForRecipe(ctx context.Context, r *recipe.Recipe, missing []string) ([]string, error)
	StepTip(ctx context.Context, r *recipe.Recipe, step int) (string, error)
	NewChat() *assistant.Chat
}

// Handler handles HTTP requests.
type Handler struct {
	RecipeStore RecipeStore
	// Assistant is nil when no AI backend is configured.
	Assistant Assistant
	Images    *images.Service
	Log       *zap.Logger

	guard *worker.Guard
	chat  *assistant.Chat
}

// NewHandler creates a new Handler. ai may be nil.
func NewHandler(store RecipeStore, ai Assistant, imgs *images.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{RecipeStore: store, Assistant: ai, Images: imgs, Log: log, guard: worker.NewGuard()}
	if ai != nil {
		h.chat = ai.NewChat()
	}
	return h
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/recipes", h.ListRecipes)
	r.POST("/recipes", h.CreateRecipe)
	r.GET("/recipes/:id", h.GetRecipe)
	r.GET("/recipes/:id/missing", h.MissingIngredients)
	r.POST("/recipes/:id/missing/grocery", h.AddMissingToGrocery)
	r.GET("/recipes/:id/image", h.RecipeImage)

	r.GET("/favorites", h.ListFavorites)
	r.PUT("/favorites/:id", h.AddFavorite)
	r.DELETE("/favorites/:id", h.RemoveFavorite)

	r.GET("/pantry", h.ListPantry)
	r.PUT("/pantry/:item", h.UpsertPantryItem)
	r.DELETE("/pantry/:item", h.RemovePantryItem)
	r.POST("/pantry/:item/rename", h.RenamePantryItem)

	r.GET("/grocery", h.ListGrocery)
	r.DELETE("/grocery", h.ClearGrocery)
	r.GET("/grocery/export", h.ExportGrocery)
	r.POST("/grocery/export", h.SaveGroceryExport)
	r.PUT("/grocery/:item", h.UpsertGroceryItem)
	r.PATCH("/grocery/:item/checked", h.SetGroceryChecked)
	r.DELETE("/grocery/:item", h.RemoveGroceryItem)
	r.POST("/grocery/:item/rename", h.RenameGroceryItem)

	r.POST("/ai/suggest", h.Suggest)
	r.POST("/ai/recipes/:id/substitutions", h.Substitutions)
	r.POST("/ai/tip", h.StepTip)
	r.POST("/ai/chat", h.Chat)
	r.DELETE("/ai/chat", h.ResetChat)
}

// statusFor maps a domain error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, recipe.ErrInvalidRecipe), errors.Is(err, assistant.ErrStepOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, recipe.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, worker.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, assistant.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body, logging server-side failures.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func dbContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), dbTimeout)
}

// recipeID parses the :id path parameter, writing a 400 on failure.
func recipeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid recipe id")
		return 0, false
	}
	return id, true
}

// loadRecipe fetches the recipe named by :id, writing the error response on
// failure.
func (h *Handler) loadRecipe(c *gin.Context) (*recipe.Recipe, bool) {
	id, ok := recipeID(c)
	if !ok {
		return nil, false
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	r, err := h.RecipeStore.GetRecipe(ctx, id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return r, true
}
