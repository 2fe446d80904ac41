package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"homechef/internal/assistant"
	"homechef/internal/worker"
)

// Messages shown for AI requests that need no generative call.
const (
	MessageNoIngredients  = "Please enter at least one ingredient."
	MessageNothingMissing = "You have all ingredients in your pantry!"
)

type suggestRequest struct {
	Ingredients []string `json:"ingredients"`
}

type tipRequest struct {
	RecipeID int64 `json:"recipe_id" binding:"required"`
	Step     *int  `json:"step" binding:"required"`
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// requireAI writes a 503 when no backend is configured.
func (h *Handler) requireAI(c *gin.Context) bool {
	if h.Assistant == nil {
		h.fail(c, assistant.ErrUnavailable)
		return false
	}
	return true
}

// Suggest asks for recipes that fit the given ingredients and resolves the
// answer against the library.
func (h *Handler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ingredients := assistant.NormalizeIngredients(req.Ingredients)
	if len(ingredients) == 0 {
		badRequest(c, MessageNoIngredients)
		return
	}
	if !h.requireAI(c) {
		return
	}

	ctx := c.Request.Context()
	dbCtx, cancel := dbContext(c)
	recipes, err := h.RecipeStore.ListRecipes(dbCtx)
	cancel()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := worker.Run(ctx, h.guard, actionSuggest, func(ctx context.Context) (*assistant.Resolution, error) {
		s, err := h.Assistant.SuggestFromIngredients(ctx, ingredients, recipes)
		if err != nil {
			return nil, err
		}
		return assistant.Resolve(ctx, h.RecipeStore, s, ingredients, recipes)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Substitutions suggests replacements for the recipe's missing ingredients.
func (h *Handler) Substitutions(c *gin.Context) {
	if !h.requireAI(c) {
		return
	}
	r, ok := h.loadRecipe(c)
	if !ok {
		return
	}
	dbCtx, cancel := dbContext(c)
	missing, err := h.RecipeStore.ComputeMissingIngredients(dbCtx, r)
	cancel()
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(missing) == 0 {
		c.JSON(http.StatusOK, gin.H{"missing": missing, "substitutions": []string{}, "message": MessageNothingMissing})
		return
	}

	subs, err := worker.Run(c.Request.Context(), h.guard, actionSubstitutions, func(ctx context.Context) ([]string, error) {
		return h.Assistant.SubstitutionsForRecipe(ctx, r, missing)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missing": missing, "substitutions": subs})
}

// StepTip asks for advice on one step of a recipe while cooking.
func (h *Handler) StepTip(c *gin.Context) {
	var req tipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !h.requireAI(c) {
		return
	}
	dbCtx, cancel := dbContext(c)
	r, err := h.RecipeStore.GetRecipe(dbCtx, req.RecipeID)
	cancel()
	if err != nil {
		h.fail(c, err)
		return
	}

	tip, err := worker.Run(c.Request.Context(), h.guard, actionTip, func(ctx context.Context) (string, error) {
		return h.Assistant.StepTip(ctx, r, *req.Step)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": *req.Step, "tip": tip})
}

// Chat sends one message in the ongoing conversation.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		badRequest(c, "message must not be blank")
		return
	}
	if !h.requireAI(c) {
		return
	}

	reply, err := worker.Run(c.Request.Context(), h.guard, actionChat, func(ctx context.Context) (string, error) {
		return h.chat.Send(ctx, message)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "model": h.chat.Model()})
}

// ResetChat discards the conversation history.
func (h *Handler) ResetChat(c *gin.Context) {
	if !h.requireAI(c) {
		return
	}
	h.chat.Reset()
	c.Status(http.StatusNoContent)
}
