package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homechef/internal/api"
	"homechef/internal/assistant"
	"homechef/internal/images"
	"homechef/internal/recipe"
)

// mockBackend is a mock of a generative backend.
type mockBackend struct {
	mu          sync.Mutex
	reply       string
	returnError error
	prompts     []string
}

// Generate mocks the Generate method.
func (m *mockBackend) Generate(ctx context.Context, req assistant.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, req.Prompt)
	if m.returnError != nil {
		return "", m.returnError
	}
	return m.reply, nil
}

// StartChat mocks the StartChat method.
func (m *mockBackend) StartChat(model string, params assistant.Params) assistant.ChatSession {
	return &mockChat{}
}

// mockChat echoes every message and counts the turns it has seen.
type mockChat struct {
	turns int
}

func (m *mockChat) Send(ctx context.Context, message string) (string, error) {
	m.turns++
	return strings.Repeat(">", m.turns) + " " + message, nil
}

// newTestRouter wires the handler over a seeded SQLite store. backend may be
// nil to run without AI.
func newTestRouter(t *testing.T, backend assistant.Backend) (*gin.Engine, *recipe.SQLiteStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := recipe.NewSQLiteStore(filepath.Join(t.TempDir(), "homechef.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init(context.Background()))

	var ai api.Assistant
	if backend != nil {
		ai = assistant.NewService(backend, "gemini-1.5-flash", nil)
	}
	handler := api.NewHandler(store, ai, images.NewService(""), nil)

	r := gin.Default()
	r.Use(api.RequestLogger(zap.NewNop()))
	handler.Routes(r)
	return r, store
}

func serve(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func insertRecipe(t *testing.T, store *recipe.SQLiteStore, r *recipe.Recipe) int64 {
	t.Helper()
	id, err := store.InsertRecipe(context.Background(), r)
	require.NoError(t, err)
	return id
}

func TestListRecipes(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rr := serve(r, http.MethodGet, "/recipes", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	recipes := decode[[]recipe.Recipe](t, rr)
	require.Len(t, recipes, 6)
	assert.Equal(t, "Beef Bourguignon", recipes[0].Title)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestListRecipes_Search(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rr := serve(r, http.MethodGet, "/recipes?max_time=25&category=Vegetarian", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	recipes := decode[[]recipe.Recipe](t, rr)
	titles := make([]string, 0, len(recipes))
	for _, rec := range recipes {
		titles = append(titles, rec.Title)
	}
	assert.Equal(t, []string{"Greek Salad", "Spaghetti Aglio e Olio", "Pancakes"}, titles)

	rr = serve(r, http.MethodGet, "/recipes?max_time=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetRecipe(t *testing.T) {
	r, store := newTestRouter(t, nil)
	id := insertRecipe(t, store, &recipe.Recipe{Title: "Toast", Steps: []string{"Toast the bread"}})

	rr := serve(r, http.MethodGet, "/recipes/"+itoa(id), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	got := decode[recipe.Recipe](t, rr)
	assert.Equal(t, "Toast", got.Title)
	require.NotNil(t, got.ID)
	assert.Equal(t, id, *got.ID)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/recipes/9999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/recipes/abc", nil).Code)
}

func TestCreateRecipe(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rr := serve(r, http.MethodPost, "/recipes", recipe.Recipe{Title: "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(r, http.MethodPost, "/recipes", recipe.Recipe{
		Title:       "AI Idea",
		Ingredients: []recipe.Ingredient{{Name: "Rice", Quantity: "1 cup"}},
		Categories:  []string{"Quick"},
	})
	assert.Equal(t, http.StatusCreated, rr.Code)
	created := decode[recipe.Recipe](t, rr)
	require.NotNil(t, created.ID)

	rr = serve(r, http.MethodGet, "/recipes/"+itoa(*created.ID), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Quick"}, decode[recipe.Recipe](t, rr).Categories)
}

func TestFavorites(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPut, "/favorites/2", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPut, "/favorites/2", nil).Code)
	assert.Equal(t, []int64{2}, decode[[]int64](t, serve(r, http.MethodGet, "/favorites", nil)))

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/favorites/2", nil).Code)
	assert.Empty(t, decode[[]int64](t, serve(r, http.MethodGet, "/favorites", nil)))
}

func TestPantryAndMissingIngredients(t *testing.T) {
	r, store := newTestRouter(t, nil)
	id := insertRecipe(t, store, &recipe.Recipe{
		Title: "Omelette",
		Ingredients: []recipe.Ingredient{
			{Name: "Eggs", Quantity: "3"},
			{Name: "Butter", Quantity: "1 tbsp"},
			{Name: "Chives", Quantity: ""},
		},
	})

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPut, "/pantry/eggs", map[string]string{"quantity": "6"}).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPut, "/pantry/Butter", map[string]string{"quantity": ""}).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPut, "/pantry/%20", nil).Code)

	rr := serve(r, http.MethodGet, "/recipes/"+itoa(id)+"/missing", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Butter", "Chives"}, decode[map[string][]string](t, rr)["missing"])

	rr = serve(r, http.MethodPost, "/recipes/"+itoa(id)+"/missing/grocery", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Butter", "Chives"}, decode[map[string][]string](t, rr)["added"])

	grocery := decode[[]recipe.GroceryItem](t, serve(r, http.MethodGet, "/grocery", nil))
	assert.Equal(t, []recipe.GroceryItem{
		{Item: "Butter", Quantity: "1 tbsp"},
		{Item: "Chives", Quantity: ""},
	}, grocery)

	rr = serve(r, http.MethodPost, "/pantry/eggs/rename", map[string]string{"item": "Eggs", "quantity": "12"})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	pantry := decode[[]recipe.PantryItem](t, serve(r, http.MethodGet, "/pantry", nil))
	assert.Contains(t, pantry, recipe.PantryItem{Item: "Eggs", Quantity: "12"})
	assert.NotContains(t, pantry, recipe.PantryItem{Item: "eggs", Quantity: "6"})
}

func TestGroceryExport(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	serve(r, http.MethodPut, "/grocery/Milk", map[string]any{"quantity": "1 L"})
	serve(r, http.MethodPut, "/grocery/"+url.PathEscape("Olive oil"), nil)
	rr := serve(r, http.MethodPatch, "/grocery/Milk/checked", map[string]bool{"checked": true})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(r, http.MethodGet, "/grocery/export", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[ ] Olive oil\n[x] Milk — 1 L", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "grocery_list.txt")

	path := filepath.Join(t.TempDir(), "out", "grocery.txt")
	rr = serve(r, http.MethodPost, "/grocery/export", map[string]string{"path": path})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.FileExists(t, path)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/grocery?only_checked=true", nil).Code)
	grocery := decode[[]recipe.GroceryItem](t, serve(r, http.MethodGet, "/grocery", nil))
	assert.Equal(t, []recipe.GroceryItem{{Item: "Olive oil"}}, grocery)
}

func TestRecipeImage(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rr := serve(r, http.MethodGet, "/recipes/1/image?w=64&h=48", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	img, err := png.Decode(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/recipes/1/image?w=0", nil).Code)
}

func TestAI_Unavailable(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rr := serve(r, http.MethodPost, "/ai/suggest", map[string][]string{"ingredients": {"eggs"}})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/ai/chat", map[string]string{"message": "hi"}).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodDelete, "/ai/chat", nil).Code)
}

func TestSuggest(t *testing.T) {
	backend := &mockBackend{reply: "```json\n" + `{"match_titles": ["Pancakes", "Unknown Dish"], "ideas": [{"title": "Egg Fried Rice", "ingredients": [{"name": "Eggs", "quantity": "2"}], "steps": ["Fry"], "time_minutes": "15"}], "substitutions": ["Use oil for butter"]}` + "\n```"}
	r, _ := newTestRouter(t, backend)

	rr := serve(r, http.MethodPost, "/ai/suggest", map[string][]string{"ingredients": {" eggs ", "flour", "eggs"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	res := decode[assistant.Resolution](t, rr)
	require.Len(t, res.Matched, 1)
	assert.Equal(t, "Pancakes", res.Matched[0].Title)
	require.Len(t, res.Ideas, 1)
	assert.Equal(t, "Egg Fried Rice", res.Ideas[0].Title)
	assert.Equal(t, 15, res.Ideas[0].TimeMinutes)
	assert.Equal(t, []string{"Use oil for butter"}, res.Substitutions)
	assert.False(t, res.LocalFallback)

	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "User Ingredients: eggs, flour\n")
}

func TestSuggest_NoIngredients(t *testing.T) {
	r, _ := newTestRouter(t, &mockBackend{})

	rr := serve(r, http.MethodPost, "/ai/suggest", map[string][]string{"ingredients": {"  ", ""}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, api.MessageNoIngredients, decode[map[string]string](t, rr)["error"])
}

func TestSuggest_LocalFallback(t *testing.T) {
	r, _ := newTestRouter(t, &mockBackend{reply: `{"match_titles": [], "ideas": []}`})

	rr := serve(r, http.MethodPost, "/ai/suggest", map[string][]string{"ingredients": {"garlic"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	res := decode[assistant.Resolution](t, rr)
	assert.True(t, res.LocalFallback)
	assert.Equal(t, assistant.MessageLocalFallback, res.Message)
	assert.Len(t, res.Matched, 3)
}

func TestSuggest_BackendError(t *testing.T) {
	r, _ := newTestRouter(t, &mockBackend{returnError: assert.AnError})

	rr := serve(r, http.MethodPost, "/ai/suggest", map[string][]string{"ingredients": {"garlic"}})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, assert.AnError.Error(), decode[map[string]string](t, rr)["error"])
}

func TestSubstitutions(t *testing.T) {
	backend := &mockBackend{reply: "1. Use yogurt instead of cream\n\n- Dried basil works too\n"}
	r, store := newTestRouter(t, backend)
	id := insertRecipe(t, store, &recipe.Recipe{
		Title:       "Soup",
		Ingredients: []recipe.Ingredient{{Name: "Cream", Quantity: "100 ml"}, {Name: "Basil", Quantity: "1 bunch"}},
	})

	rr := serve(r, http.MethodPost, "/ai/recipes/"+itoa(id)+"/substitutions", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string][]string](t, rr)
	assert.Equal(t, []string{"Cream", "Basil"}, body["missing"])
	assert.Equal(t, []string{"1. Use yogurt instead of cream", "Dried basil works too"}, body["substitutions"])

	serve(r, http.MethodPut, "/pantry/Cream", map[string]string{"quantity": "1 cup"})
	serve(r, http.MethodPut, "/pantry/Basil", map[string]string{"quantity": "a few leaves"})
	rr = serve(r, http.MethodPost, "/ai/recipes/"+itoa(id)+"/substitutions", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), api.MessageNothingMissing)
	assert.Len(t, backend.prompts, 1)
}

func TestStepTip(t *testing.T) {
	backend := &mockBackend{reply: "Keep the heat low."}
	r, store := newTestRouter(t, backend)
	id := insertRecipe(t, store, &recipe.Recipe{Title: "Garlic Oil", Steps: []string{"Warm the oil", "Add garlic"}})

	rr := serve(r, http.MethodPost, "/ai/tip", map[string]any{"recipe_id": id, "step": 1})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Keep the heat low.", decode[map[string]any](t, rr)["tip"])
	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "Current Step: Add garlic")

	rr = serve(r, http.MethodPost, "/ai/tip", map[string]any{"recipe_id": id, "step": 2})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(r, http.MethodPost, "/ai/tip", map[string]any{"recipe_id": 9999, "step": 0})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChat(t *testing.T) {
	r, _ := newTestRouter(t, &mockBackend{})

	rr := serve(r, http.MethodPost, "/ai/chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]string](t, rr)
	assert.Equal(t, "> hello", body["reply"])
	assert.Equal(t, "gemini-1.5-flash", body["model"])

	rr = serve(r, http.MethodPost, "/ai/chat", map[string]string{"message": "again"})
	assert.Equal(t, ">> again", decode[map[string]string](t, rr)["reply"])

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/ai/chat", nil).Code)
	rr = serve(r, http.MethodPost, "/ai/chat", map[string]string{"message": "fresh"})
	assert.Equal(t, "> fresh", decode[map[string]string](t, rr)["reply"])

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/ai/chat", map[string]string{"message": "  "}).Code)
}
