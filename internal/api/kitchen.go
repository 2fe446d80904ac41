package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"homechef/internal/export"
)

type pantryRequest struct {
	Quantity string `json:"quantity"`
}

type groceryRequest struct {
	Quantity string `json:"quantity"`
	Checked  bool   `json:"checked"`
}

type checkedRequest struct {
	Checked *bool `json:"checked" binding:"required"`
}

type renameRequest struct {
	Item     string `json:"item" binding:"required"`
	Quantity string `json:"quantity"`
	Checked  bool   `json:"checked"`
}

type exportRequest struct {
	Path string `json:"path" binding:"required"`
}

// itemParam returns the trimmed :item path parameter, writing a 400 when it
// is blank.
func itemParam(c *gin.Context) (string, bool) {
	item := strings.TrimSpace(c.Param("item"))
	if item == "" {
		badRequest(c, "item must not be blank")
		return "", false
	}
	return item, true
}

// bindRename reads a rename body, writing a 400 when the new name is blank.
func bindRename(c *gin.Context) (*renameRequest, bool) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	req.Item = strings.TrimSpace(req.Item)
	if req.Item == "" {
		badRequest(c, "item must not be blank")
		return nil, false
	}
	return &req, true
}

// ListPantry returns the pantry ordered by item.
func (h *Handler) ListPantry(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	items, err := h.RecipeStore.ListPantry(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// UpsertPantryItem adds an item or replaces its quantity.
func (h *Handler) UpsertPantryItem(c *gin.Context) {
	item, ok := itemParam(c)
	if !ok {
		return
	}
	var req pantryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.UpsertPantryItem(ctx, item, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemovePantryItem deletes an item.
func (h *Handler) RemovePantryItem(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.RemovePantryItem(ctx, c.Param("item")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RenamePantryItem replaces an item with a new name and quantity.
func (h *Handler) RenamePantryItem(c *gin.Context) {
	req, ok := bindRename(c)
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.RenamePantryItem(ctx, c.Param("item"), req.Item, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListGrocery returns unchecked items first, each group ordered by item.
func (h *Handler) ListGrocery(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	items, err := h.RecipeStore.ListGrocery(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// UpsertGroceryItem adds an item or overwrites its quantity and checked flag.
func (h *Handler) UpsertGroceryItem(c *gin.Context) {
	item, ok := itemParam(c)
	if !ok {
		return
	}
	var req groceryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.UpsertGroceryItem(ctx, item, req.Quantity, req.Checked); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetGroceryChecked ticks or unticks an item.
func (h *Handler) SetGroceryChecked(c *gin.Context) {
	var req checkedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.SetGroceryChecked(ctx, c.Param("item"), *req.Checked); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveGroceryItem deletes an item.
func (h *Handler) RemoveGroceryItem(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.RemoveGroceryItem(ctx, c.Param("item")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RenameGroceryItem replaces an item with a new name, quantity and state.
func (h *Handler) RenameGroceryItem(c *gin.Context) {
	req, ok := bindRename(c)
	if !ok {
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.RenameGroceryItem(ctx, c.Param("item"), req.Item, req.Quantity, req.Checked); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearGrocery empties the list, or only its checked items when
// only_checked=true.
func (h *Handler) ClearGrocery(c *gin.Context) {
	onlyChecked := c.Query("only_checked") == "true" || c.Query("only_checked") == "1"

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.RecipeStore.ClearGrocery(ctx, onlyChecked); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportGrocery returns the list as plain text, one "[x] item — qty" line
// per entry.
func (h *Handler) ExportGrocery(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	items, err := h.RecipeStore.ListGrocery(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="grocery_list.txt"`)
	c.String(http.StatusOK, export.ClipboardText(items))
}

// SaveGroceryExport writes the list to a text file on the local machine.
func (h *Handler) SaveGroceryExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	items, err := h.RecipeStore.ListGrocery(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := export.WriteTextFile(req.Path, export.GroceryLines(items)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path, "items": len(items)})
}
