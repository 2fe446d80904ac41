package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homechef/internal/recipe"
)

var items = []recipe.GroceryItem{
	{Item: "Bread"},
	{Item: "Milk", Quantity: "1 l"},
	{Item: "Apples", Quantity: "6", Checked: true},
}

func TestGroceryLines(t *testing.T) {
	assert.Equal(t, []string{"[ ] Bread", "[ ] Milk — 1 l", "[x] Apples — 6"}, GroceryLines(items))
	assert.Empty(t, GroceryLines(nil))
}

func TestClipboardText(t *testing.T) {
	assert.Equal(t, "[ ] Bread\n[ ] Milk — 1 l\n[x] Apples — 6", ClipboardText(items))
}

func TestWriteTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grocery_list.txt")

	require.NoError(t, WriteTextFile(path, []string{"[ ] Bread  ", "[x] Apples\t"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[ ] Bread\n[x] Apples\n", string(data))
}
