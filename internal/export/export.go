// Package export serializes the grocery list for files and the clipboard.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"homechef/internal/recipe"
)

// GroceryLines renders one "[x] item — qty" or "[ ] item" line per entry.
func GroceryLines(items []recipe.GroceryItem) []string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		state := "[ ]"
		if it.Checked {
			state = "[x]"
		}
		text := it.Item
		if it.Quantity != "" {
			text = fmt.Sprintf("%s — %s", it.Item, it.Quantity)
		}
		lines = append(lines, state+" "+text)
	}
	return lines
}

// ClipboardText joins the grocery lines for pasting elsewhere.
func ClipboardText(items []recipe.GroceryItem) string {
	return strings.Join(GroceryLines(items), "\n")
}

// WriteTextFile writes each line, right-trimmed, to path, creating parent
// directories as needed.
func WriteTextFile(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(strings.TrimRight(line, " \t\r\n") + "\n"); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return f.Close()
}
