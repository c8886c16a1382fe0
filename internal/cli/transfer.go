package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tbellec/flashdeck/internal/services"
)

// Export writes the workspace content as an indented JSON document to path.
func (a *App) Export(ctx context.Context, path string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	doc, err := a.content.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	printlnFn("Exported", len(doc.Cards), "card(s) and", len(doc.Courses), "course(s) to", path)
	return nil
}

// Import reads a JSON export document from path and merges it into the
// workspace. Re-importing the same file is a no-op for unchanged records.
func (a *App) Import(ctx context.Context, path string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc services.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := a.content.Import(ctx, &doc); err != nil {
		return err
	}
	printlnFn("Imported", len(doc.Cards), "card(s) and", len(doc.Courses), "course(s)")
	return nil
}

// BulkImport reads a plain-text file of delimiter-separated lines
// (question # answer # optional subject) and creates a card per line.
func (a *App) BulkImport(ctx context.Context, path string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	n, err := a.content.ImportText(ctx, string(data))
	if err != nil {
		return err
	}
	printlnFn("Imported", n, "card(s)")
	return nil
}
