package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
)

func newTestImporter(t *testing.T) (*Importer, *storage.Storage) {
	tmpDir, err := os.MkdirTemp("", "template-factory-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := storage.NewStorage(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InitLibrary(); err != nil {
		t.Fatal(err)
	}

	return New(store, nil), store
}

// writeSourcePackage lays out a foreign bonus folder under root
func writeSourcePackage(t *testing.T, root, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newSourceDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "template-factory-import")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestImportAdoptsForeignFolder(t *testing.T) {
	imp, store := newTestImporter(t)
	src := newSourceDir(t)

	writeSourcePackage(t, src, "sleep-revolution-kit", map[string]string{
		"README.md":              "# Sleep Revolution Kit\n\nBonus material for the course.\n",
		"execution_checklist.md": "- [ ] Step one\n",
		"prompt_pack.md":         "1. Prompt one\n",
		"scripts/welcome.md":     "Welcome email\n",
		"worksheets/metrics.csv": "stage,metric\n",
	})

	before := time.Now()
	result, err := imp.Import(ImportOptions{Path: src})
	after := time.Now()
	if err != nil {
		t.Fatalf("Failed to import: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Fatalf("Expected no errors, got %v", result.Errors)
	}
	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 imported product, got %d", len(result.Products))
	}

	product := result.Products[0]
	wantBefore := models.DatedID("sleep-revolution-kit", before)
	wantAfter := models.DatedID("sleep-revolution-kit", after)
	if product.ID != wantBefore && product.ID != wantAfter {
		t.Errorf("Unexpected derived id: %s", product.ID)
	}
	if !models.ValidProductID(product.ID) {
		t.Errorf("Derived id %s is not valid", product.ID)
	}
	if product.Topic != "Sleep Revolution Kit" {
		t.Errorf("Expected topic from README heading, got %q", product.Topic)
	}
	if product.Language != "en" {
		t.Errorf("Expected default language en, got %s", product.Language)
	}

	// Assets land in the library layout
	for _, rel := range []string{
		"README.md",
		"execution_checklist.md",
		"prompt_pack.md",
		"scripts/welcome.md",
		"worksheets/metrics.csv",
	} {
		path := filepath.Join(store.GetBaseDir(), product.Dir, filepath.FromSlash(rel))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s in library: %v", rel, err)
		}
	}

	// The rewritten README carries normalized frontmatter
	loaded, err := store.LoadProduct(product.Dir)
	if err != nil {
		t.Fatalf("Failed to load imported product: %v", err)
	}
	if loaded.Legacy {
		t.Error("Expected imported README to gain frontmatter")
	}
	if loaded.Topic != "Sleep Revolution Kit" {
		t.Errorf("Unexpected topic after reload: %q", loaded.Topic)
	}
	if loaded.Version != "1.0.0" {
		t.Errorf("Expected normalized version 1.0.0, got %s", loaded.Version)
	}
}

func TestImportKeepsDatedFolderNames(t *testing.T) {
	imp, _ := newTestImporter(t)
	src := newSourceDir(t)

	writeSourcePackage(t, src, "20260301_morning_routines", map[string]string{
		"README.md":      "# Morning Routines\n",
		"prompt_pack.md": "1. Prompt\n",
	})

	result, err := imp.Import(ImportOptions{Path: src})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(result.Products))
	}
	if result.Products[0].ID != "20260301_morning_routines" {
		t.Errorf("Expected dated folder name kept, got %s", result.Products[0].ID)
	}
}

func TestImportFactoryLayout(t *testing.T) {
	imp, _ := newTestImporter(t)
	src := newSourceDir(t)

	writeSourcePackage(t, src, "20260301_focus_habits/bonus_en", map[string]string{
		"README.md":              "# Focus Habits\n",
		"execution_checklist.md": "- [ ] Step\n",
	})

	result, err := imp.Import(ImportOptions{Path: src})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d: %v", len(result.Products), result.Errors)
	}
	// The id comes from the parent of the bonus_<lang> dir
	if result.Products[0].ID != "20260301_focus_habits" {
		t.Errorf("Expected id from parent directory, got %s", result.Products[0].ID)
	}
}

func TestImportSkipsPlainReadme(t *testing.T) {
	imp, _ := newTestImporter(t)
	src := newSourceDir(t)

	// Repo-style root README without assets, real package deeper down
	if err := os.WriteFile(filepath.Join(src, "README.md"), []byte("# My Repo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	writeSourcePackage(t, src, "packs/20260301_focus_habits", map[string]string{
		"README.md":      "# Focus Habits\n",
		"prompt_pack.md": "1. Prompt\n",
	})

	result, err := imp.Import(ImportOptions{Path: src})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(result.Products))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("Expected 1 skipped folder, got %d", len(result.Skipped))
	}
	if !strings.Contains(result.Skipped[0].Reason, "no canonical assets") {
		t.Errorf("Unexpected skip reason: %s", result.Skipped[0].Reason)
	}
}

func TestImportAppliesTagsAndLanguage(t *testing.T) {
	imp, store := newTestImporter(t)
	src := newSourceDir(t)

	writeSourcePackage(t, src, "20260301_focus_habits", map[string]string{
		"README.md":      "# Focus Habits\n",
		"prompt_pack.md": "1. Prompt\n",
	})

	result, err := imp.Import(ImportOptions{
		Path:     src,
		Language: "de",
		Tags:     []string{"imported", "q3"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(result.Products))
	}
	product := result.Products[0]
	if product.Dir != "outputs/20260301_focus_habits/bonus_de" {
		t.Errorf("Unexpected package dir: %s", product.Dir)
	}
	for _, tag := range []string{"imported", "q3"} {
		found := false
		for _, have := range product.Tags {
			if have == tag {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected tag %s on imported product, got %v", tag, product.Tags)
		}
	}

	if !store.PackageExists("20260301_focus_habits", "de") {
		t.Error("Expected German package in library")
	}
}

func TestImportDryRun(t *testing.T) {
	imp, store := newTestImporter(t)
	src := newSourceDir(t)

	writeSourcePackage(t, src, "20260301_focus_habits", map[string]string{
		"README.md":      "# Focus Habits\n",
		"prompt_pack.md": "1. Prompt\n",
	})

	result, err := imp.Import(ImportOptions{Path: src, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 previewed product, got %d", len(result.Products))
	}
	if store.PackageExists("20260301_focus_habits", "en") {
		t.Error("Dry run must not write to the library")
	}
}

func TestImportConflicts(t *testing.T) {
	imp, store := newTestImporter(t)
	src := newSourceDir(t)

	writeSourcePackage(t, src, "20260301_focus_habits", map[string]string{
		"README.md":      "# Focus Habits\n",
		"prompt_pack.md": "1. Imported prompt\n",
	})

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	existing := &models.Product{
		ID:        "20260301_focus_habits",
		Topic:     "Focus Habits",
		Language:  "en",
		Version:   "1.0.2",
		CreatedAt: created,
		UpdatedAt: created,
		Body:      "Original body\n",
	}
	if err := store.SaveProduct(existing); err != nil {
		t.Fatal(err)
	}

	// Default: conflict is an error
	result, err := imp.Import(ImportOptions{Path: src})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 conflict error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Error(), "already exists") {
		t.Errorf("Unexpected conflict error: %v", result.Errors[0])
	}
	if len(result.Products) != 0 {
		t.Errorf("Expected no imports on conflict, got %d", len(result.Products))
	}

	// SkipExisting: silently skipped
	result, err = imp.Import(ImportOptions{Path: src, SkipExisting: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors with skip-existing, got %v", result.Errors)
	}
	if len(result.Skipped) != 1 {
		t.Errorf("Expected 1 skipped package, got %d", len(result.Skipped))
	}

	// OverwriteExisting: replaced, creation time preserved
	result, err = imp.Import(ImportOptions{Path: src, OverwriteExisting: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("Expected no errors with overwrite, got %v", result.Errors)
	}
	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 overwritten product, got %d", len(result.Products))
	}
	if !result.Products[0].CreatedAt.Equal(created) {
		t.Errorf("Expected creation time preserved, got %s", result.Products[0].CreatedAt)
	}

	content, err := store.ReadAsset(result.Products[0], "prompt_pack.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "1. Imported prompt\n" {
		t.Errorf("Expected overwritten prompt pack, got %q", content)
	}
}

func TestImportFrontmatterCarriedThrough(t *testing.T) {
	imp, _ := newTestImporter(t)
	src := newSourceDir(t)

	readme := `---
topic: Deep Work Sprints
version: 2.1.0
tags:
    - productivity
---

# Deep Work Sprints

Existing body.
`
	writeSourcePackage(t, src, "deep-work", map[string]string{
		"README.md":      readme,
		"prompt_pack.md": "1. Prompt\n",
	})

	result, err := imp.Import(ImportOptions{Path: src})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d: %v", len(result.Products), result.Errors)
	}
	product := result.Products[0]
	if product.Topic != "Deep Work Sprints" {
		t.Errorf("Expected topic from frontmatter, got %q", product.Topic)
	}
	if product.Version != "2.1.0" {
		t.Errorf("Expected version carried through, got %s", product.Version)
	}
	if len(product.Tags) == 0 || product.Tags[0] != "productivity" {
		t.Errorf("Expected tags carried through, got %v", product.Tags)
	}
}

func TestImportTopicFallsBackToSlug(t *testing.T) {
	imp, _ := newTestImporter(t)
	src := newSourceDir(t)

	// No heading and no frontmatter, the id slug is all we have
	writeSourcePackage(t, src, "20260301_focus_habits", map[string]string{
		"README.md":      "Plain notes without a heading.\n",
		"prompt_pack.md": "1. Prompt\n",
	})

	result, err := imp.Import(ImportOptions{Path: src})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d: %v", len(result.Products), result.Errors)
	}
	if result.Products[0].Topic != "Focus Habits" {
		t.Errorf("Expected topic derived from slug, got %q", result.Products[0].Topic)
	}
}

func TestImportMissingSource(t *testing.T) {
	imp, _ := newTestImporter(t)

	if _, err := imp.Import(ImportOptions{Path: "/nonexistent/source/dir"}); err == nil {
		t.Error("Expected error for missing source directory")
	}
}
