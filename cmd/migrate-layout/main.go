// Command migrate-layout moves packages from the legacy flat layout into
// the canonical outputs/<id>/bonus_<lang>/ structure.
//
// Two legacy shapes are recognized:
//
//	<slug>/README.md            (package folder at the library root)
//	outputs/<id>/README.md      (assets directly under the id, no edition dir)
//
// Folders whose name carries no <YYYYMMDD>_ prefix are renamed using the
// folder's modification date, and the README frontmatter is rewritten to
// match the new location.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
)

type migration struct {
	sourceDir string // absolute path of the legacy folder
	id        string // canonical package id after migration
	targetDir string // package dir relative to the library root
}

func main() {
	var dryRun bool
	var baseDir string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--dry-run":
			dryRun = true
		case "--dir":
			if i+1 < len(args) {
				baseDir = args[i+1]
				i++
			}
		case "--help", "-h":
			fmt.Println("Usage: migrate-layout [--dry-run] [--dir <library-root>]")
			return
		}
	}

	store, err := storage.NewStorage(baseDir)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}
	root := store.GetBaseDir()

	migrations, err := findLegacyPackages(root)
	if err != nil {
		fmt.Printf("Error scanning library: %v\n", err)
		os.Exit(1)
	}

	if len(migrations) == 0 {
		fmt.Println("No legacy package folders found - migration not needed")
		return
	}

	fmt.Printf("Found %d legacy package folders:\n", len(migrations))
	for _, m := range migrations {
		rel, _ := filepath.Rel(root, m.sourceDir)
		fmt.Printf("  - %s -> %s\n", rel, m.targetDir)
	}

	if dryRun {
		fmt.Println("\nDry run - no files moved")
		return
	}

	fmt.Print("\nProceed with migration? (y/N): ")
	var response string
	fmt.Scanln(&response)
	if strings.ToLower(response) != "y" {
		fmt.Println("Migration cancelled")
		return
	}

	migrated := 0
	skipped := 0
	for _, m := range migrations {
		if err := migrateOne(store, root, m); err != nil {
			fmt.Printf("Skipping %s: %v\n", m.id, err)
			skipped++
			continue
		}
		fmt.Printf("Migrated %s\n", m.id)
		migrated++
	}

	fmt.Printf("\nMigration complete: %d migrated, %d skipped\n", migrated, skipped)
	fmt.Println("Run 'template-factory validate' to check the results.")
}

// findLegacyPackages scans the library root and outputs/ for folders that
// hold a README.md outside the canonical edition layout.
func findLegacyPackages(root string) ([]migration, error) {
	var found []migration

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() || skipDir(entry.Name()) {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if hasDirectReadme(dir) {
			found = append(found, migration{
				sourceDir: dir,
				id:        canonicalID(entry.Name(), dir),
			})
		}
	}

	outputsDir := filepath.Join(root, "outputs")
	entries, err = os.ReadDir(outputsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return finalize(found), nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(outputsDir, entry.Name())
		if hasDirectReadme(dir) {
			found = append(found, migration{
				sourceDir: dir,
				id:        canonicalID(entry.Name(), dir),
			})
		}
	}

	return finalize(found), nil
}

func finalize(found []migration) []migration {
	for i := range found {
		found[i].targetDir = models.PackageDir(found[i].id, models.DefaultLanguage)
	}
	return found
}

func skipDir(name string) bool {
	switch name {
	case "outputs", "templates", "dist":
		return true
	}
	return strings.HasPrefix(name, ".")
}

func hasDirectReadme(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "README.md"))
	return err == nil && !info.IsDir()
}

// canonicalID keeps a valid dated id, otherwise derives one from the folder
// name and its modification date.
func canonicalID(name, dir string) string {
	if models.ValidProductID(name) {
		return name
	}
	date := timeOf(dir)
	return models.DatedID(name, date)
}

func timeOf(dir string) time.Time {
	info, err := os.Stat(dir)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}

// migrateOne moves every entry of the legacy folder into the canonical
// edition directory, then rewrites the README frontmatter in place.
func migrateOne(store *storage.Storage, root string, m migration) error {
	target := filepath.Join(root, filepath.FromSlash(m.targetDir))
	if hasDirectReadme(target) {
		return fmt.Errorf("target %s already exists", m.targetDir)
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", m.targetDir, err)
	}

	entries, err := os.ReadDir(m.sourceDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		// An id-level folder may already hold migrated editions
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "bonus_") {
			continue
		}
		oldPath := filepath.Join(m.sourceDir, entry.Name())
		newPath := filepath.Join(target, entry.Name())
		if err := os.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("failed to move %s: %w", entry.Name(), err)
		}
	}

	// Root-level legacy folders are left behind empty once their contents
	// move under outputs/
	if filepath.Dir(m.sourceDir) == root {
		os.Remove(m.sourceDir)
	}

	product, err := store.LoadProduct(m.targetDir)
	if err != nil {
		return fmt.Errorf("moved files but failed to reload package: %w", err)
	}
	product.ID = m.id
	product.Language = models.DefaultLanguage
	if err := store.SaveProduct(product); err != nil {
		return fmt.Errorf("failed to rewrite README frontmatter: %w", err)
	}

	return nil
}
