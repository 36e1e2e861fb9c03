package importer

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
)

// Importer adopts bonus package folders produced outside the factory.
// Source folders qualify when they hold a README.md next to at least one
// canonical asset; everything else in the scanned tree is left alone.
type Importer struct {
	storage *storage.Storage
	logger  *slog.Logger
}

// New creates an Importer over the given storage
func New(store *storage.Storage, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{
		storage: store,
		logger:  logger,
	}
}

// ImportOptions configures the import process
type ImportOptions struct {
	Path     string   // Source directory to scan (defaults to the current directory)
	Language string   // Language code for imported packages (defaults to "en")
	Tags     []string // Additional tags applied to imported products
	DryRun   bool     // Preview what would be imported without writing

	// Conflict resolution
	OverwriteExisting bool // Replace packages that already exist
	SkipExisting      bool // Skip packages that already exist
}

// SkippedPackage records one folder that was considered but not imported
type SkippedPackage struct {
	Path   string
	Reason string
}

// ImportResult contains the results of an import operation
type ImportResult struct {
	Products []*models.Product // Successfully imported packages
	Skipped  []SkippedPackage  // Folders passed over, with reasons
	Errors   []error           // Per-package failures, import continues past them
}

// Import scans the source directory and adopts every qualifying package
// folder into the library. Individual failures land in the result's Errors
// slice instead of aborting the scan.
func (i *Importer) Import(options ImportOptions) (*ImportResult, error) {
	result := &ImportResult{
		Products: []*models.Product{},
		Skipped:  []SkippedPackage{},
		Errors:   []error{},
	}

	sourceDir := options.Path
	if sourceDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		sourceDir = cwd
	}
	sourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", sourceDir)
	}

	if options.Language == "" {
		options.Language = models.DefaultLanguage
	}

	err = filepath.Walk(sourceDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name() == ".git" {
			return filepath.SkipDir
		}

		if _, err := os.Stat(filepath.Join(path, "README.md")); err != nil {
			return nil // keep descending
		}
		if !hasCanonicalAssets(path) {
			// A lone README is likely repo documentation, packages may
			// still live deeper in the tree
			result.Skipped = append(result.Skipped, SkippedPackage{
				Path:   path,
				Reason: "no canonical assets next to README.md",
			})
			return nil
		}

		i.importPackage(path, options, result)
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", sourceDir, err)
	}

	return result, nil
}

// importPackage adopts a single qualifying folder
func (i *Importer) importPackage(dir string, options ImportOptions, result *ImportResult) {
	product, err := i.buildProduct(dir, options)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to import %s: %w", dir, err))
		return
	}

	if i.storage.PackageExists(product.ID, product.Language) {
		if options.SkipExisting {
			result.Skipped = append(result.Skipped, SkippedPackage{
				Path:   dir,
				Reason: fmt.Sprintf("package %s already exists", product.ID),
			})
			return
		}
		if !options.OverwriteExisting {
			result.Errors = append(result.Errors,
				fmt.Errorf("package %s already exists (use --overwrite to overwrite or --skip-existing to skip)", product.ID))
			return
		}
		// Keep the original creation time on overwrite
		if existing, err := i.storage.LoadProduct(product.Dir); err == nil {
			product.CreatedAt = existing.CreatedAt
		}
	}

	if options.DryRun {
		result.Products = append(result.Products, product)
		return
	}

	if err := i.copyAssets(dir, product); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to copy assets for %s: %w", product.ID, err))
		return
	}

	// Saving last writes the normalized README, which marks the package
	// as complete
	if err := i.storage.SaveProduct(product); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to save %s: %w", product.ID, err))
		return
	}

	i.logger.Info("imported package", "id", product.ID, "source", dir)
	result.Products = append(result.Products, product)
}

// buildProduct derives the library identity for a foreign package folder
func (i *Importer) buildProduct(dir string, options ImportOptions) (*models.Product, error) {
	product, err := storage.ParseReadmeFile(filepath.Join(dir, "README.md"))
	if err != nil {
		return nil, err
	}

	base := filepath.Base(dir)
	if strings.HasPrefix(base, "bonus_") {
		// Factory-style layout, the parent directory carries the id
		base = filepath.Base(filepath.Dir(dir))
	}

	id := base
	if !models.ValidProductID(id) {
		id = models.DatedID(base, time.Now())
	}

	now := time.Now()
	product.ID = id
	product.Language = options.Language
	product.Dir = models.PackageDir(id, options.Language)
	if product.Topic == "" {
		product.Topic = humanizeSlug(models.IDSlug(id))
	}
	if product.Version == "" {
		product.Version = "1.0.0"
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	product.Tags = mergeTags(product.Tags, options.Tags)
	if product.Metadata == nil {
		product.Metadata = make(map[string]string)
	}
	product.Metadata["original_path"] = dir

	return product, nil
}

// copyAssets copies the canonical files plus the scripts and worksheets
// trees into the package directory. The README is not copied, SaveProduct
// rewrites it with normalized frontmatter.
func (i *Importer) copyAssets(dir string, product *models.Product) error {
	for _, name := range []string{"execution_checklist.md", "prompt_pack.md"} {
		src := filepath.Join(dir, name)
		if _, err := os.Stat(src); err != nil {
			continue // optional in the source, validation reports gaps later
		}
		content, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		if err := i.storage.WriteAsset(product.Dir, name, content); err != nil {
			return err
		}
	}

	for _, tree := range []string{"scripts", "worksheets"} {
		if err := i.copyTree(dir, tree, product); err != nil {
			return err
		}
	}

	return nil
}

// copyTree copies every regular file under dir/tree into the package
func (i *Importer) copyTree(dir, tree string, product *models.Product) error {
	root := filepath.Join(dir, tree)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	return filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return i.storage.WriteAsset(product.Dir, filepath.ToSlash(rel), content)
	})
}

// hasCanonicalAssets reports whether dir holds at least one bonus package
// asset besides the README
func hasCanonicalAssets(dir string) bool {
	for _, name := range models.RequiredSiblings() {
		if name == "README.md" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// mergeTags appends extra tags, dropping blanks and duplicates
func mergeTags(tags, extra []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, tag := range append(append([]string{}, tags...), extra...) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}
	return merged
}

// humanizeSlug turns a directory slug back into a display topic
func humanizeSlug(slug string) string {
	words := strings.ReplaceAll(slug, "_", " ")
	if words == "" {
		return "Untitled"
	}
	return cases.Title(language.English).String(words)
}
