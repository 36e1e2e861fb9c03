package factory

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
	"github.com/hm-damul/template-factory-sub001/internal/templates"
)

// ScaffoldRequest describes one package to generate.
type ScaffoldRequest struct {
	Topic       string   // required unless the package already exists
	ID          string   // derived from Topic and today's date when empty
	Language    string   // defaults to "en"
	TemplateSet string   // defaults to the package's recorded set, then "default"
	Tags        []string
	Author      string
	Force       bool // overwrite existing assets
	FillMissing bool // write only assets that don't exist yet
	DryRun      bool // report the file list without touching disk
}

// ScaffoldResult reports what a scaffold wrote, or would write on a dry run.
type ScaffoldResult struct {
	Product *models.Product
	Written []string // paths relative to the package dir
	Skipped []string
	DryRun  bool
}

// Factory renders template sets into package trees on disk.
type Factory struct {
	storage *storage.Storage
	logger  *slog.Logger
}

// New creates a factory on top of the given storage.
func New(store *storage.Storage, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Factory{storage: store, logger: logger}
}

// Scaffold generates one package from a template set: every asset is rendered
// with the product's fields and written atomically. The README goes last, so
// an interrupted scaffold never leaves a package that looks complete.
func (f *Factory) Scaffold(req ScaffoldRequest) (*ScaffoldResult, error) {
	now := time.Now()

	id := req.ID
	if id == "" {
		if strings.TrimSpace(req.Topic) == "" {
			return nil, fmt.Errorf("topic is required")
		}
		id = models.DatedID(req.Topic, now)
	}
	if !models.ValidProductID(id) {
		return nil, fmt.Errorf("invalid product id %q: expected <YYYYMMDD>_<slug>", id)
	}

	language := req.Language
	if language == "" {
		language = models.DefaultLanguage
	}
	dir := models.PackageDir(id, language)

	exists := f.storage.PackageExists(id, language)
	if exists && !req.Force && !req.FillMissing {
		return nil, fmt.Errorf("package already exists: %s", dir)
	}

	// An existing package keeps its identity across rebuilds and repairs
	var current *models.Product
	if exists {
		if loaded, err := f.storage.LoadProduct(dir); err == nil {
			current = loaded
		}
	}

	product := &models.Product{
		ID:        id,
		Topic:     strings.TrimSpace(req.Topic),
		Language:  language,
		Version:   "1.0.0",
		Tags:      req.Tags,
		Author:    req.Author,
		CreatedAt: now,
		UpdatedAt: now,
	}

	setName := req.TemplateSet
	if current != nil {
		if product.Topic == "" {
			product.Topic = current.Topic
		}
		if len(product.Tags) == 0 {
			product.Tags = current.Tags
		}
		if product.Author == "" {
			product.Author = current.Author
		}
		if current.Version != "" {
			product.Version = current.Version
		}
		if !current.CreatedAt.IsZero() {
			product.CreatedAt = current.CreatedAt
		}
		if setName == "" {
			setName = current.TemplateSet
		}
	}
	if product.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	set, err := f.storage.LoadTemplateSet(setName)
	if err != nil {
		return nil, err
	}
	product.TemplateSet = set.Name
	product.Dir = dir

	result := &ScaffoldResult{Product: product, DryRun: req.DryRun}
	fields := templates.FieldsFor(product, now)

	var readmeSlot *models.TemplateSlot
	for i := range set.Slots {
		slot := &set.Slots[i]
		if slot.RelPath == "README.md" {
			readmeSlot = slot
			continue
		}

		if f.storage.AssetExists(product, slot.RelPath) && req.FillMissing && !req.Force {
			result.Skipped = append(result.Skipped, slot.RelPath)
			continue
		}

		content, err := templates.Render(slot, fields)
		if err != nil {
			return nil, err
		}

		if !req.DryRun {
			if err := f.storage.WriteAsset(dir, slot.RelPath, []byte(content)); err != nil {
				return nil, err
			}
			f.logger.Debug("wrote asset", "package", id, "path", slot.RelPath)
		}
		result.Written = append(result.Written, slot.RelPath)
	}

	// Sets without a worksheet still produce the canonical funnel CSV
	worksheet := models.AssetFunnelCSV.RelPath()
	if set.Slot(worksheet) == nil && !f.storage.AssetExists(product, worksheet) {
		if !req.DryRun {
			if err := f.storage.WriteAsset(dir, worksheet, models.WorksheetCSV()); err != nil {
				return nil, err
			}
		}
		result.Written = append(result.Written, worksheet)
	}

	if f.storage.AssetExists(product, "README.md") && req.FillMissing && !req.Force {
		if current != nil {
			product.Body = current.Body
		}
		result.Skipped = append(result.Skipped, "README.md")
	} else {
		body := fmt.Sprintf("# %s\n", product.Topic)
		if readmeSlot != nil {
			body, err = templates.Render(readmeSlot, fields)
			if err != nil {
				return nil, err
			}
		}
		product.Body = body

		if !req.DryRun {
			if err := f.storage.SaveProduct(product); err != nil {
				return nil, err
			}
		}
		result.Written = append(result.Written, "README.md")
	}

	sort.Strings(result.Written)
	sort.Strings(result.Skipped)

	f.logger.Info("scaffolded package",
		"id", product.ID,
		"language", product.Language,
		"template_set", set.Name,
		"written", len(result.Written),
		"skipped", len(result.Skipped),
		"dry_run", req.DryRun)

	return result, nil
}

// Rebuild re-renders every asset of an existing package from its recorded
// template set. Identity fields in the README frontmatter survive.
func (f *Factory) Rebuild(product *models.Product) (*ScaffoldResult, error) {
	return f.Scaffold(ScaffoldRequest{
		Topic:       product.Topic,
		ID:          product.ID,
		Language:    product.Language,
		TemplateSet: product.TemplateSet,
		Tags:        product.Tags,
		Author:      product.Author,
		Force:       true,
	})
}

// Repair writes the assets a package is missing without touching the rest.
func (f *Factory) Repair(product *models.Product) (*ScaffoldResult, error) {
	return f.Scaffold(ScaffoldRequest{
		Topic:       product.Topic,
		ID:          product.ID,
		Language:    product.Language,
		TemplateSet: product.TemplateSet,
		FillMissing: true,
	})
}
