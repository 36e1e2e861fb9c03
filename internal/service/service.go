package service

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/hm-damul/template-factory-sub001/internal/config"
	"github.com/hm-damul/template-factory-sub001/internal/exporter"
	"github.com/hm-damul/template-factory-sub001/internal/factory"
	"github.com/hm-damul/template-factory-sub001/internal/gitsync"
	"github.com/hm-damul/template-factory-sub001/internal/importer"
	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
	"github.com/hm-damul/template-factory-sub001/internal/templates"
	"github.com/hm-damul/template-factory-sub001/internal/validation"
)

// Service provides business logic for bonus package management
type Service struct {
	storage   *storage.Storage
	factory   *factory.Factory
	validator *validation.Validator
	exporter  *exporter.Exporter
	importer  *importer.Importer
	gitSync   *gitsync.Sync
	config    *config.Config
	products  []*models.Product // Cached packages for fast access
}

// NewService creates a new service instance rooted at the configured library
// directory (TEMPLATE_FACTORY_DIR, or the current directory)
func NewService() (*Service, error) {
	return NewServiceWithDir("")
}

// NewServiceWithDir creates a service instance rooted at an explicit directory
func NewServiceWithDir(dir string) (*Service, error) {
	store, err := storage.NewStorage(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cfg, err := config.Load(store.GetBaseDir())
	if err != nil {
		// A broken config file should not make the library unusable
		fmt.Fprintf(os.Stderr, "Warning: using default configuration: %v\n", err)
		cfg = config.Default(store.GetBaseDir())
	}

	gitSync := gitsync.New(store.GetBaseDir())

	service := &Service{
		storage:   store,
		factory:   factory.New(store, nil),
		validator: validation.NewValidator(store, cfg.Strict),
		exporter:  exporter.New(store, nil),
		importer:  importer.New(store, nil),
		gitSync:   gitSync,
		config:    cfg,
	}

	// Initialize git sync in background to avoid blocking startup
	go func() {
		if err := gitSync.Initialize(); err != nil {
			// Git sync initialization failure is not fatal
			// The service can still work without git sync
		}
	}()

	// NOTE: Removed eager loading for faster startup
	// Packages will be loaded on-demand when first accessed

	return service, nil
}

// LoadProductsAsync starts loading packages in the background and returns
// a function to check completion
func (s *Service) LoadProductsAsync() func() ([]*models.Product, bool, error) {
	resultChan := make(chan struct {
		products []*models.Product
		err      error
	}, 1)

	go func() {
		products, err := s.storage.ListProducts()
		if err == nil {
			s.products = products
		}
		resultChan <- struct {
			products []*models.Product
			err      error
		}{products, err}
	}()

	return func() ([]*models.Product, bool, error) {
		select {
		case result := <-resultChan:
			return result.products, true, result.err
		default:
			return nil, false, nil
		}
	}
}

// InitLibrary initializes the library directory layout and writes the
// default configuration so the library is self-describing
func (s *Service) InitLibrary() error {
	if err := s.storage.InitLibrary(); err != nil {
		return err
	}
	return s.config.Save()
}

// GetBaseDir returns the library root directory
func (s *Service) GetBaseDir() string {
	return s.storage.GetBaseDir()
}

// Config returns the active library configuration
func (s *Service) Config() *config.Config {
	return s.config
}

// SaveConfig persists configuration changes
func (s *Service) SaveConfig() error {
	return s.config.Save()
}

// SetStrictValidation overrides the configured validation strictness
func (s *Service) SetStrictValidation(strict bool) {
	s.validator = validation.NewValidator(s.storage, strict)
}

// loadProducts loads all packages into memory for fast access
func (s *Service) loadProducts() error {
	products, err := s.storage.ListProducts()
	if err != nil {
		return err
	}
	s.products = products
	return nil
}

// RefreshProducts reloads the package cache from disk
func (s *Service) RefreshProducts() error {
	return s.loadProducts()
}

// ListProducts returns all packages in the library
func (s *Service) ListProducts() ([]*models.Product, error) {
	if len(s.products) == 0 {
		if err := s.loadProducts(); err != nil {
			return nil, err
		}
	}
	return s.products, nil
}

// SearchProducts searches packages by query string
func (s *Service) SearchProducts(query string) ([]*models.Product, error) {
	products, err := s.ListProducts()
	if err != nil {
		return nil, err
	}

	if query == "" {
		return products, nil
	}

	// Create searchable strings for fuzzy matching
	var searchStrings []string
	for _, p := range products {
		searchStr := fmt.Sprintf("%s %s %s",
			p.ID,
			p.Topic,
			strings.Join(p.Tags, " "))
		searchStrings = append(searchStrings, searchStr)
	}

	matches := fuzzy.Find(query, searchStrings)

	var results []*models.Product
	for _, match := range matches {
		results = append(results, products[match.Index])
	}

	return results, nil
}

// GetProduct retrieves a package by id, preferring the configured default
// language when the id exists in several languages
func (s *Service) GetProduct(id string) (*models.Product, error) {
	products, err := s.ListProducts()
	if err != nil {
		return nil, err
	}

	var fallback *models.Product
	for _, p := range products {
		if p.ID != id {
			continue
		}
		if p.Language == s.config.DefaultLanguage {
			return p, nil
		}
		if fallback == nil {
			fallback = p
		}
	}
	if fallback != nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("package not found: %s", id)
}

// GetProductByLanguage retrieves a specific language edition of a package
func (s *Service) GetProductByLanguage(id, language string) (*models.Product, error) {
	products, err := s.ListProducts()
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		if p.ID == id && p.Language == language {
			return p, nil
		}
	}

	return nil, fmt.Errorf("package not found: %s (%s)", id, language)
}

// FilterProductsByTag returns packages that have the specified tag
func (s *Service) FilterProductsByTag(tag string) ([]*models.Product, error) {
	products, err := s.ListProducts()
	if err != nil {
		return nil, err
	}

	var filtered []*models.Product
	for _, p := range products {
		for _, t := range p.Tags {
			if t == tag {
				filtered = append(filtered, p)
				break
			}
		}
	}

	return filtered, nil
}

// GetAllTags returns all unique tags across the library, sorted
func (s *Service) GetAllTags() ([]string, error) {
	products, err := s.ListProducts()
	if err != nil {
		return nil, err
	}

	tagSet := make(map[string]bool)
	for _, p := range products {
		for _, tag := range p.Tags {
			tagSet[tag] = true
		}
	}

	var tags []string
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags, nil
}

// CreateProduct scaffolds a new bonus package. Empty request fields fall
// back to the configured defaults
func (s *Service) CreateProduct(req factory.ScaffoldRequest) (*factory.ScaffoldResult, error) {
	if req.Language == "" {
		req.Language = s.config.DefaultLanguage
	}
	if req.Author == "" {
		req.Author = s.config.Author
	}
	if req.TemplateSet == "" {
		req.TemplateSet = s.config.DefaultTemplateSet
	}

	result, err := s.factory.Scaffold(req)
	if err != nil {
		return nil, err
	}
	if req.DryRun {
		return result, nil
	}

	if s.gitSync.IsEnabled() {
		if err := s.gitSync.CommitAndPush(fmt.Sprintf("Create package: %s", result.Product.ID)); err != nil {
			fmt.Printf("Warning: Git sync failed after creating package: %v\n", err)
		}
	}

	return result, s.loadProducts()
}

// RebuildProduct re-renders every asset of an existing package from its
// recorded template set
func (s *Service) RebuildProduct(id string) (*factory.ScaffoldResult, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	result, err := s.factory.Rebuild(product)
	if err != nil {
		return nil, err
	}

	if s.gitSync.IsEnabled() {
		if err := s.gitSync.CommitAndPush(fmt.Sprintf("Rebuild package: %s", id)); err != nil {
			fmt.Printf("Warning: Git sync failed after rebuilding package: %v\n", err)
		}
	}

	return result, s.loadProducts()
}

// RebuildWithTemplateSet re-renders every package edition that records the
// given template set. Failures don't stop the remaining rebuilds
func (s *Service) RebuildWithTemplateSet(setName string) ([]*factory.ScaffoldResult, []error) {
	products, err := s.ListProducts()
	if err != nil {
		return nil, []error{err}
	}

	var results []*factory.ScaffoldResult
	var errs []error
	for _, p := range products {
		if p.TemplateSet != setName {
			continue
		}
		result, err := s.factory.Rebuild(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.ID, err))
			continue
		}
		results = append(results, result)
	}

	if len(results) > 0 {
		if s.gitSync.IsEnabled() {
			if err := s.gitSync.CommitAndPush(fmt.Sprintf("Rebuild packages using template set: %s", setName)); err != nil {
				fmt.Printf("Warning: Git sync failed after rebuilding packages: %v\n", err)
			}
		}
		if err := s.loadProducts(); err != nil {
			errs = append(errs, err)
		}
	}

	return results, errs
}

// RepairProduct restores missing assets without touching existing ones
func (s *Service) RepairProduct(id string) (*factory.ScaffoldResult, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	result, err := s.factory.Repair(product)
	if err != nil {
		return nil, err
	}

	if s.gitSync.IsEnabled() {
		if err := s.gitSync.CommitAndPush(fmt.Sprintf("Repair package: %s", id)); err != nil {
			fmt.Printf("Warning: Git sync failed after repairing package: %v\n", err)
		}
	}

	return result, s.loadProducts()
}

// UpdateProduct saves metadata changes to an existing package, bumping the
// patch version
func (s *Service) UpdateProduct(product *models.Product) error {
	existing, err := s.GetProductByLanguage(product.ID, product.Language)
	if err != nil {
		return fmt.Errorf("cannot update non-existent package: %w", err)
	}

	newVersion, err := s.incrementVersion(existing.Version)
	if err != nil {
		return fmt.Errorf("failed to increment version: %w", err)
	}
	product.Version = newVersion

	// Preserve the original creation time and location
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	if product.Dir == "" {
		product.Dir = existing.Dir
	}
	if product.Body == "" {
		product.Body = existing.Body
	}

	if err := s.storage.SaveProduct(product); err != nil {
		return fmt.Errorf("failed to save package: %w", err)
	}

	if s.gitSync.IsEnabled() {
		if err := s.gitSync.CommitAndPush(fmt.Sprintf("Update package: %s (v%s)", product.ID, product.Version)); err != nil {
			fmt.Printf("Warning: Git sync failed after updating package: %v\n", err)
		}
	}

	return s.loadProducts()
}

// DeleteProduct removes a package from the library, every language edition
// included
func (s *Service) DeleteProduct(id string) error {
	products, err := s.ListProducts()
	if err != nil {
		return err
	}

	deleted := false
	for _, p := range products {
		if p.ID != id {
			continue
		}
		if err := s.storage.DeleteProduct(p); err != nil {
			return fmt.Errorf("failed to delete package: %w", err)
		}
		deleted = true
	}
	if !deleted {
		return fmt.Errorf("package not found: %s", id)
	}

	if s.gitSync.IsEnabled() {
		if err := s.gitSync.CommitAndPush(fmt.Sprintf("Delete package: %s", id)); err != nil {
			fmt.Printf("Warning: Git sync failed after deleting package: %v\n", err)
		}
	}

	return s.loadProducts()
}

// DeleteProductEdition removes a single language edition of a package
func (s *Service) DeleteProductEdition(id, language string) error {
	product, err := s.GetProductByLanguage(id, language)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteProduct(product); err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}

	if s.gitSync.IsEnabled() {
		if err := s.gitSync.CommitAndPush(fmt.Sprintf("Delete package: %s (%s)", id, language)); err != nil {
			fmt.Printf("Warning: Git sync failed after deleting package: %v\n", err)
		}
	}

	return s.loadProducts()
}

// ValidateProduct runs the validation checks for one package
func (s *Service) ValidateProduct(id string) (*validation.Report, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidatePackage(product.Dir), nil
}

// ValidateDir runs the validation checks for one package directory
func (s *Service) ValidateDir(dir string) *validation.Report {
	return s.validator.ValidatePackage(dir)
}

// ValidateLibrary validates every package in the library
func (s *Service) ValidateLibrary() ([]*validation.Report, error) {
	return s.validator.ValidateLibrary()
}

// ExportProduct zips one package into the output directory ("" means the
// library's dist/ directory)
func (s *Service) ExportProduct(id, outputDir string) (*exporter.Result, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportProduct(product, outputDir)
}

// ExportAll zips every package in the library
func (s *Service) ExportAll(outputDir string) ([]*exporter.Result, []error) {
	products, err := s.ListProducts()
	if err != nil {
		return nil, []error{err}
	}
	return s.exporter.ExportAll(products, outputDir)
}

// ReadAsset returns a package file exactly as stored on disk
func (s *Service) ReadAsset(product *models.Product, relPath string) ([]byte, error) {
	return s.storage.ReadAsset(product, relPath)
}

// RenderAsset returns an asset body, re-rendered from the package's template
// set when rerender is true, otherwise as stored on disk
func (s *Service) RenderAsset(id string, kind models.AssetKind, rerender bool) ([]byte, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if !rerender {
		return s.storage.ReadAsset(product, kind.RelPath())
	}

	setName := product.TemplateSet
	if setName == "" {
		setName = s.config.DefaultTemplateSet
	}
	set, err := s.storage.LoadTemplateSet(setName)
	if err != nil {
		return nil, err
	}

	slot := set.Slot(kind.RelPath())
	if slot == nil {
		if kind == models.AssetFunnelCSV {
			return models.WorksheetCSV(), nil
		}
		return nil, fmt.Errorf("template set %s has no template for %s", set.Name, kind.RelPath())
	}

	content, err := templates.Render(slot, templates.FieldsFor(product, time.Now()))
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// ImportPackages adopts foreign bonus folders into the library
func (s *Service) ImportPackages(options importer.ImportOptions) (*importer.ImportResult, error) {
	result, err := s.importer.Import(options)
	if err != nil {
		return nil, err
	}
	if options.DryRun {
		return result, nil
	}

	if len(result.Products) > 0 {
		if err := s.loadProducts(); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to refresh package cache: %w", err))
		}

		if s.gitSync.IsEnabled() && len(result.Errors) == 0 {
			message := fmt.Sprintf("Import %d packages", len(result.Products))
			if len(result.Products) == 1 {
				message = fmt.Sprintf("Import package: %s", result.Products[0].ID)
			}
			if err := s.gitSync.CommitAndPush(message); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("git sync failed after import: %w", err))
			}
		}
	}

	return result, nil
}

// Git sync integration methods

// IsGitSyncEnabled returns whether git sync is active
func (s *Service) IsGitSyncEnabled() bool {
	return s.gitSync.IsEnabled()
}

// GetGitSyncStatus returns the current git sync status line
func (s *Service) GetGitSyncStatus() (string, error) {
	return s.gitSync.Status()
}

// SetupGitRepository configures git sync with the provided repository URL
func (s *Service) SetupGitRepository(repoURL string) error {
	if err := s.gitSync.SetupRepository(repoURL); err != nil {
		return fmt.Errorf("failed to setup git repository: %w", err)
	}

	// Perform initial sync of any existing packages
	if err := s.gitSync.CommitAndPush("Initial sync after repository setup"); err != nil {
		fmt.Printf("Warning: Initial sync failed: %v\n", err)
	}

	return nil
}

// SyncChanges manually commits and pushes library changes
func (s *Service) SyncChanges(message string) error {
	if !s.gitSync.IsEnabled() {
		return fmt.Errorf("git sync is not enabled")
	}
	return s.gitSync.CommitAndPush(message)
}

// PullChanges pulls remote changes and refreshes the package cache
func (s *Service) PullChanges() error {
	if !s.gitSync.IsEnabled() {
		return fmt.Errorf("git sync is not enabled")
	}
	if err := s.gitSync.Pull(); err != nil {
		return fmt.Errorf("failed to pull changes: %w", err)
	}
	return s.loadProducts()
}

// Template set management methods

// ListTemplateSets returns every available template set
func (s *Service) ListTemplateSets() ([]*models.TemplateSet, error) {
	return s.storage.ListTemplateSets()
}

// GetTemplateSet returns one template set by name
func (s *Service) GetTemplateSet(name string) (*models.TemplateSet, error) {
	return s.storage.LoadTemplateSet(name)
}

// InstallTemplateSet installs a set from a git URL or a local directory
func (s *Service) InstallTemplateSet(source string, options config.InstallOptions) (string, error) {
	installer := config.NewTemplateInstaller(s.storage)
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return installer.InstallFromDirectory(source, options)
	}
	return installer.InstallFromGit(source, options)
}

// UninstallTemplateSet removes an installed template set
func (s *Service) UninstallTemplateSet(name string) error {
	return config.NewTemplateInstaller(s.storage).Uninstall(name)
}

// ScaffoldTemplateSet starts a custom template set from the built-in default
func (s *Service) ScaffoldTemplateSet(name string) (string, error) {
	return config.NewTemplateInstaller(s.storage).CreateSetScaffold(name)
}

// incrementVersion bumps the patch version (e.g., "1.0.0" -> "1.0.1")
func (s *Service) incrementVersion(currentVersion string) (string, error) {
	if currentVersion == "" {
		return "1.0.0", nil
	}

	parts := strings.Split(currentVersion, ".")
	if len(parts) != 3 {
		// If version format is unexpected, try to parse as single number
		if patch, err := strconv.Atoi(currentVersion); err == nil {
			return strconv.Itoa(patch + 1), nil
		}
		// Default fallback
		return currentVersion + ".1", nil
	}

	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("invalid patch version: %s", parts[2])
	}

	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1), nil
}
