package storage

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/templates"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// EnvLibraryDir points the factory at a library root other than the
// working directory.
const EnvLibraryDir = "TEMPLATE_FACTORY_DIR"

// ConfigDirName is the hidden per-library directory for config and logs.
const ConfigDirName = ".template-factory"

// Storage handles all file system operations for packages and template sets
type Storage struct {
	rootPath string
}

// NewStorage creates a new storage instance rooted at rootPath. An empty
// rootPath resolves through TEMPLATE_FACTORY_DIR, then the working directory.
func NewStorage(rootPath string) (*Storage, error) {
	if rootPath == "" {
		rootPath = os.Getenv(EnvLibraryDir)
	}
	if rootPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		rootPath = cwd
	}

	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library root: %w", err)
	}

	return &Storage{rootPath: absPath}, nil
}

// InitLibrary creates the directory structure for a package library
func (s *Storage) InitLibrary() error {
	dirs := []string{
		s.rootPath,
		filepath.Join(s.rootPath, "outputs"),
		filepath.Join(s.rootPath, "templates"),
		filepath.Join(s.rootPath, "dist"),
		filepath.Join(s.rootPath, ConfigDirName),
		filepath.Join(s.rootPath, ConfigDirName, "logs"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetBaseDir returns the root path of the storage
func (s *Storage) GetBaseDir() string {
	return s.rootPath
}

// LoadProduct loads a package from its directory (relative to the library
// root) by reading the README.md frontmatter. Hand-authored READMEs without
// frontmatter load in legacy mode: the first heading becomes the topic and
// the id comes from the directory name.
func (s *Storage) LoadProduct(dir string) (*models.Product, error) {
	fullPath := filepath.Join(s.rootPath, dir, "README.md")

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open README: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read README: %w", err)
	}

	product, err := parseReadme(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, "README.md"), err)
	}

	product.Dir = filepath.ToSlash(dir)
	product.ContentHash = calculateHash(content)
	fillFromPath(product)

	return product, nil
}

// ParseReadmeFile parses a README that lives outside the library layout,
// e.g. a package folder offered for import. The returned product carries
// only what the file itself declares.
func ParseReadmeFile(path string) (*models.Product, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read README: %w", err)
	}

	product, err := parseReadme(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return product, nil
}

// SaveProduct writes the package README (frontmatter + body) atomically.
// Legacy products gain frontmatter on their first save.
func (s *Storage) SaveProduct(product *models.Product) error {
	if product.Dir == "" {
		if product.ID == "" {
			return fmt.Errorf("product has no id or directory")
		}
		product.Dir = models.PackageDir(product.ID, product.Language)
	}

	fullPath := filepath.Join(s.rootPath, product.Dir, "README.md")

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	content, err := serializeProduct(product)
	if err != nil {
		return fmt.Errorf("failed to serialize product: %w", err)
	}

	if err := atomic.WriteFile(fullPath, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}

	product.Legacy = false
	product.ContentHash = calculateHash(content)
	return nil
}

// DeleteProduct removes the whole package directory. The enclosing
// outputs/<id>/ directory goes too once its last language is gone.
func (s *Storage) DeleteProduct(product *models.Product) error {
	if product.Dir == "" {
		return fmt.Errorf("product has no directory")
	}

	fullPath := filepath.Join(s.rootPath, product.Dir)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("package directory does not exist: %s", fullPath)
	}

	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}

	parent := filepath.Dir(fullPath)
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		os.Remove(parent)
	}

	return nil
}

// PackageExists reports whether a package directory is already on disk.
func (s *Storage) PackageExists(id, language string) bool {
	_, err := os.Stat(filepath.Join(s.rootPath, models.PackageDir(id, language)))
	return err == nil
}

// ListProducts returns every package in the library, all languages included
func (s *Storage) ListProducts() ([]*models.Product, error) {
	outputsDir := filepath.Join(s.rootPath, "outputs")
	if _, err := os.Stat(outputsDir); os.IsNotExist(err) {
		return []*models.Product{}, nil
	}

	var products []*models.Product
	err := filepath.Walk(outputsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.Name() == "README.md" && isPackageDir(filepath.Dir(path)) {
			relDir, _ := filepath.Rel(s.rootPath, filepath.Dir(path))
			product, err := s.LoadProduct(relDir)
			if err != nil {
				// Log error but continue walking
				fmt.Fprintf(os.Stderr, "Warning: failed to load package %s: %v\n", relDir, err)
				return nil
			}
			products = append(products, product)
		}

		return nil
	})

	sort.Slice(products, func(i, j int) bool {
		if products[i].ID != products[j].ID {
			return products[i].ID < products[j].ID
		}
		return products[i].Language < products[j].Language
	})

	return products, err
}

// isPackageDir reports whether dir is a bonus_<lang> package directory
func isPackageDir(dir string) bool {
	return strings.HasPrefix(filepath.Base(dir), "bonus_")
}

// AssetPath returns the absolute path of an asset inside a package.
func (s *Storage) AssetPath(product *models.Product, relPath string) string {
	return filepath.Join(s.rootPath, product.Dir, filepath.FromSlash(relPath))
}

// AssetExists reports whether the asset file or directory is present.
func (s *Storage) AssetExists(product *models.Product, relPath string) bool {
	_, err := os.Stat(s.AssetPath(product, relPath))
	return err == nil
}

// ReadAsset returns the raw content of an asset inside a package.
func (s *Storage) ReadAsset(product *models.Product, relPath string) ([]byte, error) {
	content, err := os.ReadFile(s.AssetPath(product, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", relPath, err)
	}
	return content, nil
}

// WriteAsset writes an asset file atomically, creating parent directories.
func (s *Storage) WriteAsset(dir, relPath string, content []byte) error {
	fullPath := filepath.Join(s.rootPath, dir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := atomic.WriteFile(fullPath, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write asset %s: %w", relPath, err)
	}

	return nil
}

// ListScriptFiles returns the names of the files in a package's scripts dir
func (s *Storage) ListScriptFiles(product *models.Product) ([]string, error) {
	scriptsDir := filepath.Join(s.rootPath, product.Dir, "scripts")

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scripts directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// LoadTemplateSet returns the named template set. An on-disk directory under
// templates/<name>/ wins over the embedded default of the same name.
func (s *Storage) LoadTemplateSet(name string) (*models.TemplateSet, error) {
	if name == "" {
		name = templates.DefaultSetName
	}

	setDir := filepath.Join(s.rootPath, "templates", name)
	if _, err := os.Stat(setDir); err == nil {
		return templates.LoadDir(setDir)
	}

	if name == templates.DefaultSetName {
		return templates.Default()
	}

	return nil, fmt.Errorf("template set does not exist: %s", name)
}

// ListTemplateSets returns the embedded default plus every on-disk set.
func (s *Storage) ListTemplateSets() ([]*models.TemplateSet, error) {
	var sets []*models.TemplateSet
	seen := make(map[string]bool)

	templatesDir := filepath.Join(s.rootPath, "templates")
	entries, err := os.ReadDir(templatesDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		set, err := templates.LoadDir(filepath.Join(templatesDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load template set %s: %v\n", entry.Name(), err)
			continue
		}
		sets = append(sets, set)
		seen[set.Name] = true
	}

	if !seen[templates.DefaultSetName] {
		def, err := templates.Default()
		if err != nil {
			return nil, err
		}
		sets = append(sets, def)
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}

// TemplateSetDir returns the on-disk path for a named set, existing or not.
func (s *Storage) TemplateSetDir(name string) string {
	return filepath.Join(s.rootPath, "templates", name)
}

// Helper functions

func parseReadme(content []byte) (*models.Product, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty README")
	}

	// No frontmatter fence: hand-authored legacy README
	if scanner.Text() != "---" {
		return parseLegacyReadme(content)
	}

	// Read frontmatter
	var frontmatterLines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			closed = true
			break
		}
		frontmatterLines = append(frontmatterLines, line)
	}
	if !closed {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	// Parse YAML frontmatter
	frontmatter := strings.Join(frontmatterLines, "\n")
	var product models.Product
	if err := yaml.Unmarshal([]byte(frontmatter), &product); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	// Read remaining content
	var contentLines []string
	for scanner.Scan() {
		contentLines = append(contentLines, scanner.Text())
	}
	// Join content preserving original formatting
	product.Body = strings.Join(contentLines, "\n")
	// Trim only leading whitespace/newlines
	product.Body = strings.TrimLeft(product.Body, " \t\n")

	return &product, nil
}

// parseLegacyReadme handles READMEs written by hand before the factory:
// no frontmatter, topic taken from the first markdown heading.
func parseLegacyReadme(content []byte) (*models.Product, error) {
	product := &models.Product{Legacy: true}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			product.Topic = strings.TrimSpace(strings.TrimLeft(line, "#"))
			break
		}
	}

	product.Body = strings.TrimLeft(string(content), " \t\n")
	return product, nil
}

// fillFromPath derives id and language from the package path when the
// frontmatter doesn't carry them.
func fillFromPath(product *models.Product) {
	if product.Dir == "" {
		return
	}

	base := filepath.Base(product.Dir)
	parent := filepath.Base(filepath.Dir(product.Dir))

	if product.ID == "" && parent != "." && parent != "outputs" {
		product.ID = parent
	}
	if product.Language == "" {
		if lang := strings.TrimPrefix(base, "bonus_"); lang != base {
			product.Language = lang
		} else {
			product.Language = models.DefaultLanguage
		}
	}
}

func serializeProduct(product *models.Product) ([]byte, error) {
	var buf bytes.Buffer

	// Write frontmatter delimiter
	buf.WriteString("---\n")

	// Serialize product metadata to YAML
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(product); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	// Write closing delimiter
	buf.WriteString("---\n")

	// Write content with proper spacing
	if product.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(product.Body)
		// Ensure file ends with newline
		if !strings.HasSuffix(product.Body, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

func calculateHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
