package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
	"github.com/hm-damul/template-factory-sub001/internal/templates"
)

// TemplateInstaller handles installing template sets from various sources
type TemplateInstaller struct {
	storage *storage.Storage
}

// NewTemplateInstaller creates a new template set installer
func NewTemplateInstaller(store *storage.Storage) *TemplateInstaller {
	return &TemplateInstaller{
		storage: store,
	}
}

// InstallOptions configures template set installation
type InstallOptions struct {
	Name  string // Override the set name
	Force bool   // Reinstall over an existing set
}

// InstallFromGit installs a template set from a git repository. It returns
// the name the set was installed under.
func (ti *TemplateInstaller) InstallFromGit(gitURL string, options InstallOptions) (string, error) {
	urlName := extractSetNameFromGitURL(gitURL)
	if urlName == "" {
		return "", fmt.Errorf("could not determine set name from URL: %s", gitURL)
	}

	// Clone into a temporary directory first
	tempDir := filepath.Join(os.TempDir(), "template-factory-set-"+urlName)
	defer os.RemoveAll(tempDir)

	cmd := exec.Command("git", "clone", "--depth", "1", gitURL, tempDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to clone repository: %s\nOutput: %s", err, string(output))
	}

	name, err := ti.installDir(tempDir, urlName, options)
	if err != nil {
		return "", err
	}
	return name, nil
}

// InstallFromDirectory installs a template set from a local directory
func (ti *TemplateInstaller) InstallFromDirectory(srcDir string, options InstallOptions) (string, error) {
	srcDir, err := filepath.Abs(srcDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve source path: %w", err)
	}
	return ti.installDir(srcDir, filepath.Base(srcDir), options)
}

// installDir validates a candidate set directory and copies it into the
// library's templates directory
func (ti *TemplateInstaller) installDir(srcDir, fallbackName string, options InstallOptions) (string, error) {
	if err := validateSetDir(srcDir); err != nil {
		return "", fmt.Errorf("invalid template set: %w", err)
	}

	set, err := templates.LoadDir(srcDir)
	if err != nil {
		return "", fmt.Errorf("failed to load template set: %w", err)
	}

	name := options.Name
	if name == "" {
		name = set.Name
		if name == filepath.Base(srcDir) {
			// The manifest carried no name, fall back to the source name
			name = fallbackName
		}
	}
	name = models.Slugify(name)
	if name == "" {
		return "", fmt.Errorf("could not determine a usable set name")
	}

	destDir := ti.storage.TemplateSetDir(name)
	if _, err := os.Stat(destDir); err == nil {
		if !options.Force {
			return "", fmt.Errorf("template set '%s' is already installed (use --force to reinstall)", name)
		}
		if err := os.RemoveAll(destDir); err != nil {
			return "", fmt.Errorf("failed to remove existing set: %w", err)
		}
	}

	if err := copyDir(srcDir, destDir); err != nil {
		os.RemoveAll(destDir)
		return "", fmt.Errorf("failed to copy template set: %w", err)
	}

	return name, nil
}

// Uninstall removes an installed template set
func (ti *TemplateInstaller) Uninstall(name string) error {
	dir := ti.storage.TemplateSetDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if name == templates.DefaultSetName {
			return fmt.Errorf("cannot uninstall the built-in default template set")
		}
		return fmt.Errorf("template set '%s' is not installed", name)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove template set: %w", err)
	}

	return nil
}

// CreateSetScaffold starts a custom template set by copying the built-in
// default into templates/<name>/. It returns the created directory.
func (ti *TemplateInstaller) CreateSetScaffold(name string) (string, error) {
	name = models.Slugify(name)
	if name == "" {
		return "", fmt.Errorf("set name is required")
	}

	dir := ti.storage.TemplateSetDir(name)
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("template set '%s' already exists", name)
	}

	def, err := templates.Default()
	if err != nil {
		return "", fmt.Errorf("failed to load built-in templates: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create set directory: %w", err)
	}

	manifest := models.TemplateSet{
		Name:        name,
		Description: "Custom template set",
		Version:     "1.0.0",
		Language:    models.DefaultLanguage,
	}
	manifestData, err := marshalManifest(&manifest)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "set.yaml"), manifestData, 0644); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to write set.yaml: %w", err)
	}

	for _, slot := range def.Slots {
		path := filepath.Join(dir, filepath.FromSlash(slot.RelPath))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("failed to create directory for %s: %w", slot.RelPath, err)
		}
		if err := os.WriteFile(path, []byte(slot.Source), 0644); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("failed to write %s: %w", slot.RelPath, err)
		}
	}

	return dir, nil
}

// validateSetDir checks that a directory is usable as a template set
func validateSetDir(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "set.yaml")); err != nil {
		return fmt.Errorf("set.yaml not found in %s", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
		return fmt.Errorf("template set must provide a README.md template")
	}
	return nil
}

// marshalManifest serializes a set manifest with the library's yaml style
func marshalManifest(set *models.TemplateSet) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(set); err != nil {
		return nil, fmt.Errorf("failed to marshal set manifest: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// extractSetNameFromGitURL extracts a reasonable set name from a git URL
func extractSetNameFromGitURL(gitURL string) string {
	name := strings.TrimSuffix(gitURL, ".git")

	if strings.Contains(name, "/") {
		parts := strings.Split(name, "/")
		name = parts[len(parts)-1]
	}

	return models.Slugify(name)
}

// copyDir recursively copies a directory, excluding .git
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() && info.Name() == ".git" {
			return filepath.SkipDir
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(dstPath, info.Mode())
		}

		srcFile, err := os.Open(path)
		if err != nil {
			return err
		}
		defer srcFile.Close()

		dstFile, err := os.Create(dstPath)
		if err != nil {
			return err
		}
		defer dstFile.Close()

		if _, err := io.Copy(dstFile, srcFile); err != nil {
			return err
		}

		return os.Chmod(dstPath, info.Mode())
	})
}
