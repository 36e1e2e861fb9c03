package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// defaultFS holds the embedded default template set compiled into the
// binary. An on-disk templates/default/ directory takes priority over it.
//
//go:embed assets
var defaultFS embed.FS

// DefaultSetName is the name of the embedded set.
const DefaultSetName = "default"

// Fields holds the values substituted into asset templates.
type Fields struct {
	ProductID string
	Topic     string
	Language  string
	Author    string
	Date      string
	Year      int
}

// FieldsFor builds the substitution fields for a product at a point in time.
func FieldsFor(p *models.Product, now time.Time) Fields {
	return Fields{
		ProductID: p.ID,
		Topic:     p.Topic,
		Language:  p.Language,
		Author:    p.Author,
		Date:      now.Format("2006-01-02"),
		Year:      now.Year(),
	}
}

// Default returns the embedded default template set.
func Default() (*models.TemplateSet, error) {
	sub, err := fs.Sub(defaultFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}

	set, err := loadSetFS(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded template set: %w", err)
	}

	if set.Name == "" {
		set.Name = DefaultSetName
	}
	set.Builtin = true
	return set, nil
}

// LoadDir reads a template set from an on-disk directory. Every file in the
// directory except set.yaml becomes a slot keyed by its relative path.
func LoadDir(dir string) (*models.TemplateSet, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to open template set directory: %w", err)
	}

	set, err := loadSetFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to load template set %s: %w", filepath.Base(dir), err)
	}

	if set.Name == "" {
		set.Name = filepath.Base(dir)
	}
	return set, nil
}

// loadSetFS collects set.yaml metadata and template slots from a filesystem
func loadSetFS(fsys fs.FS) (*models.TemplateSet, error) {
	set := &models.TemplateSet{}

	// set.yaml is optional; a bare directory of templates still loads
	if data, err := fs.ReadFile(fsys, "set.yaml"); err == nil {
		if err := yaml.Unmarshal(data, set); err != nil {
			return nil, fmt.Errorf("failed to parse set.yaml: %w", err)
		}
	}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == "set.yaml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		set.Slots = append(set.Slots, models.TemplateSlot{
			RelPath: path,
			Source:  string(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(set.Slots) == 0 {
		return nil, fmt.Errorf("template set contains no template files")
	}

	return set, nil
}

var funcMap = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(s string) string { return cases.Title(language.English).String(s) },
	"slug":  models.Slugify,
}

// Render executes one slot's template with the given fields.
func Render(slot *models.TemplateSlot, fields Fields) (string, error) {
	tmpl, err := template.New(slot.RelPath).Funcs(funcMap).Parse(slot.Source)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", slot.RelPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", slot.RelPath, err)
	}

	return buf.String(), nil
}
