package models

import (
	"strings"
	"time"
)

// Product represents one bonus package: a README.md with YAML frontmatter
// plus the sibling assets that ship alongside it.
type Product struct {
	// Frontmatter fields
	ID          string            `yaml:"id"`
	Topic       string            `yaml:"topic"`
	Language    string            `yaml:"language"`
	Version     string            `yaml:"version"`
	Tags        []string          `yaml:"tags,omitempty"`
	TemplateSet string            `yaml:"template_set,omitempty"`
	Author      string            `yaml:"author,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
	CreatedAt   time.Time         `yaml:"created_at"`
	UpdatedAt   time.Time         `yaml:"updated_at"`

	// Content fields
	Body        string `yaml:"-"` // README markdown after the frontmatter
	Dir         string `yaml:"-"` // Package dir relative to the library root, e.g. outputs/<id>/bonus_en
	ContentHash string `yaml:"-"` // SHA256 of the README file
	Legacy      bool   `yaml:"-"` // True when the README carried no frontmatter
}

// PackageDir returns the conventional package directory for an id/language
// pair, relative to the library root.
func PackageDir(id, language string) string {
	if language == "" {
		language = DefaultLanguage
	}
	return "outputs/" + id + "/bonus_" + language
}

// DefaultLanguage is the language suffix used when none is configured.
const DefaultLanguage = "en"

// Implement list.Item interface for the bubbles list component

// FilterValue returns the value used for filtering in lists
func (p Product) FilterValue() string {
	return cleanString(p.Topic + " " + p.ID)
}

// Title satisfies the list.Item interface
func (p Product) Title() string {
	if p.Topic != "" {
		return cleanString(p.Topic)
	}
	return cleanString(p.ID)
}

// Description satisfies the list.Item interface
func (p Product) Description() string {
	var parts []string

	parts = append(parts, p.ID)

	if !p.UpdatedAt.IsZero() {
		parts = append(parts, "Updated: "+p.UpdatedAt.Format("2006-01-02"))
	}

	if len(p.Tags) > 0 {
		if tagsStr := joinTags(p.Tags); tagsStr != "" {
			parts = append(parts, "Tags: "+tagsStr)
		}
	}

	if p.Legacy {
		parts = append(parts, "legacy README")
	}

	result := ""
	for i, part := range parts {
		cleanPart := cleanString(part)
		if cleanPart == "" {
			continue
		}
		if i > 0 {
			result += " • "
		}
		result += cleanPart
	}

	// Keep the row inside typical terminal widths; the list itself truncates
	// too, but long topics plus tags can still overflow small windows.
	maxTotalLength := 100
	if len(result) > maxTotalLength {
		result = result[:maxTotalLength-3] + "..."
	}

	return cleanString(result)
}

// cleanString removes control characters that would break list rendering
func cleanString(s string) string {
	if s == "" {
		return ""
	}

	cleaned := ""
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			cleaned += " "
		} else if r >= 32 && r != 127 {
			cleaned += string(r)
		}
	}

	for cleaned != strings.ReplaceAll(cleaned, "  ", " ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}

	return strings.TrimSpace(cleaned)
}

func joinTags(tags []string) string {
	result := ""
	for i, tag := range tags {
		if i > 0 {
			result += ", "
		}
		result += tag
	}
	return result
}
