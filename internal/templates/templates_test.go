package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hm-damul/template-factory-sub001/internal/models"
)

func TestDefaultSet(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Failed to load embedded set: %v", err)
	}

	if set.Name != DefaultSetName {
		t.Errorf("Expected set name 'default', got '%s'", set.Name)
	}
	if !set.Builtin {
		t.Error("Expected embedded set to be marked builtin")
	}

	expected := []string{
		"README.md",
		"execution_checklist.md",
		"prompt_pack.md",
		"scripts/email_nurture_sequence.md",
		"scripts/social_promo_posts.md",
		"worksheets/funnel_metrics_template.csv",
	}
	for _, relPath := range expected {
		if set.Slot(relPath) == nil {
			t.Errorf("Expected embedded set to contain slot %s", relPath)
		}
	}

	csvSlot := set.Slot("worksheets/funnel_metrics_template.csv")
	if !strings.HasPrefix(csvSlot.Source, "stage,metric,goal,actual,notes") {
		t.Errorf("Expected canonical funnel header, got %q", firstLine(csvSlot.Source))
	}
}

func TestRenderSubstitutesFields(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	fields := Fields{
		ProductID: "20260217_sleep_revolution",
		Topic:     "Sleep Revolution",
		Language:  "en",
		Author:    "Dana",
		Date:      "2026-02-17",
		Year:      2026,
	}

	out, err := Render(set.Slot("README.md"), fields)
	if err != nil {
		t.Fatalf("Failed to render README template: %v", err)
	}

	if !strings.Contains(out, "Sleep Revolution") {
		t.Error("Expected rendered README to contain the topic")
	}
	if !strings.Contains(out, "20260217_sleep_revolution") {
		t.Error("Expected rendered README to contain the product id")
	}
	if !strings.Contains(out, "Author: Dana") {
		t.Error("Expected rendered README to contain the author line")
	}
	if strings.Contains(out, "{{") {
		t.Errorf("Expected all fields substituted, found leftover braces in:\n%s", out)
	}
}

func TestRenderOmitsEmptyAuthor(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	out, err := Render(set.Slot("README.md"), Fields{
		ProductID: "20260217_x",
		Topic:     "X",
		Language:  "en",
		Date:      "2026-02-17",
	})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(out, "Author:") {
		t.Error("Expected no author line when the author field is empty")
	}
}

func TestRenderFuncMap(t *testing.T) {
	slot := &models.TemplateSlot{
		RelPath: "test.md",
		Source:  "{{upper .Topic}} / {{lower .Topic}} / {{title .Language}} / {{slug .Topic}}",
	}

	out, err := Render(slot, Fields{Topic: "Sleep Revolution", Language: "en"})
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}

	if out != "SLEEP REVOLUTION / sleep revolution / En / sleep_revolution" {
		t.Errorf("Unexpected func map output: %q", out)
	}
}

func TestRenderBadTemplate(t *testing.T) {
	slot := &models.TemplateSlot{RelPath: "bad.md", Source: "{{.Topic"}
	if _, err := Render(slot, Fields{Topic: "x"}); err == nil {
		t.Error("Expected parse error for unterminated action")
	}

	slot = &models.TemplateSlot{RelPath: "bad2.md", Source: "{{.NoSuchField}}"}
	if _, err := Render(slot, Fields{Topic: "x"}); err == nil {
		t.Error("Expected execute error for unknown field")
	}
}

func TestLoadDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "template-factory-set-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	setDir := filepath.Join(tmpDir, "minimal")
	if err := os.MkdirAll(filepath.Join(setDir, "scripts"), 0755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"set.yaml":  "name: minimal\ndescription: Test set\nversion: \"0.1.0\"\n",
		"README.md": "# {{.Topic}}\n",
		"scripts/email_nurture_sequence.md": "Emails for {{.Topic}}\n",
	}
	for path, content := range files {
		if err := os.WriteFile(filepath.Join(setDir, path), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	set, err := LoadDir(setDir)
	if err != nil {
		t.Fatalf("Failed to load set: %v", err)
	}

	if set.Name != "minimal" {
		t.Errorf("Expected name 'minimal', got '%s'", set.Name)
	}
	if set.Description != "Test set" {
		t.Errorf("Expected description from set.yaml, got '%s'", set.Description)
	}
	if len(set.Slots) != 2 {
		t.Errorf("Expected 2 slots (set.yaml excluded), got %d", len(set.Slots))
	}
	if set.Slot("set.yaml") != nil {
		t.Error("Expected set.yaml to be excluded from slots")
	}
	if set.Builtin {
		t.Error("Expected on-disk set not to be builtin")
	}
}

func TestLoadDirWithoutManifest(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "template-factory-set-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	setDir := filepath.Join(tmpDir, "bare")
	if err := os.MkdirAll(setDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(setDir, "README.md"), []byte("# {{.Topic}}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadDir(setDir)
	if err != nil {
		t.Fatalf("Failed to load bare set: %v", err)
	}

	// Name falls back to the directory name
	if set.Name != "bare" {
		t.Errorf("Expected name 'bare', got '%s'", set.Name)
	}
}

func TestLoadDirErrors(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "template-factory-set-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	// Missing directory
	if _, err := LoadDir(filepath.Join(tmpDir, "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}

	// Empty directory
	emptyDir := filepath.Join(tmpDir, "empty")
	if err := os.MkdirAll(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(emptyDir); err == nil {
		t.Error("Expected error for set with no template files")
	}

	// Malformed set.yaml
	badDir := filepath.Join(tmpDir, "bad")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "set.yaml"), []byte("name: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "README.md"), []byte("# x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(badDir); err == nil {
		t.Error("Expected error for malformed set.yaml")
	}
}

func TestFieldsFor(t *testing.T) {
	p := &models.Product{
		ID:       "20260217_sleep_revolution",
		Topic:    "Sleep Revolution",
		Language: "en",
		Author:   "Dana",
	}
	now := time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)

	fields := FieldsFor(p, now)
	if fields.ProductID != p.ID || fields.Topic != p.Topic {
		t.Error("Expected fields to carry product identity")
	}
	if fields.Date != "2026-02-17" {
		t.Errorf("Expected date '2026-02-17', got '%s'", fields.Date)
	}
	if fields.Year != 2026 {
		t.Errorf("Expected year 2026, got %d", fields.Year)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
