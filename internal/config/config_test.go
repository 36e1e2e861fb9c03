package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hm-damul/template-factory-sub001/internal/storage"
)

func newTestLibrary(t *testing.T) (*storage.Storage, string) {
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

	return store, tmpDir
}

func TestLoadDefaults(t *testing.T) {
	_, tmpDir := newTestLibrary(t)

	config, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.DefaultLanguage != "en" {
		t.Errorf("Expected default language en, got %s", config.DefaultLanguage)
	}
	if config.DefaultTemplateSet != "default" {
		t.Errorf("Expected default template set, got %s", config.DefaultTemplateSet)
	}
	if len(config.Languages) != 1 || config.Languages[0] != "en" {
		t.Errorf("Expected languages [en], got %v", config.Languages)
	}
	if config.Strict {
		t.Error("Expected strict mode off by default")
	}
}

func TestSaveAndReload(t *testing.T) {
	_, tmpDir := newTestLibrary(t)

	config, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	config.Author = "Dana"
	config.Strict = true
	config.AddLanguage("de")
	if err := config.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	path := filepath.Join(tmpDir, ".template-factory", "factory.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected config file on disk: %v", err)
	}
	if !strings.Contains(string(data), "\"default_language\"") {
		t.Errorf("Expected json keys in config file, got %s", data)
	}

	reloaded, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Author != "Dana" {
		t.Errorf("Expected author Dana, got %s", reloaded.Author)
	}
	if !reloaded.Strict {
		t.Error("Expected strict mode preserved")
	}
	if !reloaded.HasLanguage("de") {
		t.Errorf("Expected de among languages, got %v", reloaded.Languages)
	}
}

func TestLoadBackfillsPartialFile(t *testing.T) {
	_, tmpDir := newTestLibrary(t)

	path := filepath.Join(tmpDir, ".template-factory", "factory.json")
	if err := os.WriteFile(path, []byte(`{"author": "Dana"}`), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if config.Author != "Dana" {
		t.Errorf("Expected author kept, got %s", config.Author)
	}
	if config.DefaultLanguage != "en" {
		t.Errorf("Expected language backfilled, got %s", config.DefaultLanguage)
	}
	if config.DefaultTemplateSet != "default" {
		t.Errorf("Expected template set backfilled, got %s", config.DefaultTemplateSet)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, tmpDir := newTestLibrary(t)

	path := filepath.Join(tmpDir, ".template-factory", "factory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Expected error for malformed config")
	}
}

func TestAddLanguageDeduplicates(t *testing.T) {
	_, tmpDir := newTestLibrary(t)

	config, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	config.AddLanguage("de")
	config.AddLanguage("de")
	config.AddLanguage("")

	if len(config.Languages) != 2 {
		t.Errorf("Expected [en de], got %v", config.Languages)
	}
}
