package exporter

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/hm-damul/template-factory-sub001/internal/factory"
	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
)

func newTestExporter(t *testing.T) (*Exporter, *storage.Storage, *factory.Factory) {
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

	return New(store, nil), store, factory.New(store, nil)
}

func scaffold(t *testing.T, f *factory.Factory, topic, id string) *models.Product {
	t.Helper()
	result, err := f.Scaffold(factory.ScaffoldRequest{Topic: topic, ID: id})
	if err != nil {
		t.Fatalf("Failed to scaffold %s: %v", id, err)
	}
	return result.Product
}

func TestExportProduct(t *testing.T) {
	e, store, f := newTestExporter(t)
	product := scaffold(t, f, "Sleep Revolution", "20260217_sleep_revolution")

	result, err := e.ExportProduct(product, "")
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	wantArchive := filepath.Join(store.GetBaseDir(), "dist", "20260217_sleep_revolution_bonus_en.zip")
	if result.ArchivePath != wantArchive {
		t.Errorf("Unexpected archive path: %s", result.ArchivePath)
	}
	wantManifest := filepath.Join(store.GetBaseDir(), "dist", "20260217_sleep_revolution_bonus_en.manifest.json")
	if result.ManifestPath != wantManifest {
		t.Errorf("Unexpected manifest path: %s", result.ManifestPath)
	}
	if _, err := os.Stat(result.ArchivePath); err != nil {
		t.Fatalf("Expected archive on disk: %v", err)
	}
	if _, err := os.Stat(result.ManifestPath); err != nil {
		t.Fatalf("Expected manifest on disk: %v", err)
	}
	if result.FileCount != 6 {
		t.Errorf("Expected 6 files in archive, got %d", result.FileCount)
	}
}

func TestExportArchiveContents(t *testing.T) {
	e, _, f := newTestExporter(t)
	product := scaffold(t, f, "Sleep Revolution", "20260217_sleep_revolution")

	result, err := e.ExportProduct(product, "")
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	reader, err := zip.OpenReader(result.ArchivePath)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer reader.Close()

	var names []string
	for _, file := range reader.File {
		names = append(names, file.Name)
	}

	// Entries appear in sorted path order
	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted archive entries, got %v", names)
	}

	want := []string{
		"README.md",
		"execution_checklist.md",
		"prompt_pack.md",
		"scripts/email_nurture_sequence.md",
		"scripts/social_promo_posts.md",
		"worksheets/funnel_metrics_template.csv",
	}
	if len(names) != len(want) {
		t.Fatalf("Expected %d entries, got %d: %v", len(want), len(names), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Expected entry %s at position %d, got %s", name, i, names[i])
		}
	}
}

func TestExportManifest(t *testing.T) {
	e, store, f := newTestExporter(t)
	product := scaffold(t, f, "Sleep Revolution", "20260217_sleep_revolution")

	result, err := e.ExportProduct(product, "")
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	data, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("Failed to parse manifest: %v", err)
	}

	if manifest.ExportID == "" {
		t.Error("Expected a non-empty export id")
	}
	if manifest.ProductID != "20260217_sleep_revolution" {
		t.Errorf("Unexpected product id: %s", manifest.ProductID)
	}
	if manifest.Topic != "Sleep Revolution" {
		t.Errorf("Unexpected topic: %s", manifest.Topic)
	}
	if manifest.Language != "en" {
		t.Errorf("Unexpected language: %s", manifest.Language)
	}
	if manifest.Archive != "20260217_sleep_revolution_bonus_en.zip" {
		t.Errorf("Unexpected archive name: %s", manifest.Archive)
	}
	if manifest.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
	if len(manifest.Files) != 6 {
		t.Fatalf("Expected 6 manifest files, got %d", len(manifest.Files))
	}

	// Sizes and hashes match the files on disk
	packageDir := filepath.Join(store.GetBaseDir(), product.Dir)
	for _, file := range manifest.Files {
		content, err := os.ReadFile(filepath.Join(packageDir, filepath.FromSlash(file.Path)))
		if err != nil {
			t.Errorf("Failed to read %s: %v", file.Path, err)
			continue
		}
		if int64(len(content)) != file.Size {
			t.Errorf("Size mismatch for %s: manifest %d, disk %d", file.Path, file.Size, len(content))
		}
		wantHash := fmt.Sprintf("%x", sha256.Sum256(content))
		if file.SHA256 != wantHash {
			t.Errorf("Hash mismatch for %s", file.Path)
		}
	}
}

func TestExportToCustomDirectory(t *testing.T) {
	e, _, f := newTestExporter(t)
	product := scaffold(t, f, "Sleep Revolution", "20260217_sleep_revolution")

	outDir, err := os.MkdirTemp("", "template-factory-export")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(outDir) })

	result, err := e.ExportProduct(product, outDir)
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	if filepath.Dir(result.ArchivePath) != outDir {
		t.Errorf("Expected archive under %s, got %s", outDir, result.ArchivePath)
	}
	if _, err := os.Stat(result.ArchivePath); err != nil {
		t.Errorf("Expected archive on disk: %v", err)
	}
}

func TestExportMissingPackage(t *testing.T) {
	e, _, _ := newTestExporter(t)

	product := &models.Product{
		ID:       "20260217_ghost",
		Topic:    "Ghost",
		Language: "en",
		Dir:      "outputs/20260217_ghost/bonus_en",
	}

	if _, err := e.ExportProduct(product, ""); err == nil {
		t.Error("Expected error for missing package directory")
	}
}

func TestExportAllContinuesPastFailures(t *testing.T) {
	e, _, f := newTestExporter(t)

	good := scaffold(t, f, "Sleep Revolution", "20260217_sleep_revolution")
	broken := &models.Product{
		ID:       "20260218_ghost",
		Topic:    "Ghost",
		Language: "en",
		Dir:      "outputs/20260218_ghost/bonus_en",
	}

	results, errs := e.ExportAll([]*models.Product{broken, good}, "")

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Product.ID != good.ID {
		t.Errorf("Unexpected exported product: %s", results[0].Product.ID)
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errs), errs)
	}
}
