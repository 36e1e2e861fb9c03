package exporter

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
	"github.com/natefinch/atomic"
)

// ManifestFile describes one archived file
type ManifestFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Manifest is the sidecar record written next to each archive
type Manifest struct {
	ExportID  string         `json:"export_id"`
	CreatedAt time.Time      `json:"created_at"`
	ProductID string         `json:"product_id"`
	Topic     string         `json:"topic"`
	Language  string         `json:"language"`
	Archive   string         `json:"archive"`
	Files     []ManifestFile `json:"files"`
}

// Result holds the outcome of exporting a single package
type Result struct {
	Product      *models.Product
	ArchivePath  string
	ManifestPath string
	FileCount    int
}

// Exporter bundles bonus packages into distributable zip archives
type Exporter struct {
	storage *storage.Storage
	logger  *slog.Logger
}

// New creates an Exporter over the given storage
func New(store *storage.Storage, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{
		storage: store,
		logger:  logger,
	}
}

// ExportProduct zips one package directory into outputDir and writes its
// manifest. An empty outputDir means dist/ under the library root. The
// archive is staged in memory and written atomically, the manifest follows
// only after the archive exists so a manifest always refers to a complete
// archive.
func (e *Exporter) ExportProduct(product *models.Product, outputDir string) (*Result, error) {
	if product == nil {
		return nil, fmt.Errorf("product is required")
	}
	if outputDir == "" {
		outputDir = filepath.Join(e.storage.GetBaseDir(), "dist")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	packageDir := filepath.Join(e.storage.GetBaseDir(), product.Dir)
	if _, err := os.Stat(packageDir); err != nil {
		return nil, fmt.Errorf("package directory not found: %w", err)
	}

	relPaths, err := collectFiles(packageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan package directory: %w", err)
	}
	if len(relPaths) == 0 {
		return nil, fmt.Errorf("package %s has no files to export", product.ID)
	}

	stem := fmt.Sprintf("%s_bonus_%s", product.ID, product.Language)
	archiveName := stem + ".zip"
	archivePath := filepath.Join(outputDir, archiveName)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest := Manifest{
		ExportID:  uuid.New().String(),
		CreatedAt: time.Now(),
		ProductID: product.ID,
		Topic:     product.Topic,
		Language:  product.Language,
		Archive:   archiveName,
	}

	for _, rel := range relPaths {
		file, err := addToArchive(zw, packageDir, rel)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to archive %s: %w", rel, err)
		}
		manifest.Files = append(manifest.Files, file)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	if err := atomic.WriteFile(archivePath, bytes.NewReader(buf.Bytes())); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	manifestPath := filepath.Join(outputDir, stem+".manifest.json")
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	manifestData = append(manifestData, '\n')

	if err := atomic.WriteFile(manifestPath, bytes.NewReader(manifestData)); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	e.logger.Info("exported package",
		"id", product.ID,
		"archive", archivePath,
		"files", len(manifest.Files))

	return &Result{
		Product:      product,
		ArchivePath:  archivePath,
		ManifestPath: manifestPath,
		FileCount:    len(manifest.Files),
	}, nil
}

// ExportAll exports every given package, continuing past individual failures.
// It returns the successful results plus one error per failed package.
func (e *Exporter) ExportAll(products []*models.Product, outputDir string) ([]*Result, []error) {
	var results []*Result
	var errs []error

	for _, product := range products {
		result, err := e.ExportProduct(product, outputDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", product.ID, err))
			continue
		}
		results = append(results, result)
	}

	return results, errs
}

// collectFiles returns the sorted relative paths of all regular files under dir
func collectFiles(dir string) ([]string, error) {
	var relPaths []string
	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
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
		relPaths = append(relPaths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(relPaths)
	return relPaths, nil
}

// addToArchive streams one file into the zip writer, hashing it along the way
func addToArchive(zw *zip.Writer, packageDir, rel string) (ManifestFile, error) {
	fullPath := filepath.Join(packageDir, filepath.FromSlash(rel))

	f, err := os.Open(fullPath)
	if err != nil {
		return ManifestFile{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ManifestFile{}, err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return ManifestFile{}, err
	}
	header.Name = rel
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return ManifestFile{}, err
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(w, hasher), f); err != nil {
		return ManifestFile{}, err
	}

	return ManifestFile{
		Path:   rel,
		Size:   info.Size(),
		SHA256: fmt.Sprintf("%x", hasher.Sum(nil)),
	}, nil
}
