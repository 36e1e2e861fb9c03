// Package validation provides integrity checking for bonus package folders.
//
// SYSTEM ARCHITECTURE ROLE:
// This module implements the validation layer of the system, ensuring every
// package under outputs/ is complete and internally consistent before it is
// exported or shipped. It performs filesystem-level checks against the
// canonical package layout and reports per-package results.
//
// KEY RESPONSIBILITIES:
// - Verify the canonical sibling assets exist for every README.md
// - Check README frontmatter identity against the enclosing directory
// - Resolve relative markdown links inside the README body
// - Verify the funnel worksheet and its canonical header row
// - Distinguish hard errors from warnings, with a strict mode that
//   promotes warnings to errors
//
// INTEGRATION POINTS:
// - internal/storage: packages and assets are read through the storage layer
// - internal/models: canonical asset paths, id format and funnel header
// - internal/errors: Report.ToAppError() converts failures to AppError format
// - internal/service: Validate operations run through the service facade
// - internal/cli: validate command renders reports and sets the exit code
// - internal/ui: validate view displays reports inside the TUI
//
// VALIDATION FLOW:
// 1. A package directory is located under outputs/<id>/bonus_<lang>/
// 2. The README is loaded (frontmatter or legacy fallback)
// 3. Layout checks run against the canonical sibling list
// 4. Content checks run against frontmatter, links and the worksheet
// 5. Failures collect into a Report; strict mode widens what counts as one
package validation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
)

// Issue is a single finding inside a package.
type Issue struct {
	Check   string `json:"check"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Report collects the findings for one package.
type Report struct {
	ProductID string  `json:"product_id"`
	Dir       string  `json:"dir"`
	Valid     bool    `json:"valid"`
	Errors    []Issue `json:"errors,omitempty"`
	Warnings  []Issue `json:"warnings,omitempty"`
}

// Summary aggregates reports across a library.
type Summary struct {
	Packages int `json:"packages"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Warnings int `json:"warnings"`
}

// Check codes
const (
	CheckReadmeMissing    = "README_MISSING"
	CheckReadmeParse      = "README_PARSE"
	CheckSiblingMissing   = "SIBLING_MISSING"
	CheckIDMismatch       = "ID_MISMATCH"
	CheckIDFormat         = "ID_FORMAT"
	CheckIDFutureDated    = "ID_FUTURE_DATED"
	CheckTopicEmpty       = "TOPIC_EMPTY"
	CheckLinkBroken       = "LINK_BROKEN"
	CheckWorksheetMissing = "WORKSHEET_MISSING"
	CheckWorksheetHeader  = "WORKSHEET_HEADER"
	CheckScriptsEmpty     = "SCRIPTS_EMPTY"
	CheckLanguage         = "LANGUAGE_MISMATCH"
)

// Validator checks packages against the canonical layout
type Validator struct {
	storage *storage.Storage
	strict  bool
}

// NewValidator creates a validator. In strict mode warnings count as errors.
func NewValidator(store *storage.Storage, strict bool) *Validator {
	return &Validator{storage: store, strict: strict}
}

// markdown links like [text](target) and ![alt](target)
var linkPattern = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)[^)]*\)`)

// ValidatePackage checks one package directory (relative to the library root)
func (v *Validator) ValidatePackage(dir string) *Report {
	report := &Report{Dir: filepath.ToSlash(dir), Valid: true}

	readmePath := filepath.Join(v.storage.GetBaseDir(), dir, "README.md")
	if _, err := os.Stat(readmePath); os.IsNotExist(err) {
		v.addError(report, Issue{
			Check:   CheckReadmeMissing,
			Path:    "README.md",
			Message: "package has no README.md",
		})
		return report
	}

	product, err := v.storage.LoadProduct(dir)
	if err != nil {
		v.addError(report, Issue{
			Check:   CheckReadmeParse,
			Path:    "README.md",
			Message: err.Error(),
		})
		return report
	}
	report.ProductID = product.ID

	v.checkSiblings(report, product)
	v.checkIdentity(report, product)
	v.checkLinks(report, product)
	v.checkWorksheet(report, product)
	v.checkScripts(report, product)

	return report
}

// ValidateLibrary checks every package in the library.
func (v *Validator) ValidateLibrary() ([]*Report, error) {
	products, err := v.storage.ListProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	reports := make([]*Report, 0, len(products))
	for _, product := range products {
		reports = append(reports, v.ValidatePackage(product.Dir))
	}
	return reports, nil
}

// Summarize aggregates a set of reports.
func Summarize(reports []*Report) *Summary {
	summary := &Summary{Packages: len(reports)}
	for _, r := range reports {
		if r.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		summary.Warnings += len(r.Warnings)
	}
	return summary
}

func (v *Validator) addError(report *Report, issue Issue) {
	report.Valid = false
	report.Errors = append(report.Errors, issue)
}

func (v *Validator) addWarning(report *Report, issue Issue) {
	if v.strict {
		v.addError(report, issue)
		return
	}
	report.Warnings = append(report.Warnings, issue)
}

// checkSiblings verifies the four canonical paths next to the README
func (v *Validator) checkSiblings(report *Report, product *models.Product) {
	for _, sibling := range models.RequiredSiblings() {
		if sibling == "README.md" {
			continue // already loaded
		}

		fullPath := filepath.Join(v.storage.GetBaseDir(), product.Dir, sibling)
		info, err := os.Stat(fullPath)
		if err != nil {
			v.addError(report, Issue{
				Check:   CheckSiblingMissing,
				Path:    sibling,
				Message: fmt.Sprintf("required file %s does not exist", sibling),
			})
			continue
		}

		if sibling == "scripts" && !info.IsDir() {
			v.addError(report, Issue{
				Check:   CheckSiblingMissing,
				Path:    sibling,
				Message: "scripts must be a directory",
			})
		}
	}
}

func (v *Validator) checkIdentity(report *Report, product *models.Product) {
	dirID := filepath.Base(filepath.Dir(product.Dir))

	if product.ID != dirID {
		v.addError(report, Issue{
			Check:   CheckIDMismatch,
			Path:    "README.md",
			Message: fmt.Sprintf("frontmatter id %q does not match directory %q", product.ID, dirID),
		})
	}

	if !models.ValidProductID(product.ID) {
		v.addError(report, Issue{
			Check:   CheckIDFormat,
			Path:    "README.md",
			Message: fmt.Sprintf("id %q is not <YYYYMMDD>_<slug>", product.ID),
		})
	} else if date, err := models.IDDate(product.ID); err == nil && date.After(time.Now()) {
		v.addWarning(report, Issue{
			Check:   CheckIDFutureDated,
			Path:    "README.md",
			Message: fmt.Sprintf("id date %s is in the future", date.Format("2006-01-02")),
		})
	}

	if strings.TrimSpace(product.Topic) == "" {
		v.addError(report, Issue{
			Check:   CheckTopicEmpty,
			Path:    "README.md",
			Message: "topic is empty",
		})
	}

	dirLang := strings.TrimPrefix(filepath.Base(product.Dir), "bonus_")
	if product.Language != "" && product.Language != dirLang {
		v.addWarning(report, Issue{
			Check:   CheckLanguage,
			Path:    "README.md",
			Message: fmt.Sprintf("frontmatter language %q but directory says %q", product.Language, dirLang),
		})
	}
}

// checkLinks resolves every relative markdown link in the README body
func (v *Validator) checkLinks(report *Report, product *models.Product) {
	for _, match := range linkPattern.FindAllStringSubmatch(product.Body, -1) {
		target := match[1]

		if skipLinkTarget(target) {
			continue
		}

		// Drop fragments and query strings before resolving
		if i := strings.IndexAny(target, "#?"); i >= 0 {
			target = target[:i]
		}
		if target == "" {
			continue
		}

		fullPath := filepath.Join(v.storage.GetBaseDir(), product.Dir, filepath.FromSlash(target))
		if _, err := os.Stat(fullPath); err != nil {
			v.addError(report, Issue{
				Check:   CheckLinkBroken,
				Path:    target,
				Message: fmt.Sprintf("README links to %s which does not exist", target),
			})
		}
	}
}

func skipLinkTarget(target string) bool {
	return strings.Contains(target, "://") ||
		strings.HasPrefix(target, "mailto:") ||
		strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "/")
}

func (v *Validator) checkWorksheet(report *Report, product *models.Product) {
	worksheet := models.AssetFunnelCSV.RelPath()

	content, err := v.storage.ReadAsset(product, worksheet)
	if err != nil {
		v.addError(report, Issue{
			Check:   CheckWorksheetMissing,
			Path:    worksheet,
			Message: "funnel worksheet does not exist",
		})
		return
	}

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		v.addWarning(report, Issue{
			Check:   CheckWorksheetHeader,
			Path:    worksheet,
			Message: fmt.Sprintf("worksheet is not readable CSV: %v", err),
		})
		return
	}

	if !headerMatches(header) {
		v.addWarning(report, Issue{
			Check:   CheckWorksheetHeader,
			Path:    worksheet,
			Message: fmt.Sprintf("header %q differs from canonical %q",
				strings.Join(header, ","), strings.Join(models.FunnelHeader, ",")),
		})
	}
}

func headerMatches(header []string) bool {
	if len(header) != len(models.FunnelHeader) {
		return false
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), models.FunnelHeader[i]) {
			return false
		}
	}
	return true
}

func (v *Validator) checkScripts(report *Report, product *models.Product) {
	scriptsDir := filepath.Join(v.storage.GetBaseDir(), product.Dir, "scripts")
	if _, err := os.Stat(scriptsDir); err != nil {
		return // missing dir already reported by checkSiblings
	}

	scripts, err := v.storage.ListScriptFiles(product)
	if err != nil {
		return
	}

	if len(scripts) == 0 {
		v.addWarning(report, Issue{
			Check:   CheckScriptsEmpty,
			Path:    "scripts",
			Message: "scripts directory has no files",
		})
	}
}
