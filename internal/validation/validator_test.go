package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hm-damul/template-factory-sub001/internal/factory"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
)

func newTestLibrary(t *testing.T) *storage.Storage {
	tmpDir, err := os.MkdirTemp("", "template-factory-validate-test")
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
	return store
}

func scaffoldPackage(t *testing.T, store *storage.Storage, topic, id string) string {
	f := factory.New(store, nil)
	result, err := f.Scaffold(factory.ScaffoldRequest{Topic: topic, ID: id})
	if err != nil {
		t.Fatalf("Failed to scaffold %s: %v", id, err)
	}
	return result.Product.Dir
}

func hasIssue(issues []Issue, check string) bool {
	for _, issue := range issues {
		if issue.Check == check {
			return true
		}
	}
	return false
}

func TestValidateScaffoldedPackage(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Sleep Revolution", "20240217_sleep_revolution")

	report := NewValidator(store, false).ValidatePackage(dir)

	if !report.Valid {
		t.Errorf("Expected scaffolded package to validate, got errors: %v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Expected no warnings for a fresh package, got %v", report.Warnings)
	}
	if report.ProductID != "20240217_sleep_revolution" {
		t.Errorf("Expected report to carry the product id, got '%s'", report.ProductID)
	}
}

func TestValidateMissingSiblings(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Broken", "20240217_broken")

	base := filepath.Join(store.GetBaseDir(), dir)
	if err := os.Remove(filepath.Join(base, "execution_checklist.md")); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(base, "scripts")); err != nil {
		t.Fatal(err)
	}

	report := NewValidator(store, false).ValidatePackage(dir)

	if report.Valid {
		t.Error("Expected package with missing siblings to fail")
	}
	missing := 0
	for _, issue := range report.Errors {
		if issue.Check == CheckSiblingMissing {
			missing++
		}
	}
	if missing != 2 {
		t.Errorf("Expected 2 missing-sibling errors, got %d: %v", missing, report.Errors)
	}
}

func TestValidateMissingReadme(t *testing.T) {
	store := newTestLibrary(t)

	dir := "outputs/20240217_headless/bonus_en"
	if err := os.MkdirAll(filepath.Join(store.GetBaseDir(), dir), 0755); err != nil {
		t.Fatal(err)
	}

	report := NewValidator(store, false).ValidatePackage(dir)
	if report.Valid {
		t.Error("Expected package without README to fail")
	}
	if !hasIssue(report.Errors, CheckReadmeMissing) {
		t.Errorf("Expected README_MISSING, got %v", report.Errors)
	}
}

func TestValidateIDMismatch(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Mismatch", "20240217_mismatch")

	// Rewrite the README with a different frontmatter id
	product, err := store.LoadProduct(dir)
	if err != nil {
		t.Fatal(err)
	}
	product.ID = "20240218_other"
	product.Dir = dir
	if err := store.SaveProduct(product); err != nil {
		t.Fatal(err)
	}

	report := NewValidator(store, false).ValidatePackage(dir)
	if !hasIssue(report.Errors, CheckIDMismatch) {
		t.Errorf("Expected ID_MISMATCH, got %v", report.Errors)
	}
}

func TestValidateTopicAndIDFormat(t *testing.T) {
	store := newTestLibrary(t)

	// Hand-build a package with a bad id and no topic
	dir := "outputs/not_dated/bonus_en"
	base := filepath.Join(store.GetBaseDir(), dir)
	for _, sub := range []string{"scripts", "worksheets"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	readme := "---\nid: not_dated\ntopic: \"\"\nlanguage: en\n---\n\nbody\n"
	files := map[string]string{
		"README.md":              readme,
		"execution_checklist.md": "# c\n",
		"prompt_pack.md":         "# p\n",
		"scripts/a.md":           "a\n",
		"worksheets/funnel_metrics_template.csv": "stage,metric,goal,actual,notes\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(base, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	report := NewValidator(store, false).ValidatePackage(dir)

	if !hasIssue(report.Errors, CheckIDFormat) {
		t.Errorf("Expected ID_FORMAT error, got %v", report.Errors)
	}
	if !hasIssue(report.Errors, CheckTopicEmpty) {
		t.Errorf("Expected TOPIC_EMPTY error, got %v", report.Errors)
	}
}

func TestValidateFutureDatedID(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Tomorrow", "29990101_tomorrow")

	report := NewValidator(store, false).ValidatePackage(dir)

	if !report.Valid {
		t.Errorf("Expected future date to be a warning only, got errors: %v", report.Errors)
	}
	if !hasIssue(report.Warnings, CheckIDFutureDated) {
		t.Errorf("Expected ID_FUTURE_DATED warning, got %v", report.Warnings)
	}
}

func TestValidateBrokenLink(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Links", "20240217_links")

	product, err := store.LoadProduct(dir)
	if err != nil {
		t.Fatal(err)
	}
	product.Body += "\n\nSee [the missing guide](guides/missing.md) for more.\n" +
		"External [site](https://example.com) and [anchor](#details) are fine.\n"
	if err := store.SaveProduct(product); err != nil {
		t.Fatal(err)
	}

	report := NewValidator(store, false).ValidatePackage(dir)

	if report.Valid {
		t.Error("Expected broken relative link to fail validation")
	}

	broken := 0
	for _, issue := range report.Errors {
		if issue.Check == CheckLinkBroken {
			broken++
			if issue.Path != "guides/missing.md" {
				t.Errorf("Expected broken link path recorded, got '%s'", issue.Path)
			}
		}
	}
	if broken != 1 {
		t.Errorf("Expected exactly 1 broken link (web links and anchors skipped), got %d", broken)
	}
}

func TestValidateWorksheet(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Sheets", "20240217_sheets")

	worksheet := filepath.Join(store.GetBaseDir(), dir, "worksheets", "funnel_metrics_template.csv")

	// Wrong header is a warning
	if err := os.WriteFile(worksheet, []byte("a,b,c\n1,2,3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	report := NewValidator(store, false).ValidatePackage(dir)
	if !report.Valid {
		t.Errorf("Expected header mismatch to be a warning, got errors: %v", report.Errors)
	}
	if !hasIssue(report.Warnings, CheckWorksheetHeader) {
		t.Errorf("Expected WORKSHEET_HEADER warning, got %v", report.Warnings)
	}

	// Missing worksheet is an error
	if err := os.Remove(worksheet); err != nil {
		t.Fatal(err)
	}
	report = NewValidator(store, false).ValidatePackage(dir)
	if report.Valid {
		t.Error("Expected missing worksheet to fail validation")
	}
	if !hasIssue(report.Errors, CheckWorksheetMissing) {
		t.Errorf("Expected WORKSHEET_MISSING, got %v", report.Errors)
	}
}

func TestValidateEmptyScriptsWarns(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Quiet", "20240217_quiet")

	scriptsDir := filepath.Join(store.GetBaseDir(), dir, "scripts")
	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(scriptsDir, entry.Name())); err != nil {
			t.Fatal(err)
		}
	}

	report := NewValidator(store, false).ValidatePackage(dir)

	if !report.Valid {
		t.Errorf("Expected empty scripts to be a warning, got errors: %v", report.Errors)
	}
	if !hasIssue(report.Warnings, CheckScriptsEmpty) {
		t.Errorf("Expected SCRIPTS_EMPTY warning, got %v", report.Warnings)
	}
}

func TestValidateLanguageMismatch(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Sprachen", "20240217_sprachen")

	product, err := store.LoadProduct(dir)
	if err != nil {
		t.Fatal(err)
	}
	product.Language = "de" // but it lives in bonus_en
	if err := store.SaveProduct(product); err != nil {
		t.Fatal(err)
	}

	report := NewValidator(store, false).ValidatePackage(dir)
	if !hasIssue(report.Warnings, CheckLanguage) {
		t.Errorf("Expected LANGUAGE_MISMATCH warning, got %v", report.Warnings)
	}
}

func TestStrictModePromotesWarnings(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Strict", "29990101_strict")

	report := NewValidator(store, true).ValidatePackage(dir)

	if report.Valid {
		t.Error("Expected strict mode to fail on a future-dated id")
	}
	if !hasIssue(report.Errors, CheckIDFutureDated) {
		t.Errorf("Expected promoted warning in errors, got %v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Expected no warnings left in strict mode, got %v", report.Warnings)
	}
}

func TestValidateLibraryAndSummary(t *testing.T) {
	store := newTestLibrary(t)
	scaffoldPackage(t, store, "Good One", "20240217_good_one")
	brokenDir := scaffoldPackage(t, store, "Bad One", "20240218_bad_one")

	if err := os.Remove(filepath.Join(store.GetBaseDir(), brokenDir, "prompt_pack.md")); err != nil {
		t.Fatal(err)
	}

	reports, err := NewValidator(store, false).ValidateLibrary()
	if err != nil {
		t.Fatalf("Failed to validate library: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(reports))
	}

	summary := Summarize(reports)
	if summary.Packages != 2 || summary.Valid != 1 || summary.Invalid != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestReportToAppError(t *testing.T) {
	store := newTestLibrary(t)
	dir := scaffoldPackage(t, store, "Convert", "20240217_convert")

	report := NewValidator(store, false).ValidatePackage(dir)
	if appErr := report.ToAppError(); appErr != nil {
		t.Errorf("Expected nil AppError for valid package, got %v", appErr)
	}

	if err := os.Remove(filepath.Join(store.GetBaseDir(), dir, "execution_checklist.md")); err != nil {
		t.Fatal(err)
	}

	report = NewValidator(store, false).ValidatePackage(dir)
	appErr := report.ToAppError()
	if appErr == nil {
		t.Fatal("Expected AppError for failed package")
	}
	if !strings.Contains(appErr.Details, CheckSiblingMissing) {
		t.Errorf("Expected details to name the failed check, got '%s'", appErr.Details)
	}
}

func TestReportsToAppError(t *testing.T) {
	valid := &Report{ProductID: "a", Valid: true}
	invalid := &Report{ProductID: "b", Valid: false, Errors: []Issue{{Check: CheckTopicEmpty, Message: "topic is empty"}}}

	if err := ReportsToAppError([]*Report{valid}); err != nil {
		t.Errorf("Expected nil for all-valid reports, got %v", err)
	}

	appErr := ReportsToAppError([]*Report{valid, invalid})
	if appErr == nil {
		t.Fatal("Expected AppError when any package fails")
	}
	if !strings.Contains(appErr.Message, "1 of 2") {
		t.Errorf("Expected failure count in message, got '%s'", appErr.Message)
	}
	if !strings.Contains(appErr.Details, "b") {
		t.Errorf("Expected failed package named in details, got '%s'", appErr.Details)
	}
}
