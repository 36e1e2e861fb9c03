package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hm-damul/template-factory-sub001/internal/factory"
	"github.com/hm-damul/template-factory-sub001/internal/service"
)

func newTestService(t *testing.T) *service.Service {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "template-factory-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	svc, err := service.NewServiceWithDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	if err := svc.InitLibrary(); err != nil {
		t.Fatalf("Failed to init library: %v", err)
	}

	return svc
}

func waitFor(t *testing.T, timeout time.Duration, message string, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestWatcherStartStop(t *testing.T) {
	svc := newTestService(t)

	w, err := New(svc, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	if !w.IsWatching() {
		t.Error("Expected watcher to be running")
	}

	// Starting twice is a no-op
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Second start failed: %v", err)
	}

	w.Stop()
	if w.IsWatching() {
		t.Error("Expected watcher to be stopped")
	}
}

func TestWatcherRevalidatesChangedPackage(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.CreateProduct(factory.ScaffoldRequest{
		Topic: "Sleep Revolution",
		ID:    "20260217_sleep_revolution",
	})
	if err != nil {
		t.Fatalf("Failed to create package: %v", err)
	}

	w, err := New(svc, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	defer w.Stop()

	// Deleting an asset is a package change the watcher must notice
	worksheet := filepath.Join(svc.GetBaseDir(), filepath.FromSlash(result.Product.Dir),
		"worksheets", "funnel_metrics_template.csv")
	if err := os.Remove(worksheet); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 5*time.Second, "Expected a validation to be triggered", func() bool {
		return w.GetStats().Validations >= 1
	})
}

func TestWatcherRebuildsOnTemplateChange(t *testing.T) {
	svc := newTestService(t)

	setDir, err := svc.ScaffoldTemplateSet("spring promo")
	if err != nil {
		t.Fatalf("Failed to scaffold set: %v", err)
	}
	if _, err := svc.CreateProduct(factory.ScaffoldRequest{
		Topic:       "Spring Launch",
		ID:          "20260310_spring_launch",
		TemplateSet: "spring_promo",
	}); err != nil {
		t.Fatalf("Failed to create package: %v", err)
	}

	w, err := New(svc, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	defer w.Stop()

	// Editing a template re-renders the packages built from it
	template := filepath.Join(setDir, "execution_checklist.md")
	edited := "# Checklist for {{.Topic}}\n\nwatcher rebuild marker\n"
	if err := os.WriteFile(template, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	rendered := filepath.Join(svc.GetBaseDir(), "outputs", "20260310_spring_launch",
		"bonus_en", "execution_checklist.md")
	waitFor(t, 5*time.Second, "Expected package checklist to be re-rendered", func() bool {
		content, err := os.ReadFile(rendered)
		if err != nil {
			return false
		}
		return strings.Contains(string(content), "watcher rebuild marker")
	})

	waitFor(t, 5*time.Second, "Expected a rebuild to be counted", func() bool {
		return w.GetStats().Rebuilds >= 1
	})
}

func TestClassify(t *testing.T) {
	w := &Watcher{baseDir: filepath.FromSlash("/lib")}

	cases := []struct {
		path   string
		target string
		ok     bool
	}{
		{"/lib/templates/default/set.yaml", "set:default", true},
		{"/lib/templates/spring_promo/scripts/email_nurture_sequence.md", "set:spring_promo", true},
		{"/lib/outputs/20260217_sleep_revolution/bonus_en/README.md", "pkg:outputs/20260217_sleep_revolution/bonus_en", true},
		{"/lib/outputs/20260217_sleep_revolution/bonus_de/scripts/social_promo_posts.md", "pkg:outputs/20260217_sleep_revolution/bonus_de", true},
		{"/lib/outputs/20260217_sleep_revolution/notes.md", "", false},
		{"/lib/dist/archive.md", "", false},
		{"/lib/templates/loose.md", "", false},
	}
	for _, c := range cases {
		target, ok := w.classify(filepath.FromSlash(c.path))
		if ok != c.ok || target != c.target {
			t.Errorf("classify(%s) = %q, %v; want %q, %v", c.path, target, ok, c.target, c.ok)
		}
	}
}

func TestRelevantFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"README.md", true},
		{"worksheets/funnel_metrics_template.csv", true},
		{"set.yaml", true},
		{"README.md348512", false}, // atomic write temp file
		{"notes.txt", false},
		{"outputs", false},
	}
	for _, c := range cases {
		if got := relevantFile(c.path); got != c.want {
			t.Errorf("relevantFile(%s) = %v, want %v", c.path, got, c.want)
		}
	}
}
