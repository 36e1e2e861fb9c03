package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeSourceSet lays out an installable template set outside the library
func writeSourceSet(t *testing.T, name string, manifest string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "template-factory-set")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	src := filepath.Join(dir, name)
	files := map[string]string{
		"set.yaml":               manifest,
		"README.md":              "# {{.Topic}}\n",
		"execution_checklist.md": "- [ ] {{.Topic}} step\n",
	}
	for rel, content := range files {
		path := filepath.Join(src, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return src
}

func TestInstallFromDirectory(t *testing.T) {
	store, _ := newTestLibrary(t)
	installer := NewTemplateInstaller(store)

	src := writeSourceSet(t, "lean-launch", "name: lean_launch\ndescription: Minimal set\n")

	name, err := installer.InstallFromDirectory(src, InstallOptions{})
	if err != nil {
		t.Fatalf("Failed to install: %v", err)
	}
	if name != "lean_launch" {
		t.Errorf("Expected name from manifest, got %s", name)
	}

	set, err := store.LoadTemplateSet("lean_launch")
	if err != nil {
		t.Fatalf("Installed set should load: %v", err)
	}
	if set.Builtin {
		t.Error("Installed set must not be marked builtin")
	}
	if set.Slot("README.md") == nil {
		t.Error("Expected README.md slot in installed set")
	}
	if set.Slot("set.yaml") != nil {
		t.Error("set.yaml must not appear as a slot")
	}
}

func TestInstallNameFallsBackToDirectory(t *testing.T) {
	store, _ := newTestLibrary(t)
	installer := NewTemplateInstaller(store)

	// Manifest without a name field
	src := writeSourceSet(t, "lean-launch", "description: Minimal set\n")

	name, err := installer.InstallFromDirectory(src, InstallOptions{})
	if err != nil {
		t.Fatalf("Failed to install: %v", err)
	}
	if name != "lean_launch" {
		t.Errorf("Expected slugified directory name, got %s", name)
	}
}

func TestInstallNameOverride(t *testing.T) {
	store, _ := newTestLibrary(t)
	installer := NewTemplateInstaller(store)

	src := writeSourceSet(t, "lean-launch", "name: lean_launch\n")

	name, err := installer.InstallFromDirectory(src, InstallOptions{Name: "Spring Promo"})
	if err != nil {
		t.Fatalf("Failed to install: %v", err)
	}
	if name != "spring_promo" {
		t.Errorf("Expected slugified override, got %s", name)
	}
	if _, err := store.LoadTemplateSet("spring_promo"); err != nil {
		t.Errorf("Overridden set should load: %v", err)
	}
}

func TestInstallConflict(t *testing.T) {
	store, _ := newTestLibrary(t)
	installer := NewTemplateInstaller(store)

	src := writeSourceSet(t, "lean-launch", "name: lean_launch\n")

	if _, err := installer.InstallFromDirectory(src, InstallOptions{}); err != nil {
		t.Fatal(err)
	}

	// Second install without force fails
	if _, err := installer.InstallFromDirectory(src, InstallOptions{}); err == nil {
		t.Error("Expected conflict error for repeated install")
	}

	// Force reinstalls
	if _, err := installer.InstallFromDirectory(src, InstallOptions{Force: true}); err != nil {
		t.Errorf("Expected force reinstall to succeed: %v", err)
	}
}

func TestInstallRejectsInvalidSet(t *testing.T) {
	store, _ := newTestLibrary(t)
	installer := NewTemplateInstaller(store)

	// No set.yaml
	dir, err := os.MkdirTemp("", "template-factory-badset")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# {{.Topic}}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := installer.InstallFromDirectory(dir, InstallOptions{}); err == nil {
		t.Error("Expected error for set without set.yaml")
	}

	// set.yaml but no README template
	dir2, err := os.MkdirTemp("", "template-factory-badset")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir2) })
	if err := os.WriteFile(filepath.Join(dir2, "set.yaml"), []byte("name: broken\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := installer.InstallFromDirectory(dir2, InstallOptions{}); err == nil {
		t.Error("Expected error for set without README template")
	}
}

func TestUninstall(t *testing.T) {
	store, _ := newTestLibrary(t)
	installer := NewTemplateInstaller(store)

	src := writeSourceSet(t, "lean-launch", "name: lean_launch\n")
	if _, err := installer.InstallFromDirectory(src, InstallOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := installer.Uninstall("lean_launch"); err != nil {
		t.Fatalf("Failed to uninstall: %v", err)
	}
	if _, err := store.LoadTemplateSet("lean_launch"); err == nil {
		t.Error("Expected uninstalled set to be gone")
	}

	if err := installer.Uninstall("lean_launch"); err == nil {
		t.Error("Expected error for uninstalling twice")
	}
	if err := installer.Uninstall("default"); err == nil {
		t.Error("Expected error for uninstalling the built-in set")
	}
}

func TestCreateSetScaffold(t *testing.T) {
	store, _ := newTestLibrary(t)
	installer := NewTemplateInstaller(store)

	dir, err := installer.CreateSetScaffold("My Variant")
	if err != nil {
		t.Fatalf("Failed to scaffold set: %v", err)
	}
	if filepath.Base(dir) != "my_variant" {
		t.Errorf("Unexpected scaffold directory: %s", dir)
	}

	set, err := store.LoadTemplateSet("my_variant")
	if err != nil {
		t.Fatalf("Scaffolded set should load: %v", err)
	}
	if set.Name != "my_variant" {
		t.Errorf("Expected manifest name my_variant, got %s", set.Name)
	}

	// The scaffold carries every slot of the built-in set
	wantSlots := []string{
		"README.md",
		"execution_checklist.md",
		"prompt_pack.md",
		"scripts/email_nurture_sequence.md",
		"scripts/social_promo_posts.md",
		"worksheets/funnel_metrics_template.csv",
	}
	for _, rel := range wantSlots {
		if set.Slot(rel) == nil {
			t.Errorf("Expected slot %s in scaffolded set", rel)
		}
	}

	// Scaffolding over an existing set fails
	if _, err := installer.CreateSetScaffold("my_variant"); err == nil {
		t.Error("Expected error for scaffolding an existing set")
	}
}
