package models

import (
	"strings"
	"testing"
	"time"
)

func TestProductListItem(t *testing.T) {
	p := Product{
		ID:        "20260217_sleep_revolution",
		Topic:     "Sleep Revolution",
		Language:  "en",
		Tags:      []string{"health", "evergreen"},
		UpdatedAt: time.Date(2026, 2, 18, 9, 0, 0, 0, time.UTC),
	}

	if p.Title() != "Sleep Revolution" {
		t.Errorf("Expected title 'Sleep Revolution', got '%s'", p.Title())
	}

	desc := p.Description()
	if !strings.Contains(desc, "20260217_sleep_revolution") {
		t.Errorf("Expected description to contain the id, got '%s'", desc)
	}
	if !strings.Contains(desc, "Tags: health, evergreen") {
		t.Errorf("Expected description to list tags, got '%s'", desc)
	}
	if !strings.Contains(desc, "Updated: 2026-02-18") {
		t.Errorf("Expected description to show the update date, got '%s'", desc)
	}

	filter := p.FilterValue()
	if !strings.Contains(filter, "Sleep Revolution") || !strings.Contains(filter, p.ID) {
		t.Errorf("Expected filter value to cover topic and id, got '%s'", filter)
	}
}

func TestProductTitleFallsBackToID(t *testing.T) {
	p := Product{ID: "20260217_mystery"}
	if p.Title() != "20260217_mystery" {
		t.Errorf("Expected id fallback title, got '%s'", p.Title())
	}
}

func TestProductLegacyMarker(t *testing.T) {
	p := Product{ID: "20250101_old_pack", Topic: "Old Pack", Legacy: true}
	if !strings.Contains(p.Description(), "legacy README") {
		t.Errorf("Expected legacy marker in description, got '%s'", p.Description())
	}
}

func TestCleanString(t *testing.T) {
	cases := map[string]string{
		"plain":                   "plain",
		"line\nbreaks\r\nhere":    "line breaks here",
		"tab\tseparated":          "tab separated",
		"  padded  ":              "padded",
		"multi   space   runs":    "multi space runs",
		"ctrl\x00\x01chars\x7f":   "ctrlchars",
		"":                        "",
		"emoji \U0001F680 intact": "emoji \U0001F680 intact",
	}

	for input, expected := range cases {
		if got := cleanString(input); got != expected {
			t.Errorf("cleanString(%q): expected %q, got %q", input, expected, got)
		}
	}
}

func TestDescriptionTruncation(t *testing.T) {
	p := Product{
		ID:    "20260217_long",
		Topic: strings.Repeat("very long topic ", 20),
		Tags:  []string{strings.Repeat("tag", 30)},
	}

	desc := p.Description()
	if len(desc) > 100 {
		t.Errorf("Expected description capped at 100 chars, got %d", len(desc))
	}
	if !strings.HasSuffix(desc, "...") {
		t.Errorf("Expected truncated description to end with ellipsis, got '%s'", desc)
	}
}

func TestPackageDir(t *testing.T) {
	if dir := PackageDir("20260217_sleep_revolution", "en"); dir != "outputs/20260217_sleep_revolution/bonus_en" {
		t.Errorf("Unexpected package dir: %s", dir)
	}

	// Empty language falls back to the default
	if dir := PackageDir("20260217_sleep_revolution", ""); dir != "outputs/20260217_sleep_revolution/bonus_en" {
		t.Errorf("Unexpected default-language package dir: %s", dir)
	}

	if dir := PackageDir("20260301_schlaf", "de"); dir != "outputs/20260301_schlaf/bonus_de" {
		t.Errorf("Unexpected German package dir: %s", dir)
	}
}
