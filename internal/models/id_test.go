package models

import (
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Sleep Revolution":            "sleep_revolution",
		"AI-Powered Funnels!":         "ai_powered_funnels",
		"  spaced   out  ":            "spaced_out",
		"Crème Brûlée Business":       "cr_me_br_l_e_business",
		"already_a_slug":              "already_a_slug",
		"UPPER Case 2026":             "upper_case_2026",
		"":                            "",
		"---":                         "",
		"30-Day Morning Routine Plan": "30_day_morning_routine_plan",
	}

	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Errorf("Slugify(%q): expected %q, got %q", input, expected, got)
		}
	}
}

func TestDatedID(t *testing.T) {
	date := time.Date(2026, 2, 17, 10, 30, 0, 0, time.UTC)

	id := DatedID("Sleep Revolution", date)
	if id != "20260217_sleep_revolution" {
		t.Errorf("Expected '20260217_sleep_revolution', got '%s'", id)
	}

	// Empty topics still yield a usable id
	id = DatedID("!!!", date)
	if id != "20260217_untitled" {
		t.Errorf("Expected '20260217_untitled', got '%s'", id)
	}
}

func TestValidProductID(t *testing.T) {
	valid := []string{
		"20260217_sleep_revolution",
		"20251201_a",
		"20240229_leap_day_launch", // 2024 is a leap year
		"20260101_30_day_plan",
	}
	for _, id := range valid {
		if !ValidProductID(id) {
			t.Errorf("Expected %q to be valid", id)
		}
	}

	invalid := []string{
		"",
		"sleep_revolution",          // no date prefix
		"2026021_short",             // 7-digit prefix
		"20260217-sleep-revolution", // hyphen separator
		"20261399_bad_month",        // month 13
		"20230229_not_leap",         // 2023 has no Feb 29
		"20260217_",                 // empty slug
		"20260217_Sleep",            // uppercase slug
		"20260217__double",          // doubled underscore
		"20260217_trailing_",        // trailing underscore
		"20260217sleep",             // missing separator
	}
	for _, id := range invalid {
		if ValidProductID(id) {
			t.Errorf("Expected %q to be invalid", id)
		}
	}
}

func TestIDDate(t *testing.T) {
	date, err := IDDate("20260217_sleep_revolution")
	if err != nil {
		t.Fatalf("Failed to extract date: %v", err)
	}

	if date.Year() != 2026 || date.Month() != time.February || date.Day() != 17 {
		t.Errorf("Expected 2026-02-17, got %s", date.Format("2006-01-02"))
	}

	if _, err := IDDate("short"); err == nil {
		t.Error("Expected error for id without a date prefix")
	}
}

func TestSlugifyRoundTrip(t *testing.T) {
	// Whatever Slugify emits must satisfy ValidProductID once date-prefixed
	topics := []string{
		"Sleep Revolution",
		"The $97 Side-Hustle Kit",
		"Café Marketing für Anfänger",
		"100% Organic Growth",
	}
	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	for _, topic := range topics {
		id := DatedID(topic, date)
		if !ValidProductID(id) {
			t.Errorf("DatedID(%q) produced invalid id %q", topic, id)
		}
	}
}

func TestIDSlug(t *testing.T) {
	if got := IDSlug("20260217_sleep_revolution"); got != "sleep_revolution" {
		t.Errorf("Expected sleep_revolution, got %s", got)
	}
	if got := IDSlug("no_date_prefix"); got != "no_date_prefix" {
		t.Errorf("Expected id unchanged, got %s", got)
	}
}
