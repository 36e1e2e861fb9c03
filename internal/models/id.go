package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Product ids follow the convention <YYYYMMDD>_<slug>: an 8-digit date
// prefix followed by a lowercase ASCII slug, e.g. 20260217_sleep_revolution.

// Slugify converts a free-form topic into a lowercase underscore slug.
// Non-ASCII letters and punctuation collapse into single underscores.
func Slugify(s string) string {
	var b strings.Builder
	lastUnderscore := true // suppress a leading underscore
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// Non-ASCII letters don't survive into directory names
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// DatedID builds a product id from a topic and a creation date.
func DatedID(topic string, t time.Time) string {
	slug := Slugify(topic)
	if slug == "" {
		slug = "untitled"
	}
	return fmt.Sprintf("%s_%s", t.Format("20060102"), slug)
}

// ValidProductID reports whether id matches the <YYYYMMDD>_<slug> convention.
func ValidProductID(id string) bool {
	if len(id) < 10 {
		return false
	}
	for i := 0; i < 8; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	if id[8] != '_' {
		return false
	}
	if _, err := time.Parse("20060102", id[:8]); err != nil {
		return false
	}
	slug := id[9:]
	if slug == "" {
		return false
	}
	for _, r := range slug {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
		if !valid {
			return false
		}
	}
	if strings.HasPrefix(slug, "_") || strings.HasSuffix(slug, "_") || strings.Contains(slug, "__") {
		return false
	}
	return true
}

// IDDate extracts the date prefix from a valid product id.
func IDDate(id string) (time.Time, error) {
	if len(id) < 8 {
		return time.Time{}, fmt.Errorf("id %q too short for a date prefix", id)
	}
	return time.Parse("20060102", id[:8])
}

// IDSlug returns the slug part of a dated product id, or the id unchanged
// when it carries no date prefix.
func IDSlug(id string) string {
	if ValidProductID(id) {
		return id[9:]
	}
	return id
}
