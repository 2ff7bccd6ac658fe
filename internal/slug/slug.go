// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from hotspot group,
// drive, and article names.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, whitespace, or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of any whitespace.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Magee Marsh & Estuary Trail" → "magee-marsh-estuary-trail"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// WithFallback returns the slug for s, or fallback when the name slugs
// to an empty string (all punctuation, non-latin script).
func WithFallback(s, fallback string) string {
	if result := Generate(s); result != "" {
		return result
	}
	return fallback
}

// MakeUnique returns base when taken reports it free, otherwise the first
// numbered variant "base-2", "base-3", ... that is free. Identically named
// entities end up with distinct slugs instead of shadowing each other.
func MakeUnique(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
