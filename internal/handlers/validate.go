package handlers

import (
	"strings"
	"unicode/utf8"

	"birdatlas/internal/apperror"
	"birdatlas/internal/models"
)

// Validation limits for submitted and edited fields.
const (
	maxNameLen    = 200
	maxSectionLen = 50_000
	maxNotesLen   = 2_000
	maxCaptionLen = 500
	maxEmailLen   = 254
)

// validateSubmitter checks the contributor attribution on a public
// submission. The name becomes a citation, so it is required.
func validateSubmitter(by, email string) error {
	by = strings.TrimSpace(by)
	if by == "" {
		return apperror.Validation("by", "your name is required")
	}
	if utf8.RuneCountInString(by) > maxNameLen {
		return apperror.Validation("by", "name is too long (max 200 characters)")
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return apperror.Validation("email", "email is too long")
	}
	if email != "" && !strings.Contains(email, "@") {
		return apperror.Validation("email", "email address is invalid")
	}
	return nil
}

// validateSection checks one free-text content section.
func validateSection(field, value string) error {
	if utf8.RuneCountInString(value) > maxSectionLen {
		return apperror.Validation(field, field+" is too long (max 50,000 characters)")
	}
	return nil
}

// validateFeature checks a proposed amenity answer against the tri-state
// enum.
func validateFeature(field, value string) error {
	switch models.FeatureValue(value) {
	case models.FeatureYes, models.FeatureNo, models.FeatureUnknown:
		return nil
	}
	return apperror.Validation(field, field+" must be Yes, No, or Unknown")
}

// validateEntityName checks the display name of a hotspot, group, drive,
// or article.
func validateEntityName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.Validation(field, field+" is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return apperror.Validation(field, field+" is too long (max 200 characters)")
	}
	return nil
}
