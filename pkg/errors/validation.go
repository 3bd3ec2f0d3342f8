package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxCopies bounds the number of generated copies.
const MaxCopies = 10000

// ValidateNumCopies checks that n is a usable copy count.
func ValidateNumCopies(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidConfig, "number of copies must be >= 0, got %d", n)
	}
	if n > MaxCopies {
		return New(ErrCodeInvalidConfig, "number of copies too large (max %d), got %d", MaxCopies, n)
	}
	return nil
}

// ValidatePercent checks that a randomization percentage lies in [0, 100].
func ValidatePercent(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return New(ErrCodeInvalidConfig, "%s must be in [0, 100], got %v", field, v)
	}
	return nil
}

// ValidateDegrees checks that a rotation randomization lies in [0, 360].
func ValidateDegrees(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 360 {
		return New(ErrCodeInvalidConfig, "%s must be in [0, 360] degrees, got %v", field, v)
	}
	return nil
}

// ValidateFinite rejects NaN and infinite configuration values.
func ValidateFinite(field string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidConfig, "%s must be finite, got %v", field, v)
		}
	}
	return nil
}

// ValidatePath validates a user supplied output or config path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateSessionID checks that id is safe to use as a file name.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "session id too long (max 64 characters)")
	}
	if strings.ContainsAny(id, "/\\.") {
		return New(ErrCodeInvalidInput, "session id contains invalid characters: %q", id)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "session id contains invalid characters: %q", id)
		}
	}
	return nil
}
