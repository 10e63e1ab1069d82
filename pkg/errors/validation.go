package errors

import (
	"strings"
	"unicode"
)

// maxMediaTypeLength bounds the media type filter.
const maxMediaTypeLength = 64

// ValidateCategory rejects blank tracking categories. Anything else is
// passed through; the increment endpoint decides what it accepts.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return New(ErrCodeInvalidCategory, "category cannot be empty")
	}
	return nil
}

// ValidateMediaType validates the type filter of a media listing.
// An empty type is allowed and means "all media".
func ValidateMediaType(kind string) error {
	if kind == "" {
		return nil
	}
	if len(kind) > maxMediaTypeLength {
		return New(ErrCodeInvalidMediaType, "media type too long (max %d characters)", maxMediaTypeLength)
	}
	for _, r := range kind {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidMediaType, "media type contains invalid characters")
		}
	}
	if strings.ContainsAny(kind, "/\\&?#=") {
		return New(ErrCodeInvalidMediaType, "media type contains invalid characters: %q", kind)
	}
	return nil
}

// ValidateLimit validates a page size. Zero means "server default".
func ValidateLimit(limit int) error {
	const maxLimit = 500
	if limit < 0 {
		return New(ErrCodeInvalidInput, "limit cannot be negative")
	}
	if limit > maxLimit {
		return New(ErrCodeInvalidInput, "limit too large (max %d)", maxLimit)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
