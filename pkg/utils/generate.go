package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ==================== UUID & TOKEN ====================

func GenerateSessionToken() uuid.UUID {
	return uuid.New()
}

// ==================== SLUG ====================

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lowercases the title, collapses non-alphanumerics to dashes
// and appends a short random suffix.
func GenerateSlug(title string) string {
	base := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	base = strings.Trim(base, "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// ==================== PAYMENT ====================

// GenerateIdempotencyKey builds the key shared by every processor call of
// one authorization attempt.
func GenerateIdempotencyKey(bookingID uuid.UUID, attemptID uuid.UUID) string {
	return fmt.Sprintf("%s-auth-%s", bookingID.String(), attemptID.String())
}

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}
