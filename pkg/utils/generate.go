package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ==================== UUID ====================

var uuidV4Pattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsUUIDv4 reports whether s is the textual form of a version 4 UUID, case-insensitive.
func IsUUIDv4(s string) bool {
	return uuidV4Pattern.MatchString(s)
}

// ==================== PAYMENT REFERENCE ====================

// GeneratePaymentReference builds {KIND}_{bookingId}_{epochMillis}
func GeneratePaymentReference(kind string, bookingID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", strings.ToUpper(kind), bookingID.String(), at.UnixMilli())
}

// ParsePaymentReference splits a reference back into kind and booking id.
func ParsePaymentReference(reference string) (kind string, bookingID uuid.UUID, err error) {
	parts := strings.Split(reference, "_")
	if len(parts) != 3 {
		return "", uuid.Nil, fmt.Errorf("invalid payment reference %q", reference)
	}

	bookingID, err = uuid.Parse(parts[1])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid booking id in reference %q: %w", reference, err)
	}

	return parts[0], bookingID, nil
}
