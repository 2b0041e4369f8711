package middleware

import (
	"fmt"
	"strconv"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

// Input validation utilities

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ValidateScanID validates scan ID format
func ValidateScanID(scanID string) error {
	if scanID == "" {
		return fmt.Errorf("%w: scan_id is required", domain.ErrInvalidRequest)
	}
	if !domain.ValidID(domain.ScanID(scanID)) {
		return fmt.Errorf("%w: invalid scan_id format (alphanumeric, dash, underscore only, max 64 chars)", domain.ErrInvalidRequest)
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// ParseLimit parses ?limit= and clamps it with ValidateLimit. An empty
// value yields the default; a non-numeric one is an invalid request.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidRequest)
	}
	return ValidateLimit(n), nil
}
