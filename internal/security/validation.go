// Package security validates user-supplied identifiers before they reach the
// bar store.
package security

import (
	"regexp"
	"strings"
	"unicode"

	apperrors "pricelevels/internal/errors"
)

// Validation patterns
var (
	// Symbol pattern: uppercase letters, numbers, and limited special chars
	symbolPattern = regexp.MustCompile(`^[A-Z0-9&._-]{1,20}$`)

	// Timeframe pattern: a count followed by a unit, e.g. 5min, 1hour, 1day
	timeframePattern = regexp.MustCompile(`^[1-9][0-9]{0,2}(min|hour|day|week|month)$`)
)

// ValidateSymbol validates a ticker symbol. Symbols are compared upper-case.
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	if symbol == "" {
		return apperrors.NewValidationError("symbol", symbol, "symbol cannot be empty", apperrors.ErrInvalidInput)
	}

	if len(symbol) > 20 {
		return apperrors.NewValidationError("symbol", symbol, "symbol too long (max 20 characters)", apperrors.ErrInvalidInput)
	}

	if !symbolPattern.MatchString(symbol) {
		return apperrors.NewValidationError("symbol", symbol, "invalid symbol format", apperrors.ErrInvalidInput)
	}

	return nil
}

// ValidateTimeframe validates a stored bar timeframe label.
func ValidateTimeframe(timeframe string) error {
	if !timeframePattern.MatchString(timeframe) {
		return apperrors.NewValidationError("timeframe", timeframe, "expected a count and unit such as 1day or 5min", apperrors.ErrInvalidInput)
	}
	return nil
}

// SanitizeSymbol sanitizes a symbol input.
func SanitizeSymbol(symbol string) string {
	// Convert to uppercase and trim
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Remove anything the symbol pattern rejects
	var result strings.Builder
	for _, r := range symbol {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("&._-", r) {
			result.WriteRune(r)
		}
	}

	if result.Len() > 20 {
		return result.String()[:20]
	}
	return result.String()
}
