package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSymbol validates a ticker symbol before it is placed into an
// upstream URL.
//
// The validation rules are intentionally conservative:
//   - No empty symbols
//   - Maximum length of 32 characters
//   - No control characters or whitespace
//   - Only letters, digits and the separators . - ^ = /
//
// Source-specific normalization (upper-casing, CIK padding) is done by the
// adapters themselves.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return New(ErrCodeInvalidSymbol, "symbol cannot be empty")
	}

	if len(symbol) > 32 {
		return New(ErrCodeInvalidSymbol, "symbol too long (max 32 characters)")
	}

	for _, r := range symbol {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidSymbol, "symbol contains invalid characters")
		}
	}

	if strings.Contains(symbol, "..") || strings.Contains(symbol, "//") {
		return New(ErrCodeInvalidSymbol, "symbol contains invalid sequence: %q", symbol)
	}

	if !symbolRegex.MatchString(symbol) {
		return New(ErrCodeInvalidSymbol, "invalid symbol: %q", symbol)
	}

	return nil
}

var symbolRegex = regexp.MustCompile(`^[A-Za-z0-9^][A-Za-z0-9.\-^=/]*$`)

// sourceNameRegex matches valid provider names: lowercase, digits, dashes.
var sourceNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateSourceName validates a provider name as used in --source flags,
// config files and the disabled list.
func ValidateSourceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSource, "source name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidSource, "source name too long (max 64 characters)")
	}
	if !sourceNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSource, "invalid source name: %q", name)
	}
	return nil
}

// ValidateAction validates a free-form action string.
// Actions are provider-specific sub-keys, so only shape is checked.
func ValidateAction(action string) error {
	if action == "" {
		return New(ErrCodeInvalidInput, "action cannot be empty")
	}
	if len(action) > 64 {
		return New(ErrCodeInvalidInput, "action too long (max 64 characters)")
	}
	for _, r := range action {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return New(ErrCodeInvalidInput, "action contains invalid characters: %q", action)
		}
	}
	return nil
}
