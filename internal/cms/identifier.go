package cms

import "regexp"

var (
	identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_/-]+(\.[a-z0-9_-]+)?$`)
	numericPattern    = regexp.MustCompile(`^[0-9]+$`)
)

const (
	identifierFormatMessage  = "The page URL key contains capital letters or disallowed symbols."
	identifierNumericMessage = "The page URL key cannot be made of only numbers."
)

// IsValidIdentifier reports whether id is a lowercase URL key of at least two characters,
// optionally ending in a dot extension.
func IsValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// IsNumericIdentifier reports whether id consists only of digits.
func IsNumericIdentifier(id string) bool {
	return numericPattern.MatchString(id)
}

// ValidateIdentifier checks the format rule first, then the numeric-only rule.
func ValidateIdentifier(id string) error {
	if !IsValidIdentifier(id) {
		return &ValidationError{Rule: RuleIdentifierFormat, Message: identifierFormatMessage}
	}

	if IsNumericIdentifier(id) {
		return &ValidationError{Rule: RuleIdentifierNumeric, Message: identifierNumericMessage}
	}

	return nil
}
