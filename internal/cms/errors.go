package cms

import (
	"errors"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// ErrNotFound indicates that no page or store matched the lookup.
var ErrNotFound = eris.New("not found")

// ErrConflict indicates the page was modified concurrently since it was loaded.
var ErrConflict = eris.New("page was modified concurrently")

// Rule names a page validation rule.
type Rule string

const (
	RuleIdentifierFormat  Rule = "identifier_format"
	RuleIdentifierNumeric Rule = "identifier_numeric"
)

// ValidationError reports a page that failed validation before any write was attempted.
type ValidationError struct {
	Rule    Rule
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IntegrityError reports a uniqueness or referential violation.
type IntegrityError struct {
	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsIntegrityError reports whether err carries an *IntegrityError.
func IsIntegrityError(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}

// isConstraintViolation relies on the dialector translating driver errors.
func isConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated)
}
