// Package models defines the data structures for the tax and credit engine.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is the sentinel every ValidationError unwraps to.
var ErrValidation = errors.New("validation error")

// Common errors
var (
	ErrNegativeIncome     = errors.New("gross income cannot be negative")
	ErrEmptyTaxpayerID    = errors.New("taxpayer_id cannot be empty")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCreditScore = errors.New("credit score must be between 300 and 900")
)

// ValidationError reports malformed or out-of-domain input to one of the
// engine operations. It is always returned, never panicked.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ValidateTaxProfile validates a taxpayer profile before it is assessed.
func ValidateTaxProfile(p *TaxProfile) error {
	if strings.TrimSpace(p.TaxpayerID) == "" {
		return ErrEmptyTaxpayerID
	}

	if p.Email != "" && !isValidEmail(p.Email) {
		return ErrInvalidEmail
	}

	if p.GrossIncome < 0 {
		return ErrNegativeIncome
	}

	for section, amount := range p.Deductions {
		if !section.IsValid() {
			return fmt.Errorf("unknown deduction section %q", section)
		}
		if amount < 0 {
			return fmt.Errorf("deduction %s cannot be negative", section)
		}
	}

	return nil
}

// isValidEmail performs basic email validation.
func isValidEmail(email string) bool {
	atIndex := strings.Index(email, "@")
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}

	dotIndex := strings.LastIndex(email, ".")
	if dotIndex <= atIndex+1 || dotIndex == len(email)-1 {
		return false
	}

	return true
}
