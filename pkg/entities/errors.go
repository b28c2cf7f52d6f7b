package entities

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyClosed    = errors.New("ticket is already closed")
	ErrAlreadyClaimed   = errors.New("ticket is already claimed")
	ErrNotClaimed       = errors.New("ticket is not claimed")
	ErrAlreadyReviewed  = errors.New("application has already been reviewed")
	ErrLimitExceeded    = errors.New("open ticket limit reached")
	ErrBlacklisted      = errors.New("user is blacklisted")
	ErrCooldownActive   = errors.New("application cooldown is active")
	ErrNoQuestions      = errors.New("application type has no questions")
	ErrInactive         = errors.New("application type is not active")
	ErrValidation       = errors.New("validation failed")
	ErrExternalService  = errors.New("external service failure")
)

// domainErrors are the errors that are shown to the user rather than treated as faults.
var domainErrors = []error{
	ErrPermissionDenied,
	ErrNotFound,
	ErrAlreadyClosed,
	ErrAlreadyClaimed,
	ErrNotClaimed,
	ErrAlreadyReviewed,
	ErrLimitExceeded,
	ErrBlacklisted,
	ErrCooldownActive,
	ErrNoQuestions,
	ErrInactive,
	ErrValidation,
}

// IsDomainError reports whether err is a rejection that should be surfaced to the user.
func IsDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Entity string
}

func NewNotFoundError(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// BlacklistedError carries the reason the user was blacklisted.
type BlacklistedError struct {
	Reason string
}

func (e *BlacklistedError) Error() string {
	if e.Reason == "" {
		return ErrBlacklisted.Error()
	}
	return fmt.Sprintf("%s: %s", ErrBlacklisted, e.Reason)
}

func (e *BlacklistedError) Unwrap() error {
	return ErrBlacklisted
}

// LimitError carries the open ticket limit that was reached.
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %d", ErrLimitExceeded, e.Limit)
}

func (e *LimitError) Unwrap() error {
	return ErrLimitExceeded
}

// ClaimedError carries the user that currently holds the claim.
type ClaimedError struct {
	ClaimedBy string
}

func (e *ClaimedError) Error() string {
	return fmt.Sprintf("%s by %s", ErrAlreadyClaimed, e.ClaimedBy)
}

func (e *ClaimedError) Unwrap() error {
	return ErrAlreadyClaimed
}

// CooldownError carries the number of whole hours, rounded up, until the user can apply again.
type CooldownError struct {
	RemainingHours int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %d hours remaining", ErrCooldownActive, e.RemainingHours)
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldownActive
}

// ValidationError describes which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ExternalError wraps a failed call to Discord or the database.
type ExternalError struct {
	Op  string
	Err error
}

func NewExternalError(op string, err error) *ExternalError {
	return &ExternalError{Op: op, Err: err}
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("error %s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() []error {
	return []error{ErrExternalService, e.Err}
}
