package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeAlreadyClaimed       = "ALREADY_CLAIMED"
	CodeAlreadyClosed        = "ALREADY_CLOSED"
	CodeNotClaimed           = "NOT_CLAIMED"
	CodeDuplicateParticipant = "DUPLICATE_PARTICIPANT"
	CodeOwnerImmutable       = "OWNER_IMMUTABLE"
	CodeQuotaExceeded        = "QUOTA_EXCEEDED"
	CodeFeatureDisabled      = "FEATURE_DISABLED"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewAlreadyClaimed(claimantID string) error {
	return NewDomainError(CodeAlreadyClaimed, "ticket is already claimed", http.StatusConflict,
		map[string]any{"claimed_by": claimantID})
}

func NewAlreadyClosed() error {
	return NewDomainError(CodeAlreadyClosed, "ticket is already closed", http.StatusConflict, nil)
}

func NewNotClaimed() error {
	return NewDomainError(CodeNotClaimed, "ticket is not claimed", http.StatusConflict, nil)
}

func NewDuplicateParticipant(memberID string) error {
	return NewDomainError(CodeDuplicateParticipant, "member is already in this ticket", http.StatusConflict,
		map[string]any{"member_id": memberID})
}

func NewOwnerImmutable() error {
	return NewDomainError(CodeOwnerImmutable, "the ticket owner cannot be removed", http.StatusConflict, nil)
}

func NewQuotaExceeded(openCount, limit int) error {
	return NewDomainError(CodeQuotaExceeded, "open ticket limit reached", http.StatusConflict,
		map[string]any{"open_tickets": openCount, "limit": limit})
}

func NewFeatureDisabled(feature string) error {
	return NewDomainError(CodeFeatureDisabled, fmt.Sprintf("%s is disabled", feature), http.StatusConflict,
		map[string]any{"feature": feature})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
