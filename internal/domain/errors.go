package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches DomainErrors by code so wrapped sentinels compare correctly.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInput         = "INPUT_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeState         = "STATE_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Input errors: bad uploads, surfaced to the caller with a reason and never retried
var (
	ErrUnsupportedFormat = NewDomainError(ErrCodeInput, "unsupported file format")
	ErrCorruptInput      = NewDomainError(ErrCodeInput, "file content cannot be decoded as its declared format")
	ErrPayloadTooLarge   = NewDomainError(ErrCodeInput, "payload exceeds maximum allowed size")
	ErrEmptyPayload      = NewDomainError(ErrCodeInput, "payload is empty")
	ErrEmptyMessage      = NewDomainError(ErrCodeValidation, "message text is required")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrSessionNotFound  = NewDomainError(ErrCodeNotFound, "chat session not found")
	ErrReminderNotFound = NewDomainError(ErrCodeNotFound, "reminder not found")
	ErrChunkNotFound    = NewDomainError(ErrCodeNotFound, "chunk not found")
)

// Provider errors: LLM/embedding backend failures, retried once then degraded
var (
	ErrEmbeddingUnavailable  = NewDomainError(ErrCodeProvider, "embedding capability unavailable")
	ErrCompletionUnavailable = NewDomainError(ErrCodeProvider, "completion capability unavailable")
)

// State errors: surfaced as distinct non-fatal outcomes
var (
	ErrNothingToConfirm = NewDomainError(ErrCodeState, "no pending action to confirm")
	ErrInvalidDecision  = NewDomainError(ErrCodeState, "decision must be confirm or reject")
)

// Storage errors: the pending action is preserved so the commit can be retried
var (
	ErrCommitFailed = NewDomainError(ErrCodeStorage, "failed to commit confirmed action")
)

// Validation errors
var (
	ErrInvalidChunkConfig   = NewDomainError(ErrCodeValidation, "chunk overlap must be smaller than window size")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidPriority      = NewDomainError(ErrCodeValidation, "priority must be high, medium or low")
	ErrInvalidDate          = NewDomainError(ErrCodeValidation, "date must be in YYYY-MM-DD format")
)
