package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the failure taxonomy. Handlers map these to response
// codes; services wrap them with %w so errors.Is keeps working.
var (
	// ErrNotFound signals a missing patient or log record.
	ErrNotFound = errors.New("record not found")

	// ErrNotConfigured signals that generation was attempted without a ready
	// credential. No network call has been made when this is returned.
	ErrNotConfigured = errors.New("generation credential not configured")

	// ErrGenerationFailed is the single generic failure for any transport,
	// provider or response-shape problem during batch generation. Sub-causes
	// are logged, never surfaced.
	ErrGenerationFailed = errors.New("batch generation failed")

	// ErrGenerationBusy signals that a generation request is already in
	// flight; at most one is allowed per session.
	ErrGenerationBusy = errors.New("generation already in progress")

	// ErrImportRejected signals a structurally invalid import payload. The
	// existing state is untouched when this is returned.
	ErrImportRejected = errors.New("import payload rejected")
)

// Error codes carried on API error responses.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeNotConfigured    = "NOT_CONFIGURED"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeGenerationBusy   = "GENERATION_BUSY"
	CodeImportRejected   = "IMPORT_REJECTED"
	CodeStoreError       = "STORE_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
)

// AppError is the standardized error response body.
type AppError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError creates an AppError stamped with the current time.
func NewAppError(code, message, requestID string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}
