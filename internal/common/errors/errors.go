// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request / lookup errors (non-retryable)
const (
	ErrCodeInputParsingFailed         ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed           ErrorCode = "VALIDATION_FAILED"
	ErrCodeOrganizationRequired       ErrorCode = "ORGANIZATION_REQUIRED"
	ErrCodeQualificationTargetMissing ErrorCode = "QUALIFICATION_TARGET_REQUIRED"
	ErrCodeLeadNotFound               ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeContactNotFound            ErrorCode = "CONTACT_NOT_FOUND"
	ErrCodeThreadNotFound             ErrorCode = "THREAD_NOT_FOUND"
	ErrCodeThreadNotAnalyzed          ErrorCode = "THREAD_NOT_ANALYZED"
	ErrCodeBulkLimitExceeded          ErrorCode = "BULK_LIMIT_EXCEEDED"
)

// Infrastructure errors (retryable)
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQualificationFailed      ErrorCode = "QUALIFICATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false)
}

// NewOrganizationRequiredError is returned when no acting organization was supplied.
func NewOrganizationRequiredError() *StandardError {
	return newError(ErrCodeOrganizationRequired, "Organization context is required", "organizationId is empty", false)
}

func NewQualificationTargetMissingError() *StandardError {
	return newError(ErrCodeQualificationTargetMissing,
		"Qualification requires a contact, lead or email thread",
		"contactId, leadId and emailThreadId are all empty", false)
}

func NewLeadNotFoundError(leadID string) *StandardError {
	return newError(ErrCodeLeadNotFound, "Lead not found", fmt.Sprintf("leadId: %s", leadID), false)
}

func NewContactNotFoundError(contactID string) *StandardError {
	return newError(ErrCodeContactNotFound, "Contact not found", fmt.Sprintf("contactId: %s", contactID), false)
}

func NewThreadNotFoundError(threadID string) *StandardError {
	return newError(ErrCodeThreadNotFound, "Email thread not found", fmt.Sprintf("emailThreadId: %s", threadID), false)
}

func NewThreadNotAnalyzedError(threadID string) *StandardError {
	return newError(ErrCodeThreadNotAnalyzed, "Email thread has no analysis yet", fmt.Sprintf("emailThreadId: %s", threadID), false)
}

func NewBulkLimitExceededError(requested, limit int) *StandardError {
	return newError(ErrCodeBulkLimitExceeded, "Too many items in bulk request",
		fmt.Sprintf("requested: %d, limit: %d", requested, limit), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(entity string, err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed",
		fmt.Sprintf("entity: %s, error: %s", entity, err.Error()), true)
}

func NewQualificationFailedError(err error) *StandardError {
	return newError(ErrCodeQualificationFailed, "Qualification failed", err.Error(), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParsingFailed:         "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:           "VALIDATION_FAILED",
	ErrCodeOrganizationRequired:       "ORGANIZATION_REQUIRED",
	ErrCodeQualificationTargetMissing: "QUALIFICATION_TARGET_REQUIRED",
	ErrCodeLeadNotFound:               "LEAD_NOT_FOUND",
	ErrCodeContactNotFound:            "CONTACT_NOT_FOUND",
	ErrCodeThreadNotFound:             "THREAD_NOT_FOUND",
	ErrCodeThreadNotAnalyzed:          "THREAD_NOT_ANALYZED",
	ErrCodeBulkLimitExceeded:          "BULK_LIMIT_EXCEEDED",
	ErrCodeDatabaseConnectionFailed:   "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:       "QUERY_EXECUTION_FAILED",
	ErrCodeDatabaseInsertFailed:       "DATABASE_INSERT_FAILED",
	ErrCodeQualificationFailed:        "QUALIFICATION_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed:
		return 3

	case ErrCodeQualificationFailed:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code carried by err, or "INTERNAL_ERROR".
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasSuffix(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "REQUIRED") || strings.Contains(codeStr, "VALIDATION") ||
		strings.Contains(codeStr, "PARSING") || strings.Contains(codeStr, "LIMIT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "THREAD"):
		return "EMAIL"
	case strings.Contains(codeStr, "QUALIFICATION"):
		return "QUALIFICATION"
	default:
		return "OTHER"
	}
}
