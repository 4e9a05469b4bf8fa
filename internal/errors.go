package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ErrorType string

const (
	ErrorTypeNetwork        ErrorType = "NETWORK_ERROR"
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION_ERROR"
	ErrorTypeAuthorization  ErrorType = "AUTHORIZATION_ERROR"
	ErrorTypeDatabase       ErrorType = "DATABASE_ERROR"
	ErrorTypeBusinessLogic  ErrorType = "BUSINESS_LOGIC_ERROR"
	ErrorTypeUnknown        ErrorType = "UNKNOWN_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidName      ErrorCode = "INVALID_NAME"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"

	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"

	ErrCodeUniqueViolation       ErrorCode = "UNIQUE_VIOLATION"
	ErrCodeForeignKeyViolation   ErrorCode = "FOREIGN_KEY_VIOLATION"
	ErrCodeNotNullViolation      ErrorCode = "NOT_NULL_VIOLATION"
	ErrCodeInsufficientPrivilege ErrorCode = "INSUFFICIENT_PRIVILEGE"
	ErrCodeRecordNotFound        ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeDatabaseFailure       ErrorCode = "DATABASE_FAILURE"

	ErrCodeMissingToken ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeBadLogin     ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeForbidden    ErrorCode = "INSUFFICIENT_SCOPE"

	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamRejected   ErrorCode = "UPSTREAM_REJECTED"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// PostgreSQL SQLSTATE codes surfaced by the store.
const (
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
	pgNotNullViolation      = "23502"
	pgInsufficientPrivilege = "42501"
)

type AppError struct {
	Type          ErrorType   `json:"type"`
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	Details       interface{} `json:"details,omitempty"`
	StatusCode    int         `json:"-"`
	CorrelationID string      `json:"-"`
	Cause         error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches two AppErrors by type and code so sentinel comparisons survive WithCause copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithCorrelationID(id string) *AppError {
	cp := *e
	cp.CorrelationID = id
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusinessLogic,
		Code:       ErrCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusinessLogic,
		Code:       ErrCodeAlreadyExists,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewAuthenticationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewAuthorizationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewNetworkError(message string, code ErrorCode, status int) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Code:       code,
		Message:    message,
		StatusCode: status,
	}
}

func NewDatabaseError(message string, code ErrorCode, status int) *AppError {
	return &AppError{
		Type:       ErrorTypeDatabase,
		Code:       code,
		Message:    message,
		StatusCode: status,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrUniqueViolation       = NewDatabaseError("A record with the same unique value already exists", ErrCodeUniqueViolation, http.StatusConflict)
	ErrForeignKeyViolation   = NewDatabaseError("The referenced record does not exist", ErrCodeForeignKeyViolation, http.StatusBadRequest)
	ErrNotNullViolation      = NewDatabaseError("A required field is missing", ErrCodeNotNullViolation, http.StatusBadRequest)
	ErrInsufficientPrivilege = NewDatabaseError("You do not have permission to perform this operation", ErrCodeInsufficientPrivilege, http.StatusForbidden)
	ErrRecordNotFound        = NewDatabaseError("The requested record was not found", ErrCodeRecordNotFound, http.StatusNotFound)
	ErrDatabaseFailure       = NewDatabaseError("A database error occurred", ErrCodeDatabaseFailure, http.StatusInternalServerError)

	ErrMissingToken      = NewAuthenticationError("Missing authorization token", ErrCodeMissingToken)
	ErrInvalidToken      = NewAuthenticationError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired      = NewAuthenticationError("Token has expired", ErrCodeTokenExpired)
	ErrInvalidLogin      = NewAuthenticationError("Invalid email or password", ErrCodeBadLogin)
	ErrInsufficientScope = NewAuthorizationError("Insufficient permissions for this operation", ErrCodeForbidden)

	ErrServiceUnavailable = NewNetworkError("The command interpretation service is unavailable", ErrCodeServiceUnavailable, http.StatusServiceUnavailable)
	ErrRateLimited        = NewNetworkError("Rate limit exceeded", ErrCodeRateLimited, http.StatusTooManyRequests)
)

// MapDatabaseError converts store errors into AppErrors carrying fixed user-facing messages.
// Errors that are already AppErrors pass through unchanged.
func MapDatabaseError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrUniqueViolation.WithCause(err)
		case pgForeignKeyViolation:
			return ErrForeignKeyViolation.WithCause(err)
		case pgNotNullViolation:
			return ErrNotNullViolation.WithCause(err)
		case pgInsufficientPrivilege:
			return ErrInsufficientPrivilege.WithCause(err)
		}
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrUniqueViolation.WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKeyViolation.WithCause(err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound.WithCause(err)
	}

	return ErrDatabaseFailure.WithCause(err)
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a domain or store level not-found error.
func IsNotFound(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && (appErr.Code == ErrCodeNotFound || appErr.Code == ErrCodeRecordNotFound)
}

// IsConflict reports whether err is a duplicate-name or unique-violation error.
func IsConflict(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && (appErr.Code == ErrCodeAlreadyExists || appErr.Code == ErrCodeUniqueViolation)
}

// Response is the error payload written for every failed request.
type Response struct {
	Error         string      `json:"error"`
	Type          ErrorType   `json:"type"`
	Message       string      `json:"message"`
	Details       interface{} `json:"details,omitempty"`
	StatusCode    int         `json:"statusCode"`
	CorrelationID string      `json:"correlationId,omitempty"`
}

func (e *AppError) ToHTTPResponse() (int, Response) {
	return e.StatusCode, Response{
		Error:         string(e.Code),
		Type:          e.Type,
		Message:       e.Message,
		Details:       e.Details,
		StatusCode:    e.StatusCode,
		CorrelationID: e.CorrelationID,
	}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	_, resp := e.ToHTTPResponse()
	return json.Marshal(resp)
}
