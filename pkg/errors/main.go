package errors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRequestTimeout      = 408
	StatusConflict            = 409
	StatusTooManyRequests     = 429
	StatusInternalServerError = 500
)

const (
	ErrorTypeValidation         = "VALIDATION_ERROR"
	ErrorTypeDuplicate          = "DUPLICATE"
	ErrorTypeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrorTypeDatabaseError      = "DATABASE_ERROR"
	ErrorTypeUnexpected         = "UNEXPECTED_ERROR"
	ErrorTypeNotFound           = "NOT_FOUND"
	ErrorTypeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrorTypeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrorTypeRequestTimeout     = "REQUEST_TIMEOUT"
	ErrorTypeUnknown            = "UNKNOWN_ERROR"
)

type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(message string, err error) *AppError {
	return NewAppError(ErrorTypeValidation, message, err)
}

func NewDuplicateError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDuplicate, message, err)
}

func NewStorageUnavailableError(message string, err error) *AppError {
	return NewAppError(ErrorTypeStorageUnavailable, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

func NewUnexpectedError(message string, err error) *AppError {
	return NewAppError(ErrorTypeUnexpected, message, err)
}

func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return ErrorTypeUnknown
}

// IsType reports whether err carries an AppError of the given type anywhere in its chain.
func IsType(err error, errType string) bool {
	return err != nil && GetErrorType(err) == errType
}

// IsDuplicateKeyError recognises unique-constraint violations from the postgres
// and sqlite drivers, which surface them only as message text.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "sqlstate 23505")
}
