package errors

import (
	"errors"
)

const unexpectedPrefix = "An unexpected error occurred"

// statusByType lists the AppError types that do not surface as a 500.
var statusByType = map[string]int{
	ErrorTypeValidation:       StatusBadRequest,
	ErrorTypeDuplicate:        StatusConflict,
	ErrorTypeNotFound:         StatusNotFound,
	ErrorTypeMethodNotAllowed: StatusMethodNotAllowed,
	ErrorTypeTooManyRequests:  StatusTooManyRequests,
	ErrorTypeRequestTimeout:   StatusRequestTimeout,
}

func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return StatusInternalServerError
}

// GetHumanReadableMessage returns the message meant for API clients. Errors
// outside the AppError family keep their raw text behind a generic prefix.
func GetHumanReadableMessage(err error) string {
	if err == nil {
		return unexpectedPrefix
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return unexpectedPrefix + ": " + err.Error()
}
