package errors

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationMessages maps a validator tag to the message shown to clients.
type ValidationMessages map[string]string

func msgForTag(tag string, messages ValidationMessages, fallback string) string {
	if msg, ok := messages[tag]; ok {
		return msg
	}

	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "max":
		return "Value is too long or too large"
	default:
		return fallback
	}
}

// ValidationMessage picks the client message for the first failing rule in err.
// Anything that is not a rule violation (wrong JSON type, truncated or empty body)
// maps to the "required" message: the payload never carried a usable value.
func ValidationMessage(err error, messages ValidationMessages, fallback string) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return msgForTag(validationErrors[0].Tag(), messages, fallback)
	}

	return msgForTag("required", messages, fallback)
}
