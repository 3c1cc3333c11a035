package waitlist

import (
	"regexp"

	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// signupEmailPattern accepts anything shaped local@domain.tld without whitespace.
// RE2's \s is ASCII only, so vertical tab, Unicode separators and the BOM are
// listed explicitly.
var signupEmailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

var submitMessages = apperrors.ValidationMessages{
	"required":     MessageEmailRequired,
	"signup_email": MessageEmailInvalid,
}

func isSignupEmail(fl validator.FieldLevel) bool {
	return signupEmailPattern.MatchString(fl.Field().String())
}

// NewValidator returns a validator with the signup_email rule registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("signup_email", isSignupEmail); err != nil {
		panic(err)
	}
	return v
}

// validationError maps a bind or rule failure to the client-facing error.
func validationError(err error) *apperrors.AppError {
	return apperrors.NewValidationError(apperrors.ValidationMessage(err, submitMessages, MessageEmailInvalid), err)
}
