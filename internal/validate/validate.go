package validate

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	TagPassword = "password"

	passwordSymbols = `!@#$%^&*()_+{}[]:;<>,.?~\/-`
)

// New returns a validator with the custom tags used by request bodies.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation(TagPassword, ValidatePassword)
	return v
}

// ValidatePassword requires at least one lowercase letter, one uppercase
// letter, one digit and one symbol. Length is left to min/max tags.
func ValidatePassword(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
