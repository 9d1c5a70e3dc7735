package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

// scanned codes are printable ASCII without whitespace
var codePattern = regexp.MustCompile(`^[\x21-\x7E]+$`)

func InitValidator() {
	Validate = validator.New()
	_ = Validate.RegisterValidation("scancode", func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})
}
