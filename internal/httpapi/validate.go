package httpapi

import (
	validatorpkg "github.com/go-playground/validator/v10"
)

var bodyValidator = validatorpkg.New()

func validateBody(v any) error {
	return bodyValidator.Struct(v)
}
