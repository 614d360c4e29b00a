package session

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/letmevibethatforyou/storefrontx"
)

var goValidator = validator.New()

// ValidationErrors lists the fields that failed validation, one
// "Field tag" entry per failure (e.g. "Mail email").
type ValidationErrors struct {
	Fields []string
}

func (ve ValidationErrors) Error() string {
	if len(ve.Fields) == 0 {
		return "no validation errors"
	}
	return strings.Join(ve.Fields, "; ")
}

// validateStruct checks the validate tags of s. The returned error matches
// storefrontx.ErrInvalidInput and carries a ValidationErrors.
func validateStruct(s any) error {
	err := goValidator.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errors.WithSecondaryError(storefrontx.ErrInvalidInput, err)
	}
	out := ValidationErrors{Fields: make([]string, 0, len(ve))}
	for _, e := range ve {
		out.Fields = append(out.Fields, fmt.Sprintf("%s %s", e.Field(), e.ActualTag()))
	}
	return errors.Mark(out, storefrontx.ErrInvalidInput)
}
