package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"konnectia/internal/common"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Messages maps "<json field>.<tag>" to the message reported when that check
// fails. Failures without an entry get a generic message.
type Messages map[string]string

// ruleRank orders failures across fields: presence first, then length,
// cross-field and format checks. Unranked tags sort last.
var ruleRank = map[string]int{
	"required": 0,
	"max":      1,
	"min":      1,
	"eqfield":  2,
	"alphanum": 3,
	"email":    4,
}

func rank(tag string) int {
	if r, ok := ruleRank[tag]; ok {
		return r
	}
	return len(ruleRank)
}

// Validate checks s against its validate tags and returns the highest
// ranked failure as a *common.ValidationError, ties going to field order.
func Validate(s any, msgs Messages) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("invalid validation error: %w", err)
	}

	first := fieldErrs[0]
	for _, fe := range fieldErrs[1:] {
		if rank(fe.Tag()) < rank(first.Tag()) {
			first = fe
		}
	}
	return newFieldError(first.Field(), first.Tag(), first.Param(), msgs)
}

// ValidateVar checks a single value, reporting failures against field.
func ValidateVar(field string, value any, tag string, msgs Messages) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("invalid validation error: %w", err)
	}
	return newFieldError(field, fieldErrs[0].Tag(), fieldErrs[0].Param(), msgs)
}

func newFieldError(field, tag, param string, msgs Messages) error {
	msg, ok := msgs[field+"."+tag]
	if !ok {
		switch tag {
		case "required":
			msg = fmt.Sprintf("%s is required", field)
		case "email":
			msg = "Enter a valid email address."
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters long", field, param)
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters long", field, param)
		case "alphanum":
			msg = fmt.Sprintf("%s must be alphanumeric", field)
		case "eqfield":
			msg = fmt.Sprintf("%s must match %s", field, strings.ToLower(param))
		default:
			msg = fmt.Sprintf("%s is invalid", field)
		}
	}
	return &common.ValidationError{Field: field, Rule: tag, Message: msg}
}
