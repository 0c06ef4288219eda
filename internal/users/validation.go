package users

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var ruleMessages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"min":      "%s must be at least %s characters",
	"oneof":    "%s must be one of %s",
}

// validationDetails maps each failing field of target to a readable message,
// keyed by the field's json name. It handles errors from the package
// validator and from gin's binding validator alike. Nil when err carries no
// field errors.
func validationDetails(err error, target any) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fieldName(t, fe.StructField())
		out[name] = fieldMessage(name, fe)
	}
	return out
}

func fieldName(t reflect.Type, structField string) string {
	if t != nil && t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(structField); ok {
			if tag := strings.Split(f.Tag.Get("json"), ",")[0]; tag != "" && tag != "-" {
				return tag
			}
		}
	}
	if structField == "" {
		return structField
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

func fieldMessage(name string, fe validator.FieldError) string {
	msg, ok := ruleMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid", name)
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, name, fe.Param())
	}
	return fmt.Sprintf(msg, name)
}

// invalidInput wraps a validator error as ErrInvalidInput with the failing
// fields in a stable order.
func invalidInput(err error, target any) error {
	details := validationDetails(err, target)
	if len(details) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(details))
	for _, m := range details {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}
