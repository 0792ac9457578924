// Package schema binds typed models to wire payloads: validate-then-marshal
// on the way out, unmarshal-then-validate on the way in. Struct contracts are
// declared with `validate` tags.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tencent-go/restbind/codec"
	"github.com/tencent-go/restbind/errx"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator exposes the underlying instance so callers can register custom
// tags or type functions.
func Validator() *validator.Validate {
	return validate
}

// Validatable is implemented by models that carry invariants beyond what
// struct tags can express. Validate runs it after the tag checks.
type Validatable interface {
	Validate() errx.Error
}

// Validate checks v against its `validate` tags, then against its own
// Validate method when it implements Validatable. Non-struct values only get
// the Validatable check; tag contracts live on structs.
func Validate(v any) errx.Error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		err := validate.Struct(rv.Interface())
		if _, ok := err.(*validator.InvalidValidationError); err != nil && !ok {
			if fieldErrs, isField := err.(validator.ValidationErrors); isField {
				return errx.Validation.WithMsg(formatFieldErrors(fieldErrs)).Err()
			}
			return errx.Wrap(err).WithType(errx.TypeValidation).Err()
		}
	}
	if c, ok := v.(Validatable); ok {
		if err := c.Validate(); err != nil {
			return errx.Wrap(err).WithType(errx.TypeValidation).Err()
		}
	}
	return nil
}

// Serialize validates v and renders it through c. The validation step runs
// first so that no payload is ever produced from an invalid model.
func Serialize(c codec.Serializer, v any) ([]byte, errx.Error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	data, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Parse decodes data into a fresh T and validates the result. The returned
// value always conforms to T's declared contract, never a partially checked
// structure.
func Parse[T any](c codec.Serializer, data []byte) (*T, errx.Error) {
	out := new(T)
	if err := c.Unmarshal(data, out); err != nil {
		return nil, err
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func formatFieldErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), constraint(fe)))
	}
	return strings.Join(parts, "; ")
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
