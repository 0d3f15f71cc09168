package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/classquotes/internal/domain"
)

// ErrBinding indicates the body or query string could not be decoded.
var ErrBinding = errors.New("binding failed")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the singleton validator. Field names in messages are
// taken from the json tag, or the form tag for query structs.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(fieldName)
	})

	return validate
}

func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}

	return fld.Name
}

// Validate checks the struct tags of v. Failures are returned as a
// *domain.ValidationError so they map to the same 400 body as domain rules.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	out := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		out.Violations = append(out.Violations, domain.FieldViolation{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}

	return out
}

// BindJSON decodes the body into v. A JSON value of the wrong type for a
// known field is reported as a validation error on that field; anything
// else that fails to decode wraps ErrBinding.
func BindJSON(c *gin.Context, v any) error {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.NewValidationError(typeErr.Field, "must be a "+jsonKind(typeErr.Type))
	}

	return fmt.Errorf("%w: %w", ErrBinding, err)
}

// BindQueryAndValidate binds query parameters into v and validates them.
func BindQueryAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value of another type"
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "whole number"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}

var validationMessages = map[string]string{
	"required": "this field is required",
	"gte":      "must be greater than or equal to {param}",
	"lte":      "must be less than or equal to {param}",
	"max":      "must be at most {param} characters",
	"min":      "must be at least {param} characters",
	"oneof":    "must be one of: {param}",
}

func validationMessage(fe validator.FieldError) string {
	msg, ok := validationMessages[fe.Tag()]
	if !ok {
		return "failed validation: " + fe.Tag()
	}

	param := fe.Param()
	if fe.Tag() == "oneof" {
		param = oneOfList(param)
	}

	return strings.ReplaceAll(msg, "{param}", param)
}

// oneOfList renders a oneof parameter such as "All '7 Days' Month" as
// "All, 7 Days, Month".
func oneOfList(param string) string {
	var (
		items  []string
		quoted bool
		cur    strings.Builder
	)

	for _, r := range param {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == ' ' && !quoted:
			if cur.Len() > 0 {
				items = append(items, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}

	if cur.Len() > 0 {
		items = append(items, cur.String())
	}

	return strings.Join(items, ", ")
}
