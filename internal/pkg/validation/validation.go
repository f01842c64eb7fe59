package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var otpRe = regexp.MustCompile(`^[0-9]{6}$`)

// FieldError is one failed rule, keyed by the JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a request body is malformed or fails its schema.
type Error struct {
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string { return e.Message }

// HasField reports whether the named JSON field failed validation.
func (e *Error) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// six ASCII digits
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return otpRe.MatchString(fl.Field().String())
	})
	return v
}

// Decode strictly decodes a JSON object into dst. Unknown fields, wrong types and
// trailing data are rejected before any business logic runs.
func Decode(body []byte, dst interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Error{Message: "Request body is required"}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &Error{Message: decodeMessage(err)}
	}
	if dec.More() {
		return &Error{Message: "Request body must contain a single JSON object"}
	}
	return nil
}

// Struct runs the validate tags of v.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &Error{Message: "Validation failed", Fields: ToFieldErrors(ve)}
	}
	return err
}

// Bind decodes then validates.
func Bind(body []byte, dst interface{}) error {
	if err := Decode(body, dst); err != nil {
		return err
	}
	return Struct(dst)
}

// IsValidEmail checks a single address with the same rule as the `email` tag.
func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("Field %s has an invalid type", typeErr.Field)
		}
		return "Request body must be a JSON object"
	case errors.As(err, &syntaxErr):
		return "Malformed JSON"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return "Invalid request body"
	}
}

// ToFieldErrors maps validator errors to readable messages.
func ToFieldErrors(ve validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		var msg string
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be a valid email address"
		case "uuid", "uuid4":
			msg = "must be a valid identifier"
		case "otp":
			msg = "must be a six-digit code"
		case "gt":
			msg = "must be greater than " + e.Param()
		case "gte":
			msg = "must be greater than or equal to " + e.Param()
		case "lte":
			msg = "must be less than or equal to " + e.Param()
		case "min":
			msg = "must be at least " + e.Param() + " long"
		case "max":
			msg = "must be at most " + e.Param() + " long"
		case "oneof":
			msg = "must be one of: " + e.Param()
		case "url":
			msg = "must be a valid URL"
		default:
			msg = e.Tag() + " validation failed"
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}
