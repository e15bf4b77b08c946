// Package validation configures the go-playground validator used by gin's
// request binding and turns its errors into field-scoped messages.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	setupOnce     sync.Once
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ReservedUsername cannot be registered because /users/me is a route
const ReservedUsername = "me"

// Setup registers the custom rules on gin's binding validator.
// It is safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Register(v)
		}
	})
}

// Register adds the Foodgram rules to v and makes field errors report JSON names
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("username", validateUsername)
	_ = v.RegisterValidation("slug", validateSlug)
}

// jsonFieldName reports the json tag instead of the Go field name
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value != ReservedUsername && usernameRegex.MatchString(value)
}

func validateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

// errorMessages maps validation tags to message templates with the parameter as %s
var errorMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"username": "Enter a valid username: letters, digits and @/./+/-/_ only, and not \"me\".",
	"hexcolor": "Enter a valid hex color, e.g. #FF0000.",
	"slug":     "Enter a valid slug: letters, digits, underscores or hyphens.",
	"min":      "Ensure this field has at least %s characters.",
	"max":      "Ensure this field has no more than %s characters.",
	"gte":      "Ensure this value is greater than or equal to %s.",
	"lte":      "Ensure this value is less than or equal to %s.",
}

// FieldErrors converts a binding error into a map of field name to message
func FieldErrors(err error) map[string]interface{} {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]interface{}, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = translate(fe)
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return map[string]interface{}{typeErr.Field: fmt.Sprintf("Expected a value of type %s.", typeErr.Type)}
	}

	return map[string]interface{}{"non_field_errors": "Malformed request body."}
}

func translate(fe validator.FieldError) string {
	template, ok := errorMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, fe.Param())
	}
	return template
}
