package presets

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/thirtytwobits/the-cmake-preset-matrix/api"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their document keys rather than Go names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a decoded vendor section against the schema rules in the
// api struct tags.
func Validate(vendor *api.Vendor) error {
	err := validate.Struct(vendor)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return configErrorf(vendorField, "%v", err)
	}
	errs := make([]error, 0, len(ves))
	for _, fe := range ves {
		errs = append(errs, &ConfigurationError{Field: fieldPath(fe.Namespace()), Message: describe(fe)})
	}
	return errors.Join(errs...)
}

// fieldPath turns "Vendor.preset-groups[configure].prefix" into
// "vendor.tcpm.preset-groups[configure].prefix".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return vendorField
	}
	return vendorField + "." + rest
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eq":
		if fe.Field() == "version" {
			return fmt.Sprintf("unsupported version %v, expected %s", fe.Value(), fe.Param())
		}
		return fmt.Sprintf("must equal %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("%v is not one of [%s]", fe.Value(), fe.Param())
	case "unique":
		return "has duplicate entries"
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	}
	return fmt.Sprintf("failed the %q check", fe.Tag())
}
