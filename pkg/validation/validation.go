package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"farmavida-master/pkg/errutil"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names in errors follow the
// json tag so they match the request body.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		instance = v
	})
	return instance
}

// Fields maps each failing field to the rule it broke.
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}

// Struct validates s and wraps failures as a validation_failed error with
// one detail per field.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	fields := Fields(err)
	if fields == nil {
		return errutil.BadRequest("invalid request", err)
	}

	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	details := make([]errutil.Detail, 0, len(fields))
	for _, field := range names {
		details = append(details, errutil.Detail{Field: field, Message: fields[field]})
	}
	return errutil.ValidationFailed("request validation failed", err,
		errutil.WithReason("validation_failed"),
		errutil.WithDetails(details...),
	)
}
