package handlers

import (
	"reflect"
	"regexp"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
)

// Resource names are RFC 1123 labels: they end up in Kubernetes object names
// created by adapters.
var namePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// field returns the named field of the struct i points to, dereferencing
// pointers. ok is false for nil pointers.
func field(i interface{}, fieldName string) (value reflect.Value, ok bool) {
	value = reflect.ValueOf(i).Elem().FieldByName(fieldName)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return value, false
		}
		value = value.Elem()
	}
	return value, value.IsValid()
}

func requiredString(i interface{}, fieldName, name string) (string, *errors.ServiceError) {
	value, ok := field(i, fieldName)
	if !ok || value.String() == "" {
		return "", errors.Validation("%s is required", name)
	}
	return value.String(), nil
}

func validateNotEmpty(i interface{}, fieldName string, field string) validate {
	return func() *errors.ServiceError {
		_, err := requiredString(i, fieldName, field)
		return err
	}
}

//nolint:unparam // every create request names its field Name
func validateName(i interface{}, fieldName string, field string, minLen, maxLen int) validate {
	return func() *errors.ServiceError {
		name, err := requiredString(i, fieldName, field)
		switch {
		case err != nil:
			return err
		case len(name) < minLen:
			return errors.Validation("%s must be at least %d characters", field, minLen)
		case len(name) > maxLen:
			return errors.Validation("%s must be at most %d characters", field, maxLen)
		case !namePattern.MatchString(name):
			return errors.Validation("%s must start and end with lowercase letter or number, and contain only "+
				"lowercase letters, numbers, and hyphens", field)
		}
		return nil
	}
}

//nolint:unparam // every create request names its field Kind
func validateKind(i interface{}, fieldName string, field string, expectedKind string) validate {
	return func() *errors.ServiceError {
		kind, err := requiredString(i, fieldName, field)
		if err != nil {
			return err
		}
		if kind != expectedKind {
			return errors.Validation("%s must be '%s'", field, expectedKind)
		}
		return nil
	}
}

// validateSpec requires the spec to be present. An empty object is a valid spec.
func validateSpec(i interface{}, fieldName string, name string) validate {
	return func() *errors.ServiceError {
		value, ok := field(i, fieldName)
		if !ok || value.IsNil() {
			return errors.Validation("%s is required", name)
		}
		return nil
	}
}
