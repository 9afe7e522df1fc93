package services

import (
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/errors"
)

func handleGetError(resourceType, field string, value interface{}, err error) *errors.ServiceError {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("%s with %s='%v' not found", resourceType, field, value)
	}
	return errors.DatabaseError("Unable to find %s with %s='%v': %s", resourceType, field, value, err)
}

func handleCreateError(resourceType string, err error) *errors.ServiceError {
	if isUniqueViolation(err) {
		return errors.Conflict("This %s already exists", resourceType)
	}
	return errors.DatabaseError("Unable to create %s: %s", resourceType, err.Error())
}

func handleUpdateError(resourceType string, err error) *errors.ServiceError {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("%s not found", resourceType)
	}
	if isUniqueViolation(err) {
		return errors.Conflict("Changes to %s conflict with existing records", resourceType)
	}
	return errors.DatabaseError("Unable to update %s: %s", resourceType, err.Error())
}

func handleDeleteError(resourceType string, err error) *errors.ServiceError {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("%s not found", resourceType)
	}
	return errors.DatabaseError("Unable to delete %s: %s", resourceType, err.Error())
}

// isUniqueViolation covers both gorm's translated error and the raw postgres one
func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "violates unique constraint") || strings.Contains(msg, "SQLSTATE 23505")
}
