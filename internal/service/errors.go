package service

import (
	"errors"

	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

// storeError translates a repository error into the API error taxonomy. entity names the
// resource in NotFound and DuplicateKey messages; action describes the failed operation.
func storeError(err error, entity, action string) error {
	var typed *appErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &typed):
		return typed
	case errors.Is(err, appErrors.ErrNoRecord):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, entity+" not found")
	case errors.Is(err, appErrors.ErrDuplicateRecord):
		return appErrors.Wrap(err, appErrors.ErrDuplicateKey.Code, appErrors.ErrDuplicateKey.Status, entity+" already exists")
	case errors.Is(err, appErrors.ErrStoreDown):
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func conflict(message string) error {
	return appErrors.Clone(appErrors.ErrConflict, message)
}

func notFound(entity string) error {
	return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
}

func forbidden(message string) error {
	return appErrors.Clone(appErrors.ErrForbidden, message)
}

// ownedBy reports Forbidden when a stored entity belongs to a school other than the caller's.
func ownedBy(owner, schoolID, entity string) error {
	if owner != schoolID {
		return forbidden(entity + " belongs to another school")
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, appErrors.ErrNoRecord) || errors.Is(err, appErrors.ErrNotFound)
}

func invalid(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}
