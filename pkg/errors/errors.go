package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the typed failure every handler renders. Code is stable for clients; Status is
// the HTTP status it maps to.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by code so cloned values still compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Duplicate keys and state conflicts are client
// errors that the caller fixes by changing the input, hence 400.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusBadRequest, "conflict")
	ErrDuplicateKey       = New("DUPLICATE_KEY", http.StatusBadRequest, "duplicate key")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrStoreUnavailable   = New("STORE_UNAVAILABLE", http.StatusInternalServerError, "entity store unavailable")
	ErrPartialCascade     = New("PARTIAL_CASCADE", http.StatusInternalServerError, "delete committed but dependent cleanup failed")
)

// Storage sentinels returned by repositories. Services translate them into typed errors.
var (
	ErrNoRecord        = errors.New("record not found")
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrStoreDown       = errors.New("store unavailable")
	ErrCacheMiss       = errors.New("cache miss")
)

// storageKinds maps repository sentinels to the typed error surfaced to clients.
var storageKinds = []struct {
	sentinel error
	kind     *Error
}{
	{ErrNoRecord, ErrNotFound},
	{ErrDuplicateRecord, ErrDuplicateKey},
	{ErrStoreDown, ErrStoreUnavailable},
}

// FromError normalises any error into an *Error. Unknown errors become ErrInternal with
// the original kept as the cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	kind := ErrInternal
	for _, k := range storageKinds {
		if errors.Is(err, k.sentinel) {
			kind = k.kind
			break
		}
	}
	return Wrap(err, kind.Code, kind.Status, kind.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
