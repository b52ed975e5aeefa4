package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorTranslatesStorageSentinels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"missing", fmt.Errorf("find student: %w", ErrNoRecord), ErrNotFound.Code, http.StatusNotFound},
		{"duplicate", fmt.Errorf("insert book: %w", ErrDuplicateRecord), ErrDuplicateKey.Code, http.StatusBadRequest},
		{"down", fmt.Errorf("ping: %w", ErrStoreDown), ErrStoreUnavailable.Code, http.StatusInternalServerError},
		{"other", errors.New("boom"), ErrInternal.Code, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.Status)
		})
	}
}

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrConflict, "book is not available")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "book is not available", err.Error())
}
