package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	domainErr := ToDomainError(NewForbidden("nope"))
	require.NotNil(t, domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
	assert.Equal(t, http.StatusForbidden, domainErr.HTTPStatus)

	wrapped := fmt.Errorf("loading ticket: %w", pgx.ErrNoRows)
	domainErr = ToDomainError(wrapped)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)

	domainErr = ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)

	assert.Nil(t, ToDomainError(nil))
}

func TestIsCode(t *testing.T) {
	err := NewConflict("already there", nil)
	assert.True(t, IsCode(err, "CONFLICT"))
	assert.False(t, IsCode(err, "NOT_FOUND"))
	assert.False(t, IsCode(errors.New("plain"), "CONFLICT"))

	wrapped := fmt.Errorf("outer: %w", NewValidationError("bad", nil))
	assert.True(t, IsCode(wrapped, "VALIDATION_FAILED"))
}
