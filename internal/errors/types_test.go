package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorChaining(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewExternalError(ErrCodeIndexFailure, "vector index query failed", cause)

	assert.Equal(t, "vector index query failed: connection refused", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.HTTPCode)
	assert.True(t, errors.Is(err, cause))
}

func TestIsCode(t *testing.T) {
	err := NewClientError(ErrCodeEmptyDocument, "no text extracted from document")

	assert.True(t, IsCode(err, ErrCodeEmptyDocument))
	assert.False(t, IsCode(err, ErrCodeDecodeError))
	assert.False(t, IsCode(nil, ErrCodeEmptyDocument))

	// 包装后依然可以识别错误码
	wrapped := fmt.Errorf("document rejected: %w", err)
	assert.True(t, IsCode(wrapped, ErrCodeEmptyDocument))
}

func TestAsAppErrorWrapsPlainError(t *testing.T) {
	plain := errors.New("boom")
	appErr := AsAppError(plain)

	assert.Equal(t, ErrCodeInternalServer, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPCode)
	assert.True(t, errors.Is(appErr, plain))

	assert.Nil(t, AsAppError(nil))
}
