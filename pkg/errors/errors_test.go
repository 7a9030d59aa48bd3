package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerErrorMessage(t *testing.T) {
	err := NewNetwork("engine", "fetch failed", stderrors.New("connection refused"))
	assert.Equal(t, "[network] engine: fetch failed - connection refused", err.Error())

	err = NewValidation("normalizer", "missing field name")
	assert.Equal(t, "[validation] normalizer: missing field name", err.Error())
}

func TestCityNotFoundNamesCity(t *testing.T) {
	err := NewCityNotFound("spider", "Краснодар")
	assert.Contains(t, err.Error(), "Краснодар")
	assert.True(t, err.IsFatal())
	assert.False(t, err.IsRetryable())
}

func TestClassificationThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("page 3: %w", NewNetwork("engine", "timeout", nil))
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.Equal(t, ErrorTypeNetwork, TypeOf(wrapped))

	cfgErr := fmt.Errorf("startup: %w", NewConfiguration("at least 3 urls must be provided", nil))
	assert.True(t, IsFatal(cfgErr))

	assert.Equal(t, ErrorType("unknown"), TypeOf(stderrors.New("plain")))
	assert.False(t, IsFatal(stderrors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("cause")
	err := NewStorage("store", "upsert failed", cause)
	assert.ErrorIs(t, err, cause)
}
