// SPDX-License-Identifier: MIT

package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(KindTransient, "list", "/a/b", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindTransient))
	assert.False(t, Is(err, KindFatal))
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestError_Message(t *testing.T) {
	err := New(KindNotFound, "move", "/x", errors.New("missing"))
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "move")
	assert.Contains(t, err.Error(), "/x")
}

func TestKindOf_NonAppError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestRetryableDefaults(t *testing.T) {
	assert.True(t, New(KindRateLimit, "list", "", nil).Retryable)
	assert.True(t, New(KindTransient, "list", "", nil).Retryable)
	assert.False(t, New(KindConfiguration, "list", "", nil).Retryable)
}
