package connectors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectorError(t *testing.T) {
	underlying := errors.New("connection reset")
	err := NewError(ErrorTransport, "beenverified", "search request failed", underlying)

	assert.Equal(t, "connector beenverified [transport]: search request failed: connection reset", err.Error())
	assert.ErrorIs(t, err, underlying)

	wrapped := fmt.Errorf("scan: %w", err)
	assert.Equal(t, ErrorTransport, GetCategory(wrapped))
	assert.True(t, IsTransport(wrapped))
}

func TestGetCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"unsupported", Unsupported("x", "deletion"), ErrorUnsupportedCapability},
		{"missing field", MissingField("x", "state required"), ErrorMissingField},
		{"bare deadline", context.DeadlineExceeded, ErrorTimeout},
		{"plain error", errors.New("boom"), ErrorInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCategory(tt.err))
		})
	}
}

func TestIsTransport(t *testing.T) {
	assert.True(t, IsTransport(NewError(ErrorRateLimited, "x", "slow down", nil)))
	assert.True(t, IsTransport(context.DeadlineExceeded))
	assert.False(t, IsTransport(NewError(ErrorBadData, "x", "garbage", nil)))
}
