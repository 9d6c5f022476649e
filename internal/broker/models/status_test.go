package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeletionStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want DeletionStatus
	}{
		{"submitted", StatusSubmitted},
		{"IN_PROGRESS", StatusInProgress},
		{"in-progress", StatusInProgress},
		{" completed ", StatusCompleted},
		{"done", StatusCompleted},
		{"denied", StatusRejected},
		{"error", StatusFailed},
		{"queued-for-review", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDeletionStatus(tt.raw))
		})
	}
}

func TestDeletionStatusPredicates(t *testing.T) {
	assert.True(t, StatusSubmitted.IsPollable())
	assert.True(t, StatusInProgress.IsPollable())
	assert.False(t, StatusUnknown.IsPollable())
	assert.False(t, StatusCompleted.IsPollable())

	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusUnknown.IsTerminal())
	assert.False(t, DeletionStatus("bogus").IsValid())
}

func TestBrokerHasDataCountry(t *testing.T) {
	b := Broker{DataCountries: []string{"US", "ca"}}
	assert.True(t, b.HasDataCountry("us"))
	assert.True(t, b.HasDataCountry("CA"))
	assert.False(t, b.HasDataCountry("DE"))
}
