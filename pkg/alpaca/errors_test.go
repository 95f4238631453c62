package alpaca

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorNumber(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not connected", ErrNotConnected, 0x407},
		{"wrapped not connected", fmt.Errorf("connect: %w", ErrNotConnected), 0x407},
		{"invalid value", ErrInvalidValue, 0x401},
		{"not implemented", ErrPropertyNotImplemented, 0x400},
		{"slaved", ErrInvalidWhileSlaved, 0x409},
		{"invalid operation", ErrInvalidOperation, 0x40B},
		{"unknown driver error", fmt.Errorf("boom"), 0x500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, errorNumber(tc.err))
		})
	}
}
