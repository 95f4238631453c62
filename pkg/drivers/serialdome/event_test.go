package serialdome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Event
	}{
		{
			name:     "Homed with azimuth",
			input:    "HOMED 90",
			expected: HomedEvent{Azimuth: 90},
		},
		{
			name:     "Position report",
			input:    "P 123.5",
			expected: PositionEvent{Azimuth: 123.5},
		},
		{
			name:     "Shutter open",
			input:    "SHUTTER OPEN",
			expected: ShutterEvent{Open: true},
		},
		{
			name:     "Shutter closed",
			input:    "SHUTTER CLOSED",
			expected: ShutterEvent{Open: false},
		},
		{
			name:     "Any non-OPEN shutter payload means closed",
			input:    "SHUTTER SHUT",
			expected: ShutterEvent{Open: false},
		},
		{
			name:     "Synced",
			input:    "SYNCED",
			expected: SyncedEvent{},
		},
		{
			name:     "Parked",
			input:    "PARKED",
			expected: ParkedEvent{},
		},
		{
			name:     "Extra whitespace is tolerated",
			input:    "P   42  ",
			expected: PositionEvent{Azimuth: 42},
		},
		{
			name:     "Unknown token",
			input:    "BATTERY 12.4",
			expected: UnknownEvent{Raw: "BATTERY 12.4"},
		},
		{
			name:     "Homed without azimuth is unknown",
			input:    "HOMED",
			expected: UnknownEvent{Raw: "HOMED"},
		},
		{
			name:     "Position with garbage azimuth is unknown",
			input:    "P north",
			expected: UnknownEvent{Raw: "P north"},
		},
		{
			name:     "Shutter without payload is unknown",
			input:    "SHUTTER",
			expected: UnknownEvent{Raw: "SHUTTER"},
		},
		{
			name:     "Empty line is unknown",
			input:    "",
			expected: UnknownEvent{Raw: ""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseEvent(tc.input))
		})
	}
}
