package serialdome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{
			name:     "Abort has no argument",
			cmd:      NewCommand(OpAbort),
			expected: "Abort",
		},
		{
			name:     "OpenShutter",
			cmd:      NewCommand(OpOpenShutter),
			expected: "OpenShutter",
		},
		{
			name:     "CloseShutter",
			cmd:      NewCommand(OpCloseShutter),
			expected: "CloseShutter",
		},
		{
			name:     "FindHome",
			cmd:      NewCommand(OpFindHome),
			expected: "FindHome",
		},
		{
			name:     "Park carries the park position",
			cmd:      NewCommandArg(OpPark, 45),
			expected: "Park 45",
		},
		{
			name:     "Slew renders whole degrees without a decimal point",
			cmd:      NewCommandArg(OpSlew, 180),
			expected: "Slew 180",
		},
		{
			name:     "Slew keeps fractional degrees",
			cmd:      NewCommandArg(OpSlew, 123.5),
			expected: "Slew 123.5",
		},
		{
			name:     "SyncToAzimuth",
			cmd:      NewCommandArg(OpSyncToAzimuth, 270.25),
			expected: "SyncToAzimuth 270.25",
		},
		{
			name:     "Zero argument is still rendered",
			cmd:      NewCommandArg(OpSlew, 0),
			expected: "Slew 0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cmd.Encode())
		})
	}
}
