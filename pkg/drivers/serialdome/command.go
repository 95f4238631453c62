package serialdome

import "strconv"

// Opcode identifies an outbound command understood by the dome controller
// firmware.
type Opcode int

const (
	OpAbort Opcode = iota
	OpOpenShutter
	OpCloseShutter
	OpFindHome
	OpPark
	OpSlew
	OpSyncToAzimuth
)

// wire tokens, as accepted by the firmware
var opcodeTokens = map[Opcode]string{
	OpAbort:         "Abort",
	OpOpenShutter:   "OpenShutter",
	OpCloseShutter:  "CloseShutter",
	OpFindHome:      "FindHome",
	OpPark:          "Park",
	OpSlew:          "Slew",
	OpSyncToAzimuth: "SyncToAzimuth",
}

func (o Opcode) String() string {
	if tok, ok := opcodeTokens[o]; ok {
		return tok
	}
	return "Unknown"
}

// Command is a single outbound instruction for the dome controller. It is
// built per call and consumed once by the transport.
type Command struct {
	Op     Opcode
	Arg    float64
	HasArg bool
}

// NewCommand returns an argument-less command.
func NewCommand(op Opcode) Command {
	return Command{Op: op}
}

// NewCommandArg returns a command carrying a numeric argument.
func NewCommandArg(op Opcode, arg float64) Command {
	return Command{Op: op, Arg: arg, HasArg: true}
}

// Encode renders the command as a single wire line, without the trailing
// newline. The argument is always formatted with a dot decimal separator;
// the firmware does not understand locale-specific numbers.
func (c Command) Encode() string {
	line := c.Op.String()
	if c.HasArg {
		line += " " + strconv.FormatFloat(c.Arg, 'f', -1, 64)
	}
	return line
}
