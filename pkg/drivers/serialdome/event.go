package serialdome

import (
	"strconv"
	"strings"
)

// Event is a single telemetry record reported by the dome controller.
// The set of variants is closed: new firmware tokens require a new type
// here and a new case in the state mutation switch, rather than silently
// falling through a string table.
type Event interface {
	isEvent()
}

// HomedEvent reports that the dome reached the home sensor.
type HomedEvent struct {
	Azimuth float64
}

// PositionEvent reports the current azimuth.
type PositionEvent struct {
	Azimuth float64
}

// ShutterEvent reports a terminal shutter position. The firmware only ever
// reports fully open or fully closed; the intermediate phases are set by
// the sender when a shutter command is issued.
type ShutterEvent struct {
	Open bool
}

// SyncedEvent acknowledges a SyncToAzimuth command.
type SyncedEvent struct{}

// ParkedEvent reports that the dome reached the park position.
type ParkedEvent struct{}

// UnknownEvent carries a line the parser did not recognize. The link is
// noisy and newer firmware emits extra records; unknown lines are dropped,
// never treated as errors.
type UnknownEvent struct {
	Raw string
}

func (HomedEvent) isEvent()    {}
func (PositionEvent) isEvent() {}
func (ShutterEvent) isEvent()  {}
func (SyncedEvent) isEvent()   {}
func (ParkedEvent) isEvent()   {}
func (UnknownEvent) isEvent()  {}

// ParseEvent maps a received line to an Event. It never fails; lines that
// do not match the protocol become UnknownEvent.
func ParseEvent(line string) Event {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return UnknownEvent{Raw: line}
	}

	switch fields[0] {
	case "HOMED":
		if az, ok := parseAzimuthField(fields); ok {
			return HomedEvent{Azimuth: az}
		}
	case "P":
		if az, ok := parseAzimuthField(fields); ok {
			return PositionEvent{Azimuth: az}
		}
	case "SHUTTER":
		if len(fields) >= 2 {
			return ShutterEvent{Open: fields[1] == "OPEN"}
		}
	case "SYNCED":
		return SyncedEvent{}
	case "PARKED":
		return ParkedEvent{}
	}

	return UnknownEvent{Raw: line}
}

func parseAzimuthField(fields []string) (float64, bool) {
	if len(fields) < 2 {
		return 0, false
	}
	az, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, false
	}
	return az, true
}
