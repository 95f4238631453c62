package serialdome

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultOperationTimeout bounds how long an operation waits for the
// device to report the state change that completes it.
const DefaultOperationTimeout = 90 * time.Second

// StatusCallback is invoked with a fresh snapshot after every applied
// telemetry event.
type StatusCallback func(Status)

// Dome drives a dome controller over a line-oriented serial protocol.
//
// Each operation follows the same shape: check preconditions, set the
// in-progress flag, send the command, then wait until the status predicate
// that defines "done" holds. The receive side runs independently on the
// transport's read goroutine, parsing telemetry lines and folding them
// into the shared status record; operation waits block on that record's
// condition rather than polling.
type Dome struct {
	transport *Transport
	status    *state
	timeout   time.Duration
	onStatus  StatusCallback
	logger    log.FieldLogger

	// azMu serializes operations that share the azimuth motion axis
	// (Slew, Sync, FindHome, Park). AbortSlew deliberately bypasses it
	// so it can interrupt a wait in progress.
	azMu sync.Mutex
}

// Option configures a Dome.
type Option func(*Dome)

// WithTimeout overrides the per-operation completion timeout.
func WithTimeout(d time.Duration) Option {
	return func(dm *Dome) { dm.timeout = d }
}

// WithStatusCallback registers a callback fired after every applied event.
func WithStatusCallback(cb StatusCallback) Option {
	return func(dm *Dome) { dm.onStatus = cb }
}

// NewDome creates a dome controller over the given link. The returned dome
// is not connected until Connect is called.
func NewDome(dialer Dialer, logger log.FieldLogger, opts ...Option) *Dome {
	d := &Dome{
		status:  newState(),
		timeout: DefaultOperationTimeout,
		logger:  logger.WithField("component", "dome"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.transport = NewTransport(dialer, d.handleLine, d.handleLinkDown, logger)
	return d
}

// Connect opens the serial link and resets the status record. The record
// is reset before the read loop starts so no event lands on stale state.
func (d *Dome) Connect() error {
	d.status.reset(true)
	if err := d.transport.Open(); err != nil {
		d.status.reset(false)
		return err
	}
	return nil
}

// Disconnect closes the link and drops the status record back to its
// initial snapshot. Any operation still waiting fails with ErrLinkDown.
func (d *Dome) Disconnect() error {
	err := d.transport.Close()
	d.status.reset(false)
	return err
}

// Connected reports whether the serial link is up.
func (d *Dome) Connected() bool {
	return d.status.snapshot().Link
}

// Status returns a consistent snapshot of the device state.
func (d *Dome) Status() Status {
	return d.status.snapshot()
}

// SetReferencePositions seeds the home and park positions, typically from
// persisted configuration right after connecting.
func (d *Dome) SetReferencePositions(home, park float64) {
	d.status.update(func(st *Status) {
		st.HomePosition = home
		st.ParkPosition = park
	})
}

// SetSlaved records whether dome motion is driven externally. Homing is
// refused while slaved.
func (d *Dome) SetSlaved(slaved bool) error {
	if !d.Connected() {
		return ErrNotConnected
	}
	d.status.update(func(st *Status) { st.Slaved = slaved })
	return nil
}

// handleLine runs on the transport's read goroutine: parse, apply, notify.
func (d *Dome) handleLine(line string) {
	ev := ParseEvent(line)
	if u, ok := ev.(UnknownEvent); ok {
		d.logger.Debugf("Ignoring line: %q", u.Raw)
		return
	}

	d.status.apply(ev)
	if d.onStatus != nil {
		d.onStatus(d.status.snapshot())
	}
}

func (d *Dome) handleLinkDown() {
	d.status.linkLost()
}

// send encodes and writes one command.
func (d *Dome) send(cmd Command) error {
	d.logger.Debugf("Sending %s", cmd.Op)
	return d.transport.Send(cmd.Encode())
}

// AbortSlew stops dome motion. It is fire-and-forget: there is no
// completion event to wait for. Any operation blocked on the azimuth axis
// is woken and fails with ErrAborted, and slaving is dropped.
func (d *Dome) AbortSlew() error {
	if !d.Connected() {
		return ErrNotConnected
	}

	if err := d.send(NewCommand(OpAbort)); err != nil {
		return err
	}

	d.status.update(func(st *Status) {
		st.Slewing = false
		st.Slaved = false
	})
	d.status.abort()
	return nil
}

// OpenShutter opens the shutter and waits for the terminal report.
// Opening an already open shutter completes as soon as the device repeats
// SHUTTER OPEN.
func (d *Dome) OpenShutter() error {
	if !d.Connected() {
		return ErrNotConnected
	}

	d.status.update(func(st *Status) { st.Shutter = ShutterOpening })
	if err := d.send(NewCommand(OpOpenShutter)); err != nil {
		return err
	}

	err := d.status.wait(d.timeout, func(st Status) bool {
		return st.Shutter != ShutterOpening
	})
	if err == ErrTimeout {
		d.status.update(func(st *Status) { st.Shutter = ShutterError })
	}
	return err
}

// CloseShutter closes the shutter and waits while the phase is still
// Closing. The previous generation of this driver waited while the phase
// was Closed, which made closing an already closed shutter hang; the
// corrected predicate makes it a cheap round trip instead.
func (d *Dome) CloseShutter() error {
	if !d.Connected() {
		return ErrNotConnected
	}

	d.status.update(func(st *Status) { st.Shutter = ShutterClosing })
	if err := d.send(NewCommand(OpCloseShutter)); err != nil {
		return err
	}

	err := d.status.wait(d.timeout, func(st Status) bool {
		return st.Shutter != ShutterClosing
	})
	if err == ErrTimeout {
		d.status.update(func(st *Status) { st.Shutter = ShutterError })
	}
	return err
}

// FindHome slews until the home sensor trips and waits for the HOMED
// report. Refused while slaved, since homing fights external control.
func (d *Dome) FindHome() error {
	if !d.Connected() {
		return ErrNotConnected
	}
	if d.Status().Slaved {
		return ErrSlaved
	}

	d.azMu.Lock()
	defer d.azMu.Unlock()

	d.status.update(func(st *Status) {
		st.AtHome = false
		st.Slewing = true
	})
	if err := d.send(NewCommand(OpFindHome)); err != nil {
		d.clearSlewing()
		return err
	}

	err := d.status.wait(d.timeout, func(st Status) bool { return st.AtHome })
	if err != nil {
		d.clearSlewing()
	}
	return err
}

// Park slews to the stored park position and waits for the PARKED report.
func (d *Dome) Park() error {
	if !d.Connected() {
		return ErrNotConnected
	}

	d.azMu.Lock()
	defer d.azMu.Unlock()

	park := d.Status().ParkPosition
	if err := d.send(NewCommandArg(OpPark, park)); err != nil {
		return err
	}

	return d.status.wait(d.timeout, func(st Status) bool { return st.AtPark })
}

// SetPark records the current azimuth as the park position. Local only;
// no command is sent.
func (d *Dome) SetPark() error {
	if !d.Connected() {
		return ErrNotConnected
	}

	d.status.update(func(st *Status) { st.ParkPosition = st.Azimuth })
	return nil
}

// SlewToAzimuth moves the dome to the given azimuth in degrees and waits
// until the device reports the motion finished.
func (d *Dome) SlewToAzimuth(azimuth float64) error {
	if !d.Connected() {
		return ErrNotConnected
	}
	if azimuth < 0 || azimuth > 360 {
		return ErrOutOfRange
	}

	d.azMu.Lock()
	defer d.azMu.Unlock()

	d.status.update(func(st *Status) { st.Slewing = true })
	if err := d.send(NewCommandArg(OpSlew, azimuth)); err != nil {
		d.clearSlewing()
		return err
	}

	err := d.status.wait(d.timeout, func(st Status) bool { return !st.Slewing })
	if err != nil {
		d.clearSlewing()
	}
	return err
}

// SyncToAzimuth recalibrates the device's position counter to the given
// azimuth and waits for the SYNCED acknowledgement.
func (d *Dome) SyncToAzimuth(azimuth float64) error {
	if !d.Connected() {
		return ErrNotConnected
	}
	if azimuth < 0 || azimuth > 360 {
		return ErrOutOfRange
	}

	d.azMu.Lock()
	defer d.azMu.Unlock()

	d.status.update(func(st *Status) { st.Synced = false })
	if err := d.send(NewCommandArg(OpSyncToAzimuth, azimuth)); err != nil {
		return err
	}

	return d.status.wait(d.timeout, func(st Status) bool { return st.Synced })
}

// clearSlewing drops the in-progress flag after a failed wait so a retry
// starts from a clean state.
func (d *Dome) clearSlewing() {
	d.status.update(func(st *Status) { st.Slewing = false })
}
