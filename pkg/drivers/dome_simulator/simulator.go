// Package dome_simulator emulates a dome controller on the device side of
// the serial link. It speaks the same line protocol as the real firmware,
// so the full driver stack can run against it without hardware.
package dome_simulator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Simulator produces in-memory dome devices. Each Dial starts a fresh
// session over a pipe; the returned end plugs into the driver's transport.
type Simulator struct {
	// SlewRate is the emulated motion speed in degrees per second.
	SlewRate float64
	// ShutterDelay is how long the shutter takes to open or close.
	ShutterDelay time.Duration
	// HomePosition is where the home sensor sits, in degrees.
	HomePosition float64

	logger log.FieldLogger
}

func New(logger log.FieldLogger) *Simulator {
	return &Simulator{
		SlewRate:     120,
		ShutterDelay: 500 * time.Millisecond,
		HomePosition: 0,
		logger:       logger.WithField("component", "simulator"),
	}
}

// Dial starts a new simulated device session.
func (s *Simulator) Dial() (io.ReadWriteCloser, error) {
	host, dev := net.Pipe()

	sess := &session{
		conn:    dev,
		rate:    s.SlewRate,
		shutter: s.ShutterDelay,
		home:    s.HomePosition,
		logger:  s.logger,
	}
	go sess.run()

	return host, nil
}

// session is one simulated device instance. The firmware reports only
// terminal events: a position once motion stops, never while moving.
type session struct {
	conn    net.Conn
	rate    float64
	shutter time.Duration
	home    float64
	logger  log.FieldLogger

	mu      sync.Mutex
	azimuth float64
	pending *time.Timer
	closed  bool
}

func (s *session) run() {
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		// Wait for the session to end, then tear the pipe down.
		<-ctx.Done()
		s.mu.Lock()
		s.closed = true
		if s.pending != nil {
			s.pending.Stop()
		}
		s.mu.Unlock()
		return s.conn.Close()
	})

	g.Go(func() error {
		scanner := bufio.NewScanner(s.conn)
		for scanner.Scan() {
			s.handleCommand(strings.TrimSpace(scanner.Text()))
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		// The host hung up; report EOF so the teardown goroutine runs.
		return io.EOF
	})

	if err := g.Wait(); err != nil && err != io.EOF && err != io.ErrClosedPipe {
		s.logger.Debugf("Session ended: %v", err)
	}
}

func (s *session) handleCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	s.logger.Debugf("Command: %s", line)

	switch fields[0] {
	case "Abort":
		s.abortMotion()
	case "OpenShutter":
		s.after(s.shutter, func() { s.reply("SHUTTER OPEN") })
	case "CloseShutter":
		s.after(s.shutter, func() { s.reply("SHUTTER CLOSED") })
	case "FindHome":
		s.startMotion(s.home, func() {
			s.reply(fmt.Sprintf("HOMED %d", int(s.home)))
		})
	case "Park":
		target, ok := argField(fields)
		if !ok {
			return
		}
		s.startMotion(target, func() {
			s.reply(fmt.Sprintf("P %s", formatAz(target)))
			s.reply("PARKED")
		})
	case "Slew":
		target, ok := argField(fields)
		if !ok {
			return
		}
		s.startMotion(target, func() {
			s.reply(fmt.Sprintf("P %s", formatAz(target)))
		})
	case "SyncToAzimuth":
		target, ok := argField(fields)
		if !ok {
			return
		}
		s.mu.Lock()
		s.azimuth = target
		s.mu.Unlock()
		s.reply("SYNCED")
	}
}

// startMotion schedules the terminal report after a travel time derived
// from the angular distance. A new command preempts the previous one.
func (s *session) startMotion(target float64, done func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dist := math.Abs(target - s.azimuth)
	if dist > 180 {
		dist = 360 - dist
	}
	travel := time.Duration(dist / s.rate * float64(time.Second))

	if s.pending != nil {
		s.pending.Stop()
	}
	s.pending = time.AfterFunc(travel, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.azimuth = target
		s.mu.Unlock()
		done()
	})
}

func (s *session) abortMotion() {
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	az := s.azimuth
	s.mu.Unlock()

	s.reply(fmt.Sprintf("P %s", formatAz(az)))
}

func (s *session) after(d time.Duration, f func()) {
	time.AfterFunc(d, func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			f()
		}
	})
}

func (s *session) reply(line string) {
	if _, err := s.conn.Write([]byte(line + "\n")); err != nil {
		s.logger.Debugf("Write failed: %v", err)
	}
}

func argField(fields []string) (float64, bool) {
	if len(fields) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatAz(az float64) string {
	return strconv.FormatFloat(az, 'f', -1, 64)
}
