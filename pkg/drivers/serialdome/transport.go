package serialdome

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	serial "go.bug.st/serial"
)

// Dialer opens the underlying link. The production dialer opens a serial
// port; tests and the simulator hand the transport one end of a pipe.
type Dialer interface {
	Dial() (io.ReadWriteCloser, error)
}

// SerialDialer opens a real serial port via go.bug.st/serial.
type SerialDialer struct {
	Port string
	Baud int
}

func (d SerialDialer) Dial() (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: d.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrLinkUnavailable, d.Port, err)
	}
	return port, nil
}

// Transport owns the serial link. It is the sole writer to the link, and
// it delivers every received newline-delimited line, in arrival order, to
// the line handler on a goroutine distinct from any sender.
type Transport struct {
	dialer Dialer
	onLine func(string)
	onDown func()
	logger log.FieldLogger

	mu     sync.Mutex
	conn   io.ReadWriteCloser
	closed bool
	done   chan struct{}
}

// NewTransport wires a transport to its dialer and callbacks. onLine is
// invoked once per received line; onDown once, when the link stops
// delivering, whether by fault or by Close.
func NewTransport(dialer Dialer, onLine func(string), onDown func(), logger log.FieldLogger) *Transport {
	return &Transport{
		dialer: dialer,
		onLine: onLine,
		onDown: onDown,
		logger: logger.WithField("component", "transport"),
	}
}

// Open acquires the link and starts the read loop.
func (t *Transport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	conn, err := t.dialer.Dial()
	if err != nil {
		return err
	}

	t.conn = conn
	t.closed = false
	t.done = make(chan struct{})
	go t.readLoop(conn, t.done)

	t.logger.Info("Serial link opened")
	return nil
}

// Send writes one command line to the link.
func (t *Transport) Send(line string) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return ErrLinkDown
	}

	t.logger.Debugf("-> %s", line)
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("%w: %v", ErrLinkDown, err)
	}
	return nil
}

// Close shuts the link down. It is idempotent, and no line notifications
// are delivered after it returns.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed || t.conn == nil {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	done := t.done
	t.mu.Unlock()

	err := conn.Close()
	<-done

	t.mu.Lock()
	t.conn = nil
	t.mu.Unlock()

	t.logger.Info("Serial link closed")
	return err
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Transport) readLoop(conn io.Reader, done chan struct{}) {
	defer close(done)
	defer t.onDown()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if t.isClosed() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t.logger.Debugf("<- %s", line)
		t.onLine(line)
	}

	if err := scanner.Err(); err != nil && !t.isClosed() {
		t.logger.Errorf("Read loop terminated: %v", err)
	}
}
