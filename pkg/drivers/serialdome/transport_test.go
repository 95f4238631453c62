package serialdome

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportDeliversLinesInOrder(t *testing.T) {
	host, dev := net.Pipe()

	var mu sync.Mutex
	var got []string
	tr := NewTransport(pipeDialer{conn: host}, func(line string) {
		mu.Lock()
		got = append(got, line)
		mu.Unlock()
	}, func() {}, log.StandardLogger())

	require.NoError(t, tr.Open())
	defer tr.Close()

	for i := 0; i < 5; i++ {
		_, err := dev.Write([]byte(fmt.Sprintf("P %d\n", i)))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"P 0", "P 1", "P 2", "P 3", "P 4"}, got)
}

func TestTransportSendAppendsNewline(t *testing.T) {
	host, dev := net.Pipe()

	tr := NewTransport(pipeDialer{conn: host}, func(string) {}, func() {}, log.StandardLogger())
	require.NoError(t, tr.Open())
	defer tr.Close()

	buf := make([]byte, 64)
	done := make(chan string, 1)
	go func() {
		n, _ := dev.Read(buf)
		done <- string(buf[:n])
	}()

	require.NoError(t, tr.Send("Slew 90"))
	assert.Equal(t, "Slew 90\n", <-done)
}

func TestTransportSendWhileClosed(t *testing.T) {
	host, _ := net.Pipe()
	tr := NewTransport(pipeDialer{conn: host}, func(string) {}, func() {}, log.StandardLogger())

	assert.ErrorIs(t, tr.Send("Abort"), ErrLinkDown)
}

func TestTransportCloseIsIdempotent(t *testing.T) {
	host, dev := net.Pipe()
	go func() {
		// Drain so Close is not blocked by an unread write.
		buf := make([]byte, 64)
		for {
			if _, err := dev.Read(buf); err != nil {
				return
			}
		}
	}()

	downs := 0
	tr := NewTransport(pipeDialer{conn: host}, func(string) {}, func() { downs++ }, log.StandardLogger())
	require.NoError(t, tr.Open())

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	assert.Equal(t, 1, downs)
	assert.ErrorIs(t, tr.Send("Abort"), ErrLinkDown)
}

func TestTransportNoLinesAfterClose(t *testing.T) {
	host, dev := net.Pipe()

	var mu sync.Mutex
	count := 0
	tr := NewTransport(pipeDialer{conn: host}, func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	}, func() {}, log.StandardLogger())

	require.NoError(t, tr.Open())
	require.NoError(t, tr.Close())

	// Writes to a closed pipe fail; either way no notification may arrive.
	dev.Write([]byte("P 1\n"))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestTransportDownCallbackOnPeerClose(t *testing.T) {
	host, dev := net.Pipe()

	down := make(chan struct{})
	tr := NewTransport(pipeDialer{conn: host}, func(string) {}, func() { close(down) }, log.StandardLogger())
	require.NoError(t, tr.Open())
	defer tr.Close()

	dev.Close()

	select {
	case <-down:
	case <-time.After(time.Second):
		t.Fatal("down callback not invoked after peer close")
	}
}

func TestSerialDialerUnavailable(t *testing.T) {
	dialer := SerialDialer{Port: "/dev/does-not-exist", Baud: 9600}
	_, err := dialer.Dial()
	assert.ErrorIs(t, err, ErrLinkUnavailable)
}
