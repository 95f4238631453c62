package alpaca

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const discoveryPort = "32227"

// DiscoveryResponder answers Alpaca discovery broadcasts with the port the
// API server listens on.
type DiscoveryResponder struct {
	addr     string
	response string
	logger   log.FieldLogger
}

// NewDiscoveryResponder creates a discovery responder bound to addr.
func NewDiscoveryResponder(addr string, port int, logger log.FieldLogger) (*DiscoveryResponder, error) {
	return &DiscoveryResponder{
		addr:     addr,
		response: fmt.Sprintf(`{"AlpacaPort": %d}`, port),
		logger:   logger,
	}, nil
}

func (d *DiscoveryResponder) Run(ctx context.Context) error {
	buf := make([]byte, 1024)

	deviceAddress, err := net.ResolveUDPAddr("udp", net.JoinHostPort(d.addr, discoveryPort))
	if err != nil {
		return fmt.Errorf("cannot resolve device address: %v", err)
	}

	rSock, err := net.ListenUDP("udp", deviceAddress)
	if err != nil {
		return fmt.Errorf("cannot bind receive socket: %v", err)
	}
	defer rSock.Close()

	// Send socket bound to addr and an ephemeral port
	localAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(d.addr, "0"))
	if err != nil {
		return err
	}

	tSock, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return fmt.Errorf("cannot bind send socket: %v", err)
	}
	defer tSock.Close()

	d.logger.Debugf("Discovery responder started on %s", deviceAddress.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			// Read deadline so context cancellation is noticed
			rSock.SetReadDeadline(time.Now().Add(1 * time.Second))

			n, addr, err := rSock.ReadFromUDP(buf)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				d.logger.Debugf("Error reading from socket: %v", err)
				continue
			}

			data := string(buf[:n])
			d.logger.Debugf("Received %s from %s", data, addr.String())

			if strings.Contains(data, "alpacadiscovery1") {
				if _, err := tSock.WriteToUDP([]byte(d.response), addr); err != nil {
					d.logger.Errorf("Error writing to socket: %v", err)
				}
			}
		}
	}
}
