package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mikioh/tcp"
	"github.com/mikioh/tcpinfo"

	"github.com/ofonogo/core/internal/metrics"
	"github.com/ofonogo/core/internal/modem"
)

// TCPDialer opens an AT-over-TCP connection to a modem emulator or
// soft-modem dev server, the role src/emulator.c plays for a build
// without real hardware attached.
type TCPDialer struct {
	Address string
	Timeout time.Duration
}

func (d TCPDialer) Dial(ctx context.Context) (modem.Transport, error) {
	if d.Address == "" {
		return nil, fmt.Errorf("transport: TCPDialer: address required")
	}

	dialer := &net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %q: %w", d.Address, err)
	}

	tc, err := tcp.NewConn(conn)
	if err != nil {
		// Not every net.Conn (e.g. in tests against a pipe) wraps a raw
		// TCP socket tcp.NewConn can introspect; fall back to the plain
		// connection rather than failing the dial over missing TCP_INFO.
		return &tcpTransport{Conn: conn}, nil
	}

	return &tcpTransport{Conn: conn, tc: tc}, nil
}

// tcpTransport wraps a net.Conn and, when available, samples TCP_INFO
// (round-trip time only) into internal/metrics on each poll
// interval read, giving the emulator backend the same connection-health
// visibility the original driver gets for free from the AT layer's own
// signal-quality query on real hardware.
type tcpTransport struct {
	net.Conn
	tc *tcp.Conn
}

// SampleInfo reads the current TCP_INFO and gauges it, called
// periodically by internal/modem's poll loop rather than per-byte.
func (t *tcpTransport) SampleInfo() {
	if t.tc == nil {
		return
	}
	var o tcpinfo.Info
	var buf [256]byte
	i, err := t.tc.Option(o.Level(), o.Name(), buf[:])
	if err != nil {
		return
	}
	info, ok := i.(*tcpinfo.Info)
	if !ok {
		return
	}
	metrics.TCPRoundTrip.Set(info.RTT.Seconds())
}
