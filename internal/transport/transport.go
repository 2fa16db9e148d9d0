// Package transport provides alternate Dialer implementations for
// internal/modem.Modem beyond the teacher's default go.bug.st/serial
// backend: a raw-ioctl TTY backend for modem families that need direct
// line-discipline/modem-line control, and an AT-over-TCP backend for
// emulators and soft-modem dev setups.
package transport

import (
	"fmt"
	"time"

	"github.com/ofonogo/core/internal/modem"
)

// Backend selects which Dialer implementation Config builds.
type Backend int

const (
	// BackendSerial uses go.bug.st/serial (internal/modem.SerialDialer
	// directly; Config does not wrap it).
	BackendSerial Backend = iota
	// BackendTTY uses the raw-ioctl TTYDialer in this package.
	BackendTTY
	// BackendTCP uses TCPDialer, an AT-over-TCP dialer, in this package.
	BackendTCP
)

// Config selects and parameterizes one of this package's Dialer
// implementations. It intentionally only covers the two non-default
// backends; BackendSerial callers should build modem.SerialDialer
// directly.
type Config struct {
	Backend Backend

	// TTY fields.
	Device   string
	BaudRate int

	// TCP fields.
	Address     string
	DialTimeout time.Duration
}

// Build returns the modem.Dialer c selects. Only BackendTTY and
// BackendTCP are handled here; a caller that wants BackendSerial builds
// modem.SerialDialer directly instead of going through this package.
func (c Config) Build() (modem.Dialer, error) {
	switch c.Backend {
	case BackendTTY:
		return TTYDialer{Device: c.Device, BaudRate: c.BaudRate}, nil
	case BackendTCP:
		return TCPDialer{Address: c.Address, Timeout: c.DialTimeout}, nil
	default:
		return nil, fmt.Errorf("transport: unsupported backend %d for Config.Build (use modem.SerialDialer for BackendSerial)", c.Backend)
	}
}
