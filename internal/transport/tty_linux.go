//go:build linux

package transport

import (
	"context"
	"fmt"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"

	"github.com/ofonogo/core/internal/modem"
)

// termios2 mirrors Linux's struct termios2 (asm-generic/termbits.h), the
// wider form TCGETS2/TCSETS2 operate on so an arbitrary baud rate can be
// set via BOTHER instead of the fixed B9600/B115200/... table.
type termios2 struct {
	Iflag  uint32
	Oflag  uint32
	Cflag  uint32
	Lflag  uint32
	Line   byte
	Cc     [19]byte
	ISpeed uint32
	OSpeed uint32
}

const (
	bother = 0o010000 // BOTHER, asm-generic/termbits.h

	cs8    = 0o000060 // CS8
	clocal = 0o004000
	cread  = 0o000200

	// Modem control lines, linux/termios.h.
	tiocmRTS = 0x004
	tiocmDTR = 0x002
)

var (
	tcgets2 = ioctl.IOR('T', 0x2A, unsafe.Sizeof(termios2{}))
	tcsets2 = ioctl.IOW('T', 0x2B, unsafe.Sizeof(termios2{}))
	tiocmbis = uintptr(0x5416)
	tiocmbic = uintptr(0x5417)
)

// TTYDialer opens a modem's serial device directly via syscall.Open and
// raw TCGETS2/TCSETS2 ioctls instead of go.bug.st/serial, for modem
// families whose driver needs RTS/DTR toggling (a hard modem reset) that
// go.bug.st/serial does not expose.
type TTYDialer struct {
	Device   string
	BaudRate int

	// ResetOnOpen toggles DTR/RTS low then high before the first AT
	// command is sent, mirroring a power-on modem reset some USB modem
	// sticks require before they respond to anything.
	ResetOnOpen bool
}

// ttyTransport wraps the open fd; it implements modem.Transport
// (io.ReadWriteCloser).
type ttyTransport struct {
	fd     int
	closed atomic.Bool
}

func (d TTYDialer) Dial(ctx context.Context) (modem.Transport, error) {
	if d.Device == "" {
		return nil, fmt.Errorf("transport: TTYDialer: device path required")
	}
	if ctx == nil {
		return nil, fmt.Errorf("transport: TTYDialer: nil context")
	}

	type result struct {
		fd  int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		fd, err := syscall.Open(d.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
		ch <- result{fd, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			r := <-ch
			if r.err == nil {
				_ = syscall.Close(r.fd)
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("transport: opening %q: %w", d.Device, r.err)
		}
		t := &ttyTransport{fd: r.fd}
		if err := t.makeRaw(d.BaudRate); err != nil {
			_ = t.Close()
			return nil, fmt.Errorf("transport: configuring %q: %w", d.Device, err)
		}
		if d.ResetOnOpen {
			t.resetModemLines()
		}
		return t, nil
	}
}

func (t *ttyTransport) makeRaw(baud int) error {
	var tio termios2
	if err := ioctl.Ioctl(uintptr(t.fd), tcgets2, uintptr(unsafe.Pointer(&tio))); err != nil {
		return err
	}

	tio.Iflag = 0
	tio.Oflag = 0
	tio.Lflag = 0
	tio.Cflag = (tio.Cflag &^ 0o777777) | cs8 | clocal | cread
	tio.Cc[5] = 0 // VTIME
	tio.Cc[6] = 1 // VMIN

	if baud > 0 {
		tio.Cflag = (tio.Cflag &^ 0o10017) | bother
		tio.ISpeed = uint32(baud)
		tio.OSpeed = uint32(baud)
	}

	return ioctl.Ioctl(uintptr(t.fd), tcsets2, uintptr(unsafe.Pointer(&tio)))
}

// resetModemLines drops then raises DTR/RTS, the ioctl equivalent of the
// original driver's power-cycle reset for modems that wedge on open.
func (t *ttyTransport) resetModemLines() {
	lines := uint32(tiocmDTR | tiocmRTS)
	_ = ioctl.Ioctl(uintptr(t.fd), tiocmbic, uintptr(unsafe.Pointer(&lines)))
	time.Sleep(50 * time.Millisecond)
	_ = ioctl.Ioctl(uintptr(t.fd), tiocmbis, uintptr(unsafe.Pointer(&lines)))
}

func (t *ttyTransport) Read(p []byte) (int, error) {
	if t.closed.Load() {
		return 0, fmt.Errorf("transport: tty closed")
	}
	if err := poll.WaitInput(t.fd, -1); err != nil {
		return 0, err
	}
	return syscall.Read(t.fd, p)
}

func (t *ttyTransport) Write(p []byte) (int, error) {
	if t.closed.Load() {
		return 0, fmt.Errorf("transport: tty closed")
	}
	return syscall.Write(t.fd, p)
}

func (t *ttyTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	return syscall.Close(t.fd)
}
