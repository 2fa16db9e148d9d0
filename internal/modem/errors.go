package modem

import "errors"

var (
	// ErrNilContext is returned when a nil context is passed to a function
	// that requires a valid context.
	//
	// This indicates a programming error. All functions that accept a context
	// parameter require a non-nil context, even if it's context.Background().
	ErrNilContext = errors.New("context is nil")

	// ErrMissingPort is returned when attempting to dial a serial connection
	// without specifying a port name.
	//
	// This indicates a configuration error. The PortName field must be set
	// to a valid device path (e.g., "/dev/ttyUSB0", "COM3") before dialing.
	ErrMissingPort = errors.New("missing required serial port name")

	// ErrPortOpenFail is returned when the underlying serial port cannot be
	// opened.
	//
	// This typically indicates a hardware issue (device not connected),
	// permission problem (insufficient access rights), or that another
	// process is already using the port. The wrapped error provides the
	// specific failure reason.
	ErrPortOpenFail = errors.New("failed to open serial port")

	// ErrNoDialer is returned by Config.validate (and NewConfigBuilder's
	// Build) when no Dialer has been configured.
	ErrNoDialer = errors.New("modem: no dialer configured")

	// ErrNotInitialized is returned by command methods called on a Modem
	// that has no transport, i.e. one not obtained from New. A Modem whose
	// Close has run reports ErrClosed instead.
	ErrNotInitialized = errors.New("modem: not initialized")

	// ErrSIMPinRequired is returned by New's init sequence when the SIM
	// reports it is PIN-locked but Config.SimPIN is empty.
	ErrSIMPinRequired = errors.New("modem: SIM PIN required")

	// ErrClosed is returned by command methods called on a Modem whose
	// Close has already run.
	ErrClosed = errors.New("modem: closed")
)
