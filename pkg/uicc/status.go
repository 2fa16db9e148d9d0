// Package uicc classifies a UIM card-status TLV into the password state
// and retry counters a SIM-ready state machine needs, and drives the
// retry-with-backoff polling loop a card in a transitional state
// requires before it can be classified, mirroring
// drivers/qmimodem/sim.c's get_card_status/query_passwd_state_cb pair.
package uicc

import "time"

// CardState is the slot-level physical card presence/readiness state.
type CardState int

const (
	CardAbsent CardState = iota
	CardPresent
	CardError
)

func (c CardState) String() string {
	switch c {
	case CardAbsent:
		return "absent"
	case CardPresent:
		return "present"
	default:
		return "error"
	}
}

// AppType identifies the UICC application selected as primary (2G SIM,
// USIM, CSIM, ISIM...). Only the generic distinction needed for password
// classification is modeled here.
type AppType int

const (
	AppUnknown AppType = iota
	AppSIM
	AppUSIM
)

func (a AppType) String() string {
	switch a {
	case AppSIM:
		return "sim"
	case AppUSIM:
		return "usim"
	default:
		return "unknown"
	}
}

// PasswdState is the lock state ofono reports upward once a card has
// been classified.
type PasswdState int

const (
	PasswdNone PasswdState = iota
	PasswdSIMPIN
	PasswdSIMPUK
	PasswdSIMPIN2
	PasswdSIMPUK2
	PasswdInvalid
)

func (p PasswdState) String() string {
	switch p {
	case PasswdNone:
		return "none"
	case PasswdSIMPIN:
		return "sim-pin"
	case PasswdSIMPUK:
		return "sim-puk"
	case PasswdSIMPIN2:
		return "sim-pin2"
	case PasswdSIMPUK2:
		return "sim-puk2"
	default:
		return "invalid"
	}
}

// Retries holds the remaining attempt counters for each password kind
// that carries one, indexed by PasswdState (PasswdNone and PasswdInvalid
// have no meaningful retry count and are left at zero).
type Retries [PasswdInvalid + 1]int

// Classification is the full result of resolving one UIM card-status
// snapshot: the slot state, the selected application type, the password
// state it implies, and the retry counters carried alongside it. This is
// a deliberate widening of the password-state-only signal ofono surfaces
// upward: a complete driver needs the application type and card state
// too, and the retry counts are useful telemetry independent of which
// password is currently being requested.
type Classification struct {
	CardState   CardState
	AppType     AppType
	PasswdState PasswdState
	Retries     Retries
	// NeedRetry mirrors the driver's "transitional state" signal:
	// an app_state that indicates the card hasn't settled yet and the
	// status query should be retried rather than treated as final.
	NeedRetry bool
}

// appState mirrors the UIM app_state wire values this driver classifies.
const (
	appStateDetected       = 0x00
	appStatePINRequired    = 0x02
	appStatePUKRequired    = 0x03
	appStateSubscrPersoReq = 0x04
	appStateIllegal        = 0x05
	appStateNotSupported   = 0x06
	appStateReady          = 0x07
)

// Clock abstracts the retry timer so tests can drive it deterministically
// instead of sleeping. Real usage wires time.AfterFunc; RealClock below
// does exactly that.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the retry loop needs.
type Timer interface {
	Stop() bool
}

type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
