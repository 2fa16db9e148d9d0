package uicc

import (
	"context"
	"errors"
	"time"

	"github.com/ofonogo/core/pkg/qmitlv"
)

// ErrAbandoned is returned when a card status never settles out of a
// transitional app_state within MaxRetries attempts, mirroring the
// original driver's abandonment (which reports the SIM as removed).
var ErrAbandoned = errors.New("uicc: card status retry abandoned")

// classifyAppState maps a raw UIM app_state byte to a PasswdState plus the
// NeedRetry signal, following get_card_status in drivers/qmimodem/sim.c.
func classifyAppState(state uint8) (PasswdState, bool) {
	switch state {
	case appStatePINRequired:
		return PasswdSIMPIN, false
	case appStatePUKRequired:
		return PasswdSIMPUK, false
	case appStateDetected, 0x01, appStateSubscrPersoReq, appStateIllegal, appStateNotSupported:
		return PasswdInvalid, true
	case appStateReady:
		return PasswdNone, false
	default:
		return PasswdInvalid, false
	}
}

// classifyAppType narrows a raw UIM app_type byte to the generic
// distinction this module tracks.
func classifyAppType(appType uint8) AppType {
	switch appType {
	case 0x01:
		return AppSIM
	case 0x02:
		return AppUSIM
	default:
		return AppUnknown
	}
}

// ClassifyCardStatus resolves a single decoded card-status TLV into a
// Classification, using IndexGWPri to select the active slot/application
// exactly as get_card_status does.
func ClassifyCardStatus(cs *qmitlv.CardStatus) Classification {
	slot, app, ok := cs.ActiveSlotApp()
	if !ok || slot.CardState == 0x00 {
		return Classification{CardState: CardAbsent}
	}

	c := Classification{CardState: CardPresent}
	if app == nil {
		c.CardState = CardError
		return c
	}
	c.AppType = classifyAppType(app.AppType)
	c.PasswdState, c.NeedRetry = classifyAppState(app.AppState)
	c.Retries[PasswdSIMPIN] = int(app.PIN1Retries)
	c.Retries[PasswdSIMPUK] = int(app.PUK1Retries)
	c.Retries[PasswdSIMPIN2] = int(app.PIN2Retries)
	c.Retries[PasswdSIMPUK2] = int(app.PUK2Retries)
	return c
}

// Resolver drives the retry-with-backoff loop around ClassifyCardStatus:
// a card in a transitional app_state (NeedRetry) is requeried at
// RetryInterval until it settles or MaxRetries is exhausted, after which
// the card is treated as unreadable.
type Resolver struct {
	Clock         Clock
	RetryInterval time.Duration
	MaxRetries    int

	// OnRetry, if set, is called once per retry attempt scheduled (after
	// a transitional classification, before the retry delay), so a caller
	// can track retry volume without Resolve's own return value carrying
	// an attempt count.
	OnRetry func()
}

// NewResolver returns a Resolver configured with the driver's defaults:
// a 20ms retry interval and a 100-attempt ceiling.
func NewResolver() *Resolver {
	return &Resolver{
		Clock:         RealClock{},
		RetryInterval: 20 * time.Millisecond,
		MaxRetries:    100,
	}
}

// QueryFunc fetches a fresh card-status snapshot, e.g. by issuing a UIM
// Get Card Status request over the modem transport.
type QueryFunc func(ctx context.Context) (*qmitlv.CardStatus, error)

// Resolve queries query repeatedly until the resulting classification no
// longer needs a retry, MaxRetries is exhausted (returning ErrAbandoned),
// ctx is canceled, or query itself errors.
func (r *Resolver) Resolve(ctx context.Context, query QueryFunc) (Classification, error) {
	clock := r.Clock
	if clock == nil {
		clock = RealClock{}
	}
	interval := r.RetryInterval
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 100
	}

	attempt := 0
	for {
		cs, err := query(ctx)
		if err != nil {
			return Classification{}, err
		}
		c := ClassifyCardStatus(cs)
		if !c.NeedRetry {
			return c, nil
		}
		attempt++
		if attempt >= maxRetries {
			return Classification{CardState: CardAbsent}, ErrAbandoned
		}
		if r.OnRetry != nil {
			r.OnRetry()
		}

		done := make(chan struct{})
		timer := clock.AfterFunc(interval, func() { close(done) })
		select {
		case <-ctx.Done():
			timer.Stop()
			return Classification{}, ctx.Err()
		case <-done:
		}
	}
}
