package modem

import (
	"context"
	"errors"
	"strings"

	"github.com/ofonogo/core/internal/atio"
	"github.com/ofonogo/core/internal/metrics"
	"github.com/ofonogo/core/pkg/qmitlv"
	"github.com/ofonogo/core/pkg/uicc"
)

// simAppState maps the textual AT+CPIN? status this driver already parses
// during init onto the raw UIM app_state byte uicc.ClassifyCardStatus
// expects, so the same card->slot->app classifier serves both a real QMI
// diagnostic-port status query and this AT-only transport. A modem that
// exposes the raw card status TLV over a diagnostic channel would instead
// populate uicc.QueryFunc by decoding qmitlv bytes directly; this AT
// transport has no such channel, so SIMStatus synthesizes an equivalent
// single-slot, single-app CardStatus from the AT+CPIN? response text.
func simAppState(cpinResp string) (appState uint8, present bool) {
	switch {
	case strings.Contains(cpinResp, "READY"):
		return 0x07, true
	case strings.Contains(cpinResp, "SIM PUK"):
		return 0x03, true
	case strings.Contains(cpinResp, "SIM PIN"):
		return 0x02, true
	default:
		return 0x00, false
	}
}

func cpinToCardStatus(cpinResp string) *qmitlv.CardStatus {
	state, present := simAppState(cpinResp)
	if !present {
		return &qmitlv.CardStatus{
			IndexGWPri: 0,
			Slots:      []qmitlv.Slot{{CardState: 0x00}},
		}
	}
	return &qmitlv.CardStatus{
		IndexGWPri: 0,
		Slots: []qmitlv.Slot{{
			CardState: 0x01,
			Apps: []qmitlv.AppRecord{{
				AppType:  0x01, // SIM
				AppState: state,
			}},
		}},
	}
}

// SIMStatus resolves the current SIM card status by repeatedly issuing
// AT+CPIN? through m.uiccResolver's retry loop until the classification
// settles, and notifies the registered SIMSink.
func (m *Modem) SIMStatus(ctx context.Context) (uicc.Classification, error) {
	query := func(ctx context.Context) (*qmitlv.CardStatus, error) {
		resp, err := m.exec(ctx, atio.CmdSimStatus)
		if err != nil {
			return nil, err
		}
		return cpinToCardStatus(resp), nil
	}

	c, err := m.uiccResolver.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, uicc.ErrAbandoned) {
			metrics.UICCAbandoned.Inc()
		}
		return uicc.Classification{}, err
	}
	if m.simSink != nil {
		m.simSink.StatusChanged(c)
	}
	return c, nil
}
