package modem

import (
	"context"
	"fmt"
	"strings"

	"github.com/ofonogo/core/internal/atio"
	"github.com/ofonogo/core/internal/metrics"
	"github.com/ofonogo/core/pkg/smsfilter"
)

// SMS represents a text message stored on the modem.
type SMS struct {
	Index  int
	Status string // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	Sender string
	Time   string
	Text   string
}

// SendSMS sends a text message to the specified recipient, after first
// passing it through the SMS filter chain. A filter that drops the
// message returns nil without ever reaching the modem, matching the
// original driver treating a filtered-out outgoing message as silently
// consumed rather than an error.
//
// The message is sent in text mode (not PDU mode). The recipient should be
// in international format (e.g., "+1234567890").
//
// This method blocks until the message is accepted by the network or an error
// occurs. Network delivery (to the final recipient) happens asynchronously.
func (m *Modem) SendSMS(ctx context.Context, recipient, message string) error {
	type result struct {
		msg     *smsfilter.Message
		outcome smsfilter.Outcome
	}
	resultCh := make(chan result, 1)
	jobUUID := m.smsChain.SendText(recipient, message, func(msg *smsfilter.Message, outcome smsfilter.Outcome) {
		resultCh <- result{msg, outcome}
	}, nil)
	logger := m.logger.With("sms_job", jobUUID)

	var r result
	select {
	case r = <-resultCh:
	case <-ctx.Done():
		m.smsChain.Cancel(jobUUID)
		return ctx.Err()
	}
	metrics.SMSFilterOutcomes.WithLabelValues(r.outcome.String()).Inc()
	if r.outcome == smsfilter.OutcomeDrop {
		logger.Info("outgoing SMS dropped by filter chain")
		return nil
	}

	resp, err := m.exec(ctx, fmt.Sprintf(`AT+CMGS="%s"`, r.msg.Address))
	if err != nil {
		return fmt.Errorf("AT+CMGS command failed: %w", err)
	}
	if !strings.Contains(resp, atio.Prompt) {
		return fmt.Errorf("did not receive SMS prompt, got: %q", resp)
	}

	resp, err = m.exec(ctx, r.msg.Text+atio.CtrlZ)
	if err != nil {
		return fmt.Errorf("SMS send failed: %w", err)
	}
	if !strings.Contains(resp, atio.OK) {
		return fmt.Errorf("unexpected SMS response: %s", resp)
	}

	logger.Info("outgoing SMS accepted by modem")
	return nil
}
