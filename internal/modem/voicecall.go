package modem

import (
	"context"
	"fmt"

	"github.com/ofonogo/core/internal/atio"
	"github.com/ofonogo/core/internal/metrics"
	"github.com/ofonogo/core/pkg/voicecallfilter"
)

// Dial places an outgoing call to number, after first passing it through
// the voicecall filter chain. A DecisionBlock verdict prevents the dial
// from ever reaching the modem.
//
// On success, a stub entry is retained for the new call immediately
// (calllist.Reconciler.DialCallback), so the next AT+CLCC poll doesn't
// synthesize a spurious New event for a call this method already knows
// about.
func (m *Modem) Dial(ctx context.Context, number string) error {
	m.mu.Lock()
	m.nextCallID++
	id := m.nextCallID
	m.mu.Unlock()

	resultCh := make(chan voicecallfilter.Decision, 1)
	m.voiceChain.Dial(number, id, func(d voicecallfilter.Decision) { resultCh <- d }, nil)

	var decision voicecallfilter.Decision
	select {
	case decision = <-resultCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	metrics.VoicecallFilterOutcomes.WithLabelValues(decision.String()).Inc()
	if decision != voicecallfilter.DecisionContinue {
		return nil
	}

	if err := m.expectOK(ctx, fmt.Sprintf("%s%s;", atio.CmdDialPrefix, number)); err != nil {
		return fmt.Errorf("dial %q: %w", number, err)
	}
	m.reconciler.DialCallback(id, number, true)
	select {
	case m.pollNow <- struct{}{}:
	default:
	}
	return nil
}

// Answer accepts the current incoming call.
func (m *Modem) Answer(ctx context.Context) error {
	if err := m.expectOK(ctx, atio.CmdAnswer); err != nil {
		return fmt.Errorf("answer call: %w", err)
	}
	select {
	case m.pollNow <- struct{}{}:
	default:
	}
	return nil
}

// Hangup terminates the current call.
func (m *Modem) Hangup(ctx context.Context) error {
	if err := m.expectOK(ctx, atio.CmdHangup); err != nil {
		return fmt.Errorf("hang up: %w", err)
	}
	select {
	case m.pollNow <- struct{}{}:
	default:
	}
	return nil
}
