package modem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ofonogo/core/internal/atio"
	"github.com/ofonogo/core/internal/idle"
	"github.com/ofonogo/core/internal/metrics"
	"github.com/ofonogo/core/internal/sink"
	"github.com/ofonogo/core/pkg/calllist"
	"github.com/ofonogo/core/pkg/smsfilter"
	"github.com/ofonogo/core/pkg/uicc"
	"github.com/ofonogo/core/pkg/voicecallfilter"
)

// CallListPollInterval is how often Loop re-issues AT+CLCC to reconcile
// the retained call list absent an immediate trigger from a RING/+CRING
// URC.
const CallListPollInterval = 2 * time.Second

// Modem owns one AT-command session to a modem and the plugin-facing
// state layered on top of it: the retained call list, and the
// voicecall/SMS filter chains traffic is routed through before reaching
// the sinks registered via SetVoicecallSink/SetSMSSink/SetSIMSink.
type Modem struct {
	mu        sync.Mutex
	transport Transport
	config    Config
	scanner   *bufio.Scanner
	closed    bool
	logger    *slog.Logger

	reconciler   *calllist.Reconciler
	voiceChain   *voicecallfilter.Chain
	smsChain     *smsfilter.Chain
	uiccResolver *uicc.Resolver
	queue        *idle.Queue
	pollNow      chan struct{}
	nextCallID   int

	voicecallSink sink.VoicecallSink
	smsSink       sink.SMSSink
	simSink       sink.SIMSink
}

// New dials config.Dialer and runs the modem init sequence (echo mode,
// verbose errors, SIM PIN if required, SMS text mode).
func New(ctx context.Context, config Config) (*Modem, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(transport)
	scanner.Split(atio.Splitter)

	m := &Modem{
		config:     config,
		transport:  transport,
		scanner:    scanner,
		logger:     slog.Default().With("component", "modem"),
		reconciler:   calllist.NewReconciler(),
		uiccResolver: uicc.NewResolver(),
		queue:        idle.New(),
		pollNow:      make(chan struct{}, 1),
	}
	m.uiccResolver.OnRetry = func() { metrics.UICCRetryAttempts.Inc() }
	m.voiceChain = voicecallfilter.NewChain(voicecallfilter.NewRegistry(), m.queue)
	m.smsChain = smsfilter.NewChain(smsfilter.NewRegistry(), m.queue)

	initCtx := ctx
	if m.config.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, m.config.InitTimeout)
		defer cancel()
	}

	if err := m.init(initCtx); err != nil {
		transport.Close()
		if closeErr := m.queue.Close(); closeErr != nil {
			m.logger.Error("idle queue closed with error", "error", closeErr)
		}
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	return m, nil
}

// SetVoicecallSink registers the sink call-list events are delivered to.
func (m *Modem) SetVoicecallSink(s sink.VoicecallSink) { m.voicecallSink = s }

// SetSMSSink registers the sink incoming SMS traffic is delivered to.
func (m *Modem) SetSMSSink(s sink.SMSSink) { m.smsSink = s }

// SetSIMSink registers the sink SIM status classifications are delivered to.
func (m *Modem) SetSIMSink(s sink.SIMSink) { m.simSink = s }

// VoicecallFilters returns the registry backing the voicecall filter
// chain, for plugin registration.
func (m *Modem) VoicecallFilters() *voicecallfilter.Registry {
	return m.voiceChain.Registry()
}

// SMSFilters returns the registry backing the SMS filter chain, for
// plugin registration.
func (m *Modem) SMSFilters() *smsfilter.Registry {
	return m.smsChain.Registry()
}

func (m *Modem) readToken() (string, error) {
	if !m.scanner.Scan() {
		if err := m.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	tok := m.scanner.Text()
	if tok == atio.Prompt {
		// The SMS input prompt's trailing space is part of the token.
		return tok, nil
	}
	return strings.TrimSpace(tok), nil
}

func (m *Modem) init(ctx context.Context) error {
	if err := m.expectOK(ctx, atio.CmdAt); err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}

	if m.config.EchoOn {
		_ = m.expectOK(ctx, "ATE1")
	} else {
		if err := m.expectOK(ctx, atio.CmdEchoOff); err != nil {
			return fmt.Errorf("disable echo: %w", err)
		}
	}

	_ = m.expectOK(ctx, atio.CmdVerboseErrors)

	simStatus, err := m.query(ctx, atio.CmdSimStatus)
	if err != nil {
		return fmt.Errorf("query SIM status: %w", err)
	}

	switch {
	case strings.Contains(simStatus, "READY"):
		// OK

	case strings.Contains(simStatus, "SIM PIN"):
		if m.config.SimPIN == "" {
			return ErrSIMPinRequired
		}
		if err := m.expectOK(ctx, fmt.Sprintf(`AT+CPIN="%s"`, m.config.SimPIN)); err != nil {
			return fmt.Errorf("enter SIM PIN: %w", err)
		}
		if err := m.waitForSIMReady(ctx); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unsupported SIM state: %q", simStatus)
	}

	if err := m.expectOK(ctx, atio.CmdSetTextMode); err != nil {
		return fmt.Errorf("set SMS text mode: %w", err)
	}
	_ = m.expectOK(ctx, atio.CmdCallerIDOn)

	return nil
}

func (m *Modem) expectOK(ctx context.Context, cmd string) error {
	resp, err := m.exec(ctx, cmd)
	if err != nil {
		return err
	}
	if !strings.Contains(resp, atio.OK) {
		return fmt.Errorf("unexpected response: %q", resp)
	}
	return nil
}

func (m *Modem) query(ctx context.Context, cmd string) (string, error) {
	return m.exec(ctx, cmd)
}

func (m *Modem) waitForSIMReady(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("SIM not ready: %w", ctx.Err())
		case <-ticker.C:
			resp, err := m.exec(ctx, atio.CmdSimStatus)
			if err != nil {
				continue
			}
			if strings.Contains(resp, "READY") {
				return nil
			}
		}
	}
}

func (m *Modem) exec(ctx context.Context, cmd string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}
	if m.transport == nil {
		return "", ErrNotInitialized
	}

	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ATTimeout)
		defer cancel()
	}

	if d, ok := m.transport.(interface {
		SetReadDeadline(time.Time) error
	}); ok {
		if deadline, ok := ctx.Deadline(); ok {
			_ = d.SetReadDeadline(deadline)
		}
	}

	wire := strings.TrimSpace(cmd) + "\r"
	if _, err := io.WriteString(m.transport, wire); err != nil {
		return "", fmt.Errorf("write command %q: %w", cmd, err)
	}

	var lines []string

	for {
		select {
		case <-ctx.Done():
			return strings.Join(lines, "\n"), ctx.Err()
		default:
		}

		token, err := m.readToken()
		if err != nil {
			return strings.Join(lines, "\n"), err
		}

		if token == "" {
			continue
		}

		if m.config.EchoOn && token == strings.TrimSpace(cmd) {
			continue
		}

		respType := atio.Classify(token)

		switch respType {
		case atio.TypeFinal:
			lines = append(lines, token)
			if token == atio.OK {
				return strings.Join(lines, "\n"), nil
			}
			return strings.Join(lines, "\n"), errors.New(token)

		case atio.TypeData:
			lines = append(lines, token)

		case atio.TypeURC:
			m.handleURC(token)
			continue

		case atio.TypePrompt:
			lines = append(lines, token)
			return strings.Join(lines, "\n"), nil
		}
	}
}

// handleURC reacts to an unsolicited result code seen mid-command-loop.
// RING/+CRING wake the call-list poller immediately rather than waiting
// for the next tick; other URCs, including +CMTI new-message indications,
// are only logged. The body of a new message is not fetched.
func (m *Modem) handleURC(line string) {
	switch {
	case line == atio.UrcCall, strings.HasPrefix(line, atio.UrcCallingRing):
		m.onRing()
	case strings.HasPrefix(line, atio.UrcNewMsg):
		m.logger.Info("new message notification", "urc", line)
	default:
		m.logger.Debug("unhandled URC", "urc", line)
	}
}

// onRing evaluates the incoming call filter chain and, on a CONTINUE
// verdict, wakes the call-list poller. A DecisionHangup verdict sends ATH
// to release the call. A DecisionIgnore verdict leaves the call live and
// only skips the immediate wake-up. Neither verdict removes the call from
// AT+CLCC polling: the periodic poll reports it to the call-list sink for
// as long as the modem still lists it.
func (m *Modem) onRing() {
	m.mu.Lock()
	m.nextCallID++
	id := m.nextCallID
	m.mu.Unlock()

	m.voiceChain.Incoming("", id, func(d voicecallfilter.Decision) {
		metrics.VoicecallFilterOutcomes.WithLabelValues(d.String()).Inc()
		switch d {
		case voicecallfilter.DecisionHangup:
			_ = m.Hangup(context.Background())
			return
		case voicecallfilter.DecisionIgnore:
			return
		}
		select {
		case m.pollNow <- struct{}{}:
		default:
		}
	}, nil)
}

// Loop runs the background call-list reconciliation poller until ctx is
// canceled or the transport is closed. It returns nil in both of those
// cases; other exec failures are logged and the loop continues, matching
// the original driver's tolerance of transient AT-layer hiccups.
func (m *Modem) Loop(ctx context.Context) error {
	ticker := time.NewTicker(CallListPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.pollNow:
			if done := m.pollCallList(ctx); done {
				return nil
			}
		case <-ticker.C:
			if done := m.pollCallList(ctx); done {
				return nil
			}
		}
	}
}

// pollCallList issues AT+CLCC, reconciles the result, and delivers any
// events to the registered VoicecallSink. It returns true if the loop
// should stop (context canceled, transport closed).
func (m *Modem) pollCallList(ctx context.Context) bool {
	if s, ok := m.transport.(rttSampler); ok {
		s.SampleInfo()
	}

	resp, err := m.exec(ctx, atio.CmdListCalls)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) {
			return true
		}
		m.logger.Warn("call list poll failed", "error", err)
		return false
	}

	calls := parseCLCC(resp)
	events := m.reconciler.Notify(calls)
	for _, ev := range events {
		metrics.ReconcileEvents.WithLabelValues(ev.Kind.String()).Inc()
	}
	metrics.ActiveCalls.Set(float64(len(m.reconciler.Retained())))
	if len(events) > 0 && m.voicecallSink != nil {
		m.voicecallSink.CallsChanged(events)
	}
	return false
}

// parseCLCC parses +CLCC: lines into calllist.Call values. Format:
// +CLCC: <id>,<dir>,<stat>,<mode>,<mpty>[,<number>,<type>]
func parseCLCC(resp string) []calllist.Call {
	var calls []calllist.Call
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "+CLCC:") {
			continue
		}
		fields := strings.Split(strings.TrimPrefix(line, "+CLCC:"), ",")
		if len(fields) < 5 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		originating := strings.TrimSpace(fields[1]) == "0"
		statusCode, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			continue
		}
		call := calllist.Call{
			ID:          id,
			Type:        calllist.TypeVoice,
			Status:      calllist.Status(statusCode),
			Originating: originating,
		}
		if len(fields) >= 6 {
			call.LineID = strings.Trim(strings.TrimSpace(fields[5]), `"`)
			if call.LineID != "" {
				call.Presentation = calllist.PresentationValid
			}
		}
		if len(fields) >= 7 {
			if plan, err := strconv.Atoi(strings.TrimSpace(fields[6])); err == nil {
				call.CalledNumberPlan = byte(plan)
			}
		}
		calls = append(calls, call)
	}
	return calls
}

// Close closes the underlying transport and stops the filter-chain idle
// queue. Close is idempotent.
func (m *Modem) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	transport := m.transport
	m.mu.Unlock()

	if err := m.queue.Close(); err != nil {
		m.logger.Error("idle queue closed with error", "error", err)
	}
	if transport != nil {
		return transport.Close()
	}
	return nil
}
