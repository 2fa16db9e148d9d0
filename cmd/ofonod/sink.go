package main

import (
	"log/slog"

	"github.com/ofonogo/core/pkg/calllist"
	"github.com/ofonogo/core/pkg/smsfilter"
	"github.com/ofonogo/core/pkg/uicc"
)

// logSink is the default presentation layer for this daemon: it just logs
// the events a real D-Bus-facing plugin would otherwise publish (see
// SPEC_FULL.md's Non-goals on an IPC surface).
type logSink struct {
	Logger *slog.Logger
}

func (s *logSink) CallsChanged(events []calllist.Event) {
	for _, ev := range events {
		s.Logger.Info("call event", "kind", ev.Kind.String(), "id", ev.Call.ID, "line_id", ev.Call.LineID)
	}
}

func (s *logSink) IncomingText(msg *smsfilter.Message) {
	s.Logger.Info("incoming SMS", "from", msg.Address, "length", len(msg.Text))
}

func (s *logSink) IncomingDatagram(msg *smsfilter.Message) {
	s.Logger.Info("incoming SMS datagram", "from", msg.Address, "length", len(msg.Text))
}

func (s *logSink) StatusChanged(c uicc.Classification) {
	s.Logger.Info("SIM status changed",
		"card_state", c.CardState.String(),
		"app_type", c.AppType.String(),
		"passwd_state", c.PasswdState.String())
}
