// Package sink defines the upward-facing notification interfaces a
// Modem calls into as voice calls, SMS traffic, and SIM status change.
// These are the only crossing point from the driver/glue layer into
// whatever presents the phone's state outward (no D-Bus or other IPC
// surface is implemented here; see SPEC_FULL.md's Non-goals) -
// satisfied either by a real presentation layer or, in tests, by a
// recording fake.
package sink

import (
	"github.com/ofonogo/core/pkg/calllist"
	"github.com/ofonogo/core/pkg/smsfilter"
	"github.com/ofonogo/core/pkg/uicc"
)

// VoicecallSink receives call-list reconciliation events once they have
// passed the voicecall filter chain.
type VoicecallSink interface {
	CallsChanged(events []calllist.Event)
}

// SMSSink receives SMS traffic that has passed the sms filter chain.
type SMSSink interface {
	IncomingText(msg *smsfilter.Message)
	IncomingDatagram(msg *smsfilter.Message)
}

// SIMSink receives card status classifications as they resolve.
type SIMSink interface {
	StatusChanged(c uicc.Classification)
}
