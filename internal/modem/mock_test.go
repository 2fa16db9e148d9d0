package modem_test

import (
	gomock "go.uber.org/mock/gomock"

	"github.com/ofonogo/core/internal/modem"
)

// MockSequenceBuilder assembles the ordered list of gomock call
// expectations for one step of the modem init/command sequence, so
// sms_test.go's table-driven tests can compose a full init handshake
// without repeating the same Write/Read boilerplate for every command.
type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

func (b *MockSequenceBuilder) exchange(write, resp string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(write)).Return(len(write), nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			copy(p, resp)
			return len(resp), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.exchange("AT\r", "AT\r\nOK\r\n")
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.exchange("ATE0\r", "ATE0\r\nOK\r\n")
}

func (b *MockSequenceBuilder) VerboseErrors() *MockSequenceBuilder {
	return b.exchange("AT+CMEE=2\r", "OK\r\n")
}

func (b *MockSequenceBuilder) SimPinRequired() *MockSequenceBuilder {
	return b.exchange("AT+CPIN?\r", "+CPIN: SIM PIN\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SimReady() *MockSequenceBuilder {
	return b.exchange("AT+CPIN?\r", "+CPIN: READY\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SMSTextMode() *MockSequenceBuilder {
	return b.exchange("AT+CMGF=1\r", "OK\r\n")
}

func (b *MockSequenceBuilder) CallerIDOn() *MockSequenceBuilder {
	return b.exchange("AT+CLIP=1\r", "OK\r\n")
}

// FullInit composes the entire no-PIN init handshake New performs.
func (b *MockSequenceBuilder) FullInit() *MockSequenceBuilder {
	return b.AT().EchoOff().VerboseErrors().SimReady().SMSTextMode().CallerIDOn()
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// initMockCalls returns the gomock call expectations for a full,
// PIN-less init handshake against transport, for use inside
// gomock.InOrder.
func initMockCalls(transport *modem.MockTransport) []any {
	return NewMockSequence(transport).FullInit().Build()
}
