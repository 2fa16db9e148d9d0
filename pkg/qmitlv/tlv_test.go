package qmitlv_test

import (
	"testing"

	"github.com/ofonogo/core/pkg/qmitlv"
)

func buildCardStatusPayload() []byte {
	var w qmitlv.Writer
	w.PutUint16(0x0100) // index_gw_pri: slot 1, app 0
	w.PutUint16(0xFFFF) // index_1x
	w.PutUint16(0xFFFF) // index_3gpp
	w.PutUint8(2)       // num_slots

	// slot 0: absent, no apps
	w.PutUint8(0x00) // card_state absent
	w.PutUint8(0)
	w.PutUint8(0)
	w.PutUint8(0)
	w.PutUint8(0) // num_apps

	// slot 1: present, one app
	w.PutUint8(0x01) // card_state present
	w.PutUint8(0)
	w.PutUint8(0)
	w.PutUint8(0)
	w.PutUint8(1) // num_apps

	w.PutUint8(0x02) // app_type USIM
	w.PutUint8(0x02) // app_state PIN1_REQ
	w.PutUint8(0)    // perso_substate
	w.PutUint8(0)    // aid_len

	w.PutUint8(0) // univ_pin
	w.PutUint8(0) // pin1_replaced
	w.PutUint8(1) // pin1_state
	w.PutUint8(3) // pin1_retries
	w.PutUint8(10)
	w.PutUint8(0)
	w.PutUint8(3)
	w.PutUint8(10)

	return w.Bytes()
}

func TestDecodeCardStatus(t *testing.T) {
	payload := buildCardStatusPayload()
	msg := qmitlv.Decode(qmitlv.Encode([]qmitlv.TLV{{Type: qmitlv.CardStatusTLVType, Payload: payload}}))
	if msg.Malformed() {
		t.Fatalf("unexpected malformed decode")
	}
	tlvPayload, ok := msg.Find(qmitlv.CardStatusTLVType)
	if !ok {
		t.Fatal("card status TLV not found")
	}

	cs, err := qmitlv.DecodeCardStatus(tlvPayload)
	if err != nil {
		t.Fatalf("DecodeCardStatus: %v", err)
	}
	if len(cs.Slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(cs.Slots))
	}
	slot, app, ok := cs.ActiveSlotApp()
	if !ok {
		t.Fatal("expected active slot/app resolved")
	}
	if slot.CardState != 0x01 {
		t.Fatalf("got card state %#x, want 0x01", slot.CardState)
	}
	if app.AppState != 0x02 {
		t.Fatalf("got app state %#x, want 0x02", app.AppState)
	}
	if app.PIN1Retries != 3 || app.PUK1Retries != 10 {
		t.Fatalf("got retries %d/%d, want 3/10", app.PIN1Retries, app.PUK1Retries)
	}
}

func TestDecodeTruncatedMarksMalformed(t *testing.T) {
	msg := qmitlv.Decode([]byte{0x02, 0x05, 0x00, 0x01, 0x02}) // declares length 5, has only 2
	if !msg.Malformed() {
		t.Fatal("expected malformed on truncated TLV")
	}
	if msg.Err() == nil {
		t.Fatal("expected non-nil Err()")
	}
}

func TestResultGet(t *testing.T) {
	var w qmitlv.Writer
	w.PutUint16(qmitlv.ResultFailure)
	w.PutUint16(0x001A)
	raw := qmitlv.Encode([]qmitlv.TLV{{Type: qmitlv.ResultTLVType, Payload: w.Bytes()}})

	msg := qmitlv.Decode(raw)
	res, ok := qmitlv.ResultGet(msg)
	if !ok {
		t.Fatal("expected result TLV found")
	}
	if res.Code != qmitlv.ResultFailure || res.Error != 0x001A {
		t.Fatalf("got %+v", res)
	}
}

func TestFindAll(t *testing.T) {
	raw := qmitlv.Encode([]qmitlv.TLV{
		{Type: 0x01, Payload: []byte{1}},
		{Type: 0x01, Payload: []byte{2}},
		{Type: 0x03, Payload: []byte{3}},
	})
	msg := qmitlv.Decode(raw)
	all := msg.FindAll(0x01)
	if len(all) != 2 {
		t.Fatalf("got %d, want 2", len(all))
	}
}
