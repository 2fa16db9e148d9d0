package qmitlv

// CardStatusTLVType is the UIM "Get Card Status" response TLV (0x10 in the
// real QMI UIM service), nested as slot -> application records.
const CardStatusTLVType = 0x10

// AppRecord is one application entry within a card slot, decoded from the
// info1/info2 sub-records the UIM service packs per application.
type AppRecord struct {
	AppType        uint8
	AppState       uint8
	PersoSubstate  uint8
	AID            []byte
	UnivPIN        uint8
	PIN1Replaced   uint8
	PIN1State      uint8
	PIN1Retries    uint8
	PUK1Retries    uint8
	PIN2State      uint8
	PIN2Retries    uint8
	PUK2Retries    uint8
}

// Slot is one physical card slot, holding zero or more application
// records addressed by index within the slot.
type Slot struct {
	CardState uint8
	Apps      []AppRecord
}

// CardStatus is the fully decoded UIM card status payload: a header
// (IndexGWPri identifying the currently active app) and the per-slot
// application table.
type CardStatus struct {
	IndexGWPri uint16 // low byte: app index, high byte: slot index
	Slots      []Slot
}

// ActiveSlotApp returns the slot and application record addressed by
// IndexGWPri: low byte is the application index within the slot, high
// byte is the slot index.
func (c *CardStatus) ActiveSlotApp() (*Slot, *AppRecord, bool) {
	slotIdx := int(c.IndexGWPri >> 8)
	appIdx := int(c.IndexGWPri & 0xFF)
	if slotIdx < 0 || slotIdx >= len(c.Slots) {
		return nil, nil, false
	}
	slot := &c.Slots[slotIdx]
	if appIdx < 0 || appIdx >= len(slot.Apps) {
		return slot, nil, false
	}
	return slot, &slot.Apps[appIdx], true
}

// DecodeCardStatus parses a TLV 0x10 payload into a CardStatus. It follows
// the envelope shape: IndexGWPri, IndexGW1X (ignored), IndexGW3GPP
// (ignored), then a num_slots byte, then per slot a card_state byte,
// upin_state/upin_retries/upuk_retries (ignored fields, consumed but not
// surfaced), a num_apps byte, and per app an info1 record followed by an
// info2 record.
func DecodeCardStatus(payload []byte) (*CardStatus, error) {
	r := NewFieldReader(payload)
	cs := &CardStatus{}
	cs.IndexGWPri = r.Uint16()
	_ = r.Uint16() // index_1x, unused by this driver subset
	_ = r.Uint16() // index_3gpp, unused by this driver subset
	numSlots := r.Uint8()

	for s := uint8(0); s < numSlots; s++ {
		slot := Slot{CardState: r.Uint8()}
		_ = r.Uint8() // upin_state
		_ = r.Uint8() // upin retries
		_ = r.Uint8() // upuk retries
		numApps := r.Uint8()
		for a := uint8(0); a < numApps; a++ {
			app := AppRecord{
				AppType:       r.Uint8(),
				AppState:      r.Uint8(),
				PersoSubstate: r.Uint8(),
			}
			aidLen := r.Uint8()
			app.AID = r.Bytes(int(aidLen))

			app.UnivPIN = r.Uint8()
			app.PIN1Replaced = r.Uint8()
			app.PIN1State = r.Uint8()
			app.PIN1Retries = r.Uint8()
			app.PUK1Retries = r.Uint8()
			app.PIN2State = r.Uint8()
			app.PIN2Retries = r.Uint8()
			app.PUK2Retries = r.Uint8()

			slot.Apps = append(slot.Apps, app)
		}
		cs.Slots = append(cs.Slots, slot)
	}

	if r.Malformed() {
		return nil, ErrMalformed
	}
	return cs, nil
}
