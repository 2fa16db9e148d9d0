// Package qmitlv implements the QMI message TLV (type-length-value) wire
// format: a 1-byte type, a 2-byte little-endian length, and a payload of
// that many bytes. A Message is a flat sequence of TLVs; Result wraps the
// standard QMI result TLV (type 0x02: a uint16 result code followed by a
// uint16 error code) that prefixes nearly every QMI response.
//
// Like pkg/parcel, malformed input sets a sticky flag rather than
// returning a per-call error: Decode marks the Message malformed on a
// truncated TLV, and a Reader marks itself malformed when a read runs past
// the end of its payload.
package qmitlv

import (
	"encoding/binary"
	"errors"
)

// ErrMalformed is returned once any read on a Message has failed.
var ErrMalformed = errors.New("qmitlv: malformed message")

// TLV is one decoded type-length-value record.
type TLV struct {
	Type    byte
	Payload []byte
}

// Message is a decoded sequence of TLVs. Fields inside an individual TLV
// payload are read through a Reader (NewFieldReader).
type Message struct {
	TLVs      []TLV
	malformed bool
}

// Decode splits raw into a sequence of TLVs. Decode itself never fails outwardly:
// a truncated trailing TLV is dropped and the Message is marked malformed,
// matching the "parse as validation" convention used throughout.
func Decode(raw []byte) *Message {
	m := &Message{}
	pos := 0
	for pos < len(raw) {
		if pos+3 > len(raw) {
			m.malformed = true
			break
		}
		typ := raw[pos]
		length := binary.LittleEndian.Uint16(raw[pos+1 : pos+3])
		pos += 3
		if pos+int(length) > len(raw) {
			m.malformed = true
			break
		}
		payload := raw[pos : pos+int(length)]
		pos += int(length)
		m.TLVs = append(m.TLVs, TLV{Type: typ, Payload: payload})
	}
	return m
}

// Malformed reports whether decoding ran into a truncated TLV.
func (m *Message) Malformed() bool { return m.malformed }

// Err returns ErrMalformed if decoding failed, else nil.
func (m *Message) Err() error {
	if m.malformed {
		return ErrMalformed
	}
	return nil
}

// Find returns the payload of the first TLV of the given type, and whether
// one was found.
func (m *Message) Find(typ byte) ([]byte, bool) {
	for _, t := range m.TLVs {
		if t.Type == typ {
			return t.Payload, true
		}
	}
	return nil, false
}

// FindAll returns every TLV of the given type, in order.
func (m *Message) FindAll(typ byte) [][]byte {
	var out [][]byte
	for _, t := range m.TLVs {
		if t.Type == typ {
			out = append(out, t.Payload)
		}
	}
	return out
}

// Encode serializes tlvs back to wire form.
func Encode(tlvs []TLV) []byte {
	var out []byte
	for _, t := range tlvs {
		var hdr [3]byte
		hdr[0] = t.Type
		binary.LittleEndian.PutUint16(hdr[1:3], uint16(len(t.Payload)))
		out = append(out, hdr[:]...)
		out = append(out, t.Payload...)
	}
	return out
}

// ResultTLVType is the QMI-standard result-code TLV type, present on
// almost every response message.
const ResultTLVType = 0x02

// QMI result/error codes relevant to the subset of services this module
// wires into (see pkg/uicc for their use).
const (
	ResultSuccess = 0x0000
	ResultFailure = 0x0001
)

// Result decodes the standard type-0x02 result TLV: a little-endian
// uint16 result code followed by a little-endian uint16 error code.
type Result struct {
	Code  uint16
	Error uint16
}

// ResultGet extracts the standard result TLV from m, if present.
func ResultGet(m *Message) (Result, bool) {
	payload, ok := m.Find(ResultTLVType)
	if !ok || len(payload) < 4 {
		return Result{}, false
	}
	return Result{
		Code:  binary.LittleEndian.Uint16(payload[0:2]),
		Error: binary.LittleEndian.Uint16(payload[2:4]),
	}, true
}

// Reader provides sequential little-endian field access into a single
// TLV's payload, mirroring the struct-packed reads the QMI drivers perform
// on incoming TLV bodies.
type Reader struct {
	buf       []byte
	pos       int
	malformed bool
}

// NewFieldReader wraps a TLV payload for sequential field reads.
func NewFieldReader(payload []byte) *Reader {
	return &Reader{buf: payload}
}

// Malformed reports whether any read has run past the end of the payload.
func (r *Reader) Malformed() bool { return r.malformed }

func (r *Reader) need(n int) bool {
	if r.malformed || r.pos+n > len(r.buf) {
		r.malformed = true
		return false
	}
	return true
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out
}

// Remaining returns the number of unread bytes left in the payload.
func (r *Reader) Remaining() int {
	if r.pos >= len(r.buf) {
		return 0
	}
	return len(r.buf) - r.pos
}

// Writer accumulates little-endian fields for a TLV payload.
type Writer struct {
	buf []byte
}

func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) Bytes() []byte { return w.buf }
