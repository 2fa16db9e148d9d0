// Package parcel implements the length-prefixed, little-endian wire format
// used by the RIL transport: fixed-width integers, UTF-16LE strings with a
// null terminator and 4-byte padding, raw byte arrays, and string arrays.
//
// A Parcel is a single-pass cursor over a byte buffer. Read operations that
// would run past the end of the buffer set a sticky malformed flag and
// return the zero value instead of panicking or returning a per-call error;
// callers check Malformed (or call Err) once after a sequence of reads, the
// same "parse as validation" shape the wire format itself was built around.
package parcel

import (
	"encoding/binary"
	"errors"
	"unicode/utf16"
)

// ErrMalformed is returned by Err once any read has run past the end of
// the buffer or otherwise produced an invalid value.
var ErrMalformed = errors.New("parcel: malformed frame")

// Parcel is a growable write buffer and/or a read cursor over a fixed byte
// slice. The same type serves both directions, matching the C struct parcel
// contract in spec.md's data model (read cursor, write cursor, capacity,
// sticky malformed flag).
type Parcel struct {
	buf       []byte
	pos       int
	malformed bool
}

// Init resets p to an empty write buffer.
func (p *Parcel) Init() {
	p.buf = p.buf[:0]
	p.pos = 0
	p.malformed = false
}

// NewReader returns a Parcel positioned at the start of data for reading.
// data is not copied; callers must not mutate it while the Parcel is in use.
func NewReader(data []byte) *Parcel {
	return &Parcel{buf: data}
}

// Bytes returns the accumulated write buffer.
func (p *Parcel) Bytes() []byte { return p.buf }

// DataAvail reports how many unread bytes remain.
func (p *Parcel) DataAvail() int {
	if p.pos >= len(p.buf) {
		return 0
	}
	return len(p.buf) - p.pos
}

// Malformed reports whether any read so far has run past the end of the
// buffer.
func (p *Parcel) Malformed() bool { return p.malformed }

// Err returns ErrMalformed if any read has failed, else nil. Call once
// after a sequence of reads rather than checking each one.
func (p *Parcel) Err() error {
	if p.malformed {
		return ErrMalformed
	}
	return nil
}

func (p *Parcel) fail() {
	p.malformed = true
}

// WriteInt32 appends a little-endian int32.
func (p *Parcel) WriteInt32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	p.buf = append(p.buf, b[:]...)
}

// WriteByteAsInt32 appends a single byte value encoded as a little-endian
// int32, the 4-byte form RIL byte/boolean fields take on the wire.
func (p *Parcel) WriteByteAsInt32(v byte) {
	p.WriteInt32(int32(v))
}

// WriteRaw appends an int32 length prefix followed by the raw bytes and
// zero padding out to a 4-byte boundary. A nil slice is written with
// length -1 and no body, matching the null-string convention.
func (p *Parcel) WriteRaw(data []byte) {
	if data == nil {
		p.WriteInt32(-1)
		return
	}
	p.WriteInt32(int32(len(data)))
	p.buf = append(p.buf, data...)
	p.pad()
}

// WriteString appends a string as an int32 UTF-16 code-unit count, the
// UTF-16LE encoding, a trailing null code unit, and zero padding to a
// 4-byte boundary. A nil *string writes code-unit count -1 and no body.
func (p *Parcel) WriteString(s *string) {
	if s == nil {
		p.WriteInt32(-1)
		return
	}
	units := utf16.Encode([]rune(*s))
	p.WriteInt32(int32(len(units)))
	for _, u := range units {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], u)
		p.buf = append(p.buf, b[:]...)
	}
	// trailing null code unit
	p.buf = append(p.buf, 0, 0)
	p.pad()
}

// WriteStringArray appends an int32 count followed by each string encoded
// as WriteString would.
func (p *Parcel) WriteStringArray(items []string) {
	p.WriteInt32(int32(len(items)))
	for i := range items {
		p.WriteString(&items[i])
	}
}

// pad appends zero bytes so the buffer length becomes a multiple of 4.
func (p *Parcel) pad() {
	if rem := len(p.buf) % 4; rem != 0 {
		p.buf = append(p.buf, make([]byte, 4-rem)...)
	}
}

// readPad advances the read cursor past the padding that follows a
// string/byte-array body, failing if it would run past the buffer.
func (p *Parcel) readPad(bodyLen int) {
	total := 4 + bodyLen // length prefix + body, already consumed bodyLen via pos
	if rem := total % 4; rem != 0 {
		skip := 4 - rem
		if p.pos+skip > len(p.buf) {
			p.fail()
			p.pos = len(p.buf)
			return
		}
		p.pos += skip
	}
}

// ReadInt32 reads a little-endian int32, returning 0 and marking the
// parcel malformed on under-run.
func (p *Parcel) ReadInt32() int32 {
	if p.malformed || p.pos+4 > len(p.buf) {
		p.fail()
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(p.buf[p.pos:]))
	p.pos += 4
	return v
}

// ReadRaw reads an int32-length-prefixed byte array with 4-byte padding.
// A length of -1 returns nil.
func (p *Parcel) ReadRaw() []byte {
	n := p.ReadInt32()
	if p.malformed {
		return nil
	}
	if n < 0 {
		return nil
	}
	if p.pos+int(n) > len(p.buf) {
		p.fail()
		return nil
	}
	out := make([]byte, n)
	copy(out, p.buf[p.pos:p.pos+int(n)])
	p.pos += int(n)
	p.readPad(int(n))
	return out
}

// ReadString reads an int32 code-unit-count-prefixed UTF-16LE string with
// trailing null and padding. A count of -1 returns nil (NULL string).
func (p *Parcel) ReadString() *string {
	n := p.ReadInt32()
	if p.malformed {
		return nil
	}
	if n < 0 {
		return nil
	}
	byteLen := int(n) * 2
	if p.pos+byteLen+2 > len(p.buf) {
		p.fail()
		return nil
	}
	units := make([]uint16, n)
	for i := 0; i < int(n); i++ {
		units[i] = binary.LittleEndian.Uint16(p.buf[p.pos:])
		p.pos += 2
	}
	p.pos += 2 // trailing null code unit
	p.readPad(byteLen + 2)
	s := string(utf16.Decode(units))
	return &s
}

// SkipString advances past a string without allocating, for callers that
// only need to skip a field.
func (p *Parcel) SkipString() {
	p.ReadString()
}

// ReadStringArray reads an int32 count followed by that many ReadString
// values.
func (p *Parcel) ReadStringArray() []string {
	n := p.ReadInt32()
	if p.malformed || n < 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		s := p.ReadString()
		if p.malformed {
			return nil
		}
		if s != nil {
			out = append(out, *s)
		} else {
			out = append(out, "")
		}
	}
	return out
}
