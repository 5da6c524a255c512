package adsb

import (
	"fmt"
	"strings"
)

// Message is a decoded Mode S frame. A message is either fully decoded
// (Valid reports true) or carries only its raw bits.
type Message struct {
	bits     string
	valid    bool
	df       int
	ca       int
	icao     string
	tc       int
	category Category
	fields   Fields
}

// NewMessage validates and decodes a 112-bit frame. Malformed or corrupted
// input yields an invalid message, never an error.
func NewMessage(bits string, ref Reference) *Message {
	msg := &Message{bits: bits}
	if !IsValidFrame(bits) {
		return msg
	}

	msg.valid = true
	msg.df = field(bits, dfStart, dfEnd)
	msg.ca = field(bits, caStart, caEnd)
	msg.icao = fmt.Sprintf("%06x", field(bits, icaoStart, icaoEnd))
	msg.tc = field(bits, tcStart, tcEnd)
	msg.category = CategoryFromTypeCode(msg.tc)
	msg.fields = DecodePayload(msg.tc, bits[payloadStart:payloadEnd], ref)
	return msg
}

// NewMessageFromSamples demodulates a sample window and decodes the result
func NewMessageFromSamples(samples []float64, ref Reference) *Message {
	return NewMessage(Demodulate(samples), ref)
}

// Valid reports whether the frame passed length and CRC checks
func (m *Message) Valid() bool { return m.valid }

// Bits returns the raw bit string the message was built from
func (m *Message) Bits() string { return m.bits }

func (m *Message) DF() int { return m.df }

func (m *Message) CA() int { return m.ca }

func (m *Message) TypeCode() int { return m.tc }

func (m *Message) Category() Category { return m.category }

// ICAO returns the transponder address as 6 uppercase hex digits
func (m *Message) ICAO() string { return strings.ToUpper(m.icao) }

// Key returns the lowercase ICAO address used for lookups
func (m *Message) Key() string { return m.icao }

// Fields returns a copy of the decoded payload values
func (m *Message) Fields() Fields {
	if m.fields == nil {
		return Fields{}
	}
	return m.fields.Clone()
}

// Field returns one decoded value
func (m *Message) Field(name FieldName) (DataPoint, bool) {
	return m.fields.Get(name)
}

// IsExtendedSquitter reports whether the frame is an ADS-B DF17/18 message
func (m *Message) IsExtendedSquitter() bool {
	return m.valid && (m.df == 17 || m.df == 18)
}

func (m *Message) String() string {
	if !m.valid {
		return fmt.Sprintf("Invalid (%s)", m.bits)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ICAO %s | DF %d | CA %d | TC %d (%s)", m.ICAO(), m.df, m.ca, m.tc, m.category)
	for _, d := range m.fields.Ordered() {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}
