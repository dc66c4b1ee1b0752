package someip

import (
	"encoding/binary"
	"fmt"
)

// Header layout constants
const (
	// HeaderSize is the fixed SOME/IP header size in bytes.
	HeaderSize = 16

	// LengthFieldCoverage is the part of the header covered by the Length
	// field (ClientID through ReturnCode). Length = payload length + 8.
	LengthFieldCoverage = 8

	// MaxSessionID is the largest valid session ID before wrapping back to 1.
	MaxSessionID = 0xFFFF

	// SessionIDInactive marks a message without session handling.
	SessionIDInactive = 0x0000

	// DefaultProtocolVersion is the SOME/IP protocol header version.
	DefaultProtocolVersion = 0x01
)

// Decode errors
var (
	ErrShortHeader    = fmt.Errorf("buffer shorter than %d-byte header", HeaderSize)
	ErrLengthMismatch = fmt.Errorf("header length field does not match buffer size")
)

// AppendUint16 appends v to dst in network byte order and returns the
// extended slice. Together with AppendUint32 and Concat it is one of the
// primitives every message serialization in this module is built from.
func AppendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// AppendUint32 appends v to dst in network byte order.
func AppendUint32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}

// Concat appends src after dst and returns the extended slice.
func Concat(dst []byte, src []byte) []byte {
	return append(dst, src...)
}

// NewMessageID composes a message ID from a service ID and a method or
// event ID.
func NewMessageID(serviceID, methodID uint16) uint32 {
	return uint32(serviceID)<<16 | uint32(methodID)
}

// Message is a SOME/IP message: the fixed 16-byte header plus payload.
//
// Wire layout (big-endian):
//
//	[0-3]   MessageID = ServiceID<<16 | MethodID
//	[4-7]   Length = payload length + 8
//	[8-9]   ClientID (includes client-ID prefix)
//	[10-11] SessionID (0 = inactive, else 1..0xFFFF wrapping)
//	[12]    ProtocolVersion
//	[13]    InterfaceVersion
//	[14]    MessageType
//	[15]    ReturnCode
//	[16+]   Payload
type Message struct {
	MessageID        uint32
	ClientID         uint16
	SessionID        uint16
	ProtocolVersion  uint8
	InterfaceVersion uint8
	Type             MessageType
	ReturnCode       ReturnCode
	Payload          []byte
}

// ServiceID returns the service ID half of the message ID.
func (m *Message) ServiceID() uint16 {
	return uint16(m.MessageID >> 16)
}

// MethodID returns the method/event ID half of the message ID.
func (m *Message) MethodID() uint16 {
	return uint16(m.MessageID & 0xFFFF)
}

// Length returns the value of the header Length field: the payload length
// plus the 8 header bytes following the Length field itself.
func (m *Message) Length() uint32 {
	return uint32(len(m.Payload)) + LengthFieldCoverage
}

// SetSessionID replaces the current session ID.
func (m *Message) SetSessionID(id uint16) {
	m.SessionID = id
}

// IncrementSessionID advances the session ID by one and reports whether it
// wrapped. Session IDs cycle 1..0xFFFF,1; zero is reserved for "inactive"
// and increments to 1 without reporting a wrap, so an active session never
// silently stays at zero.
func (m *Message) IncrementSessionID() bool {
	if m.SessionID == MaxSessionID {
		m.SessionID = 1
		return true
	}
	m.SessionID++
	return false
}

// Marshal serializes the message into a fresh byte slice.
func (m *Message) Marshal() []byte {
	buf := make([]byte, 0, HeaderSize+len(m.Payload))
	buf = AppendUint32(buf, m.MessageID)
	buf = AppendUint32(buf, m.Length())
	buf = AppendUint16(buf, m.ClientID)
	buf = AppendUint16(buf, m.SessionID)
	buf = append(buf, m.ProtocolVersion, m.InterfaceVersion, byte(m.Type), byte(m.ReturnCode))
	buf = Concat(buf, m.Payload)
	return buf
}

// Unmarshal parses a SOME/IP message from data. The buffer must contain
// the full header and exactly the payload announced by the Length field.
func Unmarshal(data []byte) (*Message, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrShortHeader, len(data))
	}

	length := binary.BigEndian.Uint32(data[4:8])
	if length < LengthFieldCoverage {
		return nil, fmt.Errorf("%w: length field %d below minimum %d",
			ErrLengthMismatch, length, LengthFieldCoverage)
	}

	payloadLen := int(length - LengthFieldCoverage)
	if len(data) != HeaderSize+payloadLen {
		return nil, fmt.Errorf("%w: length field announces %d payload bytes, buffer holds %d",
			ErrLengthMismatch, payloadLen, len(data)-HeaderSize)
	}

	m := &Message{
		MessageID:        binary.BigEndian.Uint32(data[0:4]),
		ClientID:         binary.BigEndian.Uint16(data[8:10]),
		SessionID:        binary.BigEndian.Uint16(data[10:12]),
		ProtocolVersion:  data[12],
		InterfaceVersion: data[13],
		Type:             MessageType(data[14]),
		ReturnCode:       ReturnCode(data[15]),
	}
	if payloadLen > 0 {
		m.Payload = make([]byte, payloadLen)
		copy(m.Payload, data[HeaderSize:])
	}
	return m, nil
}

// String returns a debug representation of the header.
func (m *Message) String() string {
	return fmt.Sprintf("Message{service=0x%04x method=0x%04x client=0x%04x session=0x%04x type=%s code=%s len=%d}",
		m.ServiceID(), m.MethodID(), m.ClientID, m.SessionID, m.Type, m.ReturnCode, len(m.Payload))
}
