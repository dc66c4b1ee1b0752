package sd

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/openvcu/someip/internal/someip"
)

// Service discovery wire format. SD messages are ordinary SOME/IP
// notifications addressed to the reserved SD message ID; the payload
// carries a flags byte, reserved bytes, and an array of fixed-size
// service entries. Entry options beyond the TTL are not interpreted.

const (
	// SdServiceID and SdMethodID form the reserved SD message ID.
	SdServiceID uint16 = 0xFFFF
	SdMethodID  uint16 = 0x8100

	// FlagReboot and FlagUnicast are the defined bits of the SD flags
	// byte. The reboot flag is set for every message until the session
	// id wraps for the first time.
	FlagReboot  uint8 = 0x80
	FlagUnicast uint8 = 0x40

	// MaxTTL is the largest value the 24-bit entry TTL field can carry.
	MaxTTL uint32 = 0xFFFFFF

	entrySize      = 16
	payloadMinSize = 8 // flags + reserved(3) + entries length(4)
)

// SdMessageID is the SOME/IP message ID every SD message carries.
var SdMessageID = someip.NewMessageID(SdServiceID, SdMethodID)

var (
	ErrNotSdMessage   = errors.New("sd: not a service discovery message")
	ErrShortPayload   = errors.New("sd: truncated service discovery payload")
	ErrMalformedEntry = errors.New("sd: malformed service discovery entry")
)

// EntryType discriminates SD service entries.
type EntryType uint8

const (
	EntryFindService  EntryType = 0x00
	EntryOfferService EntryType = 0x01
)

func (t EntryType) String() string {
	switch t {
	case EntryFindService:
		return "find"
	case EntryOfferService:
		return "offer"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(t))
	}
}

// Entry is one 16-byte SD service entry.
type Entry struct {
	Type         EntryType
	ServiceID    uint16
	InstanceID   uint16
	MajorVersion uint8
	MinorVersion uint32
	TTL          uint32 // 24 bits on the wire
}

// IsStopOffer reports whether the entry withdraws an offer: an
// OfferService entry with TTL 0 is a StopOffer.
func (e Entry) IsStopOffer() bool {
	return e.Type == EntryOfferService && e.TTL == 0
}

// NewOfferEntry builds an OfferService entry.
func NewOfferEntry(serviceID, instanceID uint16, ttl uint32) Entry {
	return Entry{
		Type:       EntryOfferService,
		ServiceID:  serviceID,
		InstanceID: instanceID,
		TTL:        ttl,
	}
}

// NewStopOfferEntry builds an OfferService entry with TTL 0.
func NewStopOfferEntry(serviceID, instanceID uint16) Entry {
	return NewOfferEntry(serviceID, instanceID, 0)
}

// NewFindEntry builds a FindService entry. The TTL bounds how long the
// find remains valid; SD defines 0xFFFFFF as "until next reboot".
func NewFindEntry(serviceID, instanceID uint16) Entry {
	return Entry{
		Type:       EntryFindService,
		ServiceID:  serviceID,
		InstanceID: instanceID,
		TTL:        MaxTTL,
	}
}

// appendTo serializes the entry in network byte order.
func (e Entry) appendTo(b []byte) []byte {
	b = append(b, uint8(e.Type))
	b = append(b, 0x00, 0x00, 0x00) // option indexes, option counts
	b = someip.AppendUint16(b, e.ServiceID)
	b = someip.AppendUint16(b, e.InstanceID)
	b = append(b, e.MajorVersion)
	b = append(b, uint8(e.TTL>>16))
	b = someip.AppendUint16(b, uint16(e.TTL))
	b = someip.AppendUint32(b, e.MinorVersion)
	return b
}

func parseEntry(b []byte) (Entry, error) {
	if len(b) < entrySize {
		return Entry{}, ErrMalformedEntry
	}
	e := Entry{
		Type:         EntryType(b[0]),
		ServiceID:    binary.BigEndian.Uint16(b[4:6]),
		InstanceID:   binary.BigEndian.Uint16(b[6:8]),
		MajorVersion: b[8],
		TTL:          uint32(b[9])<<16 | uint32(binary.BigEndian.Uint16(b[10:12])),
		MinorVersion: binary.BigEndian.Uint32(b[12:16]),
	}
	return e, nil
}

// Message is the body of one SD message.
type Message struct {
	Flags   uint8
	Entries []Entry
}

// MarshalPayload serializes flags, reserved bytes, the entries array,
// and an empty options array.
func (m *Message) MarshalPayload() []byte {
	payload := make([]byte, 0, payloadMinSize+len(m.Entries)*entrySize+4)
	payload = append(payload, m.Flags)
	payload = append(payload, 0x00, 0x00, 0x00)
	payload = someip.AppendUint32(payload, uint32(len(m.Entries)*entrySize))
	for _, e := range m.Entries {
		payload = e.appendTo(payload)
	}
	payload = someip.AppendUint32(payload, 0) // options array length
	return payload
}

// ToSomeIp wraps the SD body in a SOME/IP notification carrying the
// reserved SD message ID.
func (m *Message) ToSomeIp(clientID, sessionID uint16) *someip.Message {
	return &someip.Message{
		MessageID:        SdMessageID,
		ClientID:         clientID,
		SessionID:        sessionID,
		ProtocolVersion:  someip.DefaultProtocolVersion,
		InterfaceVersion: 0x01,
		Type:             someip.MsgTypeNotification,
		ReturnCode:       someip.RetCodeOK,
		Payload:          m.MarshalPayload(),
	}
}

// ParseMessage extracts the SD body from a SOME/IP message. Trailing
// option data after the entries array is skipped, not interpreted.
func ParseMessage(msg *someip.Message) (*Message, error) {
	if msg.MessageID != SdMessageID {
		return nil, fmt.Errorf("%w: message id 0x%08x", ErrNotSdMessage, msg.MessageID)
	}
	payload := msg.Payload
	if len(payload) < payloadMinSize {
		return nil, fmt.Errorf("%w: %d payload bytes", ErrShortPayload, len(payload))
	}

	entriesLen := binary.BigEndian.Uint32(payload[4:8])
	body := payload[payloadMinSize:]
	if entriesLen%entrySize != 0 || uint32(len(body)) < entriesLen {
		return nil, fmt.Errorf("%w: entries length %d", ErrMalformedEntry, entriesLen)
	}

	m := &Message{Flags: payload[0]}
	for off := uint32(0); off < entriesLen; off += entrySize {
		e, err := parseEntry(body[off : off+entrySize])
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}
