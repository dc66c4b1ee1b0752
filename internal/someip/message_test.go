package someip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestNewMessageID(t *testing.T) {
	tests := []struct {
		name      string
		serviceID uint16
		methodID  uint16
		want      uint32
	}{
		{"zero", 0x0000, 0x0000, 0x00000000},
		{"service only", 0x1234, 0x0000, 0x12340000},
		{"method only", 0x0000, 0x5678, 0x00005678},
		{"both", 0x1234, 0x5678, 0x12345678},
		{"max", 0xFFFF, 0xFFFF, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMessageID(tt.serviceID, tt.methodID)
			if got != tt.want {
				t.Errorf("NewMessageID(0x%04x, 0x%04x) = 0x%08x, want 0x%08x",
					tt.serviceID, tt.methodID, got, tt.want)
			}

			m := &Message{MessageID: got}
			if m.ServiceID() != tt.serviceID {
				t.Errorf("ServiceID() = 0x%04x, want 0x%04x", m.ServiceID(), tt.serviceID)
			}
			if m.MethodID() != tt.methodID {
				t.Errorf("MethodID() = 0x%04x, want 0x%04x", m.MethodID(), tt.methodID)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "all zero fields",
			msg:  Message{},
		},
		{
			name: "all max fields",
			msg: Message{
				MessageID:        0xFFFFFFFF,
				ClientID:         0xFFFF,
				SessionID:        0xFFFF,
				ProtocolVersion:  0xFF,
				InterfaceVersion: 0xFF,
				Type:             MessageType(0xFF),
				ReturnCode:       ReturnCode(0xFF),
			},
		},
		{
			name: "request with payload",
			msg: Message{
				MessageID:        NewMessageID(0x1234, 0x0001),
				ClientID:         0x2001,
				SessionID:        0x0001,
				ProtocolVersion:  DefaultProtocolVersion,
				InterfaceVersion: 0x02,
				Type:             MsgTypeRequest,
				Payload:          []byte{0xDE, 0xAD, 0xBE, 0xEF},
			},
		},
		{
			name: "error response",
			msg: Message{
				MessageID:        NewMessageID(0x4711, 0x8001),
				ClientID:         0x0042,
				SessionID:        0x00FF,
				ProtocolVersion:  DefaultProtocolVersion,
				InterfaceVersion: 0x01,
				Type:             MsgTypeError,
				ReturnCode:       RetCodeUnknownMethod,
				Payload:          []byte{0x01},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.msg.Marshal()

			if len(data) != HeaderSize+len(tt.msg.Payload) {
				t.Fatalf("Marshal() produced %d bytes, want %d", len(data), HeaderSize+len(tt.msg.Payload))
			}

			wantLen := uint32(len(tt.msg.Payload)) + LengthFieldCoverage
			if got := binary.BigEndian.Uint32(data[4:8]); got != wantLen {
				t.Errorf("length field = %d, want %d", got, wantLen)
			}

			decoded, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			if decoded.MessageID != tt.msg.MessageID {
				t.Errorf("MessageID = 0x%08x, want 0x%08x", decoded.MessageID, tt.msg.MessageID)
			}
			if decoded.ClientID != tt.msg.ClientID {
				t.Errorf("ClientID = 0x%04x, want 0x%04x", decoded.ClientID, tt.msg.ClientID)
			}
			if decoded.SessionID != tt.msg.SessionID {
				t.Errorf("SessionID = 0x%04x, want 0x%04x", decoded.SessionID, tt.msg.SessionID)
			}
			if decoded.ProtocolVersion != tt.msg.ProtocolVersion {
				t.Errorf("ProtocolVersion = 0x%02x, want 0x%02x", decoded.ProtocolVersion, tt.msg.ProtocolVersion)
			}
			if decoded.InterfaceVersion != tt.msg.InterfaceVersion {
				t.Errorf("InterfaceVersion = 0x%02x, want 0x%02x", decoded.InterfaceVersion, tt.msg.InterfaceVersion)
			}
			if decoded.Type != tt.msg.Type {
				t.Errorf("Type = 0x%02x, want 0x%02x", uint8(decoded.Type), uint8(tt.msg.Type))
			}
			if decoded.ReturnCode != tt.msg.ReturnCode {
				t.Errorf("ReturnCode = 0x%02x, want 0x%02x", uint8(decoded.ReturnCode), uint8(tt.msg.ReturnCode))
			}
			if !bytes.Equal(decoded.Payload, tt.msg.Payload) && len(tt.msg.Payload) > 0 {
				t.Errorf("Payload = %x, want %x", decoded.Payload, tt.msg.Payload)
			}
		})
	}
}

func TestMessageRoundTripAllTypeCodeCombinations(t *testing.T) {
	types := []MessageType{
		MsgTypeRequest, MsgTypeRequestNoReturn, MsgTypeNotification,
		MsgTypeResponse, MsgTypeError,
		MsgTypeTpRequest, MsgTypeTpRequestNoReturn, MsgTypeTpNotification,
		MsgTypeTpResponse, MsgTypeTpError,
	}
	codes := []ReturnCode{
		RetCodeOK, RetCodeNotOK, RetCodeUnknownService, RetCodeUnknownMethod,
		RetCodeNotReady, RetCodeNotReachable, RetCodeTimeout,
		RetCodeWrongProtocolVersion, RetCodeWrongInterfaceVersion,
		RetCodeMalformedMessage, RetCodeWrongMessageType,
		RetCodeE2ERepeated, RetCodeE2EWrongSequence, RetCodeE2E,
		RetCodeE2ENotAvailable, RetCodeE2ENoNewData,
	}

	for _, typ := range types {
		for _, code := range codes {
			msg := Message{
				MessageID:  NewMessageID(0x1234, 0x0001),
				SessionID:  1,
				Type:       typ,
				ReturnCode: code,
			}
			decoded, err := Unmarshal(msg.Marshal())
			if err != nil {
				t.Fatalf("type=%s code=%s: Unmarshal() error = %v", typ, code, err)
			}
			if decoded.Type != typ || decoded.ReturnCode != code {
				t.Errorf("round trip got type=0x%02x code=0x%02x, want type=0x%02x code=0x%02x",
					uint8(decoded.Type), uint8(decoded.ReturnCode), uint8(typ), uint8(code))
			}
		}
	}
}

func TestUnmarshalErrors(t *testing.T) {
	valid := (&Message{SessionID: 1, Payload: []byte{0x01, 0x02}}).Marshal()

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty buffer", nil, ErrShortHeader},
		{"truncated header", valid[:HeaderSize-1], ErrShortHeader},
		{"truncated payload", valid[:len(valid)-1], ErrLengthMismatch},
		{"trailing garbage", append(append([]byte{}, valid...), 0x00), ErrLengthMismatch},
		{
			name: "length field below minimum",
			data: func() []byte {
				data := append([]byte{}, valid[:HeaderSize]...)
				binary.BigEndian.PutUint32(data[4:8], 4)
				return data
			}(),
			wantErr: ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIncrementSessionID(t *testing.T) {
	t.Run("wraps exactly once per cycle", func(t *testing.T) {
		msg := Message{SessionID: 1}

		wraps := 0
		for i := 0; i < MaxSessionID; i++ {
			if msg.IncrementSessionID() {
				wraps++
			}
			if msg.SessionID == SessionIDInactive {
				t.Fatalf("session ID reached 0 after %d increments", i+1)
			}
		}

		if wraps != 1 {
			t.Errorf("got %d wraps in a full cycle, want 1", wraps)
		}
		if msg.SessionID != 1 {
			t.Errorf("SessionID = %d after full cycle, want 1", msg.SessionID)
		}
	})

	t.Run("wrap goes to 1 not 0", func(t *testing.T) {
		msg := Message{SessionID: MaxSessionID}
		if !msg.IncrementSessionID() {
			t.Error("IncrementSessionID() at 0xFFFF = false, want true")
		}
		if msg.SessionID != 1 {
			t.Errorf("SessionID = %d after wrap, want 1", msg.SessionID)
		}
	})

	t.Run("inactive increments to 1 without wrap", func(t *testing.T) {
		msg := Message{SessionID: SessionIDInactive}
		if msg.IncrementSessionID() {
			t.Error("IncrementSessionID() from 0 = true, want false")
		}
		if msg.SessionID != 1 {
			t.Errorf("SessionID = %d, want 1", msg.SessionID)
		}
	})
}

func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		typ  MessageType
		want string
	}{
		{MsgTypeRequest, "request"},
		{MsgTypeNotification, "notification"},
		{MsgTypeTpResponse, "tp-response"},
		{MessageType(0x55), "unknown(0x55)"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("MessageType(0x%02x).String() = %q, want %q", uint8(tt.typ), got, tt.want)
		}
	}
}

func TestMessageTypeIsValid(t *testing.T) {
	for _, typ := range []MessageType{
		MsgTypeRequest, MsgTypeTpError, MsgTypeNotification, MsgTypeTpNotification,
	} {
		if !typ.IsValid() {
			t.Errorf("MessageType(0x%02x).IsValid() = false, want true", uint8(typ))
		}
	}
	for _, typ := range []MessageType{0x03, 0x40, 0xFF} {
		if typ.IsValid() {
			t.Errorf("MessageType(0x%02x).IsValid() = true, want false", uint8(typ))
		}
	}
}
