package someip

import "fmt"

// MessageType identifies the kind of a SOME/IP message (header byte 14).
// TP-segmented variants OR the TpFlag into the base type.
type MessageType uint8

const (
	// MsgTypeRequest expects a response.
	MsgTypeRequest MessageType = 0x00
	// MsgTypeRequestNoReturn is a fire-and-forget request.
	MsgTypeRequestNoReturn MessageType = 0x01
	// MsgTypeNotification is an event/notification callback.
	MsgTypeNotification MessageType = 0x02
	// MsgTypeResponse is a response without error.
	MsgTypeResponse MessageType = 0x80
	// MsgTypeError is a response carrying an error.
	MsgTypeError MessageType = 0x81

	// TpFlag marks a SOME/IP-TP segmented message when ORed into a base type.
	TpFlag MessageType = 0x20

	MsgTypeTpRequest         = MsgTypeRequest | TpFlag
	MsgTypeTpRequestNoReturn = MsgTypeRequestNoReturn | TpFlag
	MsgTypeTpNotification    = MsgTypeNotification | TpFlag
	MsgTypeTpResponse        = MsgTypeResponse | TpFlag
	MsgTypeTpError           = MsgTypeError | TpFlag
)

// IsTp reports whether the message type carries the TP segmentation flag.
func (t MessageType) IsTp() bool {
	return t&TpFlag != 0
}

// IsValid reports whether t is a defined SOME/IP message type.
func (t MessageType) IsValid() bool {
	switch t &^ TpFlag {
	case MsgTypeRequest, MsgTypeRequestNoReturn, MsgTypeNotification,
		MsgTypeResponse, MsgTypeError:
		return true
	default:
		return false
	}
}

// String returns a human-readable message type name.
func (t MessageType) String() string {
	name := ""
	switch t &^ TpFlag {
	case MsgTypeRequest:
		name = "request"
	case MsgTypeRequestNoReturn:
		name = "request-no-return"
	case MsgTypeNotification:
		name = "notification"
	case MsgTypeResponse:
		name = "response"
	case MsgTypeError:
		name = "error"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(t))
	}
	if t.IsTp() {
		return "tp-" + name
	}
	return name
}

// ReturnCode is the SOME/IP message return code (header byte 15).
type ReturnCode uint8

const (
	RetCodeOK                    ReturnCode = 0x00 // no error occurred
	RetCodeNotOK                 ReturnCode = 0x01 // unspecified error
	RetCodeUnknownService        ReturnCode = 0x02 // service ID is unknown
	RetCodeUnknownMethod         ReturnCode = 0x03 // method ID is unknown
	RetCodeNotReady              ReturnCode = 0x04 // service is not running
	RetCodeNotReachable          ReturnCode = 0x05 // service is not reachable
	RetCodeTimeout               ReturnCode = 0x06 // timeout occurred
	RetCodeWrongProtocolVersion  ReturnCode = 0x07 // protocol version not supported
	RetCodeWrongInterfaceVersion ReturnCode = 0x08 // interface version not supported
	RetCodeMalformedMessage      ReturnCode = 0x09 // deserialization error
	RetCodeWrongMessageType      ReturnCode = 0x0a // unexpected message type
	RetCodeE2ERepeated           ReturnCode = 0x0b // repeated E2E calculation error
	RetCodeE2EWrongSequence      ReturnCode = 0x0c // wrong E2E sequence
	RetCodeE2E                   ReturnCode = 0x0d // unspecified E2E error
	RetCodeE2ENotAvailable       ReturnCode = 0x0e // E2E not supported
	RetCodeE2ENoNewData          ReturnCode = 0x0f // no new data present
)

// IsValid reports whether c is a defined SOME/IP return code.
func (c ReturnCode) IsValid() bool {
	return c <= RetCodeE2ENoNewData
}

// String returns a human-readable return code name.
func (c ReturnCode) String() string {
	switch c {
	case RetCodeOK:
		return "ok"
	case RetCodeNotOK:
		return "not-ok"
	case RetCodeUnknownService:
		return "unknown-service"
	case RetCodeUnknownMethod:
		return "unknown-method"
	case RetCodeNotReady:
		return "not-ready"
	case RetCodeNotReachable:
		return "not-reachable"
	case RetCodeTimeout:
		return "timeout"
	case RetCodeWrongProtocolVersion:
		return "wrong-protocol-version"
	case RetCodeWrongInterfaceVersion:
		return "wrong-interface-version"
	case RetCodeMalformedMessage:
		return "malformed-message"
	case RetCodeWrongMessageType:
		return "wrong-message-type"
	case RetCodeE2ERepeated:
		return "e2e-repeated"
	case RetCodeE2EWrongSequence:
		return "e2e-wrong-sequence"
	case RetCodeE2E:
		return "e2e"
	case RetCodeE2ENotAvailable:
		return "e2e-not-available"
	case RetCodeE2ENoNewData:
		return "e2e-no-new-data"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(c))
	}
}
