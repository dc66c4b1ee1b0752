// Package someip implements the SOME/IP message codec.
//
// SOME/IP (Scalable service-Oriented MiddlewarE over IP) messages carry a
// fixed 16-byte big-endian header followed by an opaque payload. This
// package defines the header layout, the message and return type
// enumerations, and session ID handling shared by every message kind, so
// byte order and field semantics exist in exactly one place.
//
// # Header Layout
//
//	Offset  Field             Size
//	0       MessageID         4     ServiceID<<16 | MethodID
//	4       Length            4     payload length + 8
//	8       ClientID          2
//	10      SessionID         2     0 = inactive, else 1..0xFFFF wrapping
//	12      ProtocolVersion   1
//	13      InterfaceVersion  1
//	14      MessageType       1
//	15      ReturnCode        1
//
// # Session Handling
//
// An active session ID cycles 1..0xFFFF and wraps back to 1, never to 0.
// IncrementSessionID reports the wrap so callers can track session
// generations; wrapping is a routine periodic event, not an error.
//
// # Encoding Primitives
//
// All serialization in this module is expressed through AppendUint16,
// AppendUint32 (network byte order) and Concat, which guarantees a uniform
// byte layout across message kinds, including the service discovery
// entries built on top of this package.
//
// # Thread Safety
//
// Marshal and Unmarshal are stateless and safe for concurrent use. A
// Message value itself is not synchronized; callers that share one (for
// example to advance its session ID across sends) must serialize access.
package someip
