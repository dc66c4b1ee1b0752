// Package sd implements the client side of SOME/IP Service Discovery:
// per-service availability tracking driven by multicast Offer/Stop
// announcements and a TTL liveness timer.
//
// # State Machine
//
// Each tracked (service, instance) pair is a Record owning exactly one
// live state at a time:
//
//	InitialWaitPhase --Offer--> ServiceReady
//	ServiceReady --TTL expiry--> InitialWaitPhase
//	ServiceReady --interest withdrawn--> ServiceSeen
//	ServiceReady --remote Stop--> Stopped
//	ServiceSeen  --remote Stop--> Stopped
//
// Stopped is terminal for a record; the Manager replaces a stopped
// record with a fresh one on the next Subscribe.
//
// # Concurrency
//
// Three kinds of goroutines act on a record concurrently: the transport
// receiver delivering Offer/Stop, the timer goroutine delivering TTL
// expiry, and application goroutines subscribing, releasing, and
// blocking in WaitUntilOffered. A record serializes all of them under
// one mutex; distinct records are fully independent. The availability
// predicate lives on the record, so a waiter woken by a state's entry
// never reads a retired state, and it always re-checks the predicate
// after waking. Timer fires that lost a race against Stop, re-offer, or
// teardown are no-ops, guarded twice: the timer's generation counter
// and a state-identity check inside the record's critical section.
//
// # Wire Format
//
// SD messages are SOME/IP notifications with the reserved message ID
// 0xFFFF8100. The payload carries a flags byte and an array of 16-byte
// service entries; an OfferService entry with TTL 0 is a StopOffer.
// Entry options beyond the TTL are not interpreted.
package sd
