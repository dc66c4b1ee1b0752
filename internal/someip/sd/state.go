package sd

import "fmt"

// ClientState identifies a phase of the client-side discovery lifecycle
// for one service instance.
type ClientState uint8

const (
	// StateInitialWaitPhase means no valid offer is known. The record
	// starts here and returns here when an offer's TTL lapses.
	StateInitialWaitPhase ClientState = iota

	// StateServiceReady means the service is offered and the client has
	// requested it. TTL expiry is tracked in this state only.
	StateServiceReady

	// StateServiceSeen means the service is offered but the client is
	// not currently interested in it.
	StateServiceSeen

	// StateStopped means the remote provider explicitly withdrew its
	// offer. This state is terminal for the record.
	StateStopped
)

func (s ClientState) String() string {
	switch s {
	case StateInitialWaitPhase:
		return "InitialWaitPhase"
	case StateServiceReady:
		return "ServiceReady"
	case StateServiceSeen:
		return "ServiceSeen"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// IsOffered reports whether the state represents a service currently
// offered on the network.
func (s ClientState) IsOffered() bool {
	return s == StateServiceReady || s == StateServiceSeen
}

// clientState is the event contract every concrete discovery state
// implements. All methods run with the owning record's mutex held.
//
// A handler that calls transit must not touch the outgoing state's
// fields afterwards; the record has already replaced it.
type clientState interface {
	tag() ClientState

	// activate runs as the last step of a transition, after the state
	// has been installed as the record's current state.
	activate(previous ClientState)

	// deactivate runs as the first step of a transition, while the
	// state is still installed.
	deactivate(next ClientState)

	serviceOffered(ttl uint32)
	serviceNotRequested()
	serviceStopped()
	onTimerExpired()
}
