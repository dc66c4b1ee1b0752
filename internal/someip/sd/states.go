package sd

// Concrete discovery states. Only the transitions exercised by the SD
// client contract are implemented; everything else is absorbed as a
// no-op, matching how protocol noise (duplicate Offers, late Stops,
// stray expiries) is treated as normal traffic.

// initialWaitPhaseState: no valid offer is known yet, or the last one
// lapsed.
type initialWaitPhaseState struct {
	record *Record
}

func (s *initialWaitPhaseState) tag() ClientState { return StateInitialWaitPhase }

func (s *initialWaitPhaseState) activate(previous ClientState) {
	s.record.offered = false
}

func (s *initialWaitPhaseState) deactivate(next ClientState) {}

func (s *initialWaitPhaseState) serviceOffered(ttl uint32) {
	r := s.record
	r.transit(StateServiceReady)
	// Hand the offer to the fresh ServiceReady state so it arms its
	// liveness timer. s is retired at this point; only the record may
	// be touched.
	r.state.serviceOffered(ttl)
}

func (s *initialWaitPhaseState) serviceNotRequested() {}

func (s *initialWaitPhaseState) serviceStopped() {}

func (s *initialWaitPhaseState) onTimerExpired() {}

// serviceReadyState: the service is offered and a TTL liveness timer
// runs. This is the only state that owns a running timer.
type serviceReadyState struct {
	record          *Record
	activated       bool
	clientRequested bool
}

func newServiceReadyState(r *Record) *serviceReadyState {
	return &serviceReadyState{record: r, clientRequested: true}
}

func (s *serviceReadyState) tag() ClientState { return StateServiceReady }

func (s *serviceReadyState) activate(previous ClientState) {
	s.activated = true
	r := s.record

	// Availability is published on the record, not on this state, so a
	// woken waiter never reads a retired state. Exactly one waiter is
	// woken; it re-checks the predicate after waking.
	r.offered = true
	r.cond.Signal()

	if !s.clientRequested {
		// Interest was withdrawn before entry; never linger in Ready.
		r.transit(StateServiceSeen)
		return
	}

	r.timer.SetExpirationCallback(s.expire)
}

func (s *serviceReadyState) deactivate(next ClientState) {
	// Callback removal is part of the transition, not an afterthought:
	// an expiry already in flight must find no callback installed.
	s.record.timer.ResetExpirationCallback()
	s.clientRequested = true
	s.activated = false
}

func (s *serviceReadyState) serviceOffered(ttl uint32) {
	r := s.record
	if ttl == 0 {
		switch r.ttlZeroPolicy {
		case TTLZeroUntracked:
			// Offer valid until an explicit Stop; no liveness tracking.
			r.timer.Cancel()
		default:
			r.timer.Cancel()
			r.transit(StateInitialWaitPhase)
		}
		return
	}
	r.timer.Reset(r.ttlDuration(ttl))
}

func (s *serviceReadyState) serviceNotRequested() {
	if s.activated {
		s.record.transit(StateServiceSeen)
		return
	}
	// Activation has not run yet; the pending activate will exit to
	// ServiceSeen on its own.
	s.clientRequested = false
}

func (s *serviceReadyState) serviceStopped() {
	s.record.timer.Cancel()
	s.record.transit(StateStopped)
}

func (s *serviceReadyState) onTimerExpired() {
	s.record.transit(StateInitialWaitPhase)
}

// expire runs on the timer goroutine when the TTL lapses. It re-enters
// the record's critical section and verifies this state instance is
// still the installed one; a fire that lost the race against a Stop or
// teardown must not resurrect a retired state.
func (s *serviceReadyState) expire() {
	s.record.deliver(func() {
		if s.record.state != clientState(s) {
			return
		}
		s.onTimerExpired()
	})
}

// serviceSeenState: the service is offered on the network but the
// client is not currently interested in it.
type serviceSeenState struct {
	record *Record
}

func (s *serviceSeenState) tag() ClientState { return StateServiceSeen }

func (s *serviceSeenState) activate(previous ClientState) {}

func (s *serviceSeenState) deactivate(next ClientState) {}

func (s *serviceSeenState) serviceOffered(ttl uint32) {}

func (s *serviceSeenState) serviceNotRequested() {}

func (s *serviceSeenState) serviceStopped() {
	s.record.transit(StateStopped)
}

func (s *serviceSeenState) onTimerExpired() {}

// stoppedState: the remote provider withdrew its offer. Terminal; a new
// discovery cycle requires a new record.
type stoppedState struct {
	record *Record
}

func (s *stoppedState) tag() ClientState { return StateStopped }

func (s *stoppedState) activate(previous ClientState) {
	s.record.offered = false
}

func (s *stoppedState) deactivate(next ClientState) {}

func (s *stoppedState) serviceOffered(ttl uint32) {}

func (s *stoppedState) serviceNotRequested() {}

func (s *stoppedState) serviceStopped() {}

func (s *stoppedState) onTimerExpired() {}
