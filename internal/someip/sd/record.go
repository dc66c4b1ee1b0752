package sd

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrRecordClosed is returned by WaitUntilOffered when the record was
// released while the caller was still blocked.
var ErrRecordClosed = errors.New("sd: record closed")

// TTLZeroPolicy decides what an Offer carrying TTL 0 means for a record
// that is tracking liveness.
type TTLZeroPolicy uint8

const (
	// TTLZeroExpire treats TTL 0 as immediate liveness loss: the record
	// falls back to InitialWaitPhase as if the timer had expired.
	TTLZeroExpire TTLZeroPolicy = iota

	// TTLZeroUntracked treats TTL 0 as "valid until explicit Stop": the
	// liveness timer is disarmed and only a Stop ends availability.
	TTLZeroUntracked
)

// ParseTTLZeroPolicy maps the configuration spelling to a policy.
func ParseTTLZeroPolicy(s string) (TTLZeroPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expire":
		return TTLZeroExpire, nil
	case "untracked":
		return TTLZeroUntracked, nil
	default:
		return TTLZeroExpire, fmt.Errorf("sd: unknown ttl zero policy %q", s)
	}
}

func (p TTLZeroPolicy) String() string {
	if p == TTLZeroUntracked {
		return "untracked"
	}
	return "expire"
}

// Transition describes one observed state change of a record. Values
// are delivered to the record's transition callback outside the
// record's critical section, in transition order.
type Transition struct {
	ServiceID  uint16
	InstanceID uint16
	From       ClientState
	To         ClientState
	Time       time.Time
}

// RecordConfig configures a discovery record.
type RecordConfig struct {
	ServiceID  uint16
	InstanceID uint16

	// TTLZeroPolicy selects the Offer(ttl=0) behavior. Zero value is
	// TTLZeroExpire.
	TTLZeroPolicy TTLZeroPolicy

	// TTLUnit is the duration of one TTL unit. Zero means time.Second.
	// Tests shrink this to drive the liveness timer quickly.
	TTLUnit time.Duration

	// OnTransition, when set, receives every state change. It is called
	// without the record lock held and must not block for long; event
	// delivery to this record stalls until it returns.
	OnTransition func(Transition)
}

// Record tracks the availability of one remote service instance. It
// owns exactly one live state object at any instant and serializes all
// event delivery, whether from the transport, the timer goroutine, or
// application threads.
type Record struct {
	serviceID  uint16
	instanceID uint16

	ttlZeroPolicy TTLZeroPolicy
	ttlUnit       time.Duration
	onTransition  func(Transition)

	mu      sync.Mutex
	cond    *sync.Cond
	state   clientState
	timer   *TtlTimer
	offered bool
	closed  bool

	// pending accumulates transitions made inside the current critical
	// section; deliver drains it after unlocking.
	pending []Transition
}

// NewRecord creates a record in InitialWaitPhase.
func NewRecord(cfg RecordConfig) *Record {
	r := &Record{
		serviceID:     cfg.ServiceID,
		instanceID:    cfg.InstanceID,
		ttlZeroPolicy: cfg.TTLZeroPolicy,
		ttlUnit:       cfg.TTLUnit,
		onTransition:  cfg.OnTransition,
		timer:         NewTtlTimer(),
	}
	if r.ttlUnit <= 0 {
		r.ttlUnit = time.Second
	}
	r.cond = sync.NewCond(&r.mu)
	r.state = &initialWaitPhaseState{record: r}
	return r
}

func (r *Record) ServiceID() uint16  { return r.serviceID }
func (r *Record) InstanceID() uint16 { return r.instanceID }

// State returns the current lifecycle phase.
func (r *Record) State() ClientState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.tag()
}

// IsOffered reports whether the service is currently offered on the
// network.
func (r *Record) IsOffered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offered
}

// HandleOffer delivers an inbound Offer entry for this instance. TTL is
// in TTL units; 0 is interpreted per the record's TTLZeroPolicy.
func (r *Record) HandleOffer(ttl uint32) {
	r.deliver(func() { r.state.serviceOffered(ttl) })
}

// HandleStop delivers an inbound StopOffer for this instance.
func (r *Record) HandleStop() {
	r.deliver(func() { r.state.serviceStopped() })
}

// ServiceNotRequested signals loss of local interest in the service.
func (r *Record) ServiceNotRequested() {
	r.deliver(func() { r.state.serviceNotRequested() })
}

// WaitUntilOffered blocks the calling goroutine until the service is
// offered or the record is closed. Waking is availability-driven, not
// edge-driven: the predicate is re-checked after every wake.
func (r *Record) WaitUntilOffered() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for !r.offered && !r.closed {
		r.cond.Wait()
	}
	if !r.offered {
		return ErrRecordClosed
	}
	return nil
}

// Close tears the record down: the timer is cancelled, its callback
// removed even on paths that skipped a transition, and all waiters are
// released. Events delivered after Close are dropped.
func (r *Record) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.offered = false
	r.timer.Cancel()
	r.timer.ResetExpirationCallback()
	r.cond.Broadcast()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	r.emit(pending)
}

// transit swaps the active state: the outgoing state's deactivate runs
// to completion, the replacement is constructed and installed, then its
// activate runs. Callable from inside an event handler of the state
// being replaced; the caller must not touch that state afterwards.
// Caller holds r.mu.
func (r *Record) transit(next ClientState) {
	from := r.state.tag()
	r.state.deactivate(next)
	r.state = r.newState(next)
	r.pending = append(r.pending, Transition{
		ServiceID:  r.serviceID,
		InstanceID: r.instanceID,
		From:       from,
		To:         next,
		Time:       time.Now(),
	})
	r.state.activate(from)
}

func (r *Record) newState(tag ClientState) clientState {
	switch tag {
	case StateServiceReady:
		return newServiceReadyState(r)
	case StateServiceSeen:
		return &serviceSeenState{record: r}
	case StateStopped:
		return &stoppedState{record: r}
	default:
		return &initialWaitPhaseState{record: r}
	}
}

// deliver runs fn as one critical section on the record and then emits
// any transitions it produced, in order, outside the lock.
func (r *Record) deliver(fn func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	fn()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	r.emit(pending)
}

func (r *Record) emit(transitions []Transition) {
	if r.onTransition == nil {
		return
	}
	for _, tr := range transitions {
		r.onTransition(tr)
	}
}

func (r *Record) ttlDuration(ttl uint32) time.Duration {
	return time.Duration(ttl) * r.ttlUnit
}
