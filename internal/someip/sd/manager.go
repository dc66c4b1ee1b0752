package sd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openvcu/someip/internal/logging"
	"github.com/openvcu/someip/internal/metrics"
)

// Key identifies one remote service instance.
type Key struct {
	ServiceID  uint16
	InstanceID uint16
}

func (k Key) String() string {
	return fmt.Sprintf("0x%04x/0x%04x", k.ServiceID, k.InstanceID)
}

// ServiceStatus is a point-in-time view of one record, shaped for the
// monitoring API.
type ServiceStatus struct {
	ServiceID  uint16 `json:"service_id"`
	InstanceID uint16 `json:"instance_id"`
	State      string `json:"state"`
	Offered    bool   `json:"offered"`
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	TTLZeroPolicy TTLZeroPolicy
	TTLUnit       time.Duration

	// Recorder receives discovery activity counts. Nil means Noop.
	Recorder metrics.Recorder

	// OnTransition, when set, receives every record state change after
	// logging and metrics have seen it. The daemon wires the monitoring
	// server's broadcast here.
	OnTransition func(Transition)
}

// Manager owns the discovery records, keyed by (serviceID, instanceID).
// Its map lock never spans record event delivery, so distinct records
// run fully in parallel.
type Manager struct {
	cfg      ManagerConfig
	recorder metrics.Recorder

	mu      sync.RWMutex
	records map[Key]*Record
}

// NewManager creates an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Noop{}
	}
	return &Manager{
		cfg:      cfg,
		recorder: cfg.Recorder,
		records:  make(map[Key]*Record),
	}
}

// Subscribe registers interest in a service instance and returns its
// record, creating one in InitialWaitPhase if none exists. A record
// whose discovery cycle already ended (Stopped) is replaced by a fresh
// one, since Stopped is terminal for a record's lifetime.
func (m *Manager) Subscribe(serviceID, instanceID uint16) *Record {
	key := Key{ServiceID: serviceID, InstanceID: instanceID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.records[key]; ok {
		if r.State() != StateStopped {
			return r
		}
		r.Close()
	}

	r := NewRecord(RecordConfig{
		ServiceID:     serviceID,
		InstanceID:    instanceID,
		TTLZeroPolicy: m.cfg.TTLZeroPolicy,
		TTLUnit:       m.cfg.TTLUnit,
		OnTransition:  m.observe,
	})
	m.records[key] = r

	logging.Debug("SD record subscribed",
		zapKey(key)...,
	)
	return r
}

// Release withdraws interest in a service instance and tears its
// record down. Unknown keys are ignored.
func (m *Manager) Release(serviceID, instanceID uint16) {
	key := Key{ServiceID: serviceID, InstanceID: instanceID}

	m.mu.Lock()
	r, ok := m.records[key]
	if ok {
		delete(m.records, key)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	r.ServiceNotRequested()
	if r.IsOffered() {
		// The record dies while the service is still on the network;
		// Close emits no transition, so the gauge is adjusted here.
		m.recorder.ServiceUnavailable()
	}
	r.Close()

	logging.Debug("SD record released",
		zapKey(key)...,
	)
}

// Record returns the record for a service instance, if tracked.
func (m *Manager) Record(serviceID, instanceID uint16) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[Key{ServiceID: serviceID, InstanceID: instanceID}]
	return r, ok
}

// MustRecord returns the record for a service instance and panics when
// it is not tracked. Accessing an absent record is a programming error,
// not a recoverable condition.
func (m *Manager) MustRecord(serviceID, instanceID uint16) *Record {
	r, ok := m.Record(serviceID, instanceID)
	if !ok {
		panic(fmt.Sprintf("sd: no record for service %s",
			Key{ServiceID: serviceID, InstanceID: instanceID}))
	}
	return r
}

// HandleOffer dispatches an inbound Offer entry. Offers for untracked
// instances are absorbed; the client only follows requested services.
func (m *Manager) HandleOffer(serviceID, instanceID uint16, ttl uint32) {
	r, ok := m.Record(serviceID, instanceID)
	if !ok {
		return
	}
	m.recorder.OfferReceived()
	r.HandleOffer(ttl)
}

// HandleStop dispatches an inbound StopOffer entry.
func (m *Manager) HandleStop(serviceID, instanceID uint16) {
	r, ok := m.Record(serviceID, instanceID)
	if !ok {
		return
	}
	m.recorder.StopReceived()
	r.HandleStop()
}

// Snapshot returns the status of every tracked record, ordered by
// service then instance ID.
func (m *Manager) Snapshot() []ServiceStatus {
	m.mu.RLock()
	records := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	m.mu.RUnlock()

	statuses := make([]ServiceStatus, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, ServiceStatus{
			ServiceID:  r.ServiceID(),
			InstanceID: r.InstanceID(),
			State:      r.State().String(),
			Offered:    r.IsOffered(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].ServiceID != statuses[j].ServiceID {
			return statuses[i].ServiceID < statuses[j].ServiceID
		}
		return statuses[i].InstanceID < statuses[j].InstanceID
	})
	return statuses
}

// Keys returns the tracked service instances, unordered.
func (m *Manager) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]Key, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	return keys
}

// Close tears down every record.
func (m *Manager) Close() {
	m.mu.Lock()
	records := m.records
	m.records = make(map[Key]*Record)
	m.mu.Unlock()

	for _, r := range records {
		r.Close()
	}
}

func zapKey(k Key) []zap.Field {
	return []zap.Field{
		zap.String("service", fmt.Sprintf("0x%04x", k.ServiceID)),
		zap.String("instance", fmt.Sprintf("0x%04x", k.InstanceID)),
	}
}

// observe fans each record transition out to logging, metrics, and the
// configured event sink. It runs outside any record lock.
func (m *Manager) observe(tr Transition) {
	logging.LogStateTransition(tr.ServiceID, tr.InstanceID, tr.From.String(), tr.To.String())

	m.recorder.StateTransition(tr.From.String(), tr.To.String())
	if tr.From == StateServiceReady && tr.To == StateInitialWaitPhase {
		m.recorder.TTLExpired()
	}
	if !tr.From.IsOffered() && tr.To.IsOffered() {
		m.recorder.ServiceAvailable()
	}
	if tr.From.IsOffered() && !tr.To.IsOffered() {
		m.recorder.ServiceUnavailable()
	}

	if m.cfg.OnTransition != nil {
		m.cfg.OnTransition(tr)
	}
}
