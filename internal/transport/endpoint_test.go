package transport

import (
	"sync"
	"testing"

	"github.com/openvcu/someip/internal/someip"
	"github.com/openvcu/someip/internal/someip/sd"
)

type recordedEvent struct {
	kind       string
	serviceID  uint16
	instanceID uint16
	ttl        uint32
}

type stubHandler struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (h *stubHandler) HandleOffer(serviceID, instanceID uint16, ttl uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{"offer", serviceID, instanceID, ttl})
}

func (h *stubHandler) HandleStop(serviceID, instanceID uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{"stop", serviceID, instanceID, 0})
}

func newTestEndpoint(t *testing.T) (*Endpoint, *stubHandler) {
	t.Helper()
	handler := &stubHandler{}
	e, err := NewEndpoint(EndpointConfig{
		MulticastGroup: "224.244.224.245",
		Port:           30490,
		ClientID:       0x2001,
	}, handler)
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}
	return e, handler
}

func sdDatagram(t *testing.T, entries ...sd.Entry) []byte {
	t.Helper()
	body := &sd.Message{Entries: entries}
	return body.ToSomeIp(0x2001, 1).Marshal()
}

func TestNewEndpointRejectsNonMulticastGroup(t *testing.T) {
	for _, group := range []string{"10.0.0.1", "not-an-ip", ""} {
		if _, err := NewEndpoint(EndpointConfig{MulticastGroup: group}, &stubHandler{}); err == nil {
			t.Errorf("NewEndpoint(%q) succeeded, want error", group)
		}
	}
}

func TestHandleDatagramDispatchesEntries(t *testing.T) {
	e, handler := newTestEndpoint(t)

	e.handleDatagram(sdDatagram(t,
		sd.NewOfferEntry(0x1234, 0x0001, 3000),
		sd.NewStopOfferEntry(0x4711, 0x0002),
		sd.NewFindEntry(0x9999, 0x0001), // someone else's find, ignored
	), "10.0.0.7:30490")

	want := []recordedEvent{
		{"offer", 0x1234, 0x0001, 3000},
		{"stop", 0x4711, 0x0002, 0},
	}
	if len(handler.events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(handler.events), len(want), handler.events)
	}
	for i, w := range want {
		if handler.events[i] != w {
			t.Errorf("event %d = %+v, want %+v", i, handler.events[i], w)
		}
	}
}

func TestHandleDatagramDropsMalformedTraffic(t *testing.T) {
	e, handler := newTestEndpoint(t)

	// Truncated header.
	e.handleDatagram([]byte{0xFF, 0xFF, 0x81}, "10.0.0.7:30490")

	// Valid SOME/IP message that is not an SD message.
	other := &someip.Message{
		MessageID: someip.NewMessageID(0x1234, 0x0001),
		SessionID: 1,
		Type:      someip.MsgTypeRequest,
	}
	e.handleDatagram(other.Marshal(), "10.0.0.7:30490")

	// SD message id with a garbage payload.
	garbage := &someip.Message{
		MessageID: sd.SdMessageID,
		SessionID: 1,
		Type:      someip.MsgTypeNotification,
		Payload:   []byte{0x01, 0x02},
	}
	e.handleDatagram(garbage.Marshal(), "10.0.0.7:30490")

	if len(handler.events) != 0 {
		t.Errorf("malformed traffic produced events: %+v", handler.events)
	}
}

func TestNextSessionAdvancesAndWraps(t *testing.T) {
	e, _ := newTestEndpoint(t)

	if got := e.nextSession(); got != 1 {
		t.Errorf("first session id = %d, want 1", got)
	}
	if e.nextFlags() != sd.FlagReboot {
		t.Error("reboot flag cleared before first wrap")
	}

	e.mu.Lock()
	e.session = someip.MaxSessionID
	e.mu.Unlock()

	if got := e.nextSession(); got != 1 {
		t.Errorf("session id after wrap = %d, want 1", got)
	}
	if e.nextFlags() != 0 {
		t.Error("reboot flag still set after session wrap")
	}
}
