package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openvcu/someip/internal/someip/sd"
)

type stubSnapshotter struct {
	statuses []sd.ServiceStatus
}

func (s *stubSnapshotter) Snapshot() []sd.ServiceStatus { return s.statuses }

func newTestServer(t *testing.T, snap Snapshotter) (*Server, *httptest.Server) {
	t.Helper()
	if snap == nil {
		snap = &stubSnapshotter{}
	}
	s := New(&Config{Host: "127.0.0.1", Port: 0}, snap)
	go s.hub.Run()
	ts := httptest.NewServer(s.routes())
	t.Cleanup(func() {
		ts.Close()
		s.hub.Close()
	})
	return s, ts
}

func TestServicesEndpoint(t *testing.T) {
	snap := &stubSnapshotter{statuses: []sd.ServiceStatus{
		{ServiceID: 0x1234, InstanceID: 0x0001, State: "ServiceReady", Offered: true},
		{ServiceID: 0x4711, InstanceID: 0x0002, State: "InitialWaitPhase", Offered: false},
	}}
	_, ts := newTestServer(t, snap)

	resp, err := http.Get(ts.URL + "/api/services")
	if err != nil {
		t.Fatalf("GET /api/services error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body servicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(body.Services) != 2 {
		t.Fatalf("got %d services, want 2", len(body.Services))
	}
	if body.Services[0].ServiceID != 0x1234 || !body.Services[0].Offered {
		t.Errorf("services[0] = %+v", body.Services[0])
	}
}

func TestVersionEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/version")
	if err != nil {
		t.Fatalf("GET /api/version error = %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.Version == "" {
		t.Error("empty version")
	}
}

func TestMetricsRouteDisabledWithoutHandler(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebSocketStreamsTransitions(t *testing.T) {
	s, ts := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Registration races the broadcast; poll until the event lands.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.hub.mu.Lock()
		n := len(s.hub.clients)
		s.hub.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	s.Broadcast(sd.Transition{
		ServiceID:  0x1234,
		InstanceID: 0x0001,
		From:       sd.StateInitialWaitPhase,
		To:         sd.StateServiceReady,
		Time:       time.Now(),
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event TransitionEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON error = %v", err)
	}

	if event.ServiceID != 0x1234 || event.To != "ServiceReady" || !event.Offered {
		t.Errorf("event = %+v", event)
	}
}

func TestHubDropsBroadcastAfterClose(t *testing.T) {
	h := NewHub()

	ranDone := make(chan struct{})
	go func() {
		h.Run()
		close(ranDone)
	}()

	h.Close()

	// Discovery events can still arrive while the daemon tears down its
	// endpoint and records; they must be dropped, not panic a sender.
	for i := 0; i < 100; i++ {
		h.Broadcast(TransitionEvent{
			ServiceID: 0x1234,
			From:      "ServiceReady",
			To:        "Stopped",
		})
	}

	select {
	case <-ranDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after Close")
	}

	// Close is idempotent.
	h.Close()
}

func TestBroadcastBeforeStartDoesNotBlock(t *testing.T) {
	s := New(&Config{Host: "127.0.0.1", Port: 0}, &stubSnapshotter{})

	// Events sent before the hub runs fill the queue and then drop.
	for i := 0; i < 200; i++ {
		s.Broadcast(sd.Transition{
			ServiceID:  0x1234,
			InstanceID: 0x0001,
			From:       sd.StateInitialWaitPhase,
			To:         sd.StateServiceReady,
			Time:       time.Now(),
		})
	}
	s.hub.Close()
}
