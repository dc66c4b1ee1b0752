package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openvcu/someip/internal/logging"
	"github.com/openvcu/someip/internal/someip/sd"
	"github.com/openvcu/someip/internal/version"
)

// servicesResponse is the body of GET /api/services.
type servicesResponse struct {
	Timestamp time.Time          `json:"timestamp"`
	Services  []sd.ServiceStatus `json:"services"`
}

// TransitionEvent is one websocket event on /ws.
type TransitionEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	ServiceID  uint16    `json:"service_id"`
	InstanceID uint16    `json:"instance_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Offered    bool      `json:"offered"`
}

func newTransitionEvent(tr sd.Transition) TransitionEvent {
	return TransitionEvent{
		Timestamp:  tr.Time,
		ServiceID:  tr.ServiceID,
		InstanceID: tr.InstanceID,
		From:       tr.From.String(),
		To:         tr.To.String(),
		Offered:    tr.To.IsOffered(),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/services", s.handleServices)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	if s.config.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.config.MetricsHandler)
	}
	return mux
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, servicesResponse{
		Timestamp: time.Now(),
		Services:  s.snapshot.Snapshot(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, version.Get())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}
