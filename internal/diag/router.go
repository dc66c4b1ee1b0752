// Package diag routes UDS diagnostic requests to registered services.
//
// The router sits outside the discovery machinery: a request for a
// service ID with no registered, offered handler is answered by the
// router itself with the UDS negative response [0x7F, sid, 0x11],
// resolved immediately.
package diag

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openvcu/someip/internal/logging"
)

// UDS negative response framing.
const (
	NegativeResponseSID uint8 = 0x7F

	NRCGeneralReject       uint8 = 0x10
	NRCServiceNotSupported uint8 = 0x11
	NRCBusyRepeatRequest   uint8 = 0x21
)

// MetaInfo carries transport metadata alongside a request.
type MetaInfo map[string]string

// OperationOutput is the asynchronous result of one routed request.
type OperationOutput struct {
	ResponseData []byte
}

// RoutableService handles UDS requests for one service ID. Handlers
// run on the router's goroutine for that request; long operations
// should honor the context.
type RoutableService interface {
	SID() uint8
	IsOffered() bool
	HandleMessage(ctx context.Context, request []byte, meta MetaInfo) OperationOutput
}

// Router dispatches requests by UDS service ID.
type Router struct {
	mu       sync.RWMutex
	services map[uint8]RoutableService
}

func NewRouter() *Router {
	return &Router{services: make(map[uint8]RoutableService)}
}

// Register adds a service. A second registration for the same SID is
// rejected; deregister the first one explicitly.
func (r *Router) Register(s RoutableService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[s.SID()]; ok {
		return fmt.Errorf("diag: service 0x%02x already registered", s.SID())
	}
	r.services[s.SID()] = s
	return nil
}

// Deregister removes the service for sid, if any. In-flight requests
// already routed to it are unaffected.
func (r *Router) Deregister(sid uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, sid)
}

// NegativeResponse builds the UDS negative response for sid with the
// given NRC.
func NegativeResponse(sid, nrc uint8) []byte {
	return []byte{NegativeResponseSID, sid, nrc}
}

// Route dispatches a request and returns a single-result channel. When
// no registered handler for sid is currently offered, the router
// resolves immediately with serviceNotSupported and never touches the
// handler. A context cancelled mid-request resolves with busyRepeatRequest.
func (r *Router) Route(ctx context.Context, sid uint8, request []byte, meta MetaInfo) <-chan OperationOutput {
	out := make(chan OperationOutput, 1)

	r.mu.RLock()
	svc, ok := r.services[sid]
	r.mu.RUnlock()

	if !ok || !svc.IsOffered() {
		logging.Debug("UDS request for unavailable service",
			zap.String("sid", fmt.Sprintf("0x%02x", sid)),
			zap.Bool("registered", ok),
		)
		out <- OperationOutput{ResponseData: NegativeResponse(sid, NRCServiceNotSupported)}
		close(out)
		return out
	}

	go func() {
		defer close(out)

		result := make(chan OperationOutput, 1)
		go func() {
			result <- svc.HandleMessage(ctx, request, meta)
		}()

		select {
		case output := <-result:
			out <- output
		case <-ctx.Done():
			out <- OperationOutput{ResponseData: NegativeResponse(sid, NRCBusyRepeatRequest)}
		}
	}()
	return out
}
