package diag

import (
	"bytes"
	"context"
	"testing"
	"time"
)

type stubService struct {
	sid     uint8
	offered bool
	handle  func(ctx context.Context, request []byte, meta MetaInfo) OperationOutput
}

func (s *stubService) SID() uint8      { return s.sid }
func (s *stubService) IsOffered() bool { return s.offered }

func (s *stubService) HandleMessage(ctx context.Context, request []byte, meta MetaInfo) OperationOutput {
	if s.handle != nil {
		return s.handle(ctx, request, meta)
	}
	return OperationOutput{}
}

func receive(t *testing.T, ch <-chan OperationOutput) OperationOutput {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("no routed result")
		return OperationOutput{}
	}
}

func TestRouteToOfferedService(t *testing.T) {
	router := NewRouter()
	svc := &stubService{
		sid:     0x22,
		offered: true,
		handle: func(_ context.Context, request []byte, meta MetaInfo) OperationOutput {
			if meta["source"] != "test" {
				t.Errorf("meta = %v", meta)
			}
			// Positive response: SID+0x40 followed by echoed data.
			return OperationOutput{ResponseData: append([]byte{0x62}, request[1:]...)}
		},
	}
	if err := router.Register(svc); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	out := receive(t, router.Route(context.Background(), 0x22,
		[]byte{0x22, 0xF1, 0x90}, MetaInfo{"source": "test"}))

	if want := []byte{0x62, 0xF1, 0x90}; !bytes.Equal(out.ResponseData, want) {
		t.Errorf("response = % x, want % x", out.ResponseData, want)
	}
}

func TestRouteUnknownSidSynthesizesNegativeResponse(t *testing.T) {
	router := NewRouter()

	out := receive(t, router.Route(context.Background(), 0x31, []byte{0x31}, nil))

	if want := []byte{0x7F, 0x31, 0x11}; !bytes.Equal(out.ResponseData, want) {
		t.Errorf("response = % x, want % x", out.ResponseData, want)
	}
}

func TestRouteNotOfferedServiceGetsNegativeResponse(t *testing.T) {
	router := NewRouter()
	handled := false
	if err := router.Register(&stubService{
		sid: 0x22,
		handle: func(context.Context, []byte, MetaInfo) OperationOutput {
			handled = true
			return OperationOutput{}
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	out := receive(t, router.Route(context.Background(), 0x22, []byte{0x22}, nil))

	if want := []byte{0x7F, 0x22, 0x11}; !bytes.Equal(out.ResponseData, want) {
		t.Errorf("response = % x, want % x", out.ResponseData, want)
	}
	if handled {
		t.Error("handler invoked for a service that is not offered")
	}
}

func TestRouteDuplicateRegistration(t *testing.T) {
	router := NewRouter()
	if err := router.Register(&stubService{sid: 0x22}); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := router.Register(&stubService{sid: 0x22}); err == nil {
		t.Error("duplicate Register() succeeded")
	}
}

func TestRouteCancellation(t *testing.T) {
	router := NewRouter()
	blocked := make(chan struct{})
	if err := router.Register(&stubService{
		sid:     0x22,
		offered: true,
		handle: func(ctx context.Context, _ []byte, _ MetaInfo) OperationOutput {
			<-blocked
			return OperationOutput{ResponseData: []byte{0x62}}
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	ch := router.Route(ctx, 0x22, []byte{0x22}, nil)
	cancel()

	out := receive(t, ch)
	if want := []byte{0x7F, 0x22, 0x21}; !bytes.Equal(out.ResponseData, want) {
		t.Errorf("response = % x, want % x", out.ResponseData, want)
	}
}

func TestDeregister(t *testing.T) {
	router := NewRouter()
	if err := router.Register(&stubService{sid: 0x22, offered: true}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	router.Deregister(0x22)

	out := receive(t, router.Route(context.Background(), 0x22, []byte{0x22}, nil))
	if want := []byte{0x7F, 0x22, 0x11}; !bytes.Equal(out.ResponseData, want) {
		t.Errorf("response = % x, want % x", out.ResponseData, want)
	}
}
