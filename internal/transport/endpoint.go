package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/openvcu/someip/internal/logging"
	"github.com/openvcu/someip/internal/someip"
	"github.com/openvcu/someip/internal/someip/sd"
)

// maxDatagramSize bounds one inbound SD datagram. SD messages are
// small; 1400 keeps them inside a typical MTU.
const maxDatagramSize = 1400

// Handler consumes the SD entries decoded from inbound datagrams. The
// discovery manager satisfies this.
type Handler interface {
	HandleOffer(serviceID, instanceID uint16, ttl uint32)
	HandleStop(serviceID, instanceID uint16)
}

// EndpointConfig configures the SD multicast endpoint.
type EndpointConfig struct {
	MulticastGroup string
	Port           int
	Interface      string // network interface name; empty = OS default
	ClientID       uint16
}

// Endpoint joins the SD multicast group, decodes inbound SD messages,
// and dispatches Offer/Stop entries to the handler. Outbound Find
// messages share one session id, advanced per send.
type Endpoint struct {
	cfg     EndpointConfig
	handler Handler
	group   *net.UDPAddr

	conn *net.UDPConn

	mu       sync.Mutex
	session  uint16
	rebooted bool // reboot flag cleared after first session wrap

	wg sync.WaitGroup
}

// NewEndpoint resolves the multicast group and prepares an endpoint.
// The socket is not opened until Start.
func NewEndpoint(cfg EndpointConfig, handler Handler) (*Endpoint, error) {
	group := net.ParseIP(cfg.MulticastGroup)
	if group == nil || !group.IsMulticast() {
		return nil, fmt.Errorf("transport: %q is not a multicast group", cfg.MulticastGroup)
	}
	return &Endpoint{
		cfg:     cfg,
		handler: handler,
		group:   &net.UDPAddr{IP: group, Port: cfg.Port},
		session: someip.SessionIDInactive,
	}, nil
}

// Start joins the multicast group and launches the receive loop. The
// loop stops when ctx is cancelled or Close is called.
func (e *Endpoint) Start(ctx context.Context) error {
	var iface *net.Interface
	if e.cfg.Interface != "" {
		found, err := net.InterfaceByName(e.cfg.Interface)
		if err != nil {
			return fmt.Errorf("transport: interface %q: %w", e.cfg.Interface, err)
		}
		iface = found
	}

	conn, err := net.ListenMulticastUDP("udp4", iface, e.group)
	if err != nil {
		return fmt.Errorf("transport: failed to join %s: %w", e.group, err)
	}
	if err := conn.SetReadBuffer(maxDatagramSize); err != nil {
		logging.Warn("Failed to set read buffer", zap.Error(err))
	}
	e.conn = conn

	logging.Info("SD endpoint listening",
		zap.String("group", e.group.String()),
		zap.String("interface", e.cfg.Interface),
	)

	e.wg.Add(1)
	go e.receiveLoop()

	context.AfterFunc(ctx, func() { _ = e.Close() })
	return nil
}

// Close leaves the multicast group and waits for the receive loop.
func (e *Endpoint) Close() error {
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.wg.Wait()
	return err
}

func (e *Endpoint) receiveLoop() {
	defer e.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			// Closed socket ends the loop.
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		e.handleDatagram(data, addr.String())
	}
}

// handleDatagram decodes one datagram and dispatches its entries.
// Malformed traffic is logged and dropped, never fatal.
func (e *Endpoint) handleDatagram(data []byte, remoteAddr string) {
	logging.LogDatagram("received", remoteAddr, data)

	msg, err := someip.Unmarshal(data)
	if err != nil {
		logging.Warn("Dropping malformed datagram",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	body, err := sd.ParseMessage(msg)
	if err != nil {
		logging.Warn("Dropping non-SD or malformed SD message",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	for _, entry := range body.Entries {
		e.dispatchEntry(entry)
	}
}

func (e *Endpoint) dispatchEntry(entry sd.Entry) {
	switch {
	case entry.IsStopOffer():
		logging.LogSdEntry("received", "stop-offer", entry.ServiceID, entry.InstanceID, 0)
		e.handler.HandleStop(entry.ServiceID, entry.InstanceID)
	case entry.Type == sd.EntryOfferService:
		logging.LogSdEntry("received", "offer", entry.ServiceID, entry.InstanceID, entry.TTL)
		e.handler.HandleOffer(entry.ServiceID, entry.InstanceID, entry.TTL)
	default:
		// Finds from other clients are not ours to answer.
	}
}

// SendFind multicasts a FindService entry for each given key.
func (e *Endpoint) SendFind(keys []sd.Key) error {
	if len(keys) == 0 {
		return nil
	}
	if e.conn == nil {
		return fmt.Errorf("transport: endpoint not started")
	}

	body := &sd.Message{}
	for _, k := range keys {
		body.Entries = append(body.Entries, sd.NewFindEntry(k.ServiceID, k.InstanceID))
		logging.LogSdEntry("sent", "find", k.ServiceID, k.InstanceID, sd.MaxTTL)
	}
	body.Flags = e.nextFlags()

	msg := body.ToSomeIp(e.cfg.ClientID, e.nextSession())
	if _, err := e.conn.WriteToUDP(msg.Marshal(), e.group); err != nil {
		return fmt.Errorf("transport: failed to send find: %w", err)
	}
	return nil
}

// nextSession advances the shared outbound session id, clearing the
// reboot flag on the first wrap.
func (e *Endpoint) nextSession() uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()

	msg := someip.Message{SessionID: e.session}
	if msg.IncrementSessionID() {
		e.rebooted = true
	}
	e.session = msg.SessionID
	return e.session
}

func (e *Endpoint) nextFlags() uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rebooted {
		return 0
	}
	return sd.FlagReboot
}
