package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openvcu/someip/internal/server"
	"github.com/openvcu/someip/internal/someip/sd"
)

// Client talks to a running daemon's monitoring server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for a monitoring server base URL, e.g.
// "http://127.0.0.1:8730".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// FetchServices retrieves the current service snapshot.
func (c *Client) FetchServices(ctx context.Context) ([]sd.ServiceStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/services", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch services: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("monitoring server returned %s", resp.Status)
	}

	var body struct {
		Services []sd.ServiceStatus `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return body.Services, nil
}

// Stream connects to the /ws event stream and delivers transition
// events until the context is cancelled or the connection drops, at
// which point the channel closes.
func (c *Client) Stream(ctx context.Context) (<-chan server.TransitionEvent, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	events := make(chan server.TransitionEvent)
	go func() {
		defer close(events)
		defer conn.Close()

		context.AfterFunc(ctx, func() { _ = conn.Close() })

		for {
			var event server.TransitionEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
