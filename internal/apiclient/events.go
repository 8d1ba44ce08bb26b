package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/spark-heimdall/heimdall/internal/events"
)

// wsURL maps an http(s) URL onto the matching ws(s) scheme.
func wsURL(httpURL string) string {
	switch {
	case strings.HasPrefix(httpURL, "https://"):
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	case strings.HasPrefix(httpURL, "http://"):
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	default:
		return httpURL
	}
}

// WatchEvents opens the backend event stream, subscribes to every event
// type and calls fn for each event frame until ctx is cancelled or the
// connection drops. fn runs on the reading goroutine.
//
// A cancelled ctx ends the watch with a nil error.
func (c *Client) WatchEvents(ctx context.Context, fn func(events.Message), opts ...CallOption) error {
	o := resolveOptions("Failed to open event stream", opts)
	url := wsURL(c.URL("events"))

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
		Jar:              c.http.Jar,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck // Handshake body is unused
	}
	if err != nil {
		if resp != nil {
			c.logger.Warn("event stream rejected", "url", url, "status", resp.StatusCode)
			return &HTTPError{StatusCode: resp.StatusCode, Message: o.errorText}
		}
		return fmt.Errorf("dialing %s: %w", url, err)
	}
	defer conn.Close()

	sub, err := events.NewMessage(events.TypeSubscribe, events.SubscribePayload{Channels: events.All()})
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}

	// Unblock ReadJSON when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close() //nolint:errcheck // Forces the read loop to return
		case <-done:
		}
	}()

	c.logger.Debug("event stream open", "url", url)

	for {
		var msg events.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("event stream closed: %w", err)
			}
			return fmt.Errorf("reading event stream: %w", err)
		}

		switch msg.Type {
		case events.TypeEvent:
			fn(msg)
		case events.TypeError:
			c.logger.Warn("event stream error frame", "payload", string(msg.Payload))
		}
	}
}
