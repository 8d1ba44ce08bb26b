package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"

	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/settings"
)

// recordedRequest captures what the fake backend saw.
type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// fakeBackend answers every request with a fixed status and body and
// records the request.
type fakeBackend struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []recordedRequest
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        path.Clean(r.URL.Path),
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	status, resp := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

func (f *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("backend saw no request")
	}
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, status int, body string) (*Client, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{status: status, body: body}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, backend
}

func TestNew_EmptyBaseURL(t *testing.T) {
	for _, base := range []string{"", "   "} {
		c, err := New(base)
		if c != nil {
			t.Errorf("New(%q) returned a client", base)
		}
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("New(%q) error = %v, want *ConfigurationError", base, err)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("New(%q) error should match ErrConfiguration", base)
		}
	}
}

func TestClient_URL(t *testing.T) {
	c, err := New("http://h")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		endpoint string
		want     string
	}{
		{"devices", "http://h/api/devices"},
		{"devices/7", "http://h/api/devices/7"},
		{"config", "http://h/api/config"},
		{"events", "http://h/api/events"},
		{"connect/7", "http://hconnect/7"},
		{"connect", "http://hconnect"},
		{"disconnect", "http://hdisconnect"},
		{"connections", "http://h/api/connections"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			if got := c.URL(tt.endpoint); got != tt.want {
				t.Errorf("URL(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}

func TestListDevices_ReturnsBackendOrder(t *testing.T) {
	c, backend := newTestClient(t, http.StatusOK,
		`{"success":true,"data":[{"id":"1","name":"B"},{"id":"2","name":"A"}]}`)

	got, err := c.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[0].Name != "B" || got[1].ID != "2" || got[1].Name != "A" {
		t.Errorf("ListDevices() = %+v, want [1:B 2:A] unchanged", got)
	}

	req := backend.last(t)
	if req.Method != http.MethodGet || req.Path != "/api/devices" {
		t.Errorf("request = %s %s, want GET /api/devices", req.Method, req.Path)
	}
	if req.ContentType != "" {
		t.Errorf("GET without body set Content-Type %q", req.ContentType)
	}
}

func TestListDevices_AbsentDataIsEmpty(t *testing.T) {
	for _, body := range []string{`{"success":true}`, `{"success":true,"data":null}`} {
		c, _ := newTestClient(t, http.StatusOK, body)

		got, err := c.ListDevices(context.Background())
		if err != nil {
			t.Fatalf("ListDevices(%s) error = %v", body, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("ListDevices(%s) = %#v, want empty non-nil slice", body, got)
		}
	}
}

func TestRemoteErrorSurfacesMessage(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"success":false,"error":"not found"}`)

	calls := map[string]func() error{
		"ListDevices": func() error { _, err := c.ListDevices(context.Background()); return err },
		"AddDevice": func() error {
			_, err := c.AddDevice(context.Background(), device.NewDevice{Name: "x"})
			return err
		},
		"UpdateDevice": func() error {
			_, err := c.UpdateDevice(context.Background(), device.Device{ID: "1"})
			return err
		},
		"DeleteDevice":    func() error { return c.DeleteDevice(context.Background(), "1") },
		"GetConfig":       func() error { _, err := c.GetConfig(context.Background()); return err },
		"UpdateConfig":    func() error { return c.UpdateConfig(context.Background(), settings.Update{}) },
		"ConnectToDevice": func() error { return c.ConnectToDevice(context.Background(), "1") },
		"Disconnect":      func() error { return c.Disconnect(context.Background()) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			var remote *RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("error = %v, want *RemoteError", err)
			}
			if err.Error() != "not found" {
				t.Errorf("Error() = %q, want %q", err.Error(), "not found")
			}
			if !errors.Is(err, ErrRemote) || errors.Is(err, ErrEnvelope) || errors.Is(err, ErrHTTP) {
				t.Errorf("error classification wrong for %v", err)
			}
		})
	}
}

func TestDataExpected_MissingDataIsEnvelopeError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"success":true}`)

	calls := map[string]func() error{
		"AddDevice": func() error {
			_, err := c.AddDevice(context.Background(), device.NewDevice{Name: "x"})
			return err
		},
		"UpdateDevice": func() error {
			_, err := c.UpdateDevice(context.Background(), device.Device{ID: "1"})
			return err
		},
		"GetConfig": func() error { _, err := c.GetConfig(context.Background()); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			if !errors.Is(err, ErrEnvelope) {
				t.Fatalf("error = %v, want ErrEnvelope", err)
			}
			if err.Error() != "There was a problem fetching data." {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestNoDataOperationsIgnoreData(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"success":true}`)
	ctx := context.Background()

	if err := c.DeleteDevice(ctx, "1"); err != nil {
		t.Errorf("DeleteDevice() error = %v", err)
	}
	if err := c.UpdateConfig(ctx, settings.Update{}); err != nil {
		t.Errorf("UpdateConfig() error = %v", err)
	}
	if err := c.ConnectToDevice(ctx, "1"); err != nil {
		t.Errorf("ConnectToDevice() error = %v", err)
	}
	if err := c.Disconnect(ctx); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
}

func TestEnvelopeViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing success", `{"data":[]}`},
		{"success not bool", `{"success":"true","data":[]}`},
		{"failure without error", `{"success":false}`},
		{"failure with non-string error", `{"success":false,"error":{"code":1}}`},
		{"wrong data shape", `{"success":true,"data":{"id":"1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.StatusOK, tt.body)
			_, err := c.ListDevices(context.Background())

			var envErr *EnvelopeError
			if !errors.As(err, &envErr) {
				t.Fatalf("error = %v, want *EnvelopeError", err)
			}
			if errors.Is(err, ErrRemote) {
				t.Error("envelope violation should not match ErrRemote")
			}
		})
	}
}

func TestHTTPError_UsesDescription(t *testing.T) {
	tests := []struct {
		name     string
		call     func(c *Client) error
		wantText string
	}{
		{
			name:     "default description",
			call:     func(c *Client) error { _, err := c.ListDevices(context.Background()); return err },
			wantText: "Failed to fetch devices",
		},
		{
			name: "caller description",
			call: func(c *Client) error {
				return c.Disconnect(context.Background(), WithErrorText("could not hang up"))
			},
			wantText: "could not hang up",
		},
		{
			name: "empty description falls back to verb message",
			call: func(c *Client) error {
				return c.DeleteDevice(context.Background(), "1", WithErrorText(""))
			},
			wantText: "There was a problem with the delete request.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The body is a valid failure envelope; it must not be parsed.
			c, _ := newTestClient(t, http.StatusInternalServerError, `{"success":false,"error":"boom"}`)

			err := tt.call(c)
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("error = %v, want *HTTPError", err)
			}
			if httpErr.StatusCode != http.StatusInternalServerError {
				t.Errorf("StatusCode = %d, want 500", httpErr.StatusCode)
			}
			if httpErr.Message != tt.wantText {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantText)
			}
			if errors.Is(err, ErrRemote) {
				t.Error("HTTP failure should not match ErrRemote")
			}
		})
	}
}

func TestAddDevice_SendsJSONBody(t *testing.T) {
	c, backend := newTestClient(t, http.StatusCreated,
		`{"success":true,"data":{"id":"3","name":"Mid","ip_address":"10.0.0.3","protocol":"vnc","port":0,"full_screen":false}}`)

	got, err := c.AddDevice(context.Background(), device.NewDevice{
		Name:      "Mid",
		IPAddress: "10.0.0.3",
		Protocol:  device.ProtocolVNC,
	})
	if err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	if got.ID != "3" || got.Name != "Mid" {
		t.Errorf("AddDevice() = %+v", got)
	}

	req := backend.last(t)
	if req.Method != http.MethodPost || req.Path != "/api/devices" {
		t.Errorf("request = %s %s, want POST /api/devices", req.Method, req.Path)
	}
	if req.ContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", req.ContentType)
	}
	var sent map[string]any
	if err := json.Unmarshal(req.Body, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if _, ok := sent["id"]; ok {
		t.Error("new device body should not carry an id")
	}
	if sent["ip_address"] != "10.0.0.3" {
		t.Errorf("ip_address = %v", sent["ip_address"])
	}
}

func TestUpdateDevice_UsesIDInPath(t *testing.T) {
	c, backend := newTestClient(t, http.StatusOK,
		`{"success":true,"data":{"id":"7","name":"Renamed","ip_address":"h","protocol":"rdp","port":0,"full_screen":true}}`)

	got, err := c.UpdateDevice(context.Background(), device.Device{
		ID: "7", Name: "Renamed", IPAddress: "h", Protocol: device.ProtocolRDP, FullScreen: true,
	})
	if err != nil {
		t.Fatalf("UpdateDevice() error = %v", err)
	}
	if !got.FullScreen || got.Protocol != device.ProtocolRDP {
		t.Errorf("UpdateDevice() = %+v", got)
	}

	req := backend.last(t)
	if req.Method != http.MethodPut || req.Path != "/api/devices/7" {
		t.Errorf("request = %s %s, want PUT /api/devices/7", req.Method, req.Path)
	}
}

func TestControlEndpoints(t *testing.T) {
	c, backend := newTestClient(t, http.StatusOK, `{"success":true}`)
	ctx := context.Background()

	if err := c.ConnectToDevice(ctx, "7"); err != nil {
		t.Fatalf("ConnectToDevice() error = %v", err)
	}
	req := backend.last(t)
	if req.Method != http.MethodPost || req.Path != "/connect/7" {
		t.Errorf("request = %s %s, want POST /connect/7", req.Method, req.Path)
	}
	if len(req.Body) != 0 {
		t.Errorf("connect sent a body: %q", req.Body)
	}

	if err := c.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	req = backend.last(t)
	if req.Method != http.MethodPost || req.Path != "/disconnect" {
		t.Errorf("request = %s %s, want POST /disconnect", req.Method, req.Path)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	c, backend := newTestClient(t, http.StatusOK, `{"success":true,"data":{
		"server":{"port":8080},
		"connection":{"auto_start":true,"auto_start_id":"abc"},
		"clients":{"vnc_viewer":"vncviewer","vnc_password_file":"/p","rdp_viewer":"xfreerdp"},
		"logging":{"level":"info","format":"json"}}}`)
	ctx := context.Background()

	cfg, err := c.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.Server.Port != 8080 || !cfg.Connection.AutoStart || cfg.Connection.AutoStartID != "abc" {
		t.Errorf("GetConfig() = %+v", cfg)
	}

	port := 9090
	if err := c.UpdateConfig(ctx, settings.Update{Server: &settings.ServerUpdate{Port: &port}}); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	req := backend.last(t)
	if req.Method != http.MethodPut || req.Path != "/api/config" {
		t.Errorf("request = %s %s, want PUT /api/config", req.Method, req.Path)
	}
	if string(req.Body) != `{"server":{"port":9090}}` {
		t.Errorf("body = %s, want only the server port", req.Body)
	}
}

func TestTransportErrorIsNotClassified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/"
	srv.Close()

	c, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = c.ListDevices(context.Background())
	if err == nil {
		t.Fatal("expected a transport error")
	}
	for _, sentinel := range []error{ErrHTTP, ErrEnvelope, ErrRemote, ErrConfiguration} {
		if errors.Is(err, sentinel) {
			t.Errorf("transport error matched %v", sentinel)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"success":true,"data":[]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListDevices(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
