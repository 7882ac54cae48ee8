package tor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid address", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", 30*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("unexpected proxy address: %s", client.ProxyAddress())
		}
	})

	t.Run("invalid addresses", func(t *testing.T) {
		t.Parallel()

		for _, addr := range []string{"", "no-port", "host:", ":9050", "host:0", "host:99999", "host:port", "a:b:c"} {
			if _, err := NewClient(addr, time.Second); err == nil {
				t.Errorf("expected error for address %q", addr)
			}
		}
	})
}

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:9150", true},
		{"tor:1", true},
		{"host:65535", true},
		{"host:65536", false},
		{"host:0", false},
		{"host", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isValidProxyAddress(tt.address); got != tt.want {
			t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestProxyStatus(t *testing.T) {
	t.Parallel()

	if ProxyStatusOK.String() != "OK" {
		t.Errorf("unexpected string: %s", ProxyStatusOK)
	}
	if ProxyStatusOK.Err() != nil {
		t.Error("OK status should have nil error")
	}
	if ProxyStatusWrongType.Err() != ErrProxyNotTor {
		t.Error("expected ErrProxyNotTor")
	}
	if ProxyStatusCannotConnect.Err() != ErrProxyCannotConnect {
		t.Error("expected ErrProxyCannotConnect")
	}
	if ProxyStatusTimeout.Err() != ErrProxyTimeout {
		t.Error("expected ErrProxyTimeout")
	}
}

func TestCheckConnection(t *testing.T) {
	t.Parallel()

	t.Run("cannot connect to missing proxy", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:59999", 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background()); status != ProxyStatusCannotConnect {
			t.Errorf("expected ProxyStatusCannotConnect, got %v", status)
		}
	})

	t.Run("wrong type for non-SOCKS5 server", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\n\r\n"))
		}()

		client, err := NewClient(listener.Addr().String(), 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background()); status != ProxyStatusWrongType {
			t.Errorf("expected ProxyStatusWrongType, got %v", status)
		}
	})

	t.Run("wrong type for SOCKS5 requiring auth", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte{0x05, 0xFF})
		}()

		client, err := NewClient(listener.Addr().String(), 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background()); status != ProxyStatusWrongType {
			t.Errorf("expected ProxyStatusWrongType, got %v", status)
		}
	})

	t.Run("ok for valid SOCKS5 proxy", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()

			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte{0x05, 0x00})

			connectBuf := make([]byte, 256)
			_, _ = conn.Read(connectBuf)
			// Host-unreachable reply still proves the proxy is real.
			_, _ = conn.Write([]byte{0x05, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		}()

		client, err := NewClient(listener.Addr().String(), 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background()); status != ProxyStatusOK {
			t.Errorf("expected ProxyStatusOK, got %v", status)
		}
	})
}

func TestNewSession(t *testing.T) {
	t.Parallel()

	t.Run("configures timeout and jar", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", 42*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		session := client.NewSession(SessionOptions{})
		if session.Timeout != 42*time.Second {
			t.Errorf("expected timeout 42s, got %v", session.Timeout)
		}
		if session.Jar == nil {
			t.Error("expected a cookie jar")
		}
	})

	t.Run("caps redirects", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		session := client.NewSession(SessionOptions{})

		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://x.onion/", nil)
		via := make([]*http.Request, 10)
		if err := session.CheckRedirect(req, via); err != http.ErrUseLastResponse {
			t.Errorf("expected ErrUseLastResponse after 10 redirects, got %v", err)
		}
		if err := session.CheckRedirect(req, via[:3]); err != nil {
			t.Errorf("expected nil for few redirects, got %v", err)
		}
	})
}

func TestHeaderInjectingTransport(t *testing.T) {
	t.Parallel()

	var gotCookie, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{
		Transport: &headerInjectingTransport{
			base:    http.DefaultTransport,
			cookie:  "session=abc",
			headers: map[string]string{"Authorization": "Bearer tok"},
		},
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if gotCookie != "session=abc" {
		t.Errorf("expected cookie injected, got %q", gotCookie)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected header injected, got %q", gotAuth)
	}
}
